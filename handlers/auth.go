package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"miniapp-shop-api/apperr"
	"miniapp-shop-api/models"
)

type authRequest struct {
	InitData string `json:"initData"`
}

// Authenticate verifies Telegram initData, upserts the user and issues a
// session token for the Bearer scheme.
func (h *Handler) Authenticate(c *gin.Context) {
	var req authRequest
	// An empty body is valid in dev mode.
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			h.respondError(c, err)
			return
		}
	}

	var (
		user *models.User
		err  error
	)
	if req.InitData == "" && h.DevMode {
		user, err = h.Users.EnsureDevUser(c.Request.Context())
	} else {
		tu, verr := h.Verifier.Verify(req.InitData)
		if verr != nil {
			h.log.Info("initData rejected", zap.Error(verr), zap.String("ip", c.ClientIP()))
			h.respondError(c, apperr.Unauthenticated("invalid Telegram data"))
			return
		}
		user, err = h.Users.Authenticate(c.Request.Context(), tu)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.Sessions.Issue(user)
	if err != nil {
		h.respondError(c, apperr.Internal("failed to issue session", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// GetProfile returns the authenticated user
func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": principal(c)})
}
