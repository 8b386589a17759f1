// Package handlers adapts the HTTP surface to the services layer.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"miniapp-shop-api/apperr"
	"miniapp-shop-api/middleware"
	"miniapp-shop-api/models"
	"miniapp-shop-api/services"
	"miniapp-shop-api/storage"
	"miniapp-shop-api/telegram"
)

// Deps wires the handlers to their collaborators.
type Deps struct {
	Users    *services.UserService
	Catalog  *services.CatalogService
	Orders   *services.OrderService
	Verifier *telegram.Verifier
	Sessions *middleware.SessionManager
	Storage  storage.Provider
	Log      *zap.Logger

	DevMode bool
	// PublicBaseURL prefixes site-relative upload URLs; when empty the
	// request's own scheme and host are used.
	PublicBaseURL string
	// MaxUploadBytes caps POST /api/upload bodies; 0 means 10 MiB.
	MaxUploadBytes int64
}

type Handler struct {
	Deps
	log *zap.Logger
}

func New(d Deps) *Handler {
	return &Handler{Deps: d, log: d.Log.Named("http")}
}

// respondError writes err as {error, details?} with the status of its kind.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, body := apperr.HTTP(err)
	if status >= 500 {
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the body; decode failures are validation errors.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Validation("invalid request body").WithDetails(err.Error())
	}
	return nil
}

func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s %q", name, c.Param(name))
	}
	return uint(id), nil
}

func queryID(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperr.Validation("invalid %s %q", name, raw)
	}
	v := uint(id)
	return &v, nil
}

func principal(c *gin.Context) *models.User { return middleware.CurrentUser(c) }
