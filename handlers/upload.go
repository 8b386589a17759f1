package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"miniapp-shop-api/apperr"
	"miniapp-shop-api/storage"
)

const defaultMaxUploadBytes = 10 << 20

// UploadImage stores the multipart field "image" and returns its public URL.
// The file type comes from its content, not its name.
func (h *Handler) UploadImage(c *gin.Context) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	fh, err := c.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.respondError(c, apperr.TooLarge("upload exceeds %d bytes", limit))
			return
		}
		h.respondError(c, apperr.Validation("no file uploaded"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.respondError(c, apperr.Internal("failed to read upload", err))
		return
	}
	defer f.Close()

	contentType, ext, err := storage.DetectImage(f)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			h.respondError(c, apperr.Validation("%s", err.Error()))
			return
		}
		h.respondError(c, apperr.Internal("failed to read upload", err))
		return
	}

	url, err := h.Storage.Save(c.Request.Context(), f, "image"+ext, contentType)
	if err != nil {
		h.respondError(c, apperr.Internal("failed to store upload", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.absoluteURL(c, url)})
}

func (h *Handler) absoluteURL(c *gin.Context, url string) string {
	if !strings.HasPrefix(url, "/") {
		return url
	}
	if h.PublicBaseURL != "" {
		return strings.TrimRight(h.PublicBaseURL, "/") + url
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + url
}
