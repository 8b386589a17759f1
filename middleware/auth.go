package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"miniapp-shop-api/apperr"
	"miniapp-shop-api/models"
	"miniapp-shop-api/telegram"
)

const principalKey = "principal"

// PrincipalResolver loads the stored user behind a credential.
type PrincipalResolver interface {
	ResolveTelegramID(ctx context.Context, telegramID string) (*models.User, error)
	ResolveID(ctx context.Context, id uint) (*models.User, error)
	EnsureDevUser(ctx context.Context) (*models.User, error)
}

type AuthOptions struct {
	// LegacyHeader honours the deprecated X-Telegram-Id header.
	LegacyHeader bool
	DevMode      bool
}

// Authenticator resolves the caller of a protected route.
type Authenticator struct {
	verifier *telegram.Verifier
	sessions *SessionManager
	users    PrincipalResolver
	opts     AuthOptions
	log      *zap.Logger
}

func NewAuthenticator(verifier *telegram.Verifier, sessions *SessionManager, users PrincipalResolver, opts AuthOptions, log *zap.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, sessions: sessions, users: users, opts: opts, log: log.Named("auth")}
}

// Required accepts, in order: "Authorization: tma <initData>",
// "Authorization: Bearer <session>", the legacy X-Telegram-Id header when
// enabled, and finally the dev identity when dev mode is on.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.resolve(c)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(principalKey, user)
		c.Next()
	}
}

func (a *Authenticator) resolve(c *gin.Context) (*models.User, error) {
	ctx := c.Request.Context()
	header := c.GetHeader("Authorization")

	switch {
	case strings.HasPrefix(header, "tma "):
		tu, err := a.verifier.Verify(strings.TrimPrefix(header, "tma "))
		if err != nil {
			a.log.Debug("initData rejected", zap.Error(err))
			return nil, apperr.Unauthenticated("invalid Telegram data signature")
		}
		return a.users.ResolveTelegramID(ctx, formatID(tu.ID))

	case strings.HasPrefix(header, "Bearer "):
		claims, err := a.sessions.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return nil, apperr.Unauthenticated("invalid or expired session token")
		}
		return a.users.ResolveID(ctx, claims.UserID)

	case header != "":
		return nil, apperr.Unauthenticated("unsupported Authorization scheme")
	}

	if legacy := c.GetHeader("X-Telegram-Id"); legacy != "" && a.opts.LegacyHeader {
		c.Header("Deprecation", "true")
		a.log.Warn("deprecated X-Telegram-Id header used",
			zap.String("telegram_id", legacy),
			zap.String("ip", c.ClientIP()))
		return a.users.ResolveTelegramID(ctx, legacy)
	}

	if a.opts.DevMode {
		return a.users.EnsureDevUser(ctx)
	}
	return nil, apperr.Unauthenticated("missing Authorization header")
}

func requireCapability(need models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortWithError(c, apperr.Unauthenticated("authentication required"))
			return
		}
		if !user.Can(need) {
			abortWithError(c, apperr.Forbidden("access denied: requires %s role", need))
			return
		}
		c.Next()
	}
}

// RequirePresident admits PRESIDENT only.
func RequirePresident() gin.HandlerFunc { return requireCapability(models.CapabilityPresident) }

// RequireAdmin admits ADMIN and PRESIDENT.
func RequireAdmin() gin.HandlerFunc { return requireCapability(models.CapabilityAdmin) }

// RequireCourier admits COURIER, ADMIN and PRESIDENT.
func RequireCourier() gin.HandlerFunc { return requireCapability(models.CapabilityCourier) }

// CurrentUser returns the principal attached by Required, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// GetUserID extracts caller user ID from context; 0 when anonymous.
func GetUserID(c *gin.Context) uint {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

func abortWithError(c *gin.Context, err error) {
	status, body := apperr.HTTP(err)
	c.AbortWithStatusJSON(status, body)
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
