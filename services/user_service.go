package services

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"miniapp-shop-api/apperr"
	"miniapp-shop-api/models"
	"miniapp-shop-api/repository"
	"miniapp-shop-api/telegram"
)

// DevTelegramID identifies the fixed development account.
const DevTelegramID = "dev_admin"

type UserService struct {
	store             *repository.Store
	presidentUsername string
	log               *zap.Logger
}

func NewUserService(store *repository.Store, presidentUsername string, log *zap.Logger) *UserService {
	return &UserService{store: store, presidentUsername: presidentUsername, log: log.Named("users")}
}

// IsPresidentHandle reports whether username is the configured bootstrap
// handle. Telegram usernames are case-insensitive.
func (s *UserService) IsPresidentHandle(username string) bool {
	return s.presidentUsername != "" && strings.EqualFold(username, s.presidentUsername)
}

// Authenticate creates or refreshes the user behind a verified initData.
// The bootstrap handle is forced to PRESIDENT on every login, overriding any
// role stored for it and dropping shop links left from an ADMIN role.
func (s *UserService) Authenticate(ctx context.Context, tu *telegram.WebAppUser) (*models.User, error) {
	u := &models.User{
		TelegramID: formatTelegramID(tu.ID),
		Name:       tu.FullName(),
		Username:   nonEmpty(tu.Username),
		PhotoURL:   nonEmpty(tu.PhotoURL),
		Role:       models.RoleClient,
	}
	cols := []string{"name", "username", "photo_url"}
	if s.IsPresidentHandle(tu.Username) {
		u.Role = models.RolePresident
		cols = append(cols, "role")
	}

	user, err := s.store.Users.Upsert(ctx, u, cols...)
	if err != nil {
		return nil, apperr.Internal("failed to save user", err)
	}
	if user.Role == models.RolePresident && len(user.AdminShops) > 0 {
		if err := s.store.Users.ClearAdminShops(ctx, user.ID); err != nil {
			return nil, apperr.Internal("failed to clear shop assignments", err)
		}
		user.AdminShops = nil
	}
	s.log.Info("user authenticated",
		zap.Uint("user_id", user.ID),
		zap.String("telegram_id", user.TelegramID),
		zap.String("role", string(user.Role)))
	return user, nil
}

// EnsureDevUser upserts the development account; it is created as ADMIN.
func (s *UserService) EnsureDevUser(ctx context.Context) (*models.User, error) {
	username := DevTelegramID
	user, err := s.store.Users.Upsert(ctx, &models.User{
		TelegramID: DevTelegramID,
		Name:       "Dev Admin",
		Username:   &username,
		Role:       models.RoleAdmin,
	}, "name", "username")
	if err != nil {
		return nil, apperr.Internal("failed to save dev user", err)
	}
	return user, nil
}

// ResolveTelegramID loads an existing user; unknown ids are unauthenticated.
func (s *UserService) ResolveTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	user, err := s.store.Users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperr.Unauthenticated("user not found")
	}
	return user, nil
}

func (s *UserService) ResolveID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperr.Unauthenticated("user not found")
	}
	return user, nil
}

// List returns every user to a PRESIDENT and only couriers to anyone else.
func (s *UserService) List(ctx context.Context, actor *models.User) ([]models.User, error) {
	var filter *models.Role
	if !actor.Can(models.CapabilityPresident) {
		courier := models.RoleCourier
		filter = &courier
	}
	users, err := s.store.Users.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("failed to list users", err)
	}
	return users, nil
}

type RoleUpdate struct {
	Role models.Role
	// ShopIDs is nil when the caller did not send a shop list.
	ShopIDs []uint
}

var assignableBy = map[models.Role][]models.Role{
	models.RolePresident: {models.RoleClient, models.RoleAdmin, models.RoleCourier},
	models.RoleAdmin:     {models.RoleCourier, models.RoleClient},
}

func canAssign(actor, role models.Role) bool {
	for _, r := range assignableBy[actor] {
		if r == role {
			return true
		}
	}
	return false
}

// UpdateRole changes a user's role and shop links. The role write and the
// link rewrite are separate statements.
func (s *UserService) UpdateRole(ctx context.Context, actor *models.User, targetID uint, in RoleUpdate) (*models.User, error) {
	switch actor.Role {
	case models.RolePresident:
		if !canAssign(actor.Role, in.Role) {
			return nil, apperr.Validation("invalid role %q", in.Role)
		}
	case models.RoleAdmin:
		if !canAssign(actor.Role, in.Role) {
			return nil, apperr.Forbidden("ADMIN may assign only COURIER or CLIENT")
		}
	default:
		return nil, apperr.Forbidden("insufficient permissions")
	}

	target, err := s.store.Users.GetByID(ctx, targetID)
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	if target == nil {
		return nil, apperr.NotFound("user #%d not found", targetID)
	}
	if target.Role == models.RolePresident {
		return nil, apperr.Forbidden("the PRESIDENT role cannot be changed")
	}
	if actor.Role == models.RoleAdmin && !canAssign(models.RoleAdmin, target.Role) {
		return nil, apperr.Forbidden("ADMIN may change only COURIER or CLIENT users")
	}

	rewriteLinks := in.Role == models.RoleAdmin && actor.Role == models.RolePresident && in.ShopIDs != nil
	if rewriteLinks && len(in.ShopIDs) > 0 {
		n, err := s.store.Shops.CountExisting(ctx, in.ShopIDs)
		if err != nil {
			return nil, apperr.Internal("failed to check shops", err)
		}
		if int(n) != len(uniqueIDs(in.ShopIDs)) {
			return nil, apperr.Validation("shopIds reference unknown shops")
		}
	}

	if err := s.store.Users.UpdateRole(ctx, targetID, in.Role); err != nil {
		return nil, apperr.Internal("failed to update role", err)
	}
	switch {
	case rewriteLinks:
		err = s.store.Users.ReplaceAdminShops(ctx, targetID, in.ShopIDs)
	case in.Role != models.RoleAdmin:
		err = s.store.Users.ClearAdminShops(ctx, targetID)
	}
	if err != nil {
		return nil, apperr.Internal("failed to update shop assignments", err)
	}

	s.log.Info("role changed",
		zap.Uint("actor_id", actor.ID),
		zap.Uint("user_id", targetID),
		zap.String("from", string(target.Role)),
		zap.String("to", string(in.Role)))

	updated, err := s.store.Users.GetByID(ctx, targetID)
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	return updated, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func formatTelegramID(id int64) string {
	return strconv.FormatInt(id, 10)
}
