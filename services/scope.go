package services

import (
	"miniapp-shop-api/apperr"
	"miniapp-shop-api/config"
	"miniapp-shop-api/models"
)

// ShopScope applies the ADMIN shop restriction to catalog writes. Other
// roles that pass the admin guard are never scoped.
type ShopScope struct {
	Policy config.ShopScopePolicy
}

// Resolve returns the shop a new or edited item ends up in.
func (s ShopScope) Resolve(actor *models.User, requested *uint) (*uint, error) {
	if actor.Role != models.RoleAdmin {
		return requested, nil
	}
	ids := actor.AdminShopIDs()
	if len(ids) == 0 {
		return nil, apperr.Forbidden("no shops are assigned to you")
	}
	first := ids[0]
	if requested == nil {
		return &first, nil
	}
	if actor.HasShop(*requested) {
		return requested, nil
	}
	if s.Policy == config.ScopeReject {
		return nil, apperr.Forbidden("shop #%d is outside your assigned shops", *requested)
	}
	return &first, nil
}

// CanManage checks an ADMIN may touch an item currently in shop current.
// Items without a shop are editable by every admin.
func (s ShopScope) CanManage(actor *models.User, current *uint) error {
	if actor.Role != models.RoleAdmin || current == nil {
		return nil
	}
	if !actor.HasShop(*current) {
		return apperr.Forbidden("shop #%d is outside your assigned shops", *current)
	}
	return nil
}

// CanReference checks an ADMIN may point at something owned by shopID.
// Only the reject policy turns a foreign shop into a 403.
func (s ShopScope) CanReference(actor *models.User, shopID uint) error {
	if actor.Role != models.RoleAdmin || s.Policy != config.ScopeReject || actor.HasShop(shopID) {
		return nil
	}
	return apperr.Forbidden("shop #%d is outside your assigned shops", shopID)
}
