package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleCapabilities(t *testing.T) {
	cases := []struct {
		role                        Role
		courier, admin, president bool
	}{
		{RoleClient, false, false, false},
		{RoleCourier, true, false, false},
		{RoleAdmin, true, true, false},
		{RolePresident, true, true, true},
		{Role("GUEST"), false, false, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.courier, tc.role.Can(CapabilityCourier), "%s courier", tc.role)
		assert.Equal(t, tc.admin, tc.role.Can(CapabilityAdmin), "%s admin", tc.role)
		assert.Equal(t, tc.president, tc.role.Can(CapabilityPresident), "%s president", tc.role)
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("COURIER")
	assert.True(t, ok)
	assert.Equal(t, RoleCourier, r)

	_, ok = ParseRole("courier")
	assert.False(t, ok)
}

func TestUserShopScope(t *testing.T) {
	u := &User{Role: RoleAdmin, AdminShops: []AdminShop{{ShopID: 3}, {ShopID: 7}}}
	assert.Equal(t, []uint{3, 7}, u.AdminShopIDs())
	assert.True(t, u.HasShop(7))
	assert.False(t, u.HasShop(1))

	var nilUser *User
	assert.False(t, nilUser.Can(CapabilityCourier))
}

func TestDecimalMarshalsAsNumber(t *testing.T) {
	raw, err := json.Marshal(Product{Title: "Tea", Price: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":12.5`)
}
