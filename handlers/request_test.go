package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miniapp-shop-api/models"
)

func TestCategoryRequest_AbsentNullAndValue(t *testing.T) {
	var req categoryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Tea","parentId":null,"shopId":"4"}`), &req))
	in := req.input()

	assert.Equal(t, "Tea", *in.Name.Value)
	assert.False(t, in.ImageURL.Set, "absent key stays unset")
	assert.True(t, in.ParentID.Set)
	assert.Nil(t, in.ParentID.Value, "explicit null clears")
	require.NotNil(t, in.ShopID.Value)
	assert.Equal(t, uint(4), *in.ShopID.Value)
}

func TestCategoryRequest_EmptyStringClears(t *testing.T) {
	var req categoryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Tea","parentId":""}`), &req))
	in := req.input()
	assert.True(t, in.ParentID.Set)
	assert.Nil(t, in.ParentID.Value)
}

func TestProductRequest_StringNumbers(t *testing.T) {
	var req productRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Cake","price":"12.50","stock":"7","categoryId":"","shopId":2}`), &req))
	in := req.input()

	assert.Equal(t, "12.5", in.Price.String())
	require.NotNil(t, in.Stock)
	assert.Equal(t, 7, *in.Stock)
	assert.Nil(t, in.CategoryID)
	require.NotNil(t, in.ShopID)
	assert.Equal(t, uint(2), *in.ShopID)
}

func TestProductRequest_OmittedStockStaysNil(t *testing.T) {
	var req productRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Cake","price":3}`), &req))
	assert.Nil(t, req.input().Stock)
}

func TestFlexInt_RejectsGarbage(t *testing.T) {
	var req orderRequest
	err := json.Unmarshal([]byte(`{"items":[{"productId":1,"quantity":"two"}]}`), &req)
	assert.Error(t, err)
}

func TestRoleRequest(t *testing.T) {
	var withShops roleRequest
	require.NoError(t, json.Unmarshal([]byte(`{"role":"ADMIN","shopIds":[1,"2",0]}`), &withShops))
	in := withShops.input()
	assert.Equal(t, models.RoleAdmin, in.Role)
	assert.Equal(t, []uint{1, 2}, in.ShopIDs)

	var without roleRequest
	require.NoError(t, json.Unmarshal([]byte(`{"role":"COURIER"}`), &without))
	assert.Nil(t, without.input().ShopIDs, "omitted list keeps links untouched")
}

func TestAdminOrderRequest_Courier(t *testing.T) {
	var clear adminOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{"courierId":null}`), &clear))
	c := optID(clear.CourierID)
	assert.True(t, c.Set)
	assert.Nil(t, c.Value)

	var absent adminOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"CONFIRMED"}`), &absent))
	assert.False(t, optID(absent.CourierID).Set)
	assert.Equal(t, models.StatusConfirmed, *absent.Status)
}
