package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"miniapp-shop-api/models"
	"miniapp-shop-api/services"
)

// The Mini App frontend sends form values as they are typed, so numeric
// fields arrive as either numbers or strings and "" means "not chosen".

var jsonNull = []byte("null")

// flexUint accepts 3, "3", "" and null; the last two decode as zero.
type flexUint uint

func (f *flexUint) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*f = flexUint(n)
	return nil
}

// flexInt accepts 3, "3", "" and null; the last two decode as zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %s", b)
	}
	*f = flexInt(n)
	return nil
}

// optional records whether a key was present at all.
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, jsonNull) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o optional[T]) service() services.Optional[T] {
	return services.Optional[T]{Set: o.Set, Value: o.Value}
}

// optID converts an optional reference; 0 and "" clear it.
func optID(o optional[flexUint]) services.Optional[uint] {
	if !o.Set {
		return services.Optional[uint]{}
	}
	if o.Value == nil || *o.Value == 0 {
		return services.Null[uint]()
	}
	return services.Some(uint(*o.Value))
}

// idPtr is optID for create requests, where absent and cleared coincide.
func idPtr(v *flexUint) *uint {
	if v == nil || *v == 0 {
		return nil
	}
	id := uint(*v)
	return &id
}

type shopRequest struct {
	Name        optional[string]            `json:"name"`
	Description optional[string]            `json:"description"`
	ImageURL    optional[string]            `json:"imageUrl"`
	Status      optional[models.ShopStatus] `json:"status"`
}

func (r *shopRequest) input() services.ShopInput {
	return services.ShopInput{
		Name:        r.Name.service(),
		Description: r.Description.service(),
		ImageURL:    r.ImageURL.service(),
		Status:      r.Status.service(),
	}
}

type categoryRequest struct {
	Name     optional[string]   `json:"name"`
	ImageURL optional[string]   `json:"imageUrl"`
	ShopID   optional[flexUint] `json:"shopId"`
	ParentID optional[flexUint] `json:"parentId"`
}

func (r *categoryRequest) input() services.CategoryInput {
	return services.CategoryInput{
		Name:     r.Name.service(),
		ImageURL: r.ImageURL.service(),
		ShopID:   optID(r.ShopID),
		ParentID: optID(r.ParentID),
	}
}

type productRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *flexInt         `json:"stock"`
	ImageURLs   *string          `json:"imageUrls"`
	CategoryID  *flexUint        `json:"categoryId"`
	ShopID      *flexUint        `json:"shopId"`
}

func (r *productRequest) input() services.ProductInput {
	in := services.ProductInput{
		Title:       r.Title,
		Description: r.Description,
		ImageURLs:   r.ImageURLs,
		CategoryID:  idPtr(r.CategoryID),
		ShopID:      idPtr(r.ShopID),
	}
	if r.Price != nil {
		in.Price = *r.Price
	}
	if r.Stock != nil {
		stock := int(*r.Stock)
		in.Stock = &stock
	}
	return in
}

type orderRequest struct {
	Items []struct {
		ProductID flexUint `json:"productId"`
		Quantity  flexInt  `json:"quantity"`
	} `json:"items"`
	PaymentMethod  string  `json:"paymentMethod"`
	DeliveryMethod string  `json:"deliveryMethod"`
	Address        *string `json:"address"`
}

func (r *orderRequest) input() services.PlaceOrderInput {
	in := services.PlaceOrderInput{
		Items:          make([]services.OrderLine, len(r.Items)),
		PaymentMethod:  r.PaymentMethod,
		DeliveryMethod: r.DeliveryMethod,
		Address:        r.Address,
	}
	for i, it := range r.Items {
		in.Items[i] = services.OrderLine{ProductID: uint(it.ProductID), Quantity: int(it.Quantity)}
	}
	return in
}

type adminOrderRequest struct {
	Status    *models.OrderStatus `json:"status"`
	CourierID optional[flexUint]  `json:"courierId"`
}

type roleRequest struct {
	Role    models.Role `json:"role"`
	ShopIDs []flexUint  `json:"shopIds"`
}

func (r *roleRequest) input() services.RoleUpdate {
	in := services.RoleUpdate{Role: r.Role}
	if r.ShopIDs != nil {
		in.ShopIDs = make([]uint, 0, len(r.ShopIDs))
		for _, id := range r.ShopIDs {
			if id != 0 {
				in.ShopIDs = append(in.ShopIDs, uint(id))
			}
		}
	}
	return in
}
