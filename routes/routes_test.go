package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"miniapp-shop-api/config"
	"miniapp-shop-api/handlers"
	"miniapp-shop-api/middleware"
	"miniapp-shop-api/models"
	"miniapp-shop-api/notify"
	"miniapp-shop-api/repository"
	"miniapp-shop-api/services"
	"miniapp-shop-api/storage"
	"miniapp-shop-api/telegram"
	"miniapp-shop-api/testutil"
)

const botToken = "123:test"

type stubInvoicer struct{ got telegram.Invoice }

func (s *stubInvoicer) CreateInvoiceLink(_ context.Context, inv telegram.Invoice) (string, error) {
	s.got = inv
	return "https://t.me/$invoice", nil
}

type server struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	sessions *middleware.SessionManager
	verifier *telegram.Verifier
	invoicer *stubInvoicer
}

func newServer(t *testing.T, devMode bool) *server {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	log := zap.NewNop()

	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	users := services.NewUserService(store, "asg_1f", log)
	verifier := telegram.NewVerifier(botToken, 0)
	sessions := middleware.NewSessionManager([]byte("test"), time.Hour)
	invoicer := &stubInvoicer{}

	h := handlers.New(handlers.Deps{
		Users:    users,
		Catalog:  services.NewCatalogService(store, services.ShopScope{Policy: config.ScopeSubstitute}, log),
		Orders:   services.NewOrderService(store, notify.Nop{}, invoicer, log),
		Verifier: verifier,
		Sessions: sessions,
		Storage:  local,
		Log:      log,
		DevMode:  devMode,

		MaxUploadBytes: 64 << 10,
	})

	r := gin.New()
	SetupRoutes(r, h, Options{
		Auth:        middleware.NewAuthenticator(verifier, sessions, users, middleware.AuthOptions{DevMode: devMode}, log),
		AuthLimiter: middleware.NewIPRateLimiter(100, 100),
		UploadDir:   local.Dir(),
	})
	return &server{t: t, db: db, router: r, sessions: sessions, verifier: verifier, invoicer: invoicer}
}

func (s *server) token(u *models.User) string {
	tok, err := s.sessions.Issue(u)
	require.NoError(s.t, err)
	return tok
}

// do sends body as JSON with a Bearer token for u (nil for anonymous).
func (s *server) do(method, path string, u *models.User, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(u))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuth_InitDataIssuesSession(t *testing.T) {
	s := newServer(t, false)
	initData := s.verifier.Sign(url.Values{
		"user":      {`{"id":555,"first_name":"Boss","username":"ASG_1F"}`},
		"auth_date": {"1700000000"},
	})

	w := s.do(http.MethodPost, "/api/auth", nil, map[string]string{"initData": initData})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}](t, w)
	assert.Equal(t, models.RolePresident, resp.User.Role)
	assert.NotEmpty(t, resp.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	me := httptest.NewRecorder()
	s.router.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"telegramId":"555"`)
}

func TestAuth_Rejections(t *testing.T) {
	s := newServer(t, false)

	w := s.do(http.MethodPost, "/api/auth", nil, map[string]string{"initData": "user=x&hash=abcd"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "no dev bypass outside dev mode")

	w = s.do(http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestAuth_DevModeBypass(t *testing.T) {
	s := newServer(t, true)
	w := s.do(http.MethodPost, "/api/auth", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"telegramId":"dev_admin"`)
	assert.Contains(t, w.Body.String(), `"role":"ADMIN"`)
}

func TestGuards(t *testing.T) {
	s := newServer(t, false)
	client := testutil.CreateUser(t, s.db, "1", models.RoleClient)
	courier := testutil.CreateUser(t, s.db, "2", models.RoleCourier)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/products", client, map[string]any{"title": "x", "price": 1}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/courier/orders", client, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/courier/orders", courier, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/orders/all", courier, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/orders", nil, nil).Code)
}

func TestOrderLifecycle(t *testing.T) {
	s := newServer(t, false)
	shop := testutil.CreateShop(t, s.db, "Bakery")
	president := testutil.CreateUser(t, s.db, "10", models.RolePresident)
	admin := testutil.CreateUser(t, s.db, "11", models.RoleAdmin, shop.ID)
	courier := testutil.CreateUser(t, s.db, "12", models.RoleCourier)
	buyer := testutil.CreateUser(t, s.db, "13", models.RoleClient)

	// The frontend posts numbers as strings.
	w := s.do(http.MethodPost, "/api/products", admin, `{"title":"Cake","price":"100","stock":"5","categoryId":""}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[models.Product](t, w)
	require.NotNil(t, product.ShopID)
	assert.Equal(t, shop.ID, *product.ShopID, "admin products land in the assigned shop")

	w = s.do(http.MethodPost, "/api/orders", buyer, map[string]any{
		"items":          []map[string]any{{"productId": product.ID, "quantity": 2}},
		"paymentMethod":  "stars",
		"deliveryMethod": "courier",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.Order](t, w)
	assert.Equal(t, "200", order.Total.String())
	assert.Equal(t, models.StatusPending, order.Status)

	w = s.do(http.MethodGet, "/api/products/"+itoa(product.ID), nil, nil)
	assert.Equal(t, 3, decode[models.Product](t, w).Stock)

	w = s.do(http.MethodPost, "/api/orders", buyer, map[string]any{
		"items":          []map[string]any{{"productId": product.ID, "quantity": 4}},
		"paymentMethod":  "stars",
		"deliveryMethod": "courier",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `insufficient stock for \"Cake\": 3 left`)

	w = s.do(http.MethodPut, "/api/orders/"+itoa(order.ID)+"/admin", president, map[string]any{"courierId": buyer.ID})
	assert.Equal(t, http.StatusConflict, w.Code, "buyer is not a courier")

	w = s.do(http.MethodPut, "/api/orders/"+itoa(order.ID)+"/admin", president, map[string]any{"courierId": courier.ID, "status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/courier/orders", courier, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Order](t, w), 1)

	w = s.do(http.MethodPut, "/api/courier/orders/"+itoa(order.ID)+"/status", courier, map[string]string{"status": "COMPLETED"})
	assert.Equal(t, http.StatusConflict, w.Code, "courier cannot skip DELIVERING")

	for _, status := range []string{"DELIVERING", "COMPLETED"} {
		w = s.do(http.MethodPut, "/api/courier/orders/"+itoa(order.ID)+"/status", courier, map[string]string{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = s.do(http.MethodGet, "/api/orders", buyer, nil)
	mine := decode[[]models.Order](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, models.StatusCompleted, mine[0].Status)

	w = s.do(http.MethodGet, "/api/orders/"+itoa(order.ID)+"/history", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[struct {
		History []models.OrderStatusHistory `json:"history"`
	}](t, w)
	assert.Len(t, history.History, 4)
}

func TestInvoiceAndPay(t *testing.T) {
	s := newServer(t, false)
	buyer := testutil.CreateUser(t, s.db, "20", models.RoleClient)
	other := testutil.CreateUser(t, s.db, "21", models.RoleClient)
	p := testutil.CreateProduct(t, s.db, "Tea", "9.20", 10, nil)

	w := s.do(http.MethodPost, "/api/orders", buyer, map[string]any{
		"items":          []map[string]any{{"productId": p.ID, "quantity": "1"}},
		"paymentMethod":  "stars",
		"deliveryMethod": "pickup",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.Order](t, w)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/orders/"+itoa(order.ID)+"/invoice", other, nil).Code)

	w = s.do(http.MethodPost, "/api/orders/"+itoa(order.ID)+"/invoice", buyer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"invoiceLink":"https://t.me/$invoice"}`, w.Body.String())
	assert.Equal(t, int64(10), s.invoicer.got.Prices[0].Amount)

	for i := 0; i < 2; i++ {
		w = s.do(http.MethodPost, "/api/orders/"+itoa(order.ID)+"/pay", buyer, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		paid := decode[models.Order](t, w)
		assert.Equal(t, models.StatusConfirmed, paid.Status)
		assert.True(t, paid.PaymentUnverified)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newServer(t, false)
	president := testutil.CreateUser(t, s.db, "30", models.RolePresident)

	w := s.do(http.MethodPost, "/api/shops", president, map[string]string{"name": "Flowers"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	shop := decode[models.Shop](t, w)

	w = s.do(http.MethodPost, "/api/categories", president, map[string]any{"name": "Roses", "shopId": shop.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	category := decode[models.Category](t, w)

	w = s.do(http.MethodPut, "/api/categories/"+itoa(category.ID), president, map[string]any{"name": "Roses", "parentId": category.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code, "a category cannot be its own parent")

	w = s.do(http.MethodDelete, "/api/shops/"+itoa(shop.ID), president, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/categories?shopId="+itoa(shop.ID), nil, nil)
	assert.Len(t, decode[[]models.Category](t, w), 1)

	testutil.CreateProduct(t, s.db, "Sold out", "5", 0, &shop.ID)
	assert.Len(t, decode[[]models.Product](t, s.do(http.MethodGet, "/api/products", nil, nil)), 0)
	assert.Len(t, decode[[]models.Product](t, s.do(http.MethodGet, "/api/products?all=true", nil, nil)), 1)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/products?shopId=abc", nil, nil).Code)

	w = s.do(http.MethodDelete, "/api/categories/"+itoa(category.ID), president, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestUsersEndpoints(t *testing.T) {
	s := newServer(t, false)
	shop := testutil.CreateShop(t, s.db, "Bakery")
	president := testutil.CreateUser(t, s.db, "40", models.RolePresident)
	admin := testutil.CreateUser(t, s.db, "41", models.RoleAdmin, shop.ID)
	client := testutil.CreateUser(t, s.db, "42", models.RoleClient)

	w := s.do(http.MethodPut, "/api/users/"+itoa(client.ID)+"/role", admin, map[string]string{"role": "ADMIN"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/api/users/"+itoa(client.ID)+"/role", admin, map[string]string{"role": "COURIER"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/users", admin, nil)
	users := decode[[]models.User](t, w)
	require.Len(t, users, 1)
	assert.Equal(t, client.ID, users[0].ID)

	w = s.do(http.MethodPut, "/api/users/"+itoa(client.ID)+"/role", president, map[string]any{"role": "ADMIN", "shopIds": []uint{shop.ID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.User](t, w)
	assert.Equal(t, []uint{shop.ID}, updated.AdminShopIDs())

	w = s.do(http.MethodGet, "/api/users", president, nil)
	assert.Len(t, decode[[]models.User](t, w), 3)
}

func (s *server) upload(u *models.User, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(s.t, err)
	_, err = part.Write(content)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Host = "shop.example"
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(u))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func TestUpload(t *testing.T) {
	s := newServer(t, false)
	admin := testutil.CreateUser(t, s.db, "50", models.RoleAdmin)

	// The stored extension follows the bytes, not the client's file name.
	w := s.upload(admin, "photo.jpeg", []byte(pngHeader+"rest"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[map[string]string](t, w)
	assert.True(t, strings.HasPrefix(resp["url"], "http://shop.example/uploads/"), resp["url"])
	assert.True(t, strings.HasSuffix(resp["url"], ".png"), resp["url"])

	served := httptest.NewRecorder()
	s.router.ServeHTTP(served, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(resp["url"], "http://shop.example"), nil))
	assert.Equal(t, http.StatusOK, served.Code)
}

func TestUpload_Rejections(t *testing.T) {
	s := newServer(t, false)
	admin := testutil.CreateUser(t, s.db, "51", models.RoleAdmin)

	w := s.upload(admin, "photo.png", []byte("#!/bin/sh\nrm -rf /\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code, "a script renamed to .png is refused")

	big := append([]byte(pngHeader), bytes.Repeat([]byte{0}, 128<<10)...)
	w = s.upload(admin, "huge.png", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestHealthAndStateMachine(t *testing.T) {
	s := newServer(t, false)
	w := s.do(http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = s.do(http.MethodGet, "/api/state-machine", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[struct {
		Terminal []models.OrderStatus `json:"terminalStates"`
	}](t, w)
	assert.ElementsMatch(t, []models.OrderStatus{models.StatusCompleted, models.StatusCancelled}, info.Terminal)
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
