package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"miniapp-shop-api/config"
	"miniapp-shop-api/repository"
	"miniapp-shop-api/telegram"
	"miniapp-shop-api/testutil"
)

type sentMessage struct {
	ChatID string
	Text   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Notify(_ context.Context, chatID, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{chatID, text})
}

func (n *recordingNotifier) to(chatID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

type mockInvoicer struct {
	mock.Mock
}

func (m *mockInvoicer) CreateInvoiceLink(ctx context.Context, inv telegram.Invoice) (string, error) {
	args := m.Called(ctx, inv)
	return args.String(0), args.Error(1)
}

type fixture struct {
	db       *gorm.DB
	store    *repository.Store
	notifier *recordingNotifier
	invoicer *mockInvoicer
	users    *UserService
	catalog  *CatalogService
	orders   *OrderService
}

func newFixture(t *testing.T, policy config.ShopScopePolicy) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	f := &fixture{
		db:       db,
		store:    store,
		notifier: &recordingNotifier{},
		invoicer: new(mockInvoicer),
	}
	log := zap.NewNop()
	f.users = NewUserService(store, "asg_1f", log)
	f.catalog = NewCatalogService(store, ShopScope{Policy: policy}, log)
	f.orders = NewOrderService(store, f.notifier, f.invoicer, log)
	return f
}

func (f *fixture) reloadStock(t *testing.T, id uint) int {
	t.Helper()
	p, err := f.store.Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}
