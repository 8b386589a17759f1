package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"miniapp-shop-api/models"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendMessage(ctx context.Context, chatID, text string) error {
	return m.Called(ctx, chatID, text).Error(0)
}

func TestTelegramNotifier_SwallowsErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sender := new(mockSender)
	sender.On("SendMessage", mock.Anything, "42", "hello").Return(errors.New("chat not found"))

	n := NewTelegramNotifier(sender, time.Second, zap.New(core))
	n.Notify(context.Background(), "42", "hello")

	sender.AssertExpectations(t)
	assert.Equal(t, 1, logs.FilterMessage("telegram message not delivered").Len())
}

func TestTelegramNotifier_SurvivesCancelledRequest(t *testing.T) {
	sender := new(mockSender)
	sender.On("SendMessage", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return ctx.Err() == nil && hasDeadline
	}), "7", "x").Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewTelegramNotifier(sender, time.Second, zap.NewNop()).Notify(ctx, "7", "x")
	sender.AssertExpectations(t)
}

func TestTelegramNotifier_SkipsEmptyChat(t *testing.T) {
	sender := new(mockSender)
	NewTelegramNotifier(sender, time.Second, zap.NewNop()).Notify(context.Background(), "", "x")
	sender.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestTemplates(t *testing.T) {
	addr := "Main st <5>"
	o := &models.Order{ID: 9, Total: decimal.NewFromInt(200), PaymentMethod: "cash", DeliveryMethod: "courier", Address: &addr}

	msg := OrderPlacedBuyer(o)
	assert.Contains(t, msg, "#9")
	assert.Contains(t, msg, "200.00")
	assert.Contains(t, msg, "Main st &lt;5&gt;")

	staff := OrderPlacedStaff(o, &models.User{Name: "Ann"})
	assert.Contains(t, staff, "Ann (no username)")

	assert.Empty(t, StatusChanged(9, models.StatusPending))
	assert.Contains(t, StatusChanged(9, models.StatusDelivering), "courier")
	assert.Contains(t, PaymentConfirmed(9), "#9")
}
