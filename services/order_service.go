package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"miniapp-shop-api/apperr"
	"miniapp-shop-api/models"
	"miniapp-shop-api/notify"
	"miniapp-shop-api/repository"
	"miniapp-shop-api/statemachine"
	"miniapp-shop-api/telegram"
)

// Invoicer creates Telegram Stars payment links.
type Invoicer interface {
	CreateInvoiceLink(ctx context.Context, inv telegram.Invoice) (string, error)
}

type OrderService struct {
	store    *repository.Store
	notifier notify.Notifier
	invoicer Invoicer
	log      *zap.Logger
}

func NewOrderService(store *repository.Store, notifier notify.Notifier, invoicer Invoicer, log *zap.Logger) *OrderService {
	return &OrderService{store: store, notifier: notifier, invoicer: invoicer, log: log.Named("orders")}
}

type OrderLine struct {
	ProductID uint
	Quantity  int
}

type PlaceOrderInput struct {
	Items          []OrderLine
	PaymentMethod  string
	DeliveryMethod string
	Address        *string
}

func (in PlaceOrderInput) validate() error {
	if len(in.Items) == 0 || strings.TrimSpace(in.PaymentMethod) == "" || strings.TrimSpace(in.DeliveryMethod) == "" {
		return apperr.Validation("items, paymentMethod and deliveryMethod are required")
	}
	for _, line := range in.Items {
		if line.ProductID == 0 {
			return apperr.Validation("every item needs a productId")
		}
		if line.Quantity < 1 {
			return apperr.Validation("quantity for product #%d must be at least 1", line.ProductID)
		}
	}
	return nil
}

// PlaceOrder validates stock, decrements it and records the order in one
// transaction. Stock is taken with a conditional UPDATE, so concurrent
// buyers can never drive it below zero.
func (s *OrderService) PlaceOrder(ctx context.Context, buyer *models.User, in PlaceOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	demand := make(map[uint]int, len(in.Items))
	for _, line := range in.Items {
		demand[line.ProductID] += line.Quantity
	}
	// fixed lock order across concurrent placements
	ids := make([]uint, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var order *models.Order
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		products, err := tx.Products.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, line := range in.Items {
			if _, ok := products[line.ProductID]; !ok {
				return apperr.Validation("product #%d not found", line.ProductID)
			}
		}
		for _, id := range ids {
			if p := products[id]; p.Stock < demand[id] {
				return insufficientStock(p.Title, p.Stock)
			}
		}

		for _, id := range ids {
			ok, err := tx.Products.DecrementStock(ctx, id, demand[id])
			if err != nil {
				return err
			}
			if !ok {
				left := 0
				if fresh, err := tx.Products.GetByID(ctx, id); err == nil && fresh != nil {
					left = fresh.Stock
				}
				return insufficientStock(products[id].Title, left)
			}
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(in.Items))
		for _, line := range in.Items {
			p := products[line.ProductID]
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			items = append(items, models.OrderItem{ProductID: p.ID, Quantity: line.Quantity, Price: p.Price})
		}

		order = &models.Order{
			UserID:         buyer.ID,
			Status:         models.StatusPending,
			PaymentMethod:  strings.TrimSpace(in.PaymentMethod),
			DeliveryMethod: strings.TrimSpace(in.DeliveryMethod),
			Address:        blankToNil(in.Address),
			Total:          total,
			Items:          items,
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		return tx.Orders.AddHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: buyer.ID,
			Note:      "order placed",
		})
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apperr.Internal("failed to create order", err)
	}

	s.log.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", buyer.ID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("payment", order.PaymentMethod),
		zap.String("delivery", order.DeliveryMethod))

	placed, err := s.load(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.notifyPlaced(ctx, buyer, placed)
	return placed, nil
}

func insufficientStock(title string, left int) *apperr.Error {
	return apperr.Conflict("insufficient stock for %q: %d left", title, left).
		WithDetails(map[string]any{"product": title, "stock": left})
}

func (s *OrderService) notifyPlaced(ctx context.Context, buyer *models.User, o *models.Order) {
	s.notifier.Notify(ctx, buyer.TelegramID, notify.OrderPlacedBuyer(o))

	president := models.RolePresident
	staff, err := s.store.Users.List(ctx, &president)
	if err != nil {
		s.log.Warn("cannot load presidents for notification", zap.Uint("order_id", o.ID), zap.Error(err))
		return
	}
	msg := notify.OrderPlacedStaff(o, buyer)
	for _, u := range staff {
		s.notifier.Notify(ctx, u.TelegramID, msg)
	}
}

func (s *OrderService) notifyStatus(ctx context.Context, o *models.Order) {
	if o.User == nil {
		return
	}
	if msg := notify.StatusChanged(o.ID, o.Status); msg != "" {
		s.notifier.Notify(ctx, o.User.TelegramID, msg)
	}
}

func (s *OrderService) load(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load order", err)
	}
	if order == nil {
		return nil, apperr.NotFound("order #%d not found", id)
	}
	return order, nil
}

// transition moves order to status with a compare-and-set on its current
// status and writes the history row in the same transaction.
func (s *OrderService) transition(ctx context.Context, order *models.Order, actor *models.User, fields map[string]any, to models.OrderStatus, note string) error {
	statusChanged := to != "" && to != order.Status
	if statusChanged {
		fields["status"] = to
	}
	if len(fields) == 0 {
		return nil
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.Orders.UpdateIfStatus(ctx, order.ID, order.Status, fields)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("order #%d was changed by someone else, reload and retry", order.ID)
		}
		if !statusChanged {
			return nil
		}
		return tx.Orders.AddHistory(ctx, &models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: order.Status,
			ToStatus:   to,
			ChangedBy:  actor.ID,
			Note:       note,
		})
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return apperr.Internal("failed to update order", err)
	}
	if statusChanged {
		s.log.Info("order status changed",
			zap.Uint("order_id", order.ID),
			zap.String("from", string(order.Status)),
			zap.String("to", string(to)),
			zap.Uint("actor_id", actor.ID))
	}
	return nil
}

type AdminUpdateInput struct {
	Status  *models.OrderStatus
	Courier Optional[uint]
}

// AdminUpdate sets status and/or courier. Admins may set any status; moves
// outside the transition table are applied and flagged in the history.
func (s *OrderService) AdminUpdate(ctx context.Context, actor *models.User, id uint, in AdminUpdateInput) (*models.Order, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", *in.Status)
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Courier.Set {
		if in.Courier.Value == nil {
			fields["courier_id"] = nil
		} else {
			courier, err := s.store.Users.GetByID(ctx, *in.Courier.Value)
			if err != nil {
				return nil, apperr.Internal("failed to load courier", err)
			}
			if courier == nil || courier.Role != models.RoleCourier {
				return nil, apperr.Conflict("user #%d is not a courier", *in.Courier.Value)
			}
			fields["courier_id"] = courier.ID
		}
	}

	var to models.OrderStatus
	note := ""
	if in.Status != nil {
		to = *in.Status
		if to != order.Status && !statemachine.Allowed(order.Status, to, statemachine.ActorAdmin) {
			note = fmt.Sprintf("[ADMIN OVERRIDE] %s -> %s is outside the transition table", order.Status, to)
			s.log.Warn("admin status override",
				zap.Uint("order_id", order.ID),
				zap.String("from", string(order.Status)),
				zap.String("to", string(to)),
				zap.Uint("actor_id", actor.ID))
		}
	}

	if err := s.transition(ctx, order, actor, fields, to, note); err != nil {
		return nil, err
	}
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if to != "" && to != order.Status {
		s.notifyStatus(ctx, updated)
	}
	return updated, nil
}

var courierTargets = map[models.OrderStatus]bool{
	models.StatusConfirmed:  true,
	models.StatusDelivering: true,
	models.StatusCompleted:  true,
}

// CourierUpdateStatus moves an order forward on behalf of a courier. Taking
// an order into CONFIRMED or DELIVERING assigns it to the acting user.
func (s *OrderService) CourierUpdateStatus(ctx context.Context, actor *models.User, id uint, to models.OrderStatus) (*models.Order, error) {
	if !courierTargets[to] {
		return nil, apperr.Validation("invalid status %q, expected CONFIRMED, DELIVERING or COMPLETED", to)
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleCourier && order.CourierID != nil && *order.CourierID != actor.ID {
		return nil, apperr.Forbidden("order #%d is assigned to another courier", id)
	}
	if err := statemachine.CanTransition(order.Status, to, statemachine.ActorCourier); err != nil {
		return nil, apperr.Conflict("%s", err.Error())
	}

	fields := map[string]any{}
	if to == models.StatusConfirmed || to == models.StatusDelivering {
		fields["courier_id"] = actor.ID
	}
	if err := s.transition(ctx, order, actor, fields, to, ""); err != nil {
		return nil, err
	}
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, updated)
	return updated, nil
}

// CourierOrders lists open orders: couriers see their own, admins all.
func (s *OrderService) CourierOrders(ctx context.Context, actor *models.User) ([]models.Order, error) {
	filter := repository.OrderFilter{
		Statuses: []models.OrderStatus{models.StatusPending, models.StatusConfirmed, models.StatusDelivering},
	}
	if actor.Role == models.RoleCourier {
		filter.CourierID = &actor.ID
	}
	orders, err := s.store.Orders.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("failed to list courier orders", err)
	}
	return orders, nil
}

func (s *OrderService) ListMine(ctx context.Context, buyer *models.User) ([]models.Order, error) {
	orders, err := s.store.Orders.List(ctx, repository.OrderFilter{UserID: &buyer.ID})
	if err != nil {
		return nil, apperr.Internal("failed to list orders", err)
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.Orders.List(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, apperr.Internal("failed to list orders", err)
	}
	return orders, nil
}

// History returns the audit trail of one order.
func (s *OrderService) History(ctx context.Context, id uint) ([]models.OrderStatusHistory, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.store.Orders.History(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load order history", err)
	}
	return rows, nil
}

// Get returns one order to its buyer or to staff.
func (s *OrderService) Get(ctx context.Context, actor *models.User, id uint) (*models.Order, error) {
	if actor.Can(models.CapabilityAdmin) {
		return s.load(ctx, id)
	}
	return s.owned(ctx, actor, id)
}

func (s *OrderService) owned(ctx context.Context, buyer *models.User, id uint) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != buyer.ID {
		return nil, apperr.Forbidden("access denied")
	}
	return order, nil
}

// CreateInvoice returns a Stars payment link; one star per started unit of
// the order total.
func (s *OrderService) CreateInvoice(ctx context.Context, buyer *models.User, id uint) (string, error) {
	order, err := s.owned(ctx, buyer, id)
	if err != nil {
		return "", err
	}
	if order.Status != models.StatusPending {
		return "", apperr.Conflict("order #%d is %s, only PENDING orders can be paid", id, order.Status)
	}

	stars := order.Total.Ceil().IntPart()
	link, err := s.invoicer.CreateInvoiceLink(ctx, telegram.Invoice{
		Title:       fmt.Sprintf("Payment for order #%d", order.ID),
		Description: fmt.Sprintf("Payment for order #%d in the Mini App", order.ID),
		Payload:     fmt.Sprintf("order_%d", order.ID),
		Prices:      []telegram.LabeledPrice{{Label: "Total", Amount: stars}},
	})
	if err != nil {
		s.log.Error("invoice creation failed", zap.Uint("order_id", order.ID), zap.Error(err))
		ae := apperr.Internal("failed to create invoice", err)
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) {
			ae.Details = apiErr.Description
		}
		return "", ae
	}
	return link, nil
}

// ConfirmUnverifiedPayment trusts the client's report that a Stars payment
// succeeded. Nothing is checked against Telegram; the order is flagged
// PaymentUnverified so staff can tell.
func (s *OrderService) ConfirmUnverifiedPayment(ctx context.Context, buyer *models.User, id uint) (*models.Order, error) {
	order, err := s.owned(ctx, buyer, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.StatusConfirmed {
		return order, nil
	}
	if err := statemachine.CanTransition(order.Status, models.StatusConfirmed, statemachine.ActorPayment); err != nil {
		return nil, apperr.Conflict("%s", err.Error())
	}

	fields := map[string]any{"payment_unverified": true}
	if err := s.transition(ctx, order, buyer, fields, models.StatusConfirmed, "payment reported by client, not verified"); err != nil {
		return nil, err
	}
	s.log.Warn("order confirmed from unverified client payment report",
		zap.Uint("order_id", order.ID), zap.Uint("user_id", buyer.ID))

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, buyer.TelegramID, notify.PaymentConfirmed(order.ID))
	return updated, nil
}
