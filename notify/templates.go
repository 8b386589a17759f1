package notify

import (
	"fmt"
	"html"
	"strings"

	"miniapp-shop-api/models"
)

// OrderPlacedBuyer is the buyer's receipt.
func OrderPlacedBuyer(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>Your order #%d has been placed!</b>\n\n", o.ID)
	writeOrderSummary(&b, o)
	b.WriteString("\n<i>Please wait for confirmation. Thank you for your order!</i>")
	return b.String()
}

// OrderPlacedStaff alerts presidents about a new order.
func OrderPlacedStaff(o *models.Order, buyer *models.User) string {
	username := "no username"
	if buyer.Username != nil && *buyer.Username != "" {
		username = "@" + *buyer.Username
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 <b>NEW ORDER #%d</b>\n\n", o.ID)
	fmt.Fprintf(&b, "<b>Customer:</b> %s (%s)\n", html.EscapeString(buyer.Name), html.EscapeString(username))
	writeOrderSummary(&b, o)
	b.WriteString("\nOpen the admin panel to process it.")
	return b.String()
}

func writeOrderSummary(b *strings.Builder, o *models.Order) {
	fmt.Fprintf(b, "<b>Total:</b> %s\n", o.Total.StringFixed(2))
	fmt.Fprintf(b, "<b>Payment:</b> %s\n", html.EscapeString(o.PaymentMethod))
	fmt.Fprintf(b, "<b>Delivery:</b> %s\n", html.EscapeString(o.DeliveryMethod))
	if o.Address != nil && *o.Address != "" {
		fmt.Fprintf(b, "<b>Address:</b> %s\n", html.EscapeString(*o.Address))
	}
}

// StatusChanged returns the buyer message for entering status, or "" when
// that status is not announced.
func StatusChanged(orderID uint, status models.OrderStatus) string {
	switch status {
	case models.StatusConfirmed:
		return fmt.Sprintf("🔔 Your order #%d has been <b>confirmed</b>!", orderID)
	case models.StatusCancelled:
		return fmt.Sprintf("❌ Your order #%d has been <b>cancelled</b>.", orderID)
	case models.StatusDelivering:
		return fmt.Sprintf("🚚 A courier is on the way with your order #%d!", orderID)
	case models.StatusCompleted:
		return fmt.Sprintf("🎉 Your order #%d has been <b>delivered</b>. Hope to see you again!", orderID)
	}
	return ""
}

// PaymentConfirmed is sent after a Stars payment is reported.
func PaymentConfirmed(orderID uint) string {
	return fmt.Sprintf("⭐️ <b>Order #%d has been paid with Stars!</b>\nStatus changed to \"Confirmed\".", orderID)
}
