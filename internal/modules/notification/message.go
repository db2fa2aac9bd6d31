package notification

import (
	"fmt"
	"strings"

	"github.com/georgemunganga/cardshop-backend/internal/modules/order"
)

// BuyerMessage is the plain-text key delivery sent over Telegram or email.
func BuyerMessage(o *order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your purchase!\n\nOrder %s\n", o.Number)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%s x%d: %d %s\n", it.Name, it.Quantity, it.UnitPrice*int64(it.Quantity), o.Currency)
	}
	fmt.Fprintf(&b, "Total: %d %s\n\nYour codes:\n", o.Total, o.Currency)
	for _, k := range o.Keys {
		fmt.Fprintf(&b, "%s: %s\n", k.Product, k.Key)
	}
	b.WriteString("\nRedeem them in the PlayStation Store of the matching region.")
	return b.String()
}

// AdminMessage is the operator alert for a new order.
func AdminMessage(o *order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s (%s)\n", o.Number, o.PaymentMethod)
	switch {
	case o.TelegramUsername != "":
		fmt.Fprintf(&b, "Buyer: @%s", o.TelegramUsername)
	case o.TelegramUserID != 0:
		fmt.Fprintf(&b, "Buyer: tg:%d", o.TelegramUserID)
	default:
		b.WriteString("Buyer: -")
	}
	if o.Email != "" {
		fmt.Fprintf(&b, " / %s", o.Email)
	}
	b.WriteString("\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%s x%d\n", it.ProductID, it.Quantity)
	}
	fmt.Fprintf(&b, "Total: %d %s", o.Total, o.Currency)
	if o.TotalMismatch {
		fmt.Fprintf(&b, " (client declared %s)", o.DeclaredTotal.String())
	}
	return b.String()
}
