package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/georgemunganga/cardshop-backend/internal/modules/audit"
)

const helpText = `Welcome to the PlayStation card shop!

Open the shop from the menu button to pick a card.
/orders - your purchases and codes
/help - this message`

const adminHelpText = `Operator commands:
/addkey <product_id>
<key 1>
<key 2>
/setprice <product_id> <price>
/setdiscount <product_id> <0-100>
/stock`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}

	switch msg.Command() {
	case "start", "help":
		text := helpText
		if b.isAdmin(userID) {
			text += "\n\n" + adminHelpText
		}
		b.reply(msg.Chat.ID, text)
	case "orders":
		b.myOrders(ctx, msg.Chat.ID, userID)
	case "addkey", "setprice", "setdiscount", "stock":
		if !b.isAdmin(userID) {
			b.reply(msg.Chat.ID, "Access denied.")
			return
		}
		b.adminCommand(ctx, msg, userID)
	}
}

func (b *Bot) myOrders(ctx context.Context, chatID, userID int64) {
	orders, err := b.orders.OrdersByTelegramUser(ctx, userID)
	if err != nil {
		b.logger.Printf("bot: orders for %d: %v", userID, err)
		b.reply(chatID, "Could not load your orders, please try later.")
		return
	}
	if len(orders) == 0 {
		b.reply(chatID, "You have no orders yet.")
		return
	}
	var sb strings.Builder
	for i, o := range orders {
		if i == 10 {
			fmt.Fprintf(&sb, "...and %d more", len(orders)-i)
			break
		}
		fmt.Fprintf(&sb, "%s  %s\n", o.Number, o.CreatedAt.Format("02.01.2006"))
		for _, k := range o.Keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k.Product, k.Key)
		}
	}
	b.reply(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) adminCommand(ctx context.Context, msg *tgbotapi.Message, userID int64) {
	lines := strings.Split(msg.Text, "\n")
	args := strings.Fields(lines[0])[1:]
	actor := fmt.Sprintf("tg:%d", userID)

	switch msg.Command() {
	case "addkey":
		if len(args) < 1 {
			b.reply(msg.Chat.ID, "Usage: /addkey <product_id>\n<key 1>\n<key 2>...")
			return
		}
		added, count, err := b.inventory.Restock(ctx, args[0], lines[1:])
		if err != nil {
			b.reply(msg.Chat.ID, "Restock failed: "+err.Error())
			return
		}
		b.record(ctx, actor, audit.ActionRestock, fmt.Sprintf("%s +%d (now %d)", args[0], added, count))
		b.reply(msg.Chat.ID, fmt.Sprintf("Added %d keys to %s. In stock: %d", added, args[0], count))

	case "setprice":
		if len(args) < 2 {
			b.reply(msg.Chat.ID, "Usage: /setprice <product_id> <price>")
			return
		}
		price, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || price <= 0 {
			b.reply(msg.Chat.ID, "Price must be a positive whole number.")
			return
		}
		p, err := b.catalog.SetPrice(ctx, args[0], price)
		if err != nil {
			b.reply(msg.Chat.ID, "Update failed: "+err.Error())
			return
		}
		b.record(ctx, actor, audit.ActionSetPrice, fmt.Sprintf("%s price=%d", p.ID, p.Price))
		b.reply(msg.Chat.ID, fmt.Sprintf("%s now costs %d %s", p.Name, p.Price, p.Currency))

	case "setdiscount":
		if len(args) < 2 {
			b.reply(msg.Chat.ID, "Usage: /setdiscount <product_id> <0-100>")
			return
		}
		discount, err := strconv.Atoi(args[1])
		if err != nil || discount < 0 || discount > 100 {
			b.reply(msg.Chat.ID, "Discount must be between 0 and 100.")
			return
		}
		p, err := b.catalog.SetDiscount(ctx, args[0], discount)
		if err != nil {
			b.reply(msg.Chat.ID, "Update failed: "+err.Error())
			return
		}
		b.record(ctx, actor, audit.ActionSetDiscount, fmt.Sprintf("%s discount=%d", p.ID, p.Discount))
		b.reply(msg.Chat.ID, fmt.Sprintf("%s discount set to %d%%: %d instead of %d %s", p.Name, p.Discount, p.Price, p.OriginalPrice(), p.Currency))

	case "stock":
		levels, err := b.inventory.StockLevels(ctx)
		if err != nil {
			b.reply(msg.Chat.ID, "Could not load stock: "+err.Error())
			return
		}
		if len(levels) == 0 {
			b.reply(msg.Chat.ID, "No products.")
			return
		}
		var sb strings.Builder
		for _, l := range levels {
			fmt.Fprintf(&sb, "%s: %d (%s)\n", l.ProductID, l.Count, l.Status)
		}
		b.reply(msg.Chat.ID, strings.TrimSpace(sb.String()))
	}
}

func (b *Bot) record(ctx context.Context, actor, action, detail string) {
	if err := b.audit.Record(ctx, actor, action, detail); err != nil {
		b.logger.Printf("audit %s failed: %v", action, err)
	}
}
