package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meghkala/api/internal/domain"
)

// Service composes the transactional emails the store sends. All sends
// are best-effort; failures are logged and swallowed.
type Service struct {
	sender Sender
	logger *slog.Logger
}

func NewService(sender Sender, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sender: sender, logger: logger}
}

// SendOrderConfirmation emails the customer a summary of a freshly placed
// order.
func (s *Service) SendOrderConfirmation(ctx context.Context, to string, o *domain.Order) {
	var lines strings.Builder
	for _, item := range o.Items {
		fmt.Fprintf(&lines, "<li>%d x %s &mdash; %s</li>", item.Quantity, item.ProductID, formatCents(item.PriceCents*item.Quantity))
	}

	html := fmt.Sprintf(`
		<h2>Thank you for your order!</h2>
		<p>Order <strong>%s</strong> has been received and is now <strong>%s</strong>.</p>
		<ul>%s</ul>
		<p>Subtotal: %s<br>Shipping: %s<br>Discount: &minus;%s<br><strong>Total: %s</strong></p>`,
		o.ID, o.Status, lines.String(),
		formatCents(o.SubtotalCents), formatCents(o.ShippingCents),
		formatCents(o.DiscountCents), formatCents(o.TotalCents))

	s.send(ctx, to, fmt.Sprintf("Order confirmation %s", o.ID), html)
}

// SendOrderStatusUpdate notifies the customer of a status change.
func (s *Service) SendOrderStatusUpdate(ctx context.Context, to string, o *domain.Order) {
	html := fmt.Sprintf(`
		<h2>Order update</h2>
		<p>Your order <strong>%s</strong> is now <strong>%s</strong>.</p>`,
		o.ID, o.Status)

	s.send(ctx, to, fmt.Sprintf("Your order is %s", o.Status), html)
}

// SendOTP emails a one-time login code.
func (s *Service) SendOTP(ctx context.Context, to, code string) {
	html := fmt.Sprintf(`
		<h2>Your login code</h2>
		<p>Use this code to sign in: <strong style="font-size:1.4em">%s</strong></p>
		<p>The code expires in a few minutes. If you did not request it, ignore this email.</p>`, code)

	s.send(ctx, to, "Your login code", html)
}

// SendStockAlert tells a subscriber a product is back in stock.
func (s *Service) SendStockAlert(ctx context.Context, to string, p *domain.Product) {
	html := fmt.Sprintf(`
		<h2>Back in stock</h2>
		<p><strong>%s</strong> is available again for %s. Quantities are limited.</p>`,
		p.Title, formatCents(p.PriceCents))

	s.send(ctx, to, fmt.Sprintf("%s is back in stock", p.Title), html)
}

func (s *Service) send(ctx context.Context, to, subject, html string) {
	if _, err := s.sender.Send(ctx, &Email{
		To:       []string{to},
		Subject:  subject,
		HTMLBody: html,
	}); err != nil {
		s.logger.Error("email: send failed", "to", to, "subject", subject, "error", err)
	}
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
