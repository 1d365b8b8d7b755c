package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"cake_heaven_back_end/internal/cart"
	"cake_heaven_back_end/internal/checkout"

	"github.com/shopspring/decimal"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends order confirmations over SMTP.
type Mailer struct {
	cfg SMTPConfig
	log *zap.Logger
}

func NewMailer(cfg SMTPConfig, log *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, to string, order checkout.Pending) error {
	msg, err := BuildOrderConfirmation(m.cfg.From, to, order)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("mail.NewClient: %w", err)
	}

	m.log.Info("📤 sending order confirmation", zap.String("to", to), zap.String("payment_id", order.PaymentID))
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("client.DialAndSend: %w", err)
	}
	return nil
}

// BuildOrderConfirmation renders the confirmation message without sending it.
func BuildOrderConfirmation(from, to string, order checkout.Pending) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("msg.From: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("msg.To: %w", err)
	}
	msg.Subject("Your Cake Heaven order is confirmed")

	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, newConfirmationView(order)); err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}
	msg.SetBodyString(mail.TypeTextHTML, body.String())
	return msg, nil
}

type lineView struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
	Message   string
}

type confirmationView struct {
	PaymentID string
	Lines     []lineView
	Coupon    string
	Subtotal  string
	Tax       string
	Shipping  string
	Discount  string
	Total     string
}

func money(v float64, currency string) string {
	return decimal.NewFromFloat(v).StringFixed(2) + " " + currency
}

func newConfirmationView(order checkout.Pending) confirmationView {
	cur := order.Totals.Currency
	v := confirmationView{
		PaymentID: order.PaymentID,
		Coupon:    order.CouponCode,
		Subtotal:  money(order.Totals.Subtotal, cur),
		Tax:       money(order.Totals.Tax, cur),
		Shipping:  money(order.Totals.Shipping, cur),
		Discount:  money(order.Totals.Discount, cur),
		Total:     money(order.Totals.Total, cur),
	}
	for _, item := range order.Items {
		v.Lines = append(v.Lines, lineView{
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			UnitPrice: money(cart.EffectiveUnitPrice(item.Product), cur),
			LineTotal: money(cart.LineSubtotal(item), cur),
			Message:   item.Customizations.Message,
		})
	}
	return v
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Order confirmation</title></head>
<body style="font-family: Arial, sans-serif; background-color: #fdf6f0; padding: 20px;">
  <div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
    <h2 style="color: #b5485d;">Thank you for your order!</h2>
    <p>Payment reference: <strong>{{.PaymentID}}</strong></p>
    <table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
      <thead>
        <tr style="background-color: #f0f0f0;">
          <th style="padding: 8px; text-align: left;">Cake</th>
          <th style="padding: 8px; text-align: left;">Qty</th>
          <th style="padding: 8px; text-align: left;">Unit price</th>
          <th style="padding: 8px; text-align: left;">Total</th>
        </tr>
      </thead>
      <tbody>
        {{range .Lines}}<tr>
          <td style="padding: 8px;">{{.Name}}{{if .Message}}<br><em>"{{.Message}}"</em>{{end}}</td>
          <td style="padding: 8px;">{{.Quantity}}</td>
          <td style="padding: 8px;">{{.UnitPrice}}</td>
          <td style="padding: 8px;">{{.LineTotal}}</td>
        </tr>{{end}}
      </tbody>
    </table>
    <p>Subtotal: {{.Subtotal}}<br>Tax: {{.Tax}}<br>Shipping: {{.Shipping}}</p>
    {{if .Coupon}}<p>Coupon {{.Coupon}}: -{{.Discount}}</p>{{end}}
    <h3>Total paid: {{.Total}}</h3>
  </div>
</body>
</html>`))
