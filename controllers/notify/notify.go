package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"log"

	gopkgmail "gopkg.in/gomail.v2"

	"github.com/quantumclimb/curryhouse-api/config"
	"github.com/quantumclimb/curryhouse-api/models"
)

// Notifier dispatches the side effects of a confirmed order. Every
// implementation must be best-effort: a notification failure never rolls
// back or fails the confirmation that triggered it.
type Notifier interface {
	OrderConfirmed(order models.Order)
}

// Mailer sends confirmation emails to the customer and the operator.
type Mailer struct {
	cfg *config.Config
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{cfg: cfg}
}

const customerTemplate = `
<h2>Thank you for your order, {{.CustomerName}}!</h2>
<p>Your order <strong>{{.OrderNumber}}</strong> is confirmed and the kitchen is on it.</p>
<table>
{{range .Items}}<tr><td>{{.Quantity}}x {{.Name}}{{if .SpiceLevel}} ({{.SpiceLevel}}){{end}}</td><td>€{{euros .LineTotalCents}}</td></tr>
{{end}}<tr><td>Delivery</td><td>€{{euros .DeliveryFeeCents}}</td></tr>
<tr><td><strong>Total</strong></td><td><strong>€{{euros .TotalCents}}</strong></td></tr>
</table>
<p>Delivery to: {{.Address.Street}}{{if .Address.Apartment}}, {{.Address.Apartment}}{{end}}, {{.Address.PostalCode}} {{.Address.City}}</p>
`

const operatorTemplate = `
<h2>New confirmed order {{.OrderNumber}}</h2>
<p>{{.CustomerName}} — {{.CustomerPhone}} — {{.CustomerEmail}}</p>
<table>
{{range .Items}}<tr><td>{{.Quantity}}x {{.Name}}{{if .SpiceLevel}} ({{.SpiceLevel}}){{end}}</td></tr>
{{end}}</table>
<p><strong>Total: €{{euros .TotalCents}}</strong> ({{.PaymentMethod}})</p>
<p>{{.Address.Street}}{{if .Address.Apartment}}, {{.Address.Apartment}}{{end}}, {{.Address.PostalCode}} {{.Address.City}}</p>
`

var templateFuncs = template.FuncMap{
	"euros": func(cents int64) string { return fmt.Sprintf("%.2f", float64(cents)/100) },
}

// OrderConfirmed queues confirmation emails for the customer and the
// operator and returns immediately. The SMTP conversation carries no
// deadline beyond the dial, so sends run in the background; a stalled mail
// server must never hold a webhook response or the reconciler loop open.
// Failures are logged and swallowed; the order is already confirmed and
// must stay that way.
func (m *Mailer) OrderConfirmed(order models.Order) {
	if m.cfg.SMTP.Host == "" {
		log.Printf("⚠️ SMTP not configured, skipping confirmation emails for %s", order.OrderNumber)
		return
	}
	go m.dispatch(order)
}

func (m *Mailer) dispatch(order models.Order) {
	if err := m.send(order.CustomerEmail,
		fmt.Sprintf("Order %s confirmed", order.OrderNumber),
		customerTemplate, order); err != nil {
		log.Printf("❌ Failed to send customer confirmation for %s: %v", order.OrderNumber, err)
	}

	if m.cfg.Admin.OperatorEmail != "" {
		if err := m.send(m.cfg.Admin.OperatorEmail,
			fmt.Sprintf("New order %s", order.OrderNumber),
			operatorTemplate, order); err != nil {
			log.Printf("❌ Failed to send operator notification for %s: %v", order.OrderNumber, err)
		}
	}
}

func (m *Mailer) send(to, subject, tmpl string, order models.Order) error {
	body, err := renderTemplate(tmpl, order)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	msg := gopkgmail.NewMessage()
	msg.SetHeader("From", m.cfg.SMTP.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gopkgmail.NewDialer(m.cfg.SMTP.Host, m.cfg.SMTP.Port, m.cfg.SMTP.User, m.cfg.SMTP.Password)
	d.SSL = true
	return d.DialAndSend(msg)
}

func renderTemplate(tmpl string, order models.Order) (string, error) {
	t, err := template.New("mail").Funcs(templateFuncs).Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, order); err != nil {
		return "", err
	}
	return buf.String(), nil
}
