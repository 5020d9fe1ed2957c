package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/MarcoWillems/Galleria/app/models"
	"github.com/MarcoWillems/Galleria/internal/pkg/env"
)

// SendMail sends an email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendOrderConfirmation renders and sends the payment confirmation email for a paid order
func SendOrderConfirmation(order *models.Order) error {
	subject := fmt.Sprintf("Order %s confirmed", order.OrderNo)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<h2>Thank you for your order, %s!</h2>", order.CustomerName))
	sb.WriteString(fmt.Sprintf("<p>We have received your payment for order <strong>%s</strong>.</p>", order.OrderNo))
	sb.WriteString("<table cellpadding=\"6\" style=\"border-collapse:collapse\">")
	sb.WriteString("<tr><th align=\"left\">Artwork</th><th align=\"right\">Qty</th><th align=\"right\">Price</th></tr>")
	for _, item := range order.Items {
		sb.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td align=\"right\">%d</td><td align=\"right\">%s</td></tr>",
			item.Artwork.Title, item.Quantity, formatCents(item.LineTotalCents, order.Currency),
		))
	}
	sb.WriteString("</table>")
	sb.WriteString(fmt.Sprintf("<p>Shipping: %s</p>", formatCents(order.ShippingCents, order.Currency)))
	sb.WriteString(fmt.Sprintf("<p><strong>Total: %s</strong></p>", formatCents(order.TotalCents, order.Currency)))
	sb.WriteString("<p>We will let you know as soon as your artwork ships.</p>")

	return SendMail(order.CustomerEmail, subject, sb.String())
}

func formatCents(cents int64, currency string) string {
	return fmt.Sprintf("%s %.2f", currency, float64(cents)/100)
}
