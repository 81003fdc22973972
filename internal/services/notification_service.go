// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sapphirus/sapphirus-backend/internal/config"
	"github.com/sapphirus/sapphirus-backend/internal/models"
)

// NotificationService sends customer email and records back-office
// notifications. Email failures are logged, never propagated; a down SMTP
// relay must not fail a checkout.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: cfg,
	}
}

func (s *NotificationService) SendWelcomeEmail(user *models.User, verificationCode string) {
	data := map[string]interface{}{
		"FirstName": user.FirstName,
		"StoreName": s.config.Store.Name,
		"StoreURL":  s.config.Frontend.BaseURL,
		"VerifyURL": fmt.Sprintf("%s/verify-email?code=%s", s.config.Frontend.BaseURL, verificationCode),
	}

	subject := fmt.Sprintf("Welcome to %s", s.config.Store.Name)
	if err := s.sendEmail(user.Email, subject, welcomeTemplate, data); err != nil {
		logrus.WithError(err).WithField("email", user.Email).Error("Failed to send welcome email")
	}
}

func (s *NotificationService) SendPasswordResetEmail(user *models.User, code string) {
	data := map[string]interface{}{
		"FirstName": user.FirstName,
		"StoreName": s.config.Store.Name,
		"ResetURL":  fmt.Sprintf("%s/reset-password?code=%s", s.config.Frontend.BaseURL, code),
	}

	subject := fmt.Sprintf("%s password reset", s.config.Store.Name)
	if err := s.sendEmail(user.Email, subject, passwordResetTemplate, data); err != nil {
		logrus.WithError(err).WithField("email", user.Email).Error("Failed to send password reset email")
	}
}

func (s *NotificationService) SendOrderConfirmation(user *models.User, order *models.Order) {
	data := map[string]interface{}{
		"FirstName": user.FirstName,
		"StoreName": s.config.Store.Name,
		"OrderID":   order.ID.String(),
		"Total":     fmt.Sprintf("%.2f", order.Total),
		"Currency":  order.Currency,
		"Items":     order.Items,
		"OrderURL":  fmt.Sprintf("%s/orders/%s", s.config.Frontend.BaseURL, order.ID),
	}

	subject := fmt.Sprintf("%s order confirmation", s.config.Store.Name)
	if err := s.sendEmail(user.Email, subject, orderConfirmationTemplate, data); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"email":    user.Email,
			"order_id": order.ID,
		}).Error("Failed to send order confirmation email")
	}
}

// NotifyNewOrder records a back-office notification for a completed order.
func (s *NotificationService) NotifyNewOrder(order *models.Order) {
	orderID := order.ID
	notification := &models.AdminNotification{
		Type:                "new_order",
		Title:               "New order completed",
		Message:             fmt.Sprintf("Order %s completed for %.2f %s", order.ID, order.Total, order.Currency),
		Priority:            "medium",
		RelatedResourceType: "order",
		RelatedResourceID:   &orderID,
	}

	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to create order notification")
	}
}

// NotifyOversold flags an order line that completed with less stock than
// it purchased. The shortfall needs manual handling.
func (s *NotificationService) NotifyOversold(productID uuid.UUID, productName string, ordered, available int) {
	notification := &models.AdminNotification{
		Type:  "oversold",
		Title: "Product oversold",
		Message: fmt.Sprintf("%s was oversold: %d purchased with only %d in stock",
			productName, ordered, available),
		Priority:            "high",
		RelatedResourceType: "product",
		RelatedResourceID:   &productID,
	}

	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithField("product_id", productID).Error("Failed to create oversold notification")
	}
}

func (s *NotificationService) NotifyLowStock(product *models.Product) {
	productID := product.ID
	notification := &models.AdminNotification{
		Type:  "low_stock",
		Title: "Low stock",
		Message: fmt.Sprintf("%s is down to %d in stock",
			product.Name, product.StockQuantity),
		Priority:            "medium",
		RelatedResourceType: "product",
		RelatedResourceID:   &productID,
	}

	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithField("product_id", product.ID).Error("Failed to create low stock notification")
	}
}

func (s *NotificationService) sendEmail(to, subject, bodyTemplate string, data map[string]interface{}) error {
	if s.config.Email.SMTPUsername == "" {
		logrus.WithField("to", to).Debug("SMTP not configured, skipping email")
		return nil
	}

	tmpl, err := template.New("email").Parse(bodyTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse email template: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	from := fmt.Sprintf("%s <%s>", s.config.Email.FromName, s.config.Email.FromEmail)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body.String(),
	))

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)
	addr := s.config.Email.SMTPHost + ":" + s.config.Email.SMTPPort

	if err := smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("Email sent")
	return nil
}

const welcomeTemplate = `
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Welcome to {{.StoreName}}, {{.FirstName}}!</h2>
	<p>Your account is ready. Browse the catalog and find something you love.</p>
	<p><a href="{{.VerifyURL}}">Verify your email address</a></p>
	<p><a href="{{.StoreURL}}">Start shopping</a></p>
</body>
</html>
`

const passwordResetTemplate = `
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Password reset</h2>
	<p>Hi {{.FirstName}},</p>
	<p>We received a request to reset your {{.StoreName}} password. This link expires in one hour.</p>
	<p><a href="{{.ResetURL}}">Reset your password</a></p>
	<p>If you did not request this, you can ignore this email.</p>
</body>
</html>
`

const orderConfirmationTemplate = `
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Thanks for your order, {{.FirstName}}!</h2>
	<p>Your order <strong>{{.OrderID}}</strong> has been confirmed.</p>
	<table style="border-collapse: collapse;">
		{{range .Items}}
		<tr>
			<td style="padding: 4px 12px 4px 0;">{{.Name}}{{if .Size}} ({{.Size}}){{end}}</td>
			<td style="padding: 4px 12px 4px 0;">x{{.Quantity}}</td>
			<td style="padding: 4px 0;">{{printf "%.2f" .UnitPrice}}</td>
		</tr>
		{{end}}
	</table>
	<p><strong>Total: {{.Total}} {{.Currency}}</strong></p>
	<p><a href="{{.OrderURL}}">View your order</a></p>
</body>
</html>
`
