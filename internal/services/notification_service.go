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

	"github.com/bizcore/bizcore-backend/internal/config"
	"github.com/bizcore/bizcore-backend/internal/models"
	"github.com/bizcore/bizcore-backend/internal/workflow"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

type NotificationRequest struct {
	UserID    uuid.UUID              `json:"user_id" validate:"required"`
	Type      string                 `json:"type" validate:"required"`
	Title     string                 `json:"title" validate:"required"`
	Message   string                 `json:"message" validate:"required"`
	Data      map[string]interface{} `json:"data,omitempty"`
	SendEmail bool                   `json:"send_email,omitempty"`
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// Authentication notifications
func (s *NotificationService) SendWelcomeEmail(user *models.User, verificationToken string) error {
	template := s.getEmailTemplate("welcome")

	data := map[string]interface{}{
		"Username":        user.Username,
		"VerificationURL": fmt.Sprintf("%s/verify-email?token=%s", s.config.Frontend.BaseURL, verificationToken),
		"PlatformName":    s.config.Email.FromName,
	}

	subject := "Welcome to BizCore"
	body, err := s.renderTemplate(template.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, subject, body)
}

func (s *NotificationService) SendPasswordResetEmail(user *models.User, resetToken string) error {
	template := s.getEmailTemplate("password_reset")

	data := map[string]interface{}{
		"Username":  user.Username,
		"ResetURL":  fmt.Sprintf("%s/reset-password?token=%s", s.config.Frontend.BaseURL, resetToken),
		"ExpiresIn": "1 hour",
	}

	subject := "Password Reset Request"
	body, err := s.renderTemplate(template.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, subject, body)
}

// Registration notifications
func (s *NotificationService) SendSubmissionConfirmation(email, submissionRef string, entityType workflow.EntityType) error {
	template := s.getEmailTemplate("submission_confirmation")

	data := map[string]interface{}{
		"SubmissionRef": submissionRef,
		"EntityType":    entityLabel(entityType),
		"TrackingURL":   fmt.Sprintf("%s/track/%s", s.config.Frontend.BaseURL, submissionRef),
	}

	subject := "Registration Submitted - " + submissionRef
	body, err := s.renderTemplate(template.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	// Raise an in-app notification for back-office staff as well.
	notification := &models.AdminNotification{
		Type:     "registration_submitted",
		Title:    "New CAC Submission",
		Message:  fmt.Sprintf("Application %s (%s) has been submitted for filing", submissionRef, entityLabel(entityType)),
		Priority: "medium",
	}
	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).Error("Failed to create submission notification")
	}

	return s.sendEmail(email, subject, body)
}

func (s *NotificationService) SendPaymentReceipt(user *models.User, transaction *models.Transaction) error {
	template := s.getEmailTemplate("payment_receipt")

	data := map[string]interface{}{
		"Username":      user.Username,
		"Amount":        fmt.Sprintf("%.2f", transaction.Amount),
		"Currency":      transaction.Currency,
		"Reference":     transaction.PaymentReference,
		"TransactionID": transaction.ID,
	}

	subject := "Payment Receipt"
	body, err := s.renderTemplate(template.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, subject, body)
}

// Compliance notifications
func (s *NotificationService) SendFilingReminder(user *models.User, filing *models.ComplianceFiling) error {
	template := s.getEmailTemplate("filing_reminder")

	data := map[string]interface{}{
		"Username":  user.Username,
		"FormTitle": filing.Form.Title,
		"Agency":    filing.Form.Agency,
		"DueDate":   filing.DueDate.Format("2 January 2006"),
		"FilingURL": fmt.Sprintf("%s/compliance/%s", s.config.Frontend.BaseURL, filing.ID),
	}

	subject := "Filing Due Soon - " + filing.Form.Title
	body, err := s.renderTemplate(template.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, subject, body)
}

// Admin notifications
func (s *NotificationService) SendUserStatusChangeNotification(user *models.User, oldStatus models.UserStatus, reason string) error {
	data := map[string]interface{}{
		"Username":  user.Username,
		"NewStatus": user.Status,
		"OldStatus": oldStatus,
		"Reason":    reason,
	}

	subject := "Account Status Update"
	template := s.getEmailTemplate("user_status_change")
	body, err := s.renderTemplate(template.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, subject, body)
}

// Generic notification methods
func (s *NotificationService) SendCustomNotification(req *NotificationRequest) error {
	// Create in-app notification
	notification := &models.AdminNotification{
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
	}

	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	// Send email if requested
	if req.SendEmail {
		var user models.User
		if err := s.db.First(&user, req.UserID).Error; err != nil {
			return fmt.Errorf("user not found: %w", err)
		}

		return s.sendEmail(user.Email, req.Title, req.Message)
	}

	return nil
}

// Helper methods
func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email skipped (SMTP not configured)")
		return nil
	}

	// Setup authentication
	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	// Compose message
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	// Send email
	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func entityLabel(entityType workflow.EntityType) string {
	switch entityType {
	case workflow.EntityBusinessName:
		return "Business Name"
	case workflow.EntityPrivateLimited:
		return "Private Limited Company"
	case workflow.EntityIncorporatedTrustees:
		return "Incorporated Trustees"
	default:
		return string(entityType)
	}
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	// In a real implementation, these would be loaded from files or database
	templates := map[string]EmailTemplate{
		"welcome": {
			Subject: "Welcome to BizCore",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Welcome {{.Username}}!</h2>
	<p>Thank you for joining BizCore. Please verify your email address by clicking the link below:</p>
	<a href="{{.VerificationURL}}">Verify Email</a>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
		},
		"submission_confirmation": {
			Subject: "Registration Submitted",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Your registration has been submitted!</h2>
	<p>Your {{.EntityType}} registration has been submitted to the Corporate Affairs Commission.</p>
	<p>Your submission reference is <strong>{{.SubmissionRef}}</strong>. Keep it safe; you will need it to track your filing.</p>
	<a href="{{.TrackingURL}}">Track Your Filing</a>
	<p>Best regards,<br>BizCore Team</p>
</body>
</html>`,
		},
		"filing_reminder": {
			Subject: "Filing Due Soon",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Username}},</h2>
	<p>Your <strong>{{.FormTitle}}</strong> filing with {{.Agency}} is due on {{.DueDate}}.</p>
	<a href="{{.FilingURL}}">View Filing</a>
	<p>Best regards,<br>BizCore Team</p>
</body>
</html>`,
		},
		// Add more templates as needed...
	}

	if template, exists := templates[templateType]; exists {
		return template
	}

	// Default template
	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}

// SubmissionNotifier adapts the notification service to the workflow
// engine's fire-and-forget confirmation hook.
type SubmissionNotifier struct {
	notifications *NotificationService
}

func NewSubmissionNotifier(notifications *NotificationService) *SubmissionNotifier {
	return &SubmissionNotifier{notifications: notifications}
}

func (n *SubmissionNotifier) SubmissionConfirmed(email, submissionRef string, entityType workflow.EntityType) {
	go func() {
		if err := n.notifications.SendSubmissionConfirmation(email, submissionRef, entityType); err != nil {
			logrus.WithError(err).WithField("submission_ref", submissionRef).
				Error("Failed to send submission confirmation")
		}
	}()
}
