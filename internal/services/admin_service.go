// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bizcore/bizcore-backend/internal/models"
	"github.com/bizcore/bizcore-backend/internal/utils"
)

type AdminService struct {
	db                  *gorm.DB
	notificationService *NotificationService
	paymentService      *PaymentService
	tokenService        *TokenService
}

type AdminDashboardStats struct {
	TotalUsers              int64   `json:"total_users"`
	ActiveUsers             int64   `json:"active_users"`
	NewUsersThisMonth       int64   `json:"new_users_this_month"`
	TotalRevenue            float64 `json:"total_revenue"`
	MonthlyRevenue          float64 `json:"monthly_revenue"`
	TotalApplications       int64   `json:"total_applications"`
	SubmittedApplications   int64   `json:"submitted_applications"`
	InProgressApplications  int64   `json:"in_progress_applications"`
	SubmissionsThisMonth    int64   `json:"submissions_this_month"`
	OverdueFilings          int64   `json:"overdue_filings"`
	TokensInCirculation     int64   `json:"tokens_in_circulation"`
	PlansGeneratedThisMonth int64   `json:"plans_generated_this_month"`
	UserGrowth              float64 `json:"user_growth"`
	RevenueGrowth           float64 `json:"revenue_growth"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	UserType      *models.UserType   `json:"user_type,omitempty"`
	Status        *models.UserStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time         `json:"created_after,omitempty"`
	CreatedBefore *time.Time         `json:"created_before,omitempty"`
}

type AdminApplicationFilter struct {
	utils.PaginationParams
	OwnerID       *uuid.UUID                `json:"owner_id,omitempty"`
	EntityType    *string                   `json:"entity_type,omitempty"`
	Status        *models.ApplicationStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time                `json:"created_after,omitempty"`
	CreatedBefore *time.Time                `json:"created_before,omitempty"`
}

type AdminTransactionFilter struct {
	utils.PaginationParams
	TransactionType *models.TransactionType   `json:"transaction_type,omitempty"`
	Status          *models.TransactionStatus `json:"status,omitempty"`
	UserID          *uuid.UUID                `json:"user_id,omitempty"`
	AmountMin       *float64                  `json:"amount_min,omitempty"`
	AmountMax       *float64                  `json:"amount_max,omitempty"`
	CreatedAfter    *time.Time                `json:"created_after,omitempty"`
	CreatedBefore   *time.Time                `json:"created_before,omitempty"`
}

type TokenGrantRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Amount int64     `json:"amount" validate:"required,min=1,max=100000"`
	Reason string    `json:"reason" validate:"required,max=100"`
}

func NewAdminService(db *gorm.DB, notificationService *NotificationService,
	paymentService *PaymentService, tokenService *TokenService) *AdminService {
	return &AdminService{
		db:                  db,
		notificationService: notificationService,
		paymentService:      paymentService,
		tokenService:        tokenService,
	}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats() (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	// User statistics
	s.db.Model(&models.User{}).Count(&stats.TotalUsers)
	s.db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&stats.ActiveUsers)
	s.db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)

	// Revenue statistics
	s.db.Model(&models.Transaction{}).
		Where("status = ?", models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalRevenue)

	s.db.Model(&models.Transaction{}).
		Where("status = ? AND created_at >= ?", models.TransactionStatusCompleted, monthStart).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.MonthlyRevenue)

	// Application statistics
	s.db.Model(&models.BusinessApplication{}).Count(&stats.TotalApplications)
	s.db.Model(&models.BusinessApplication{}).
		Where("status = ?", models.ApplicationStatusSubmitted).Count(&stats.SubmittedApplications)
	s.db.Model(&models.BusinessApplication{}).
		Where("status = ?", models.ApplicationStatusInProgress).Count(&stats.InProgressApplications)
	s.db.Model(&models.BusinessApplication{}).
		Where("submitted_at >= ?", monthStart).Count(&stats.SubmissionsThisMonth)

	// Compliance and token statistics
	s.db.Model(&models.ComplianceFiling{}).
		Where("status = ?", models.FilingStatusOverdue).Count(&stats.OverdueFilings)
	s.db.Model(&models.TokenWallet{}).
		Select("COALESCE(SUM(balance), 0)").Scan(&stats.TokensInCirculation)
	s.db.Model(&models.BusinessPlan{}).
		Where("created_at >= ?", monthStart).Count(&stats.PlansGeneratedThisMonth)

	// Growth calculations
	var lastMonthUsers int64
	s.db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).
		Count(&lastMonthUsers)

	var lastMonthRevenueAmount float64
	s.db.Model(&models.Transaction{}).
		Where("status = ? AND created_at >= ? AND created_at < ?",
			models.TransactionStatusCompleted, lastMonthStart, monthStart).
		Select("COALESCE(SUM(amount), 0)").Scan(&lastMonthRevenueAmount)

	if lastMonthUsers > 0 {
		stats.UserGrowth = float64(stats.NewUsersThisMonth-lastMonthUsers) / float64(lastMonthUsers) * 100
	}

	if lastMonthRevenueAmount > 0 {
		stats.RevenueGrowth = (stats.MonthlyRevenue - lastMonthRevenueAmount) / lastMonthRevenueAmount * 100
	}

	return stats, nil
}

// User Management
func (s *AdminService) GetUsers(filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	// Apply filters
	if filter.UserType != nil {
		query = query.Where("user_type = ?", *filter.UserType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	// Apply sorting and pagination
	allowedSortFields := []string{"created_at", "updated_at", "username", "email", "user_type", "status"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	// Execute query
	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

func (s *AdminService) UpdateUserStatus(userID uuid.UUID, status models.UserStatus, adminID uuid.UUID, reason string) error {
	// Find user
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("user not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	// Prevent admins from modifying other admins
	if user.UserType == models.UserTypeAdmin && user.ID != adminID {
		return errors.New("cannot modify admin user status")
	}

	oldStatus := user.Status
	user.Status = status

	if err := s.db.Save(&user).Error; err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	// Create audit log
	go s.createAuditLog(adminID, "UPDATE_USER_STATUS", "user", &userID,
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": status, "reason": reason})

	// Send notification to user
	go s.sendUserStatusNotification(&user, oldStatus, reason)

	return nil
}

// Application Oversight
func (s *AdminService) GetApplications(filter AdminApplicationFilter) ([]models.BusinessApplication, int64, error) {
	query := s.db.Model(&models.BusinessApplication{}).Preload("Owner")

	// Apply filters
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("submission_ref ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	// Apply sorting and pagination
	allowedSortFields := []string{"created_at", "updated_at", "entity_type", "status", "submitted_at"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	// Execute query
	var applications []models.BusinessApplication
	if err := query.Find(&applications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch applications: %w", err)
	}

	return applications, total, nil
}

// Transaction Oversight
func (s *AdminService) GetTransactions(filter AdminTransactionFilter) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{}).Preload("User").Preload("Application")

	// Apply filters
	if filter.TransactionType != nil {
		query = query.Where("transaction_type = ?", *filter.TransactionType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.AmountMin != nil {
		query = query.Where("amount >= ?", *filter.AmountMin)
	}
	if filter.AmountMax != nil {
		query = query.Where("amount <= ?", *filter.AmountMax)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	// Apply sorting and pagination
	allowedSortFields := []string{"created_at", "amount", "status", "transaction_type"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	// Execute query
	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return transactions, total, nil
}

func (s *AdminService) ProcessRefund(transactionID uuid.UUID, adminID uuid.UUID, reason string) error {
	if err := s.paymentService.ProcessRefund(&RefundRequest{
		TransactionID: transactionID,
		Reason:        reason,
	}, &adminID); err != nil {
		return err
	}

	go s.createAuditLog(adminID, "PROCESS_REFUND", "transaction", &transactionID, nil,
		map[string]interface{}{"reason": reason})

	return nil
}

// GrantTokens credits a user's wallet from the back office.
func (s *AdminService) GrantTokens(adminID uuid.UUID, req *TokenGrantRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.tokenService.Credit(req.UserID, req.Amount, "admin_grant", req.Reason, &adminID); err != nil {
		return err
	}

	go s.createAuditLog(adminID, "GRANT_TOKENS", "token_wallet", &req.UserID, nil,
		map[string]interface{}{"amount": req.Amount, "reason": req.Reason})

	return nil
}

// Settings Management
func (s *AdminService) GetSettings() (map[string]models.AdminSettings, error) {
	var settings []models.AdminSettings
	if err := s.db.Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}

	settingsMap := make(map[string]models.AdminSettings)
	for _, setting := range settings {
		key := fmt.Sprintf("%s.%s", setting.Category, setting.Key)
		settingsMap[key] = setting
	}

	return settingsMap, nil
}

func (s *AdminService) UpdateSetting(category, key string, value interface{}, dataType string, adminID uuid.UUID) error {
	var setting models.AdminSettings
	err := s.db.Where("category = ? AND key = ?", category, key).First(&setting).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Create new setting
		setting = models.AdminSettings{
			Category:  category,
			Key:       key,
			Value:     models.JSONB{"value": value},
			DataType:  dataType,
			UpdatedBy: adminID,
		}
		if err := s.db.Create(&setting).Error; err != nil {
			return fmt.Errorf("failed to create setting: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("database error: %w", err)
	} else {
		// Update existing setting
		oldValue := setting.Value
		setting.Value = models.JSONB{"value": value}
		setting.DataType = dataType
		setting.UpdatedBy = adminID

		if err := s.db.Save(&setting).Error; err != nil {
			return fmt.Errorf("failed to update setting: %w", err)
		}

		// Create audit log
		go s.createAuditLog(adminID, "UPDATE_SETTING", "admin_setting", &setting.ID,
			map[string]interface{}{"value": oldValue},
			map[string]interface{}{"value": setting.Value})
	}

	return nil
}

// Analytics and Reporting
func (s *AdminService) GetAnalytics(startDate, endDate time.Time, metrics []string) (map[string]interface{}, error) {
	analytics := make(map[string]interface{})

	for _, metric := range metrics {
		switch metric {
		case "user_registrations":
			var count int64
			s.db.Model(&models.User{}).
				Where("created_at BETWEEN ? AND ?", startDate, endDate).
				Count(&count)
			analytics["user_registrations"] = count

		case "applications_started":
			var count int64
			s.db.Model(&models.BusinessApplication{}).
				Where("created_at BETWEEN ? AND ?", startDate, endDate).
				Count(&count)
			analytics["applications_started"] = count

		case "submissions":
			var count int64
			s.db.Model(&models.BusinessApplication{}).
				Where("submitted_at BETWEEN ? AND ?", startDate, endDate).
				Count(&count)
			analytics["submissions"] = count

		case "plans_generated":
			var count int64
			s.db.Model(&models.BusinessPlan{}).
				Where("created_at BETWEEN ? AND ?", startDate, endDate).
				Count(&count)
			analytics["plans_generated"] = count

		case "revenue":
			var revenue float64
			s.db.Model(&models.Transaction{}).
				Where("status = ? AND created_at BETWEEN ? AND ?",
					models.TransactionStatusCompleted, startDate, endDate).
				Select("COALESCE(SUM(amount), 0)").Scan(&revenue)
			analytics["revenue"] = revenue
		}
	}

	return analytics, nil
}

// Audit Logs
func (s *AdminService) GetAuditLogs(params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{}).Preload("User")

	if params.Search != "" {
		query = query.Where("action ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	allowedSortFields := []string{"created_at", "action", "resource_type"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}

// Broadcast
type BroadcastRequest struct {
	Subject  string           `json:"subject" validate:"required,max=200"`
	Message  string           `json:"message" validate:"required"`
	UserType *models.UserType `json:"user_type,omitempty"`
}

// BroadcastEmail sends an announcement to every active user, optionally
// filtered by user type. Delivery runs in the background.
func (s *AdminService) BroadcastEmail(adminID uuid.UUID, req *BroadcastRequest) (int64, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}

	query := s.db.Model(&models.User{}).Where("status = ?", models.UserStatusActive)
	if req.UserType != nil {
		query = query.Where("user_type = ?", *req.UserType)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch recipients: %w", err)
	}

	go func() {
		for i := range users {
			if err := s.notificationService.SendCustomNotification(&NotificationRequest{
				UserID:    users[i].ID,
				Type:      "broadcast",
				Title:     req.Subject,
				Message:   req.Message,
				SendEmail: true,
			}); err != nil {
				logrus.WithError(err).WithField("user_id", users[i].ID).
					Warn("Failed to deliver broadcast")
			}
		}
	}()

	go s.createAuditLog(adminID, "BROADCAST_EMAIL", "user", nil, nil,
		map[string]interface{}{"subject": req.Subject, "recipients": len(users)})

	return int64(len(users)), nil
}

// Helper methods
func (s *AdminService) createAuditLog(userID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, oldValues, newValues map[string]interface{}) {
	auditLog := &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    models.JSONB(oldValues),
		NewValues:    models.JSONB(newValues),
	}

	s.db.Create(auditLog)
}

func (s *AdminService) sendUserStatusNotification(user *models.User, oldStatus models.UserStatus, reason string) {
	if s.notificationService != nil {
		s.notificationService.SendUserStatusChangeNotification(user, oldStatus, reason)
	}
}
