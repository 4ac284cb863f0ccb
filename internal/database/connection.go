// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bizcore/bizcore-backend/internal/config"
	"github.com/bizcore/bizcore-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.BusinessApplication{},
		&models.Transaction{},
		&models.TokenWallet{},
		&models.TokenTransaction{},
		&models.BusinessPlan{},
		&models.ComplianceForm{},
		&models.ComplianceFiling{},
		&models.AdminSettings{},
		&models.AuditLog{},
		&models.AdminNotification{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)",
		"CREATE INDEX IF NOT EXISTS idx_users_type_status ON users(user_type, status)",

		// Application indexes
		"CREATE INDEX IF NOT EXISTS idx_applications_owner_status ON business_applications(owner_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_applications_entity_type ON business_applications(entity_type)",
		"CREATE INDEX IF NOT EXISTS idx_applications_submission_ref ON business_applications(submission_ref)",
		"CREATE INDEX IF NOT EXISTS idx_applications_created_at ON business_applications(created_at DESC)",

		// Transaction indexes
		"CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_type_status ON transactions(transaction_type, status)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC)",

		// Token ledger indexes
		"CREATE INDEX IF NOT EXISTS idx_token_transactions_wallet ON token_transactions(wallet_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_token_transactions_user ON token_transactions(user_id)",

		// Compliance indexes
		"CREATE INDEX IF NOT EXISTS idx_compliance_filings_user_status ON compliance_filings(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_compliance_filings_due ON compliance_filings(due_date)",
		"CREATE INDEX IF NOT EXISTS idx_compliance_forms_agency ON compliance_forms(agency)",

		// Admin indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_admin_notifications_status ON admin_notifications(status, priority)",
		"CREATE INDEX IF NOT EXISTS idx_admin_settings_category ON admin_settings(category, key)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@bizcore.ng",
			UserType: models.UserTypeAdmin,
			Status:   models.UserStatusActive,
			ProfileData: models.JSONB{
				"first_name": "System",
				"last_name":  "Administrator",
				"role":       "super_admin",
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	// Create default platform settings
	defaultSettings := []models.AdminSettings{
		{
			Category:    "general",
			Key:         "platform_name",
			Value:       models.JSONB{"value": "BizCore"},
			DataType:    "string",
			Description: "Platform name displayed to users",
		},
		{
			Category:    "fees",
			Key:         "filing_fee_business_name",
			Value:       models.JSONB{"value": 10000.0},
			DataType:    "float",
			Description: "CAC filing fee for business name registration (NGN)",
		},
		{
			Category:    "fees",
			Key:         "filing_fee_private_limited",
			Value:       models.JSONB{"value": 25000.0},
			DataType:    "float",
			Description: "CAC filing fee for private limited company (NGN)",
		},
		{
			Category:    "fees",
			Key:         "filing_fee_incorporated_trustees",
			Value:       models.JSONB{"value": 20000.0},
			DataType:    "float",
			Description: "CAC filing fee for incorporated trustees (NGN)",
		},
		{
			Category:    "tokens",
			Key:         "signup_grant",
			Value:       models.JSONB{"value": 10},
			DataType:    "integer",
			Description: "Free AI tokens granted on registration",
		},
		{
			Category:    "tokens",
			Key:         "plan_generation_cost",
			Value:       models.JSONB{"value": 5},
			DataType:    "integer",
			Description: "Token cost of one AI business-plan generation",
		},
		{
			Category:    "content",
			Key:         "max_file_size",
			Value:       models.JSONB{"value": 10},
			DataType:    "integer",
			Description: "Maximum file size in MB for document uploads",
		},
	}

	for _, setting := range defaultSettings {
		var count int64
		db.Model(&models.AdminSettings{}).Where("category = ? AND key = ?", setting.Category, setting.Key).Count(&count)

		if count == 0 {
			// Get admin user ID for the UpdatedBy field
			var admin models.User
			if err := db.Where("user_type = ?", models.UserTypeAdmin).First(&admin).Error; err == nil {
				setting.UpdatedBy = admin.ID
				if err := db.Create(&setting).Error; err != nil {
					log.Printf("Warning: Failed to create setting %s.%s: %v", setting.Category, setting.Key, err)
				}
			}
		}
	}

	if err := seedComplianceForms(db); err != nil {
		return err
	}

	log.Println("Initial data seeding completed")
	return nil
}

func seedComplianceForms(db *gorm.DB) error {
	forms := []models.ComplianceForm{
		{
			Code:          "CAC-AR",
			Title:         "CAC Annual Returns",
			Agency:        "CAC",
			Description:   "Annual return filing due every year after incorporation",
			EntityTypes:   pq.StringArray{"business_name", "private_limited", "incorporated_trustees"},
			CadenceMonths: 12,
		},
		{
			Code:          "FIRS-TIN",
			Title:         "FIRS Tax Identification Number",
			Agency:        "FIRS",
			Description:   "One-off TIN registration after incorporation",
			EntityTypes:   pq.StringArray{"business_name", "private_limited", "incorporated_trustees"},
			CadenceMonths: 0,
		},
		{
			Code:          "FIRS-VAT",
			Title:         "VAT Registration and Monthly Returns",
			Agency:        "FIRS",
			Description:   "VAT registration and monthly remittance for trading entities",
			EntityTypes:   pq.StringArray{"business_name", "private_limited"},
			CadenceMonths: 1,
		},
		{
			Code:          "SCUML",
			Title:         "SCUML Certification",
			Agency:        "SCUML",
			Description:   "Anti-money-laundering certification for designated non-financial businesses",
			EntityTypes:   pq.StringArray{"private_limited", "incorporated_trustees"},
			CadenceMonths: 0,
		},
	}

	for _, form := range forms {
		var count int64
		db.Model(&models.ComplianceForm{}).Where("code = ?", form.Code).Count(&count)
		if count == 0 {
			if err := db.Create(&form).Error; err != nil {
				return fmt.Errorf("failed to seed compliance form %s: %w", form.Code, err)
			}
		}
	}
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
