// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserNotFound       = "auth.user_not_found"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthEmailNotVerified   = "auth.email_not_verified"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthPasswordReset      = "auth.password_reset"
	KeyAuthEmailVerified      = "auth.email_verified"

	// User Management
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"
	KeyUserSuspended      = "user.suspended"

	// Registration wizard
	KeyApplicationCreated   = "application.created"
	KeyApplicationNotFound  = "application.not_found"
	KeyApplicationSubmitted = "application.submitted"
	KeyApplicationSaved     = "application.stage_saved"
	KeyApplicationAdvanced  = "application.advanced"
	KeyApplicationLocked    = "application.locked"

	// Payments
	KeyPaymentDeclined  = "payment.declined"
	KeyPaymentConfirmed = "payment.confirmed"
	KeyPaymentTimeout   = "payment.timeout"

	// Tokens
	KeyTokenInsufficient = "token.insufficient_balance"
	KeyTokenCredited     = "token.credited"
	KeyTokenDebited      = "token.debited"

	// Compliance
	KeyComplianceFormNotFound = "compliance.not_found"
	KeyComplianceFilingSaved  = "compliance.filing_saved"

	// Business plans
	KeyPlanGenerated = "plan.generated"
	KeyPlanNotFound  = "plan.not_found"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"
	KeyAdminUserUpdated  = "admin.user_updated"

	// Validation
	KeyValidationInvalid = "validation.invalid_%s"
)
