// internal/tests/auth_test.go
package tests

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type AuthTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (suite *AuthTestSuite) SetupSuite() {
	cfg := testConfig()
	suite.db = setupTestDB(suite.T(), cfg)
	suite.router = setupTestRouter(suite.db, cfg)
}

func (suite *AuthTestSuite) TestUserRegistration() {
	email := uniqueEmail("register")
	w := doJSON(suite.router, "POST", "/auth/register", "", map[string]interface{}{
		"username":  uniqueUsername("reg"),
		"email":     email,
		"password":  "Lagos2024!",
		"user_type": "entrepreneur",
		"phone":     "+2348031234567",
	})

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	response := decodeBody(w)
	assert.True(suite.T(), response["success"].(bool))

	data := dataField(w)
	assert.NotEmpty(suite.T(), data["token"])
	assert.NotEmpty(suite.T(), data["refresh_token"])

	user := data["user"].(map[string]interface{})
	assert.Equal(suite.T(), email, user["email"])
}

func (suite *AuthTestSuite) TestRegistrationRejectsWeakPassword() {
	w := doJSON(suite.router, "POST", "/auth/register", "", map[string]interface{}{
		"username":  uniqueUsername("weak"),
		"email":     uniqueEmail("weak"),
		"password":  "weakpass",
		"user_type": "entrepreneur",
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	response := decodeBody(w)
	assert.False(suite.T(), response["success"].(bool))
}

func (suite *AuthTestSuite) TestRegistrationRejectsAdminType() {
	w := doJSON(suite.router, "POST", "/auth/register", "", map[string]interface{}{
		"username":  uniqueUsername("admin"),
		"email":     uniqueEmail("admin"),
		"password":  "Lagos2024!",
		"user_type": "admin",
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *AuthTestSuite) TestUserLogin() {
	email := uniqueEmail("login")
	password := "Lagos2024!"

	w := doJSON(suite.router, "POST", "/auth/register", "", map[string]interface{}{
		"username":  uniqueUsername("login"),
		"email":     email,
		"password":  password,
		"user_type": "entrepreneur",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	w = doJSON(suite.router, "POST", "/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": password,
	})

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	data := dataField(w)
	assert.NotEmpty(suite.T(), data["token"])
}

func (suite *AuthTestSuite) TestLoginRejectsWrongPassword() {
	email := uniqueEmail("wrongpw")

	doJSON(suite.router, "POST", "/auth/register", "", map[string]interface{}{
		"username":  uniqueUsername("wrongpw"),
		"email":     email,
		"password":  "Lagos2024!",
		"user_type": "entrepreneur",
	})

	w := doJSON(suite.router, "POST", "/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "Abuja2024!",
	})

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *AuthTestSuite) TestSignupGrantCreditsWallet() {
	w := doJSON(suite.router, "POST", "/auth/register", "", map[string]interface{}{
		"username":  uniqueUsername("grant"),
		"email":     uniqueEmail("grant"),
		"password":  "Lagos2024!",
		"user_type": "entrepreneur",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	token := dataField(w)["token"].(string)

	w = doJSON(suite.router, "GET", "/tokens/balance", token, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	data := dataField(w)
	assert.Equal(suite.T(), float64(50), data["balance"])
}

func (suite *AuthTestSuite) TestProfileRequiresToken() {
	w := doJSON(suite.router, "GET", "/auth/me", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}
