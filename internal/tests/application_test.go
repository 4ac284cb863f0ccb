// internal/tests/application_test.go
package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ApplicationTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	token  string
}

func (suite *ApplicationTestSuite) SetupSuite() {
	cfg := testConfig()
	suite.db = setupTestDB(suite.T(), cfg)
	suite.router = setupTestRouter(suite.db, cfg)

	w := doJSON(suite.router, "POST", "/auth/register", "", map[string]interface{}{
		"username":  uniqueUsername("wizard"),
		"email":     uniqueEmail("wizard"),
		"password":  "Lagos2024!",
		"user_type": "entrepreneur",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	suite.token = dataField(w)["token"].(string)
}

func (suite *ApplicationTestSuite) createApplication(entityType string) string {
	w := doJSON(suite.router, "POST", "/applications", suite.token, map[string]interface{}{
		"entity_type": entityType,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	app := dataField(w)["application"].(map[string]interface{})
	return app["id"].(string)
}

func (suite *ApplicationTestSuite) saveStage(appID, stage string, data map[string]interface{}) {
	w := doJSON(suite.router, "PUT", fmt.Sprintf("/applications/%s/stages/%s", appID, stage), suite.token, map[string]interface{}{
		"data": data,
	})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
}

func (suite *ApplicationTestSuite) advance(appID string) map[string]interface{} {
	w := doJSON(suite.router, "POST", fmt.Sprintf("/applications/%s/advance", appID), suite.token, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	return dataField(w)
}

func (suite *ApplicationTestSuite) TestEntityTypeCatalog() {
	w := doJSON(suite.router, "GET", "/applications/entity-types", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	data := dataField(w)
	types := data["entity_types"].([]interface{})
	assert.Len(suite.T(), types, 3)
}

func (suite *ApplicationTestSuite) TestCreateApplicationStartsAtFirstStage() {
	w := doJSON(suite.router, "POST", "/applications", suite.token, map[string]interface{}{
		"entity_type": "business_name",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	app := dataField(w)["application"].(map[string]interface{})
	assert.Equal(suite.T(), "business_name", app["entity_type"])
	assert.Equal(suite.T(), "proposed_names", app["current_stage"])
	assert.Equal(suite.T(), float64(10000), app["fee_amount"])
}

func (suite *ApplicationTestSuite) TestCreateApplicationRejectsUnknownEntityType() {
	w := doJSON(suite.router, "POST", "/applications", suite.token, map[string]interface{}{
		"entity_type": "public_limited",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *ApplicationTestSuite) TestAdvanceBlockedUntilStageValid() {
	appID := suite.createApplication("business_name")

	result := suite.advance(appID)
	assert.Equal(suite.T(), false, result["valid"])
	assert.NotEmpty(suite.T(), result["errors"])

	suite.saveStage(appID, "proposed_names", map[string]interface{}{
		"name_option_1": "Suya Express",
		"name_option_2": "Suya Express Ventures",
	})

	result = suite.advance(appID)
	assert.Equal(suite.T(), true, result["valid"])
	assert.Equal(suite.T(), "business_details", result["current_stage"])
}

func (suite *ApplicationTestSuite) TestRetreatKeepsSavedData() {
	appID := suite.createApplication("business_name")

	suite.saveStage(appID, "proposed_names", map[string]interface{}{
		"name_option_1": "Mama Put Kitchen",
		"name_option_2": "Mama Put Foods",
	})
	suite.advance(appID)

	w := doJSON(suite.router, "POST", fmt.Sprintf("/applications/%s/retreat", appID), suite.token, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = doJSON(suite.router, "GET", "/applications/"+appID, suite.token, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	app := dataField(w)["application"].(map[string]interface{})
	assert.Equal(suite.T(), "proposed_names", app["current_stage"])

	stageData := app["stage_data"].(map[string]interface{})
	names := stageData["proposed_names"].(map[string]interface{})
	assert.Equal(suite.T(), "Mama Put Kitchen", names["name_option_1"])
}

func (suite *ApplicationTestSuite) TestJumpAheadRejected() {
	appID := suite.createApplication("business_name")

	w := doJSON(suite.router, "POST", fmt.Sprintf("/applications/%s/jump/contact_address", appID), suite.token, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *ApplicationTestSuite) TestShareholdingMustSumToHundred() {
	appID := suite.createApplication("private_limited")

	suite.saveStage(appID, "proposed_names", map[string]interface{}{
		"name_option_1": "Zuma Tech",
		"name_option_2": "Zuma Technologies",
	})
	suite.advance(appID)

	suite.saveStage(appID, "business_details", map[string]interface{}{
		"business_nature": "Software development",
		"business_email":  "hello@zumatech.ng",
		"business_phone":  "+2348031234567",
	})
	suite.advance(appID)

	suite.saveStage(appID, "share_capital", map[string]interface{}{
		"authorized_share_capital": 1000000,
		"share_unit_price":         1,
	})
	suite.advance(appID)

	suite.saveStage(appID, "directors", map[string]interface{}{
		"directors": []map[string]interface{}{
			{"full_name": "Ada Okafor", "email": "ada@zumatech.ng", "share_percent": 60},
			{"full_name": "Emeka Obi", "email": "emeka@zumatech.ng", "share_percent": 30},
		},
	})

	result := suite.advance(appID)
	assert.Equal(suite.T(), false, result["valid"])

	suite.saveStage(appID, "directors", map[string]interface{}{
		"directors": []map[string]interface{}{
			{"full_name": "Ada Okafor", "email": "ada@zumatech.ng", "share_percent": 60},
			{"full_name": "Emeka Obi", "email": "emeka@zumatech.ng", "share_percent": 40},
		},
	})

	result = suite.advance(appID)
	assert.Equal(suite.T(), true, result["valid"])
	assert.Equal(suite.T(), "contact_address", result["current_stage"])
}

func (suite *ApplicationTestSuite) TestApplicationsAreOwnerScoped() {
	appID := suite.createApplication("business_name")

	w := doJSON(suite.router, "POST", "/auth/register", "", map[string]interface{}{
		"username":  uniqueUsername("other"),
		"email":     uniqueEmail("other"),
		"password":  "Lagos2024!",
		"user_type": "entrepreneur",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	otherToken := dataField(w)["token"].(string)

	w = doJSON(suite.router, "GET", "/applications/"+appID, otherToken, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *ApplicationTestSuite) TestAbandonRemovesApplication() {
	appID := suite.createApplication("business_name")

	w := doJSON(suite.router, "DELETE", "/applications/"+appID, suite.token, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = doJSON(suite.router, "GET", "/applications/"+appID, suite.token, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *ApplicationTestSuite) TestTrackUnknownReference() {
	w := doJSON(suite.router, "GET", "/track/CAC-ZZZZZZZZZZ", "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func TestApplicationSuite(t *testing.T) {
	suite.Run(t, new(ApplicationTestSuite))
}
