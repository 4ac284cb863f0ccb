// internal/handlers/application_test.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizcore/bizcore-backend/internal/utils"
	"github.com/bizcore/bizcore-backend/internal/workflow"
)

func recordWriteError(t *testing.T, err error) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/applications", nil)

	h := &ApplicationHandler{}
	h.writeError(c, err)

	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestWriteErrorHidesConsistencyDetail(t *testing.T) {
	err := &workflow.ConsistencyError{Op: "Finalize", Detail: "stage proposed_names has no stored data"}
	w, body := recordWriteError(t, err)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "Internal server error", body.Error.Message)
	assert.NotContains(t, w.Body.String(), "proposed_names")
}

func TestWriteErrorHidesUnexpectedDetail(t *testing.T) {
	w, body := recordWriteError(t, errors.New("pq: connection refused on host db-internal:5432"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "Internal server error", body.Error.Message)
	assert.NotContains(t, w.Body.String(), "db-internal")
}
