package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rentflow/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tenantForm struct {
	Email      string `json:"email" binding:"required,email"`
	Telephone  string `json:"telephone" binding:"required,phone"`
	NationalID string `json:"national_id" binding:"required,pesel"`
	PostalCode string `json:"postal_code" binding:"required,postal_code"`
	Number     string `json:"number" binding:"required,building_number"`
}

func validationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	require.NoError(t, SetupValidator())

	router := gin.New()
	router.Use(RequestID())
	router.POST("/register", func(c *gin.Context) {
		var req tenantForm
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCustomRules_Accept(t *testing.T) {
	w := post(validationRouter(t), `{
		"email": "anna@example.com",
		"telephone": "+48500600700",
		"national_id": "44051401359",
		"postal_code": "00-950",
		"number": "12A"
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCustomRules_Reject(t *testing.T) {
	w := post(validationRouter(t), `{
		"email": "anna@example.com",
		"telephone": "12-34",
		"national_id": "44051401358",
		"postal_code": "00950",
		"number": "A12"
	}`)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Len(t, fields, 4)
	assert.Equal(t, "Invalid PESEL", fields["national_id"])
	assert.Equal(t, "Must be a postal code like 00-950", fields["postal_code"])
	assert.Contains(t, fields, "telephone")
	assert.Contains(t, fields, "number")
}

func TestHandleValidationError_MalformedBody(t *testing.T) {
	w := post(validationRouter(t), `{"email":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"BAD_REQUEST"`)
}
