package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

type bindTarget struct {
	SiteID int64 `json:"siteId" binding:"required"`
}

func serve(t *testing.T, handler gin.HandlerFunc, body string) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/orders", handler)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body)))
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return rec, problem
}

func TestResponder_WithholdsUnmappedErrors(t *testing.T) {
	responder := NewChainedResponder("", FaultMapper)
	rec, problem := serve(t, func(c *gin.Context) {
		responder.RespondError(c, errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	}, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.Empty(t, problem.Detail)
	assert.Equal(t, "/orders", problem.Instance)
}

func TestResponder_MapsFaultsWithBaseURI(t *testing.T) {
	responder := NewChainedResponder("https://errors.example.com", FaultMapper)
	rec, problem := serve(t, func(c *gin.Context) {
		responder.RespondError(c, faults.NotFound("order 9 not found"))
	}, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "https://errors.example.com"+TypeNotFound, problem.Type)
	assert.Equal(t, "not_found: order 9 not found", problem.Detail)
}

func TestResponder_RespondBindingListsFields(t *testing.T) {
	responder := NewChainedResponder("")
	handler := func(c *gin.Context) {
		var target bindTarget
		if err := c.ShouldBindJSON(&target); err != nil {
			responder.RespondBinding(c, err)
		}
	}

	rec, problem := serve(t, handler, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, TypeValidation, problem.Type)
	assert.Equal(t, map[string]any{"SiteID": "required"}, problem.Extensions["fields"])

	rec, problem = serve(t, handler, `{"siteId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, TypeBadRequest, problem.Type)
}
