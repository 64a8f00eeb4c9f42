package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

func TestFaultMapper_MapsKindsToStatusAndCode(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{faults.Validation("bad"), http.StatusBadRequest, "validation"},
		{faults.Authorization("no"), http.StatusForbidden, "authorization"},
		{faults.AlreadyApproved("twice"), http.StatusConflict, "already_approved"},
		{faults.AlreadyRejected("twice"), http.StatusConflict, "already_rejected"},
		{faults.ImmutableState("done"), http.StatusConflict, "immutable_state"},
		{faults.NotFound("gone"), http.StatusNotFound, "not_found"},
		{fmt.Errorf("locking: %w", faults.Conflict("busy")), http.StatusConflict, "conflict"},
	}
	for _, tc := range cases {
		problem, ok := FaultMapper(tc.err)
		require.True(t, ok, tc.code)
		assert.Equal(t, tc.status, problem.Status, tc.code)
		assert.Equal(t, tc.code, problem.Extensions["code"])
	}
}

func TestFaultMapper_InsufficientStockExtensions(t *testing.T) {
	err := fmt.Errorf("approve: %w", &faults.InsufficientStockError{
		ProductID: 4,
		Requested: decimal.NewFromInt(12),
		Available: decimal.NewFromInt(10),
	})
	problem, ok := FaultMapper(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, problem.Status)
	assert.Equal(t, "insufficient_stock", problem.Extensions["code"])
	assert.Equal(t, int64(4), problem.Extensions["productId"])
	assert.Equal(t, "2", problem.Extensions["shortfall"])
}

func TestFaultMapper_IgnoresUnclassifiedErrors(t *testing.T) {
	_, ok := FaultMapper(fmt.Errorf("boom"))
	assert.False(t, ok)
}
