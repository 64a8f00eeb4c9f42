package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	stockdomain "github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
)

func TestWriteHistory_RendersOneRowPerEntry(t *testing.T) {
	orderID := int64(12)
	entries := []*stockdomain.Entry{
		{
			ID: 2, ProductID: 5, Direction: stockdomain.DirectionOut, Kind: stockdomain.KindProduct,
			Quantity: decimal.RequireFromString("2.5"), ReferenceType: stockdomain.ReferenceOrder, ReferenceID: &orderID,
			Label: "approval", Active: true, CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		},
		{
			ID: 1, ProductID: 5, Direction: stockdomain.DirectionIn, Kind: stockdomain.KindProduct,
			Quantity: decimal.NewFromInt(10), Reason: "opening stock", Active: true,
			CreatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, 5, entries))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(historySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, historyHeadings, rows[0])
	assert.Equal(t, "2", rows[1][0])
	assert.Equal(t, "out", rows[1][2])
	assert.Equal(t, "2.5", rows[1][4])
	assert.Equal(t, "general", rows[1][5])
	assert.Equal(t, "order #12", rows[1][6])
	assert.Equal(t, "opening stock", rows[2][8])
}
