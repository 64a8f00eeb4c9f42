package procurementserver

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	stockexport "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/export"
	stockdomain "github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

const defaultHistoryLimit = 200

// StockAPI exposes the stock ledger.
type StockAPI struct {
	ledger stockports.Ledger
}

func NewStockAPI(ledger stockports.Ledger) StockAPI {
	return StockAPI{ledger: ledger}
}

// Post /v1/stock/adjustments
// Appends one ledger row
func (api *StockAPI) AdjustStock(c *gin.Context) {
	var payload StockAdjustment
	if err := c.ShouldBindJSON(&payload); err != nil {
		responder.RespondBinding(c, err)
		return
	}
	adjust := api.ledger.AdjustStock
	if strings.EqualFold(payload.Kind, string(stockdomain.KindMaterial)) {
		adjust = api.ledger.AdjustMaterialStock
	}
	entry, err := adjust(c.Request.Context(), payload.toPort())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromEntry(entry))
}

// Get /v1/products/:productId/stock
// Current balance; site_id adds that site's rows to the general ones
func (api *StockAPI) GetProductStock(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	siteID, ok := parseOptionalInt(c, "site_id")
	if !ok {
		return
	}
	balance, err := api.ledger.CurrentStock(c.Request.Context(), id, siteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, StockBalance{ProductID: id, SiteID: siteID, Balance: balance})
}

// Get /v1/products/:productId/stock-history
func (api *StockAPI) GetStockHistory(c *gin.Context) {
	filter, ok := historyFilter(c)
	if !ok {
		return
	}
	entries, err := api.ledger.History(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromEntries(entries))
}

// Get /v1/products/:productId/stock-history/export
// Same rows as the history endpoint rendered as an XLSX workbook
func (api *StockAPI) ExportStockHistory(c *gin.Context) {
	filter, ok := historyFilter(c)
	if !ok {
		return
	}
	entries, err := api.ledger.History(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := stockexport.WriteHistory(&buf, filter.ProductID, entries); err != nil {
		respondServiceError(c, err)
		return
	}
	filename := fmt.Sprintf("stock-history-%d.xlsx", filter.ProductID)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, stockexport.ContentTypeXLSX, buf.Bytes())
}

func historyFilter(c *gin.Context) (stockports.HistoryFilter, bool) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return stockports.HistoryFilter{}, false
	}
	siteID, ok := parseOptionalInt(c, "site_id")
	if !ok {
		return stockports.HistoryFilter{}, false
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return stockports.HistoryFilter{}, false
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return stockports.HistoryFilter{ProductID: id, SiteID: siteID, Limit: limit}, true
}
