package procurementserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers of every API surface.
type ApiHandleFunctions struct {
	OrderAPI   OrderAPI
	StockAPI   StockAPI
	CatalogAPI CatalogAPI
}

// NewRouter returns a new router with the middleware applied before any route is registered.
func NewRouter(handleFunctions ApiHandleFunctions, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	return NewRouterWithGinEngine(router, handleFunctions, middleware...)
}

// NewRouterWithGinEngine adds the routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions, middleware ...gin.HandlerFunc) *gin.Engine {
	router.Use(middleware...)
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		router.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	return router
}

// DefaultHandleFunc answers routes whose handler is not wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"SubmitOrder", http.MethodPost, "/v1/orders", handleFunctions.OrderAPI.SubmitOrder},
		{"ListOrders", http.MethodGet, "/v1/orders", handleFunctions.OrderAPI.ListOrders},
		{"GetOrder", http.MethodGet, "/v1/orders/:orderId", handleFunctions.OrderAPI.GetOrder},
		{"DeleteOrder", http.MethodDelete, "/v1/orders/:orderId", handleFunctions.OrderAPI.DeleteOrder},
		{"ApproveOrder", http.MethodPost, "/v1/orders/:orderId/approve", handleFunctions.OrderAPI.ApproveOrder},
		{"RejectOrder", http.MethodPost, "/v1/orders/:orderId/reject", handleFunctions.OrderAPI.RejectOrder},
		{"DispatchOrder", http.MethodPost, "/v1/orders/:orderId/dispatch", handleFunctions.OrderAPI.DispatchOrder},
		{"CancelOrder", http.MethodPost, "/v1/orders/:orderId/cancel", handleFunctions.OrderAPI.CancelOrder},
		{"CalculateCustomQuantity", http.MethodPost, "/v1/custom-products/quantity", handleFunctions.OrderAPI.CalculateCustomQuantity},
		{"AdjustStock", http.MethodPost, "/v1/stock/adjustments", handleFunctions.StockAPI.AdjustStock},
		{"GetProductStock", http.MethodGet, "/v1/products/:productId/stock", handleFunctions.StockAPI.GetProductStock},
		{"GetStockHistory", http.MethodGet, "/v1/products/:productId/stock-history", handleFunctions.StockAPI.GetStockHistory},
		{"ExportStockHistory", http.MethodGet, "/v1/products/:productId/stock-history/export", handleFunctions.StockAPI.ExportStockHistory},
		{"GetProduct", http.MethodGet, "/v1/products/:productId", handleFunctions.CatalogAPI.GetProduct},
		{"SetProductBOM", http.MethodPut, "/v1/products/:productId/bom", handleFunctions.CatalogAPI.SetProductBOM},
	}
}
