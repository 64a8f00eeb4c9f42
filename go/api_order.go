package procurementserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	ordermapper "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/go-procurement-server/internal/domains/orders/application/types"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-procurement-server/internal/shared/errors"
)

// OrderAPI wires HTTP transport with the orders bounded context.
type OrderAPI struct {
	service ordersports.Service
}

func NewOrderAPI(service ordersports.Service) OrderAPI {
	return OrderAPI{service: service}
}

// Post /v1/orders
// Submit a new order. An Idempotency-Key header makes retries return the first order.
func (api *OrderAPI) SubmitOrder(c *gin.Context) {
	actor, ok := actorFromHeaders(c)
	if !ok {
		return
	}
	var payload ordermapper.SubmitOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		responder.RespondBinding(c, err)
		return
	}
	key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	view, err := api.service.Submit(c.Request.Context(), ordermapper.ToSubmitInput(actor, key, payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ordermapper.FromView(view))
}

// Get /v1/orders
// Lists the orders whose store types the actor may see
func (api *OrderAPI) ListOrders(c *gin.Context) {
	actor, ok := actorFromHeaders(c)
	if !ok {
		return
	}
	siteID, ok := parseOptionalInt(c, "site_id")
	if !ok {
		return
	}
	input := ordertypes.ListOrdersInput{Actor: actor, Status: c.Query("status"), SiteID: siteID}
	if input.Page, ok = queryInt(c, "page"); !ok {
		return
	}
	if input.PageSize, ok = queryInt(c, "page_size"); !ok {
		return
	}
	page, err := api.service.List(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromPage(page))
}

// Get /v1/orders/:orderId
// Projected view of one order
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	view, err := api.service.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromView(view))
}

// Delete /v1/orders/:orderId
func (api *OrderAPI) DeleteOrder(c *gin.Context) {
	command, ok := orderCommand(c)
	if !ok {
		return
	}
	if err := api.service.Delete(c.Request.Context(), command); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /v1/orders/:orderId/approve
func (api *OrderAPI) ApproveOrder(c *gin.Context) {
	command, ok := orderCommand(c)
	if !ok {
		return
	}
	var payload ordermapper.Decision
	if !bindOptionalJSON(c, &payload) {
		return
	}
	view, err := api.service.Approve(c.Request.Context(), ordertypes.ApproveOrderInput{
		OrderID:    command.OrderID,
		StoreTypes: ordermapper.ToStoreTypes(payload.StoreTypes),
		Actor:      command.Actor,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromView(view))
}

// Post /v1/orders/:orderId/reject
func (api *OrderAPI) RejectOrder(c *gin.Context) {
	command, ok := orderCommand(c)
	if !ok {
		return
	}
	var payload ordermapper.Decision
	if err := c.ShouldBindJSON(&payload); err != nil {
		responder.RespondBinding(c, err)
		return
	}
	view, err := api.service.Reject(c.Request.Context(), ordertypes.RejectOrderInput{
		OrderID:    command.OrderID,
		StoreTypes: ordermapper.ToStoreTypes(payload.StoreTypes),
		Note:       payload.Note,
		Actor:      command.Actor,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromView(view))
}

// Post /v1/orders/:orderId/dispatch
// Moves store types one step along the delivery progression
func (api *OrderAPI) DispatchOrder(c *gin.Context) {
	command, ok := orderCommand(c)
	if !ok {
		return
	}
	var payload ordermapper.Dispatch
	if err := c.ShouldBindJSON(&payload); err != nil {
		responder.RespondBinding(c, err)
		return
	}
	view, err := api.service.AdvanceDelivery(c.Request.Context(), ordertypes.AdvanceDeliveryInput{
		OrderID:    command.OrderID,
		StoreTypes: ordermapper.ToStoreTypes(payload.StoreTypes),
		Status:     domain.Status(strings.ToLower(strings.TrimSpace(payload.Status))),
		Actor:      command.Actor,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromView(view))
}

// Post /v1/orders/:orderId/cancel
func (api *OrderAPI) CancelOrder(c *gin.Context) {
	command, ok := orderCommand(c)
	if !ok {
		return
	}
	view, err := api.service.Cancel(c.Request.Context(), command)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromView(view))
}

// Post /v1/custom-products/quantity
// Stateless quantity calculation for fabricated materials
func (api *OrderAPI) CalculateCustomQuantity(c *gin.Context) {
	var payload ordermapper.QuantityRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		responder.RespondBinding(c, err)
		return
	}
	result, err := api.service.CalculateCustomProductQuantity(c.Request.Context(), ordermapper.ToQuantityInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromQuantityResult(result))
}

func orderCommand(c *gin.Context) (ordertypes.OrderCommand, bool) {
	actor, ok := actorFromHeaders(c)
	if !ok {
		return ordertypes.OrderCommand{}, false
	}
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return ordertypes.OrderCommand{}, false
	}
	return ordertypes.OrderCommand{OrderID: id, Actor: actor}, true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, target any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(target); err != nil {
		responder.RespondBinding(c, err)
		return false
	}
	return true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(name+" must be an integer"))
		return 0, false
	}
	return v, true
}
