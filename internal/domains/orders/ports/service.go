package ports

import (
	"context"

	ordertypes "github.com/Apurer/go-procurement-server/internal/domains/orders/application/types"
)

// Service defines the order use cases exposed to adapters.
type Service interface {
	Submit(ctx context.Context, input ordertypes.SubmitOrderInput) (*ordertypes.OrderView, error)
	Approve(ctx context.Context, input ordertypes.ApproveOrderInput) (*ordertypes.OrderView, error)
	Reject(ctx context.Context, input ordertypes.RejectOrderInput) (*ordertypes.OrderView, error)
	AdvanceDelivery(ctx context.Context, input ordertypes.AdvanceDeliveryInput) (*ordertypes.OrderView, error)
	Cancel(ctx context.Context, input ordertypes.OrderCommand) (*ordertypes.OrderView, error)
	Delete(ctx context.Context, input ordertypes.OrderCommand) error
	Get(ctx context.Context, id int64) (*ordertypes.OrderView, error)
	List(ctx context.Context, input ordertypes.ListOrdersInput) (*ordertypes.OrderPage, error)
	CalculateCustomProductQuantity(ctx context.Context, input ordertypes.CustomQuantityInput) (*ordertypes.CustomQuantityResult, error)
}
