package orders

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ksred/klear-indexer/internal/types"
	"github.com/ksred/klear-indexer/pkg/response"
	"gorm.io/gorm"
)

// Service exposes read access to persisted orders
type Service struct {
	db *Database
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// GetOrder retrieves an order by its uuid
func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.db.GetOrder(ctx, orderID)
}

// ListSubaccountOrders retrieves every order owned by the subaccount
func (s *Service) ListSubaccountOrders(ctx context.Context, subaccount types.SubaccountID) ([]Order, error) {
	return s.db.ListBySubaccount(ctx, subaccount.UUID())
}

// GetDB returns the order store backing the service
func (s *Service) GetDB() *Database {
	return s.db
}

// GinHandlers contains HTTP handlers for order endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GetOrderHandler handles GET requests for a single order
// URL parameter: order_id
func (h *GinHandlers) GetOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("order_id")
		if orderID == "" {
			response.BadRequest(c, "Order ID is required")
			return
		}

		order, err := h.service.GetOrder(c.Request.Context(), orderID)
		response.Handle(c, order, err)
	}
}

// ListSubaccountOrdersHandler handles GET requests for a subaccount's orders
// URL parameters: address, number
func (h *GinHandlers) ListSubaccountOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		number, err := strconv.ParseUint(c.Param("number"), 10, 32)
		if err != nil {
			response.BadRequest(c, "Subaccount number must be an unsigned integer")
			return
		}

		subaccount := types.SubaccountID{Owner: c.Param("address"), Number: uint32(number)}
		orders, err := h.service.ListSubaccountOrders(c.Request.Context(), subaccount)
		response.Handle(c, gin.H{
			"subaccount_id": subaccount.UUID(),
			"orders":        orders,
		}, err)
	}
}
