package dispatcher

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ksred/klear-indexer/internal/handlers"
	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/orders"
	"github.com/ksred/klear-indexer/internal/types"
	"github.com/ksred/klear-indexer/pkg/response"
)

// BlockResult is returned after a block has been applied
type BlockResult struct {
	Height            uint32 `json:"height"`
	EventCount        int    `json:"event_count"`
	NotificationCount int    `json:"notification_count"`
}

// GinHandlers contains HTTP handlers for block ingestion
type GinHandlers struct {
	processor *Processor
}

func NewGinHandlers(processor *Processor) *GinHandlers {
	return &GinHandlers{
		processor: processor,
	}
}

// ProcessBlockHandler handles POST requests carrying one block of events
func (h *GinHandlers) ProcessBlockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var block types.Block
		if err := c.ShouldBindJSON(&block); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		events, err := h.processor.ProcessBlock(c.Request.Context(), block)
		switch {
		case err == nil:
			response.Success(c, BlockResult{
				Height:            block.Height,
				EventCount:        len(block.Events),
				NotificationCount: len(events),
			})
		case errors.Is(err, handlers.ErrUnknownEvent):
			response.BadRequest(c, err.Error())
		case errors.Is(err, markets.ErrMarketNotFound),
			errors.Is(err, orders.ErrInvalidConditionType),
			errors.Is(err, orders.ErrInvalidSide),
			errors.Is(err, orders.ErrInvalidTimeInForce),
			errors.Is(err, orders.ErrInvalidMarketScale):
			response.Unprocessable(c, err.Error())
		default:
			response.Handle(c, nil, err)
		}
	}
}
