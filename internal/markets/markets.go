package markets

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/ksred/klear-indexer/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service manages the perpetual market table and keeps the cache in step
type Service struct {
	db        *Database
	refresher *Refresher
}

func NewService(gormDB *gorm.DB, refresher *Refresher) *Service {
	return &Service{
		db:        NewDatabase(gormDB),
		refresher: refresher,
	}
}

// UpsertMarket stores the market and reloads the cache so that orders for a
// new market resolve on both placement paths straight away.
func (s *Service) UpsertMarket(ctx context.Context, market *PerpetualMarket) error {
	logger := log.With().
		Str("clob_pair_id", market.ClobPairID).
		Str("ticker", market.Ticker).
		Str("service", "markets").
		Logger()

	if err := market.Validate(); err != nil {
		return err
	}
	if err := s.db.Upsert(ctx, market); err != nil {
		logger.Error().Err(err).Msg("failed to upsert perpetual market")
		return err
	}
	if err := s.refresher.Update(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to refresh market cache after upsert")
		return err
	}

	logger.Info().Msg("perpetual market stored")
	return nil
}

func (s *Service) ListMarkets(ctx context.Context) ([]PerpetualMarket, error) {
	return s.db.FindAll(ctx)
}

// GinHandlers contains HTTP handlers for market endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// UpsertMarketHandler handles PUT requests with a market definition
func (h *GinHandlers) UpsertMarketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var market PerpetualMarket
		if err := c.ShouldBindJSON(&market); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if err := market.Validate(); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.UpsertMarket(c.Request.Context(), &market); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, market)
	}
}

func (h *GinHandlers) ListMarketsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		markets, err := h.service.ListMarkets(c.Request.Context())
		response.Handle(c, markets, err)
	}
}
