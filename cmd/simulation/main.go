package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ksred/klear-indexer/internal/auth"
	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/types"
)

const (
	minBlocks      = 15
	maxBlocks      = 150
	eventsPerBlock = 8
	numWorkers     = 5
	replayRate     = 0.1 // share of blocks submitted twice
	serverAddress  = "http://localhost:8080"
)

var simulatedMarkets = []markets.PerpetualMarket{
	{ID: "0", ClobPairID: "0", Ticker: "BTC-USD", TickSize: "0.01", StepSize: "0.0001", Status: markets.StatusActive},
	{ID: "1", ClobPairID: "1", Ticker: "ETH-USD", TickSize: "0.001", StepSize: "0.001", Status: markets.StatusActive},
	{ID: "2", ClobPairID: "2", Ticker: "SOL-USD", TickSize: "0.0001", StepSize: "0.1", Status: markets.StatusActive},
}

func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks latency for one API endpoint
type routeStats struct {
	mu         sync.Mutex
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

func (rs *routeStats) addDuration(d time.Duration, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
	if err != nil {
		rs.failures++
	}
}

// calculate returns min, max, mean, median, p95 and p99
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95 = rs.durations[int(math.Ceil(float64(len(rs.durations))*0.95))-1]
	p99 = rs.durations[int(math.Ceil(float64(len(rs.durations))*0.99))-1]
	return
}

// simulationClient posts blocks to a running indexer
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client
	stats     map[string]*routeStats
}

func newSimulationClient() (*simulationClient, error) {
	sc := &simulationClient{
		baseURL: serverAddress,
		client:  &http.Client{Timeout: 10 * time.Second},
		stats: map[string]*routeStats{
			"auth":   {name: "Authentication"},
			"market": {name: "Upsert Market"},
			"block":  {name: "Process Block"},
			"get":    {name: "Get Order"},
		},
	}

	token, err := sc.authenticate()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	sc.authToken = token
	return sc, nil
}

func (sc *simulationClient) authenticate() (token string, err error) {
	start := time.Now()
	defer func() { sc.stats["auth"].addDuration(time.Since(start), err) }()

	var result struct {
		Data struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	err = sc.do(http.MethodPost, "/api/v1/auth/token", auth.Credentials{
		APIKey:    auth.TestAPIKey,
		APISecret: auth.TestAPISecret,
	}, &result)
	return result.Data.Token, err
}

func (sc *simulationClient) upsertMarket(market markets.PerpetualMarket) (err error) {
	start := time.Now()
	defer func() { sc.stats["market"].addDuration(time.Since(start), err) }()
	return sc.do(http.MethodPut, "/api/v1/internal/markets", market, nil)
}

func (sc *simulationClient) processBlock(block types.Block) (err error) {
	start := time.Now()
	defer func() { sc.stats["block"].addDuration(time.Since(start), err) }()
	return sc.do(http.MethodPost, "/api/v1/internal/blocks", block, nil)
}

func (sc *simulationClient) getOrderStatus(orderID string) (status string, err error) {
	start := time.Now()
	defer func() { sc.stats["get"].addDuration(time.Since(start), err) }()

	var result struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	err = sc.do(http.MethodGet, "/api/v1/orders/"+orderID, nil, &result)
	return result.Data.Status, err
}

func (sc *simulationClient) do(method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if sc.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+sc.authToken)
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// randomPlacement builds a conditional order placement for a random market
func randomPlacement(rng *rand.Rand, owners []string) types.IndexerEvent {
	conditionType := types.ConditionTypeStopLoss
	if rng.Intn(2) == 0 {
		conditionType = types.ConditionTypeTakeProfit
	}
	side := types.SideBuy
	if rng.Intn(2) == 0 {
		side = types.SideSell
	}
	subticks := uint64(rng.Intn(1_000_000) + 1)

	return types.IndexerEvent{
		Kind: types.EventKindStatefulOrder,
		StatefulOrder: &types.StatefulOrderEvent{
			ConditionalOrderPlacement: &types.ConditionalOrderPlacementEvent{
				Order: types.IndexerOrder{
					OrderID: types.OrderID{
						SubaccountID: types.SubaccountID{Owner: owners[rng.Intn(len(owners))], Number: uint32(rng.Intn(3))},
						ClientID:     rng.Uint32(),
						OrderFlags:   32,
						ClobPairID:   uint32(rng.Intn(len(simulatedMarkets))),
					},
					Side:                            side,
					Quantums:                        uint64(rng.Intn(10_000) + 1),
					Subticks:                        subticks,
					GoodTilBlockTime:                uint32(time.Now().Add(24 * time.Hour).Unix()),
					ConditionType:                   conditionType,
					ConditionalOrderTriggerSubticks: subticks + uint64(rng.Intn(1000)),
				},
			},
		},
	}
}

func main() {
	sc, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create simulation client")
	}

	for _, market := range simulatedMarkets {
		if err := sc.upsertMarket(market); err != nil {
			log.Fatal().Err(err).Str("ticker", market.Ticker).Msg("failed to create market")
		}
	}

	owners := make([]string, 10)
	for i := range owners {
		owners[i] = "klear1" + uuid.New().String()[:8]
	}

	numBlocks := rand.Intn(maxBlocks-minBlocks+1) + minBlocks
	log.Info().Int("blocks", numBlocks).Int("workers", numWorkers).Msg("starting simulation")

	blocks := make(chan types.Block)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		orderIDs []string
	)
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
			for block := range blocks {
				if err := sc.processBlock(block); err != nil {
					log.Error().Err(err).Uint32("height", block.Height).Msg("block failed")
					continue
				}
				// Redelivered blocks must leave the same rows behind
				if rng.Float64() < replayRate {
					if err := sc.processBlock(block); err != nil {
						log.Error().Err(err).Uint32("height", block.Height).Msg("block replay failed")
					}
				}

				mu.Lock()
				for _, event := range block.Events {
					orderIDs = append(orderIDs, event.StatefulOrder.ConditionalOrderPlacement.Order.OrderID.UUID())
				}
				mu.Unlock()
			}
		}(w)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for h := 1; h <= numBlocks; h++ {
		block := types.Block{Height: uint32(h), Time: time.Now().UTC()}
		for i := 0; i < eventsPerBlock; i++ {
			event := randomPlacement(rng, owners)
			event.EventIndex = uint32(i)
			block.Events = append(block.Events, event)
		}
		blocks <- block
	}
	close(blocks)
	wg.Wait()

	untriggered := 0
	for _, id := range orderIDs {
		status, err := sc.getOrderStatus(id)
		if err != nil {
			log.Error().Err(err).Str("order_id", id).Msg("failed to fetch order")
			continue
		}
		if status == "UNTRIGGERED" {
			untriggered++
		}
	}
	log.Info().Int("orders", len(orderIDs)).Int("untriggered", untriggered).Msg("verified stored orders")

	for _, key := range []string{"auth", "market", "block", "get"} {
		rs := sc.stats[key]
		min, max, mean, median, p95, p99 := rs.calculate()
		log.Info().
			Str("route", rs.name).
			Int("calls", rs.totalCalls).
			Int("failures", rs.failures).
			Dur("min", min).
			Dur("max", max).
			Dur("mean", mean).
			Dur("median", median).
			Dur("p95", p95).
			Dur("p99", p99).
			Msg("route statistics")
	}
}
