// Package api implements ports.APIClient against the live SpaceTraders HTTP
// API: rate limiting, retry-with-backoff, and circuit breaking wrap every
// call, following the teacher's SpaceTradersClient shape.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/forge-industries/fleet-miner/internal/domain/shared"
	"github.com/forge-industries/fleet-miner/internal/ports"
)

const (
	defaultBaseURL          = "https://api.spacetraders.io/v2"
	defaultTimeout          = 30 * time.Second
	defaultMaxRetries       = 5
	defaultBackoffBase      = time.Second
	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = 60 * time.Second
)

// Client implements ports.APIClient against the live SpaceTraders HTTP API.
type Client struct {
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	baseURL        string
	maxRetries     int
	backoffBase    time.Duration
	circuitBreaker *CircuitBreaker
	clock          shared.Clock
}

var _ ports.APIClient = (*Client)(nil)

// NewClient creates a client with the spec's default tuning: 2 req/s burst 2,
// 5 retries at 1s exponential backoff, breaker opens after 5 failures for 60s.
func NewClient() *Client {
	return NewClientWithConfig(defaultBaseURL, defaultMaxRetries, defaultBackoffBase, defaultCircuitThreshold, defaultCircuitTimeout, nil)
}

// NewClientWithConfig creates a client with explicit tuning and an injectable
// clock, so tests can run the retry/backoff paths without sleeping.
func NewClientWithConfig(baseURL string, maxRetries int, backoffBase time.Duration, circuitThreshold int, circuitTimeout time.Duration, clock shared.Clock) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Client{
		httpClient:     &http.Client{Timeout: defaultTimeout},
		rateLimiter:    rate.NewLimiter(rate.Limit(2), 2),
		baseURL:        baseURL,
		maxRetries:     maxRetries,
		backoffBase:    backoffBase,
		circuitBreaker: NewCircuitBreaker(circuitThreshold, circuitTimeout, clock),
		clock:          clock,
	}
}

// Register creates a new agent and returns its bearer token.
func (c *Client) Register(ctx context.Context, callsign, faction, email string) (*ports.RegisterResult, error) {
	reqBody := map[string]string{"symbol": callsign, "faction": faction}
	if email != "" {
		reqBody["email"] = email
	}

	var resp struct {
		Data struct {
			Token string        `json:"token"`
			Agent agentEnvelope `json:"agent"`
		} `json:"data"`
	}

	if err := c.request(ctx, http.MethodPost, "/register", "", true, reqBody, &resp); err != nil {
		return nil, err
	}

	return &ports.RegisterResult{
		Token: resp.Data.Token,
		Agent: resp.Data.Agent.toData(),
	}, nil
}

// GetAgent fetches the caller's agent record.
func (c *Client) GetAgent(ctx context.Context, token string) (*ports.AgentData, error) {
	var resp struct {
		Data agentEnvelope `json:"data"`
	}
	if err := c.request(ctx, http.MethodGet, "/my/agent", token, false, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.toData(), nil
}

type agentEnvelope struct {
	Symbol       string `json:"symbol"`
	Faction      string `json:"startingFaction"`
	Credits      int64  `json:"credits"`
	Headquarters string `json:"headquarters"`
}

func (a agentEnvelope) toData() *ports.AgentData {
	return &ports.AgentData{
		Symbol:       a.Symbol,
		Faction:      a.Faction,
		Credits:      a.Credits,
		Headquarters: a.Headquarters,
	}
}

// GetShip fetches one ship's full nav/fuel/cargo/mounts state.
func (c *Client) GetShip(ctx context.Context, symbol, token string) (*ports.ShipData, error) {
	var resp struct {
		Data shipEnvelope `json:"data"`
	}
	if err := c.request(ctx, http.MethodGet, "/my/ships/"+symbol, token, false, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.toData(), nil
}

// ListShips fetches every ship owned by the calling agent.
func (c *Client) ListShips(ctx context.Context, token string) ([]*ports.ShipData, error) {
	var resp struct {
		Data []shipEnvelope `json:"data"`
	}
	if err := c.request(ctx, http.MethodGet, "/my/ships", token, false, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*ports.ShipData, len(resp.Data))
	for i, s := range resp.Data {
		out[i] = s.toData()
	}
	return out, nil
}

type shipEnvelope struct {
	Symbol string `json:"symbol"`
	Nav    struct {
		WaypointSymbol string `json:"waypointSymbol"`
		Status         string `json:"status"`
		FlightMode     string `json:"flightMode"`
		Route          struct {
			Arrival string `json:"arrival"`
		} `json:"route"`
	} `json:"nav"`
	Cooldown struct {
		Expiration string `json:"expiration"`
	} `json:"cooldown"`
	Fuel struct {
		Current  int `json:"current"`
		Capacity int `json:"capacity"`
	} `json:"fuel"`
	Cargo struct {
		Capacity  int `json:"capacity"`
		Units     int `json:"units"`
		Inventory []struct {
			Symbol string `json:"symbol"`
			Units  int    `json:"units"`
		} `json:"inventory"`
	} `json:"cargo"`
	Mounts []struct {
		Symbol   string   `json:"symbol"`
		Power    int      `json:"power"`
		Strength int      `json:"strength"`
		Deposits []string `json:"deposits"`
	} `json:"mounts"`
}

func (s shipEnvelope) toData() *ports.ShipData {
	inventory := make([]ports.CargoItemData, len(s.Cargo.Inventory))
	for i, item := range s.Cargo.Inventory {
		inventory[i] = ports.CargoItemData{Symbol: item.Symbol, Units: item.Units}
	}
	mounts := make([]ports.MountData, len(s.Mounts))
	for i, m := range s.Mounts {
		mounts[i] = ports.MountData{Symbol: m.Symbol, Power: m.Power, Strength: m.Strength, Deposits: m.Deposits}
	}

	var arrival *time.Time
	if t, err := time.Parse(time.RFC3339, s.Nav.Route.Arrival); err == nil {
		arrival = &t
	}
	var cooldown *time.Time
	if t, err := time.Parse(time.RFC3339, s.Cooldown.Expiration); err == nil {
		cooldown = &t
	}

	return &ports.ShipData{
		Symbol:             s.Symbol,
		WaypointSymbol:     s.Nav.WaypointSymbol,
		NavStatus:          s.Nav.Status,
		FlightMode:         s.Nav.FlightMode,
		ArrivalTime:        arrival,
		CooldownExpiration: cooldown,
		FuelCurrent:        s.Fuel.Current,
		FuelCapacity:       s.Fuel.Capacity,
		CargoCapacity:      s.Cargo.Capacity,
		CargoUnits:         s.Cargo.Units,
		CargoInventory:     inventory,
		Mounts:             mounts,
	}
}

// OrbitShip moves a docked ship into orbit.
func (c *Client) OrbitShip(ctx context.Context, symbol, token string) (*ports.NavResult, error) {
	var resp struct {
		Data struct {
			Nav struct {
				Status     string `json:"status"`
				FlightMode string `json:"flightMode"`
			} `json:"nav"`
		} `json:"data"`
	}
	if err := c.request(ctx, http.MethodPost, "/my/ships/"+symbol+"/orbit", token, true, nil, &resp); err != nil {
		return nil, err
	}
	return &ports.NavResult{NavStatus: resp.Data.Nav.Status, FlightMode: resp.Data.Nav.FlightMode}, nil
}

// DockShip moves an orbiting ship to its waypoint's surface.
func (c *Client) DockShip(ctx context.Context, symbol, token string) (*ports.NavResult, error) {
	var resp struct {
		Data struct {
			Nav struct {
				Status     string `json:"status"`
				FlightMode string `json:"flightMode"`
			} `json:"nav"`
		} `json:"data"`
	}
	if err := c.request(ctx, http.MethodPost, "/my/ships/"+symbol+"/dock", token, true, nil, &resp); err != nil {
		return nil, err
	}
	return &ports.NavResult{NavStatus: resp.Data.Nav.Status, FlightMode: resp.Data.Nav.FlightMode}, nil
}

// NavigateShip sends an orbiting ship toward destination.
func (c *Client) NavigateShip(ctx context.Context, symbol, destination, token string) (*ports.NavigateResult, error) {
	reqBody := map[string]string{"waypointSymbol": destination}

	var resp struct {
		Data struct {
			Nav struct {
				Status string `json:"status"`
				Route  struct {
					Arrival string `json:"arrival"`
				} `json:"route"`
			} `json:"nav"`
			Fuel struct {
				Current  int `json:"current"`
				Capacity int `json:"capacity"`
			} `json:"fuel"`
		} `json:"data"`
	}
	if err := c.request(ctx, http.MethodPost, "/my/ships/"+symbol+"/navigate", token, true, reqBody, &resp); err != nil {
		return nil, err
	}

	arrival, err := time.Parse(time.RFC3339, resp.Data.Nav.Route.Arrival)
	if err != nil {
		return nil, fmt.Errorf("failed to parse arrival time: %w", err)
	}

	return &ports.NavigateResult{
		NavStatus:    resp.Data.Nav.Status,
		ArrivalTime:  arrival,
		FuelCurrent:  resp.Data.Fuel.Current,
		FuelCapacity: resp.Data.Fuel.Capacity,
	}, nil
}

// SetFlightMode changes a ship's cruise/burn/drift/stealth mode.
func (c *Client) SetFlightMode(ctx context.Context, symbol, flightMode, token string) (*ports.NavResult, error) {
	reqBody := map[string]string{"flightMode": flightMode}

	var resp struct {
		Data struct {
			Status     string `json:"status"`
			FlightMode string `json:"flightMode"`
		} `json:"data"`
	}
	if err := c.request(ctx, http.MethodPatch, "/my/ships/"+symbol+"/nav", token, true, reqBody, &resp); err != nil {
		return nil, err
	}
	return &ports.NavResult{NavStatus: resp.Data.Status, FlightMode: resp.Data.FlightMode}, nil
}

// RefuelShip buys fuel at the ship's current waypoint market.
func (c *Client) RefuelShip(ctx context.Context, symbol, token string, units int) (*ports.RefuelResult, error) {
	reqBody := map[string]int{"units": units}

	var resp struct {
		Data struct {
			Fuel struct {
				Current  int `json:"current"`
				Capacity int `json:"capacity"`
			} `json:"fuel"`
		} `json:"data"`
	}
	if err := c.request(ctx, http.MethodPost, "/my/ships/"+symbol+"/refuel", token, true, reqBody, &resp); err != nil {
		return nil, err
	}
	return &ports.RefuelResult{FuelCurrent: resp.Data.Fuel.Current, FuelCapacity: resp.Data.Fuel.Capacity}, nil
}

// Survey samples a ship's asteroid waypoint for deposit tickets.
func (c *Client) Survey(ctx context.Context, symbol, token string) (*ports.SurveyResult, error) {
	var resp struct {
		Data struct {
			Cooldown struct {
				Expiration string `json:"expiration"`
			} `json:"cooldown"`
			Surveys []struct {
				Signature      string   `json:"signature"`
				Symbol         string   `json:"symbol"`
				Deposits       []string `json:"deposits"`
				ExpirationTime string   `json:"expiration"`
			} `json:"surveys"`
		} `json:"data"`
	}
	if err := c.request(ctx, http.MethodPost, "/my/ships/"+symbol+"/survey", token, true, nil, &resp); err != nil {
		return nil, err
	}

	cooldown, err := time.Parse(time.RFC3339, resp.Data.Cooldown.Expiration)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cooldown expiration: %w", err)
	}

	surveys := make([]ports.SurveyData, len(resp.Data.Surveys))
	for i, s := range resp.Data.Surveys {
		expires, err := time.Parse(time.RFC3339, s.ExpirationTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse survey expiration: %w", err)
		}
		surveys[i] = ports.SurveyData{
			Signature:      s.Signature,
			AsteroidSymbol: s.Symbol,
			Deposits:       s.Deposits,
			ExpiresAt:      expires,
		}
	}

	return &ports.SurveyResult{CooldownExpiration: cooldown, Surveys: surveys}, nil
}

// Extract mines cargo from a ship's current asteroid waypoint, optionally
// against a survey ticket.
func (c *Client) Extract(ctx context.Context, symbol, token string, surveySignature string, surveyDeposits []string) (*ports.ExtractResult, error) {
	var reqBody interface{}
	if surveySignature != "" {
		reqBody = map[string]interface{}{
			"survey": map[string]interface{}{
				"signature": surveySignature,
				"deposits":  surveyDeposits,
			},
		}
	}

	var resp struct {
		Data struct {
			Cooldown struct {
				Expiration string `json:"expiration"`
			} `json:"cooldown"`
			Extraction struct {
				Yield struct {
					Symbol string `json:"symbol"`
					Units  int    `json:"units"`
				} `json:"yield"`
			} `json:"extraction"`
			Cargo struct {
				Units     int `json:"units"`
				Capacity  int `json:"capacity"`
				Inventory []struct {
					Symbol string `json:"symbol"`
					Units  int    `json:"units"`
				} `json:"inventory"`
			} `json:"cargo"`
		} `json:"data"`
	}
	if err := c.request(ctx, http.MethodPost, "/my/ships/"+symbol+"/extract", token, true, reqBody, &resp); err != nil {
		return nil, err
	}

	cooldown, err := time.Parse(time.RFC3339, resp.Data.Cooldown.Expiration)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cooldown expiration: %w", err)
	}

	inventory := make([]ports.CargoItemData, len(resp.Data.Cargo.Inventory))
	for i, item := range resp.Data.Cargo.Inventory {
		inventory[i] = ports.CargoItemData{Symbol: item.Symbol, Units: item.Units}
	}

	return &ports.ExtractResult{
		CooldownExpiration: cooldown,
		YieldSymbol:        resp.Data.Extraction.Yield.Symbol,
		YieldUnits:         resp.Data.Extraction.Yield.Units,
		CargoUnits:         resp.Data.Cargo.Units,
		CargoCapacity:      resp.Data.Cargo.Capacity,
		CargoInventory:     inventory,
	}, nil
}

// SellCargo sells units of one cargo good at the ship's docked waypoint.
func (c *Client) SellCargo(ctx context.Context, symbol, goodSymbol string, units int, token string) (*ports.SellResult, error) {
	reqBody := map[string]interface{}{"symbol": goodSymbol, "units": units}

	var resp struct {
		Data struct {
			Transaction struct {
				TotalPrice int `json:"totalPrice"`
			} `json:"transaction"`
			Cargo struct {
				Units     int `json:"units"`
				Capacity  int `json:"capacity"`
				Inventory []struct {
					Symbol string `json:"symbol"`
					Units  int    `json:"units"`
				} `json:"inventory"`
			} `json:"cargo"`
		} `json:"data"`
	}
	if err := c.request(ctx, http.MethodPost, "/my/ships/"+symbol+"/sell", token, true, reqBody, &resp); err != nil {
		return nil, err
	}

	inventory := make([]ports.CargoItemData, len(resp.Data.Cargo.Inventory))
	for i, item := range resp.Data.Cargo.Inventory {
		inventory[i] = ports.CargoItemData{Symbol: item.Symbol, Units: item.Units}
	}

	return &ports.SellResult{
		TotalRevenue:   resp.Data.Transaction.TotalPrice,
		CargoUnits:     resp.Data.Cargo.Units,
		CargoCapacity:  resp.Data.Cargo.Capacity,
		CargoInventory: inventory,
	}, nil
}

// GetMarket fetches the trade-goods listing at a market waypoint.
func (c *Client) GetMarket(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.MarketData, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/market", systemSymbol, waypointSymbol)

	var resp struct {
		Data struct {
			Symbol     string                    `json:"symbol"`
			Exports    []struct{ Symbol string } `json:"exports"`
			Imports    []struct{ Symbol string } `json:"imports"`
			Exchange   []struct{ Symbol string } `json:"exchange"`
			TradeGoods []struct {
				Symbol        string `json:"symbol"`
				Supply        string `json:"supply"`
				Activity      string `json:"activity"`
				SellPrice     int    `json:"sellPrice"`
				PurchasePrice int    `json:"purchasePrice"`
				TradeVolume   int    `json:"tradeVolume"`
			} `json:"tradeGoods"`
		} `json:"data"`
	}
	if err := c.request(ctx, http.MethodGet, path, token, false, nil, &resp); err != nil {
		return nil, err
	}

	toSymbols := func(items []struct{ Symbol string }) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.Symbol
		}
		return out
	}

	tradeGoods := make([]ports.TradeGoodData, len(resp.Data.TradeGoods))
	for i, tg := range resp.Data.TradeGoods {
		tradeGoods[i] = ports.TradeGoodData{
			Symbol:        tg.Symbol,
			Supply:        tg.Supply,
			Activity:      tg.Activity,
			SellPrice:     tg.SellPrice,
			PurchasePrice: tg.PurchasePrice,
			TradeVolume:   tg.TradeVolume,
			TradeType:     "EXCHANGE",
		}
	}

	return &ports.MarketData{
		Symbol:     resp.Data.Symbol,
		Exports:    toSymbols(resp.Data.Exports),
		Imports:    toSymbols(resp.Data.Imports),
		Exchanges:  toSymbols(resp.Data.Exchange),
		TradeGoods: tradeGoods,
	}, nil
}

// ListSystemWaypoints fetches every waypoint in a system, paging through the
// API's 20-per-page default.
func (c *Client) ListSystemWaypoints(ctx context.Context, systemSymbol, token string) ([]*ports.WaypointData, error) {
	var out []*ports.WaypointData
	page := 1
	const limit = 20

	for {
		path := fmt.Sprintf("/systems/%s/waypoints?page=%d&limit=%d", systemSymbol, page, limit)

		var resp struct {
			Data []struct {
				Symbol string `json:"symbol"`
				Type   string `json:"type"`
				Traits []struct {
					Symbol string `json:"symbol"`
				} `json:"traits"`
			} `json:"data"`
			Meta struct {
				Total int `json:"total"`
			} `json:"meta"`
		}
		if err := c.request(ctx, http.MethodGet, path, token, false, nil, &resp); err != nil {
			return nil, err
		}

		for _, w := range resp.Data {
			traits := make([]string, len(w.Traits))
			for i, t := range w.Traits {
				traits[i] = t.Symbol
			}
			out = append(out, &ports.WaypointData{Symbol: w.Symbol, Type: w.Type, Traits: traits})
		}

		if len(out) >= resp.Meta.Total || len(resp.Data) == 0 {
			break
		}
		page++
	}

	return out, nil
}

// request executes one HTTP call behind the rate limiter and circuit
// breaker, retrying transient failures with exponential backoff and
// stamping mutating calls with an idempotency key.
func (c *Client) request(ctx context.Context, method, path, token string, mutating bool, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var idempotencyKey string
	if mutating {
		idempotencyKey = uuid.NewString()
	}

	var lastErr error

	err := c.circuitBreaker.Call(func() error {
		for attempt := 0; attempt <= c.maxRetries; attempt++ {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter error: %w", err)
			}

			var reqBody io.Reader
			if body != nil {
				jsonData, err := json.Marshal(body)
				if err != nil {
					return fmt.Errorf("failed to marshal request body: %w", err)
				}
				reqBody = bytes.NewBuffer(jsonData)
			}

			req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			if idempotencyKey != "" {
				req.Header.Set("Idempotency-Key", idempotencyKey)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				lastErr = fmt.Errorf("network error: %w", err)
				if attempt >= c.maxRetries {
					break
				}
				if ctx.Err() != nil {
					return fmt.Errorf("context cancelled: %w", ctx.Err())
				}
				c.clock.Sleep(c.backoffBase * time.Duration(1<<attempt))
				continue
			}

			respBody, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("transient error (status %d)", resp.StatusCode)
				if attempt >= c.maxRetries {
					break
				}
				if ctx.Err() != nil {
					return fmt.Errorf("context cancelled: %w", ctx.Err())
				}

				backoffDelay := c.backoffBase * time.Duration(1<<attempt)
				if resp.StatusCode == http.StatusTooManyRequests {
					if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
						if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
							backoffDelay = time.Duration(seconds) * time.Second
						}
					}
				}
				c.clock.Sleep(backoffDelay)
				continue
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return parseAPIError(resp.StatusCode, respBody)
			}

			if result != nil {
				if err := json.Unmarshal(respBody, result); err != nil {
					return fmt.Errorf("failed to unmarshal response: %w", err)
				}
			}
			return nil
		}

		if lastErr != nil {
			return fmt.Errorf("max retries exceeded: %w", lastErr)
		}
		return fmt.Errorf("max retries exceeded")
	})

	if errors.Is(err, ErrCircuitOpen) {
		return fmt.Errorf("circuit breaker open: %w", err)
	}
	return err
}

// parseAPIError decodes the SpaceTraders error envelope into a typed
// *shared.APIError so callers can switch on its numeric code (4000, 4221,
// 4224) without string matching.
func parseAPIError(statusCode int, body []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Code == 0 {
		return shared.NewAPIError(0, statusCode, string(body))
	}
	return shared.NewAPIError(envelope.Error.Code, statusCode, envelope.Error.Message)
}

// GetCircuitBreakerState returns the breaker's current state, for tests.
func (c *Client) GetCircuitBreakerState() CircuitState {
	return c.circuitBreaker.GetState()
}
