// Package market models waypoint marketplaces: their exports/imports/
// exchanges and per-good trade prices. Snapshots are captured opportunistically
// whenever a ship docks at a market waypoint and persisted through the
// external store.
package market

import "github.com/forge-industries/fleet-miner/internal/domain/shared"

// TradeGood is one tradeable good at a market, carrying sell price and
// supply tier (the two facts the mining planner needs).
type TradeGood struct {
	Symbol        string
	Supply        string
	Activity      string
	SellPrice     int
	PurchasePrice int
	TradeVolume   int
	TradeType     string // EXPORT, IMPORT, or EXCHANGE
}

// NewTradeGood validates and constructs a TradeGood.
func NewTradeGood(symbol, supply, activity string, purchasePrice, sellPrice, tradeVolume int) (*TradeGood, error) {
	if symbol == "" {
		return nil, shared.NewValidationError("symbol", "cannot be empty")
	}
	return &TradeGood{
		Symbol:        symbol,
		Supply:        supply,
		Activity:      activity,
		PurchasePrice: purchasePrice,
		SellPrice:     sellPrice,
		TradeVolume:   tradeVolume,
	}, nil
}

// Market is an immutable snapshot of a waypoint's marketplace.
type Market struct {
	WaypointSymbol string
	Exports        []string
	Imports        []string
	Exchanges      []string
	TradeGoods     []TradeGood
}

// NewMarket validates and constructs a Market.
func NewMarket(waypointSymbol string, exports, imports, exchanges []string, goods []TradeGood) (*Market, error) {
	if waypointSymbol == "" {
		return nil, shared.NewValidationError("waypoint_symbol", "cannot be empty")
	}
	return &Market{
		WaypointSymbol: waypointSymbol,
		Exports:        exports,
		Imports:        imports,
		Exchanges:      exchanges,
		TradeGoods:     goods,
	}, nil
}

// SystemSymbol returns the system this market belongs to.
func (m *Market) SystemSymbol() string {
	return shared.SystemSymbol(m.WaypointSymbol)
}

// SellPriceFor returns the sell price for a good, and whether it is offered
// at this market at all.
func (m *Market) SellPriceFor(goodSymbol string) (int, bool) {
	for _, g := range m.TradeGoods {
		if g.Symbol == goodSymbol {
			return g.SellPrice, true
		}
	}
	return 0, false
}
