package api

import (
	"github.com/forge-industries/fleet-miner/internal/domain/market"
	"github.com/forge-industries/fleet-miner/internal/domain/navigation"
	"github.com/forge-industries/fleet-miner/internal/domain/shared"
	"github.com/forge-industries/fleet-miner/internal/ports"
)

// ShipFromData reconstructs a domain Ship from the API's parsed ship view,
// following the teacher's ShipRepository.modelToDomain conversion idiom.
func ShipFromData(data *ports.ShipData) (*navigation.Ship, error) {
	loc, err := shared.NewWaypoint(data.WaypointSymbol, 0, 0)
	if err != nil {
		return nil, err
	}
	fuel, err := shared.NewFuel(data.FuelCurrent, data.FuelCapacity)
	if err != nil {
		return nil, err
	}

	items := make([]*shared.CargoItem, 0, len(data.CargoInventory))
	for _, ci := range data.CargoInventory {
		item, err := shared.NewCargoItem(ci.Symbol, "", "", ci.Units)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	cargo, err := shared.NewCargo(data.CargoCapacity, data.CargoUnits, items)
	if err != nil {
		return nil, err
	}

	mounts := make([]*navigation.Mount, 0, len(data.Mounts))
	for _, m := range data.Mounts {
		mounts = append(mounts, navigation.NewMount(m.Symbol, m.Power, m.Strength, m.Deposits))
	}

	return navigation.ReconstructShip(
		data.Symbol,
		loc,
		fuel,
		data.CargoCapacity,
		cargo,
		mounts,
		navigation.NavStatus(data.NavStatus),
		shared.ParseFlightMode(data.FlightMode),
		data.ArrivalTime,
		data.CooldownExpiration,
	)
}

// MarketFromData converts the API's parsed market view into a domain Market.
func MarketFromData(data *ports.MarketData) (*market.Market, error) {
	goods := make([]market.TradeGood, 0, len(data.TradeGoods))
	for _, g := range data.TradeGoods {
		tg, err := market.NewTradeGood(g.Symbol, g.Supply, g.Activity, g.PurchasePrice, g.SellPrice, g.TradeVolume)
		if err != nil {
			continue
		}
		goods = append(goods, *tg)
	}
	return market.NewMarket(data.Symbol, data.Exports, data.Imports, data.Exchanges, goods)
}

// IsMarketWaypoint reports whether a waypoint listing entry carries the
// MARKETPLACE trait, matching original_source/src/util.rs's is_market.
func IsMarketWaypoint(w *ports.WaypointData) bool {
	for _, t := range w.Traits {
		if t == "MARKETPLACE" {
			return true
		}
	}
	return false
}

// IsAsteroidWaypoint reports whether a waypoint listing entry is an asteroid
// field, matching original_source/src/util.rs's is_asteroid.
func IsAsteroidWaypoint(w *ports.WaypointData) bool {
	return w.Type == "ASTEROID_FIELD"
}
