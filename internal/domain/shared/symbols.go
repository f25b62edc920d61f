package shared

import "fmt"

// SystemSymbol extracts the system symbol from a waypoint symbol by
// returning everything before the last hyphen.
// Example: "X1-DK53-66197A" -> "X1-DK53".
func SystemSymbol(waypointSymbol string) string {
	return ExtractSystemSymbol(waypointSymbol)
}

// ShipSymbol renders the ship symbol for the given agent callsign and fleet
// index, matching the original bot's "{agent}-{index:X}" convention
// (uppercase hexadecimal index).
// Example: ShipSymbol("C", 10) == "C-A"; ShipSymbol("C", 255) == "C-FF".
func ShipSymbol(agentCallsign string, index int) string {
	return fmt.Sprintf("%s-%X", agentCallsign, index)
}
