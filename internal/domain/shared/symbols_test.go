package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemSymbolExtractsPrefix(t *testing.T) {
	assert.Equal(t, "X1-DK53", SystemSymbol("X1-DK53-66197A"))
	assert.Equal(t, "X1-AB12", ExtractSystemSymbol("X1-AB12-C3D4"))
}

func TestSystemSymbolNoHyphenReturnsInput(t *testing.T) {
	assert.Equal(t, "NOHYPHEN", SystemSymbol("NOHYPHEN"))
}

func TestShipSymbolRendersHexSuffix(t *testing.T) {
	assert.Equal(t, "C-A", ShipSymbol("C", 10))
	assert.Equal(t, "C-FF", ShipSymbol("C", 255))
	assert.Equal(t, "AGENT-1", ShipSymbol("AGENT", 1))
}
