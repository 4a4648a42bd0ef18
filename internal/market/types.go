package market

import (
	"math/rand"
	"time"
)

// Clock abstracts time for deterministic testing
type Clock interface {
	Now() time.Time
}

// Rand abstracts randomness for deterministic values
type Rand interface {
	Float64() float64
	Intn(n int) int
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

type RealRand struct{ *rand.Rand }

func (r RealRand) Float64() float64 { return r.Rand.Float64() }
func (r RealRand) Intn(n int) int   { return r.Rand.Intn(n) }

// AssetClass selects the volatility tier for a symbol.
type AssetClass string

const (
	ClassEquity AssetClass = "equity"
	ClassCrypto AssetClass = "crypto"
)

// SymbolConfig seeds one tradable symbol at startup.
type SymbolConfig struct {
	Symbol    string
	Name      string
	BasePrice float64
	Class     AssetClass
}

// DefaultSymbols mirrors the dashboard's built-in watchlist.
var DefaultSymbols = []SymbolConfig{
	{Symbol: "AAPL", Name: "Apple Inc.", BasePrice: 175.50, Class: ClassEquity},
	{Symbol: "TSLA", Name: "Tesla Inc.", BasePrice: 242.80, Class: ClassEquity},
	{Symbol: "BTC-USD", Name: "Bitcoin USD", BasePrice: 37500.00, Class: ClassCrypto},
	{Symbol: "BTC", Name: "Bitcoin", BasePrice: 92330.00, Class: ClassCrypto},
}
