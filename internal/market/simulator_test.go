package market_test

import (
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gogs85/real-time-trading-dashboard/internal/market"
	"github.com/gogs85/real-time-trading-dashboard/internal/testutils"
	"github.com/gogs85/real-time-trading-dashboard/pkg/models"
)

func newSimulator(store *market.Store, rnd market.Rand, clock market.Clock, interval time.Duration) *market.Simulator {
	return market.NewSimulator(store, market.SimulatorConfig{TickInterval: interval}, rnd, clock, zap.NewNop())
}

func seededRand(seed int64) market.RealRand {
	return market.RealRand{Rand: rand.New(rand.NewSource(seed))}
}

func collectBatch(t *testing.T, ch <-chan []models.Ticker) []models.Ticker {
	t.Helper()
	select {
	case batch := <-ch:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for a tick batch")
		return nil
	}
}

func TestSimulator_TickMath(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(1700000000, 0))
	store := market.NewStore([]market.SymbolConfig{
		{Symbol: "AAPL", Name: "Apple Inc.", BasePrice: 175.50, Class: market.ClassEquity},
	}, 100, clock)

	// Fixed draw 0.7 with default bias 0.2 and equity volatility 0.001:
	// changePercent = (0.7-0.2)*2*0.001 = 0.001
	rnd := &testutils.MockRand{ValFloat: 0.7}
	sim := newSimulator(store, rnd, clock, 10*time.Millisecond)

	batches := make(chan []models.Ticker, 16)
	sim.Start(func(batch []models.Ticker) { batches <- batch })
	defer sim.Stop()

	batch := collectBatch(t, batches)
	if len(batch) != 1 {
		t.Fatalf("Expected batch of 1, got %d", len(batch))
	}

	got := batch[0]
	if got.Price != 175.68 {
		t.Errorf("Expected price 175.68, got %v", got.Price)
	}
	if got.Change != 0.18 {
		t.Errorf("Expected change 0.18, got %v", got.Change)
	}
	if got.ChangePercent != 0.1 {
		t.Errorf("Expected changePercent 0.1, got %v", got.ChangePercent)
	}
	if got.Timestamp != clock.Now().UnixMilli() {
		t.Errorf("Expected timestamp from clock, got %d", got.Timestamp)
	}

	stored, _ := store.Get("AAPL")
	if stored.Price != got.Price {
		t.Error("Tick must be applied to the store before the batch is delivered")
	}
	if len(store.RecentHistory("AAPL", 10)) == 0 {
		t.Error("Tick must append to the rolling history")
	}
}

func TestSimulator_BatchCoversAllSymbols(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(1700000000, 0))
	store := market.NewStore(market.DefaultSymbols, 100, clock)
	sim := newSimulator(store, seededRand(1), clock, 10*time.Millisecond)

	batches := make(chan []models.Ticker, 16)
	sim.Start(func(batch []models.Ticker) { batches <- batch })
	defer sim.Stop()

	batch := collectBatch(t, batches)
	if len(batch) != len(market.DefaultSymbols) {
		t.Fatalf("Expected %d tickers per batch, got %d", len(market.DefaultSymbols), len(batch))
	}
	for _, ticker := range batch {
		if ticker.Price <= 0 {
			t.Errorf("Price must stay positive, got %v for %s", ticker.Price, ticker.Symbol)
		}
	}
}

func TestSimulator_StartIdempotent(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(1700000000, 0))
	store := market.NewStore(market.DefaultSymbols, 100, clock)
	sim := newSimulator(store, seededRand(2), clock, 10*time.Millisecond)

	var first, second atomic.Int64
	sim.Start(func([]models.Ticker) { first.Add(1) })
	sim.Start(func([]models.Ticker) { second.Add(1) })
	defer sim.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for first.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if first.Load() < 3 {
		t.Fatal("First listener never received batches")
	}
	if second.Load() != 0 {
		t.Errorf("Second Start must be a no-op, but its listener ran %d times", second.Load())
	}
}

func TestSimulator_StopHaltsTicks(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(1700000000, 0))
	store := market.NewStore(market.DefaultSymbols, 100, clock)
	sim := newSimulator(store, seededRand(3), clock, 10*time.Millisecond)

	var count atomic.Int64
	sim.Start(func([]models.Ticker) { count.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for count.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	sim.Stop()
	after := count.Load()
	time.Sleep(50 * time.Millisecond)
	if count.Load() != after {
		t.Error("No tick may fire after Stop returns")
	}

	// Both directions are idempotent.
	sim.Stop()
}

func TestSimulator_TimestampsMonotonic(t *testing.T) {
	store := market.NewStore(market.DefaultSymbols, 100, market.RealClock{})
	sim := newSimulator(store, seededRand(4), market.RealClock{}, 5*time.Millisecond)

	batches := make(chan []models.Ticker, 16)
	sim.Start(func(batch []models.Ticker) { batches <- batch })
	defer sim.Stop()

	firstBatch := collectBatch(t, batches)
	secondBatch := collectBatch(t, batches)

	for i := range firstBatch {
		if secondBatch[i].Timestamp < firstBatch[i].Timestamp {
			t.Errorf("Timestamp went backwards for %s", firstBatch[i].Symbol)
		}
	}
}

func TestSimulator_GenerateShape(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(1700000000, 0))
	store := market.NewStore(market.DefaultSymbols, 100, clock)
	sim := newSimulator(store, seededRand(5), clock, time.Second)

	data, ok := sim.Generate("AAPL", 30)
	if !ok {
		t.Fatal("Generate for a known symbol should succeed")
	}
	if data.Symbol != "AAPL" {
		t.Errorf("Expected symbol AAPL, got %s", data.Symbol)
	}
	if len(data.Data) != 30 {
		t.Fatalf("Expected exactly 30 points, got %d", len(data.Data))
	}

	live, _ := store.Get("AAPL")
	for i, p := range data.Data {
		if p.Price <= 0 {
			t.Errorf("Point %d has non-positive price %v", i, p.Price)
		}
		if p.Price < live.Price*0.5-0.01 || p.Price > live.Price*1.3+0.01 {
			t.Errorf("Point %d price %v escapes the clamp band", i, p.Price)
		}
		if p.Volume < 100000 || p.Volume >= 1100000 {
			t.Errorf("Point %d volume %d out of range", i, p.Volume)
		}
		if i > 0 && p.Timestamp <= data.Data[i-1].Timestamp {
			t.Fatalf("Timestamps not strictly increasing at %d", i)
		}
	}
}

func TestSimulator_GenerateUnknownSymbol(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(1700000000, 0))
	store := market.NewStore(market.DefaultSymbols, 100, clock)
	sim := newSimulator(store, seededRand(6), clock, time.Second)

	if _, ok := sim.Generate("INVALID", 30); ok {
		t.Error("Generate for an unknown symbol must be absent")
	}
}

func TestSimulator_GenerateDoesNotMutateStore(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(1700000000, 0))
	store := market.NewStore(market.DefaultSymbols, 100, clock)
	sim := newSimulator(store, seededRand(7), clock, time.Second)

	before, _ := store.Get("BTC")
	sim.Generate("BTC", 200)
	after, _ := store.Get("BTC")

	if before != after {
		t.Error("Generate must not mutate the live ticker")
	}
	if len(store.RecentHistory("BTC", 10)) != 0 {
		t.Error("Generate must not touch the rolling history")
	}
}
