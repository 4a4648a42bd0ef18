package market

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gogs85/real-time-trading-dashboard/pkg/models"
)

// BatchListener receives the full updated batch once per tick.
type BatchListener func(batch []models.Ticker)

// SimulatorConfig tunes the live tick loop. Zero values fall back to the
// reference constants.
type SimulatorConfig struct {
	TickInterval time.Duration
	Bias         float64                // subtracted from the uniform draw; asymmetric by default
	Volatility   map[AssetClass]float64 // live tick volatility per asset class
}

const (
	defaultTickInterval = 3 * time.Second
	defaultBias         = 0.2

	// Base volatility tiers for generated long-range series.
	genVolEquity = 0.008
	genVolCrypto = 0.015

	// Probability and magnitude knobs for the synthetic walk.
	trendRerollProb = 0.05
	marketEventProb = 0.03
	minGenPrice     = 0.5 // fraction of live price
	maxGenPrice     = 1.3
	volumeFloor     = 100000
	volumeRange     = 1000000
	anchorFraction  = 0.85
)

func defaultVolatility() map[AssetClass]float64 {
	return map[AssetClass]float64{
		ClassEquity: 0.001,
		ClassCrypto: 0.003,
	}
}

// Simulator advances every ticker on a fixed cadence and produces
// synthetic long-range series on demand. At most one tick loop runs at a
// time; the first listener registered via Start wins.
type Simulator struct {
	store  *Store
	cfg    SimulatorConfig
	rand   Rand
	clock  Clock
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

func NewSimulator(store *Store, cfg SimulatorConfig, rnd Rand, clock Clock, logger *zap.Logger) *Simulator {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.Bias == 0 {
		cfg.Bias = defaultBias
	}
	if cfg.Volatility == nil {
		cfg.Volatility = defaultVolatility()
	}

	return &Simulator{
		store:  store,
		cfg:    cfg,
		rand:   rnd,
		clock:  clock,
		logger: logger,
	}
}

// Start launches the tick loop with the given listener. Calling Start
// while running is a no-op: the original listener keeps receiving batches.
func (s *Simulator) Start(listener BatchListener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Debug("simulator already running, ignoring Start")
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(listener, s.stop)

	s.logger.Info("Price simulation started", zap.Duration("interval", s.cfg.TickInterval))
}

// Stop halts the tick loop and waits for it to exit, so no tick fires
// after Stop returns. Stopping an idle simulator is a no-op.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Price simulation stopped")
}

func (s *Simulator) run(listener BatchListener, stop chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			batch := s.tick()
			if listener != nil {
				listener(batch)
			}
		}
	}
}

// tick updates every ticker from a consistent snapshot, applies the whole
// batch atomically, and returns it. The listener is invoked by run, after
// the store lock has been released.
func (s *Simulator) tick() []models.Ticker {
	now := s.clock.Now().UnixMilli()

	batch := s.store.All()
	for i := range batch {
		batch[i] = s.nextTick(batch[i], now)
	}
	s.store.ApplyBatch(batch)

	return batch
}

func (s *Simulator) nextTick(t models.Ticker, now int64) models.Ticker {
	vol := s.cfg.Volatility[s.store.ClassOf(t.Symbol)]
	draw := (s.rand.Float64() - s.cfg.Bias) * 2 * vol

	oldPrice := t.Price
	newPrice := oldPrice + oldPrice*draw
	change := newPrice - oldPrice

	t.Price = round2(newPrice)
	t.Change = round2(change)
	t.ChangePercent = round2(change / oldPrice * 100)
	t.Timestamp = now
	return t
}

// Generate produces a synthetic long-range series for symbol, walking
// backward from now. The walk is anchored below the live price, carries a
// regime-switching trend with a slight upward bias, and injects the
// occasional large jump. It reads the live price but never mutates stored
// state or history. Returns false for unknown symbols.
func (s *Simulator) Generate(symbol string, points int) (models.HistoricalData, bool) {
	live, ok := s.store.Get(symbol)
	if !ok {
		return models.HistoricalData{}, false
	}

	interval := sampleInterval(points)
	now := s.clock.Now().UnixMilli()

	baseVol := genVolEquity
	if s.store.ClassOf(symbol) == ClassCrypto {
		baseVol = genVolCrypto
	}

	// Start below the live price so the series trends visibly upward.
	price := live.Price * anchorFraction
	minPrice := live.Price * minGenPrice
	maxPrice := live.Price * maxGenPrice

	trendDirection := -1.0
	if s.rand.Float64() > 0.5 {
		trendDirection = 1.0
	}
	trendStrength := 0.0
	trendDuration := 0

	data := make([]models.HistoryPoint, 0, points)
	for i := points - 1; i >= 0; i-- {
		timestamp := now - int64(i)*interval.Milliseconds()

		// Re-roll the regime when the current one expires, or sporadically.
		if trendDuration <= 0 || s.rand.Float64() < trendRerollProb {
			trendDirection = -1.0
			if s.rand.Float64() > 0.4 { // slight bias towards upward
				trendDirection = 1.0
			}
			trendStrength = s.rand.Float64() * 0.0003
			trendDuration = s.rand.Intn(50) + 20
		}
		trendDuration--

		// Volatility varies between periods: 0.5x to 2x base.
		vol := baseVol * (0.5 + s.rand.Float64()*1.5)

		change := (s.rand.Float64()-0.5)*2*vol + trendDirection*trendStrength

		// Market event: rare sudden jump with a slight upward bias.
		if s.rand.Float64() < marketEventProb {
			change += (s.rand.Float64() - 0.3) * 0.04
		}

		price *= 1 + change
		if price < minPrice {
			price = minPrice
		}
		if price > maxPrice {
			price = maxPrice
		}

		data = append(data, models.HistoryPoint{
			Timestamp: timestamp,
			Price:     round2(price),
			Volume:    int64(s.rand.Intn(volumeRange)) + volumeFloor,
		})
	}

	return models.HistoricalData{Symbol: symbol, Data: data}, true
}

// sampleInterval picks the spacing between generated points: finer for
// small requests, coarser for large ones.
func sampleInterval(points int) time.Duration {
	switch {
	case points <= 100:
		return time.Minute
	case points <= 500:
		return 20 * time.Minute
	case points <= 1000:
		return 45 * time.Minute
	default:
		return 2 * time.Hour
	}
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
