package market

import (
	"sync"

	"github.com/gogs85/real-time-trading-dashboard/pkg/models"
)

// DefaultHistoryCapacity bounds the per-symbol rolling buffer.
const DefaultHistoryCapacity = 100

// Store holds the current state for a fixed set of tradable symbols plus
// a bounded rolling price history per symbol. Symbols are created once at
// construction and never removed. All reads return copies, never internal
// slices.
type Store struct {
	mu       sync.RWMutex
	order    []string
	tickers  map[string]models.Ticker
	history  map[string][]models.HistoryPoint
	classes  map[string]AssetClass
	capacity int
}

func NewStore(symbols []SymbolConfig, capacity int, clock Clock) *Store {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}

	s := &Store{
		tickers:  make(map[string]models.Ticker, len(symbols)),
		history:  make(map[string][]models.HistoryPoint, len(symbols)),
		classes:  make(map[string]AssetClass, len(symbols)),
		capacity: capacity,
	}

	now := clock.Now().UnixMilli()
	for _, cfg := range symbols {
		s.order = append(s.order, cfg.Symbol)
		s.tickers[cfg.Symbol] = models.Ticker{
			Symbol:        cfg.Symbol,
			Name:          cfg.Name,
			Price:         cfg.BasePrice,
			Change:        0,
			ChangePercent: 0,
			Timestamp:     now,
		}
		s.history[cfg.Symbol] = nil
		s.classes[cfg.Symbol] = cfg.Class
	}

	return s
}

// All returns a snapshot of every ticker in insertion order.
func (s *Store) All() []models.Ticker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Ticker, 0, len(s.order))
	for _, sym := range s.order {
		out = append(out, s.tickers[sym])
	}
	return out
}

// Get returns the ticker for an exact-match symbol. Callers normalize to
// uppercase before calling.
func (s *Store) Get(symbol string) (models.Ticker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickers[symbol]
	return t, ok
}

// ClassOf returns the asset class a symbol was registered with.
func (s *Store) ClassOf(symbol string) AssetClass {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classes[symbol]
}

// ApplyUpdate replaces the stored ticker and appends a point to the
// symbol's rolling history, evicting the oldest point once the buffer is
// full. Unknown symbols are ignored.
func (s *Store) ApplyUpdate(symbol string, ticker models.Ticker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(symbol, ticker)
}

// ApplyBatch applies a full tick's updates under a single write lock so
// readers never observe a partially updated batch.
func (s *Store) ApplyBatch(batch []models.Ticker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range batch {
		s.applyLocked(t.Symbol, t)
	}
}

func (s *Store) applyLocked(symbol string, ticker models.Ticker) {
	if _, ok := s.tickers[symbol]; !ok {
		return
	}
	s.tickers[symbol] = ticker

	h := append(s.history[symbol], models.HistoryPoint{
		Timestamp: ticker.Timestamp,
		Price:     ticker.Price,
	})
	if len(h) > s.capacity {
		h = h[len(h)-s.capacity:]
	}
	s.history[symbol] = h
}

// RecentHistory returns the last limit points of the rolling buffer,
// oldest first. Unknown symbols yield an empty sequence, not an error.
func (s *Store) RecentHistory(symbol string, limit int) []models.HistoryPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.history[symbol]
	if limit <= 0 || len(h) == 0 {
		return []models.HistoryPoint{}
	}
	if limit > len(h) {
		limit = len(h)
	}

	out := make([]models.HistoryPoint, limit)
	copy(out, h[len(h)-limit:])
	return out
}
