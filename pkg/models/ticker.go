package models

// Ticker is the live price record for one tradable symbol.
// Timestamps are unix milliseconds.
type Ticker struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Timestamp     int64   `json:"timestamp"`
}

// HistoryPoint is a single sample in a price series. Volume is only set
// on generated long-range series, never on the live rolling buffer.
type HistoryPoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	Volume    int64   `json:"volume,omitempty"`
}

// HistoricalData is a generated long-range series for one symbol.
type HistoricalData struct {
	Symbol string         `json:"symbol"`
	Data   []HistoryPoint `json:"data"`
}

// User is the public view of an account (no password).
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
