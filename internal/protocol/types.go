package protocol

import (
	"encoding/json"

	"github.com/gogs85/real-time-trading-dashboard/pkg/models"
)

// Event names exchanged over the websocket.
const (
	EventPriceUpdate  = "price_update"
	EventSubscribe    = "subscribe"
	EventUnsubscribe  = "unsubscribe"
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventError        = "error"
)

// ClientMessage is anything a connected client sends. Data is kept raw so
// subscribe/unsubscribe payloads can be echoed back untouched.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SymbolsPayload is the conventional subscribe payload shape. Parsing it
// is best-effort; clients may send anything.
type SymbolsPayload struct {
	Symbols []string `json:"symbols"`
}

// Ack confirms a subscribe/unsubscribe request, echoing its payload.
type Ack struct {
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// PriceUpdate carries a full ticker batch.
type PriceUpdate struct {
	Type string          `json:"type"`
	Data []models.Ticker `json:"data"`
}

// ErrorMessage reports a protocol-level problem to one client.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
