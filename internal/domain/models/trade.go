package models

import "time"

// Trade command actions understood by the terminal.
const (
	ActionBuy      = "BUY"
	ActionSell     = "SELL"
	ActionClose    = "CLOSE"
	ActionCloseAll = "CLOSE_ALL"
	ActionModify   = "MODIFY"
)

// Trade command lifecycle states. Pending is the only non-terminal state.
const (
	StatusPending   = "pending"
	StatusExecuted  = "executed"
	StatusCancelled = "cancelled"
	StatusError     = "error"
)

// Position states mirrored from the terminal.
const (
	PositionOpen   = "open"
	PositionClosed = "closed"
)

// TradeCommand is an operator intent queued for the terminal to pick up.
// Rows are never deleted; status transitions carry the audit trail.
type TradeCommand struct {
	ID        int64     `json:"id"`
	Timestamp string    `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Action    string    `json:"action"`
	Volume    float64   `json:"volume"`
	Price     float64   `json:"price"`
	SL        float64   `json:"sl"`
	TP        float64   `json:"tp"`
	Status    string    `json:"status"`
	Ticket    int64     `json:"ticket,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Position is the server-side mirror of one open trade on the terminal.
type Position struct {
	Ticket       int64     `json:"ticket"`
	Symbol       string    `json:"symbol"`
	Type         string    `json:"type"`
	Volume       float64   `json:"volume"`
	OpenPrice    float64   `json:"open_price"`
	CurrentPrice float64   `json:"current_price"`
	SL           float64   `json:"sl"`
	TP           float64   `json:"tp"`
	Profit       float64   `json:"profit"`
	OpenTime     string    `json:"open_time"`
	Status       string    `json:"status,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// AccountSnapshot carries the terminal's account figures. Broadcast only,
// never persisted.
type AccountSnapshot struct {
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	Margin     float64 `json:"margin"`
	FreeMargin float64 `json:"freeMargin"`
}
