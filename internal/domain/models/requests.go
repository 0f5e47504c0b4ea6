package models

// Requests for the operator-facing HTTP endpoints. Defined in domain for
// consistency and reuse. Signal ingestion deliberately bypasses validation:
// the terminal's WebRequest cannot be trusted to deliver well-formed bodies,
// so that path goes through the normalizer instead.

type TradeRequest struct {
	Symbol string  `json:"symbol" form:"symbol" validate:"required"`
	Action string  `json:"action" form:"action" validate:"required,oneof=BUY SELL CLOSE"`
	Volume float64 `json:"volume" form:"volume" default:"0.01" validate:"gte=0"`
	Price  float64 `json:"price" form:"price" validate:"gte=0"`
	SL     float64 `json:"sl" form:"sl" validate:"gte=0"`
	TP     float64 `json:"tp" form:"tp" validate:"gte=0"`
}

type ClosePositionRequest struct {
	Ticket int64 `json:"ticket" validate:"required,gt=0"`
}

type ModifyPositionRequest struct {
	Ticket int64    `json:"ticket" validate:"required,gt=0"`
	SL     *float64 `json:"sl"`
	TP     *float64 `json:"tp"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
}
