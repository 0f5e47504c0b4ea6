package repository

// Event names delivered to dashboard subscribers.
const (
	EventNewSignal       = "new_signal"
	EventTradeCommand    = "trade_command"
	EventTradeUpdate     = "trade_update"
	EventPositionsUpdate = "positions_update"
	EventAccountUpdate   = "account_update"
)

// Broadcaster fans an event out to every current subscriber. Delivery is
// at-most-once and best-effort: no backlog, no replay, no ordering guarantee
// relative to a client's own history queries. Symbol may be empty for events
// that are not scoped to one instrument.
type Broadcaster interface {
	Publish(event, symbol string, payload any)
}
