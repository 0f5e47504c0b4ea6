package models

import "time"

// Direction values shared by the trend-style indicator fields.
const (
	Bullish = "BULLISH"
	Bearish = "BEARISH"
	Neutral = "NEUTRAL"
	None    = "NONE"
)

// Final confluence classifications, strongest first.
const (
	StrongBuy  = "STRONG_BUY"
	Buy        = "BUY"
	StrongSell = "STRONG_SELL"
	Sell       = "SELL"
)

// Signal is one normalized indicator snapshot from the terminal.
// Immutable once scored; persisted append-only.
type Signal struct {
	Timestamp     string  `json:"timestamp"`
	Symbol        string  `json:"symbol"`
	Timeframe     string  `json:"timeframe"`
	SignalType    string  `json:"signal_type"`
	HAOpen        float64 `json:"ha_open"`
	HAHigh        float64 `json:"ha_high"`
	HALow         float64 `json:"ha_low"`
	HAClose       float64 `json:"ha_close"`
	Trend         string  `json:"trend"`
	MomentumShift int     `json:"momentum_shift"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	Spread        float64 `json:"spread"`

	// Secondary indicators, all optional on the wire.
	Resistance          float64 `json:"resistance"`
	Support             float64 `json:"support"`
	SupplyZone          float64 `json:"supply_zone"`
	DemandZone          float64 `json:"demand_zone"`
	VWAP                float64 `json:"vwap"`
	VWAPUpper           float64 `json:"vwap_upper"`
	VWAPLower           float64 `json:"vwap_lower"`
	POC                 float64 `json:"poc"`
	HarmonicPattern     string  `json:"harmonic_pattern"`
	PricePosition       string  `json:"price_position"`
	SupertrendUp        float64 `json:"supertrend_up"`
	SupertrendDown      float64 `json:"supertrend_down"`
	SupertrendDirection string  `json:"supertrend_direction"`
	FiboLevel1          float64 `json:"fibo_level1"`
	FiboLevel2          float64 `json:"fibo_level2"`
	FiboLevel3          float64 `json:"fibo_level3"`
	AnchoredVWAP        float64 `json:"anchored_vwap"`
	DrawFibLevel1       float64 `json:"drawfib_level1"`
	DrawFibLevel2       float64 `json:"drawfib_level2"`
	DrawFibLevel3       float64 `json:"drawfib_level3"`
	CandlePattern       string  `json:"candle_pattern"`
	BollingerSignal     float64 `json:"bollinger_signal"`
	BollingerDirection  string  `json:"bollinger_direction"`
	FVGHigh             float64 `json:"fvg_high"`
	FVGLow              float64 `json:"fvg_low"`
	FVGType             string  `json:"fvg_type"`
	MACDMain            float64 `json:"macd_main"`
	MACDSignal          float64 `json:"macd_signal"`
	MACDTrend           string  `json:"macd_trend"`
	ProResistance       float64 `json:"pro_resistance"`
	ProSupport          float64 `json:"pro_support"`

	Confluence *ConfluenceResult `json:"confluence,omitempty"`
	CreatedAt  time.Time         `json:"created_at,omitempty"`
}

// IndicatorVote records one sub-indicator's contribution to the score.
type IndicatorVote struct {
	Name   string  `json:"name"`
	Signal string  `json:"signal"`
	Weight float64 `json:"weight"`
}

// ConfluenceResult aggregates the sub-indicator votes for one Signal.
// Always recomputed from the Signal, never stored on its own.
type ConfluenceResult struct {
	BullishScore    float64         `json:"bullish_score"`
	BearishScore    float64         `json:"bearish_score"`
	TotalIndicators int             `json:"total_indicators"`
	BullishCount    float64         `json:"bullish_count"`
	BearishCount    float64         `json:"bearish_count"`
	FinalSignal     string          `json:"final_signal"`
	Indicators      []IndicatorVote `json:"indicators"`
}

// TrendStats is the rolling-window aggregate served by the stats endpoint.
type TrendStats struct {
	TrendCounts    map[string]int `json:"trend_stats"`
	MomentumShifts int            `json:"momentum_shifts_24h"`
	LatestBySymbol []LatestSignal `json:"latest_by_symbol"`
}

// LatestSignal is the most recent snapshot per symbol in the stats view.
type LatestSignal struct {
	Symbol        string  `json:"symbol"`
	Trend         string  `json:"trend"`
	MomentumShift int     `json:"momentum_shift"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	Timestamp     string  `json:"timestamp"`
}
