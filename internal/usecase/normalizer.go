package usecase

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"habridge/internal/domain/models"
)

// NormalizeSignal converts a raw field map into a canonical Signal. It is a
// total function: the terminal's WebRequest guarantees at-least-some-bytes
// but never well-formed content, so every missing, null or unconvertible
// field is replaced by its documented default instead of failing.
func NormalizeSignal(raw map[string]any) *models.Signal {
	return &models.Signal{
		Timestamp:     getString(raw, "timestamp", time.Now().Format(time.RFC3339)),
		Symbol:        getString(raw, "symbol", "UNKNOWN"),
		Timeframe:     getString(raw, "timeframe", "M15"),
		SignalType:    getString(raw, "signal_type", "UPDATE"),
		HAOpen:        getFloat(raw, "ha_open"),
		HAHigh:        getFloat(raw, "ha_high"),
		HALow:         getFloat(raw, "ha_low"),
		HAClose:       getFloat(raw, "ha_close"),
		Trend:         getString(raw, "trend", models.Neutral),
		MomentumShift: getInt(raw, "momentum_shift"),
		Bid:           getFloat(raw, "bid"),
		Ask:           getFloat(raw, "ask"),
		Spread:        getFloat(raw, "spread"),

		Resistance:          getFloat(raw, "resistance"),
		Support:             getFloat(raw, "support"),
		SupplyZone:          getFloat(raw, "supply_zone"),
		DemandZone:          getFloat(raw, "demand_zone"),
		VWAP:                getFloat(raw, "vwap"),
		VWAPUpper:           getFloat(raw, "vwap_upper"),
		VWAPLower:           getFloat(raw, "vwap_lower"),
		POC:                 getFloat(raw, "poc"),
		HarmonicPattern:     getString(raw, "harmonic_pattern", models.None),
		PricePosition:       getString(raw, "price_position", models.Neutral),
		SupertrendUp:        getFloat(raw, "supertrend_up"),
		SupertrendDown:      getFloat(raw, "supertrend_down"),
		SupertrendDirection: getString(raw, "supertrend_direction", models.Neutral),
		FiboLevel1:          getFloat(raw, "fibo_level1"),
		FiboLevel2:          getFloat(raw, "fibo_level2"),
		FiboLevel3:          getFloat(raw, "fibo_level3"),
		AnchoredVWAP:        getFloat(raw, "anchored_vwap"),
		DrawFibLevel1:       getFloat(raw, "drawfib_level1"),
		DrawFibLevel2:       getFloat(raw, "drawfib_level2"),
		DrawFibLevel3:       getFloat(raw, "drawfib_level3"),
		CandlePattern:       getString(raw, "candle_pattern", models.None),
		BollingerSignal:     getFloat(raw, "bollinger_signal"),
		BollingerDirection:  getString(raw, "bollinger_direction", models.Neutral),
		FVGHigh:             getFloat(raw, "fvg_high"),
		FVGLow:              getFloat(raw, "fvg_low"),
		FVGType:             getString(raw, "fvg_type", models.None),
		MACDMain:            getFloat(raw, "macd_main"),
		MACDSignal:          getFloat(raw, "macd_signal"),
		MACDTrend:           getString(raw, "macd_trend", models.Neutral),
		ProResistance:       getFloat(raw, "pro_resistance"),
		ProSupport:          getFloat(raw, "pro_support"),
	}
}

func getString(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	switch s := v.(type) {
	case string:
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return def
	}
}

func getFloat(m map[string]any, key string) float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func getInt(m map[string]any, key string) int {
	return int(getFloat(m, key))
}
