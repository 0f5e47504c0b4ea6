package usecase

import (
	"math"

	"habridge/internal/domain/models"
)

// Score reduces the sub-indicator votes of one Signal into a confluence
// result. Pure function of its input; evaluation order is fixed.
//
// Counting rules:
//   - HA trend and SuperTrend are always counted, voting only when
//     directional.
//   - Harmonic counts when directional or detected (any value other than
//     NONE/empty); a detected-but-undirected pattern votes for neither side.
//   - The two band-position checks and VWAP are counted only when their
//     level inputs and the bid are all strictly positive.
//   - The remaining binary indicators count only on BULLISH/BEARISH.
//   - The momentum-shift bonus adds 0.5 to the HA trend's side and never
//     touches the indicator total, so a score can exceed 100.
func Score(s *models.Signal) models.ConfluenceResult {
	var (
		bull, bear float64
		total      int
		votes      []models.IndicatorVote
	)

	vote := func(name, dir string, weight float64) {
		votes = append(votes, models.IndicatorVote{Name: name, Signal: dir, Weight: weight})
	}

	// 1. Heikin Ashi trend
	switch s.Trend {
	case models.Bullish:
		bull++
		vote("Heikin Ashi", models.Bullish, 1)
	case models.Bearish:
		bear++
		vote("Heikin Ashi", models.Bearish, 1)
	default:
		vote("Heikin Ashi", models.Neutral, 1)
	}
	total++

	// 2. Super Trend
	switch s.SupertrendDirection {
	case models.Bullish:
		bull++
		vote("Super Trend", models.Bullish, 1)
	case models.Bearish:
		bear++
		vote("Super Trend", models.Bearish, 1)
	default:
		vote("Super Trend", models.Neutral, 1)
	}
	total++

	// 3. Harmonic pattern
	switch {
	case s.HarmonicPattern == models.Bullish:
		bull++
		vote("Harmonic", models.Bullish, 1)
		total++
	case s.HarmonicPattern == models.Bearish:
		bear++
		vote("Harmonic", models.Bearish, 1)
		total++
	case s.HarmonicPattern != models.None && s.HarmonicPattern != "":
		vote("Harmonic", "DETECTED", 1)
		total++
	}

	// 4. Price vs support/resistance midpoint
	if s.Support > 0 && s.Resistance > 0 && s.Bid > 0 {
		mid := (s.Support + s.Resistance) / 2
		if s.Bid > mid {
			bull++
			vote("Zone Position", models.Bullish, 1)
		} else {
			bear++
			vote("Zone Position", models.Bearish, 1)
		}
		total++
	}

	// 5. Price vs VWAP
	if s.VWAP > 0 && s.Bid > 0 {
		if s.Bid > s.VWAP {
			bull++
			vote("VWAP", models.Bullish, 1)
		} else {
			bear++
			vote("VWAP", models.Bearish, 1)
		}
		total++
	}

	// 6. Momentum shift bonus, half weight on the HA trend's side
	if s.MomentumShift != 0 {
		switch s.Trend {
		case models.Bullish:
			bull += 0.5
			vote("Momentum Shift", models.Bullish, 0.5)
		case models.Bearish:
			bear += 0.5
			vote("Momentum Shift", models.Bearish, 0.5)
		}
	}

	// 7-10. Binary directional indicators, skipped entirely when undirected
	binary := []struct {
		name  string
		value string
	}{
		{"Candle Pattern", s.CandlePattern},
		{"Bollinger RSI", s.BollingerDirection},
		{"FVG", s.FVGType},
		{"MACD", s.MACDTrend},
	}
	for _, ind := range binary {
		switch ind.value {
		case models.Bullish:
			bull++
			vote(ind.name, models.Bullish, 1)
			total++
		case models.Bearish:
			bear++
			vote(ind.name, models.Bearish, 1)
			total++
		}
	}

	// 11. Price vs pro support/resistance midpoint
	if s.ProSupport > 0 && s.ProResistance > 0 && s.Bid > 0 {
		mid := (s.ProSupport + s.ProResistance) / 2
		if s.Bid > mid {
			bull++
			vote("Pro S/R", models.Bullish, 1)
		} else {
			bear++
			vote("Pro S/R", models.Bearish, 1)
		}
		total++
	}

	var bullScore, bearScore float64
	if total > 0 {
		bullScore = bull / float64(total) * 100
		bearScore = bear / float64(total) * 100
	}

	// Classified before rounding so the 60/80 boundaries stay exact.
	return models.ConfluenceResult{
		BullishScore:    round1(bullScore),
		BearishScore:    round1(bearScore),
		TotalIndicators: total,
		BullishCount:    bull,
		BearishCount:    bear,
		FinalSignal:     classify(bullScore, bearScore),
		Indicators:      votes,
	}
}

// classify resolves the final signal; bullish thresholds are checked first.
func classify(bullScore, bearScore float64) string {
	switch {
	case bullScore >= 80:
		return models.StrongBuy
	case bullScore >= 60:
		return models.Buy
	case bearScore >= 80:
		return models.StrongSell
	case bearScore >= 60:
		return models.Sell
	default:
		return models.Neutral
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
