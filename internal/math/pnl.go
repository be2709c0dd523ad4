package math

// CalculateWinRate returns wins as a percentage of closed trades
func CalculateWinRate(wins, closed int) float64 {
	if closed == 0 {
		return 0
	}
	return (float64(wins) / float64(closed)) * 100
}

// CalculateAverageR returns the mean R over closed trades
func CalculateAverageR(totalR float64, closed int) float64 {
	if closed == 0 {
		return 0
	}
	return totalR / float64(closed)
}

// CalculateProfitFactor calculates profit factor from gross winning and
// losing R (losses passed as a positive number)
func CalculateProfitFactor(grossWinR, grossLossR float64) float64 {
	if grossLossR == 0 {
		if grossWinR > 0 {
			return 999.0 // Infinite profit factor
		}
		return 0
	}
	return grossWinR / grossLossR
}

// CalculateDrawdownR returns the largest peak-to-trough drop of a cumulative
// R curve built from results in order
func CalculateDrawdownR(results []float64) float64 {
	peak, equity, maxDrawdown := 0.0, 0.0, 0.0
	for _, r := range results {
		equity += r
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}
