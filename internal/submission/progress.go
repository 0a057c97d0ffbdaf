package submission

import (
	"fmt"
	"math"
	"time"
)

// Progress is an estimate derived only from the attempt count. The backend exposes no progress
// signal, so Percentage says how much of the polling allowance is spent, not how far the analysis is.
type Progress struct {
	Percentage                float64
	CurrentAttempt            int
	MaxAttempts               int
	Message                   string
	EstimatedSecondsRemaining int
}

func pollProgress(attempt, maxAttempts int, interval time.Duration) Progress {
	remaining := maxAttempts - attempt
	if remaining < 0 {
		remaining = 0
	}
	return Progress{
		Percentage:                clampPercentage(float64(attempt) * 100 / float64(maxAttempts)),
		CurrentAttempt:            attempt,
		MaxAttempts:               maxAttempts,
		Message:                   fmt.Sprintf("Analyzing market data (check %d of %d)", attempt, maxAttempts),
		EstimatedSecondsRemaining: int(math.Ceil((time.Duration(remaining) * interval).Seconds())),
	}
}

// Rescale maps a poller percentage into the band the orchestrator reserves for polling.
func Rescale(raw float64) float64 {
	return clampPercentage(pollingBandStart + clampPercentage(raw)*pollingBandWidth)
}

func clampPercentage(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
