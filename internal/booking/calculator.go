package booking

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultDepositRate is the fraction of the estimated total charged up front
// to confirm a booking.
const DefaultDepositRate = 0.30

var ErrEndBeforeStart = errors.New("end time must be after start time")

// Quote holds the derived money figures for a booking, in pence.
type Quote struct {
	EstimatedTotalPence int64 `json:"estimated_total_pence"`
	DepositPence        int64 `json:"deposit_pence"`
	BalancePence        int64 `json:"balance_pence"`
}

// ComputeHours returns the decimal hours between two same-day "HH:MM" times.
// A zero or negative duration is a validation failure, not a zero-hour booking.
func ComputeHours(start, end string) (float64, error) {
	startMin, err := parseMinutes(start)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: %w", start, err)
	}
	endMin, err := parseMinutes(end)
	if err != nil {
		return 0, fmt.Errorf("invalid end time %q: %w", end, err)
	}

	if endMin <= startMin {
		return 0, ErrEndBeforeStart
	}
	return float64(endMin-startMin) / 60.0, nil
}

// ComputeQuote derives total, deposit and balance from an hourly rate and a
// duration. Deposit is rounded to the nearest penny; the balance is the exact
// remainder so the two always sum to the total.
func ComputeQuote(ratePence int64, hours float64, depositRate float64) Quote {
	total := int64(math.Round(float64(ratePence) * hours))
	deposit := int64(math.Round(float64(total) * depositRate))
	return Quote{
		EstimatedTotalPence: total,
		DepositPence:        deposit,
		BalancePence:        total - deposit,
	}
}

// EstimateLine is one row of the advisory multi-service cost calculator.
type EstimateLine struct {
	ServiceID string  `json:"service_id"`
	Hours     float64 `json:"hours"`
}

type EstimateItem struct {
	ServiceID     string  `json:"service_id"`
	ServiceName   string  `json:"service_name"`
	Hours         float64 `json:"hours"`
	RatePence     int64   `json:"rate_pence"`
	SubtotalPence int64   `json:"subtotal_pence"`
}

type Estimate struct {
	Items []EstimateItem `json:"items"`
	Quote
}

func parseMinutes(t string) (int, error) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return 0, errors.New("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, errors.New("out of range")
	}
	return h*60 + m, nil
}
