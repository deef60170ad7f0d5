// Package pricing maps a question lot and tracking frequency to billing units
// and price.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidPricingInput is returned for an unsupported lot or frequency.
var ErrInvalidPricingInput = errors.New("invalid pricing input")

// Frequency is how often tracked questions are re-run.
type Frequency string

const (
	Monthly  Frequency = "monthly"
	Biweekly Frequency = "biweekly"
	Weekly   Frequency = "weekly"
)

var multipliers = map[Frequency]int{Monthly: 1, Biweekly: 2, Weekly: 4}

var labels = map[Frequency]string{Monthly: "Monthly", Biweekly: "Bi-weekly", Weekly: "Weekly"}

var cadence = map[Frequency]string{Monthly: "once a month", Biweekly: "twice a month", Weekly: "every week"}

// Lots lists the purchasable question lots.
var Lots = []int{10, 25, 50}

// tier is a per-unit price applying up to and including MaxUnits.
type tier struct {
	MaxUnits int
	Price    decimal.Decimal
}

var tiers = []tier{
	{MaxUnits: 20, Price: decimal.NewFromInt(50)},
	{MaxUnits: 50, Price: decimal.NewFromInt(45)},
	{MaxUnits: 100, Price: decimal.NewFromInt(40)},
}

var overflowPrice = decimal.RequireFromString("37.50")

// Quote is the priced result for one lot and frequency.
type Quote struct {
	Lot          int             `json:"lot"`
	Frequency    Frequency       `json:"frequency"`
	Label        string          `json:"label"`
	Units        int             `json:"units"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Total        decimal.Decimal `json:"total"`
}

// TotalMinorUnits returns the total in cents, as payment gateways expect.
func (q Quote) TotalMinorUnits() int64 {
	return q.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Description is the human-readable line item text.
func (q Quote) Description() string {
	return fmt.Sprintf("%d tracking units at $%s/unit. Track %d questions %s.",
		q.Units, q.PricePerUnit.StringFixedBank(2), q.Lot, cadence[q.Frequency])
}

// ParseFrequency validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if _, ok := multipliers[f]; !ok {
		return "", fmt.Errorf("%w: frequency must be monthly, biweekly, or weekly; got %q", ErrInvalidPricingInput, s)
	}
	return f, nil
}

// Calculate prices lot questions tracked at the given frequency.
func Calculate(lot int, frequency Frequency) (Quote, error) {
	if !validLot(lot) {
		return Quote{}, fmt.Errorf("%w: question lot must be 10, 25, or 50; got %d", ErrInvalidPricingInput, lot)
	}
	mult, ok := multipliers[frequency]
	if !ok {
		return Quote{}, fmt.Errorf("%w: frequency must be monthly, biweekly, or weekly; got %q", ErrInvalidPricingInput, frequency)
	}

	units := lot * mult
	price := unitPrice(units)
	return Quote{
		Lot:          lot,
		Frequency:    frequency,
		Label:        labels[frequency],
		Units:        units,
		PricePerUnit: price,
		Total:        price.Mul(decimal.NewFromInt(int64(units))),
	}, nil
}

func unitPrice(units int) decimal.Decimal {
	for _, t := range tiers {
		if units <= t.MaxUnits {
			return t.Price
		}
	}
	return overflowPrice
}

func validLot(lot int) bool {
	for _, l := range Lots {
		if l == lot {
			return true
		}
	}
	return false
}
