package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/futureproof/aitracker/internal/api/response"
	"github.com/futureproof/aitracker/internal/pricing"
)

type pricingResponse struct {
	pricing.Quote
	Description     string `json:"description"`
	TotalMinorUnits int64  `json:"total_minor_units"`
}

// NewPricingHandler returns an http.HandlerFunc for GET /api/v1/pricing.
func NewPricingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		lot, err := strconv.Atoi(q.Get("lot"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_PRICING_INPUT", "lot must be an integer", nil)
			return
		}

		quote, err := quoteFor(lot, q.Get("frequency"))
		if err != nil {
			if errors.Is(err, pricing.ErrInvalidPricingInput) {
				response.Error(w, http.StatusBadRequest, "INVALID_PRICING_INPUT", err.Error(), nil)
				return
			}
			internalError(w, err)
			return
		}

		response.JSON(w, pricingResponse{
			Quote:           quote,
			Description:     quote.Description(),
			TotalMinorUnits: quote.TotalMinorUnits(),
		})
	}
}

func quoteFor(lot int, frequency string) (pricing.Quote, error) {
	freq, err := pricing.ParseFrequency(frequency)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Calculate(lot, freq)
}
