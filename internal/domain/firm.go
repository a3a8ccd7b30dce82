package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Firm is an accounting firm in the marketplace shown on the NEEDS_FIRM
// screen.
type Firm struct {
	ID          int64
	Name        string
	Description string

	// ServicesPricing is free-form backend data: a bare number, a numeric
	// string, or a JSON object of tier names to prices.
	ServicesPricing string
	AvgRating       *float64
}

var numericPricing = regexp.MustCompile(`^\d+(\.\d+)?$`)

// pricing tiers tried in order of preference when the payload is an object
var pricingTiers = []string{"standard", "flat_rate", "premium", "hourly"}

// DisplayPrice normalizes the firm's pricing payload into a "$N" string,
// or "" when nothing usable is present.
func (f *Firm) DisplayPrice() string {
	raw := strings.TrimSpace(f.ServicesPricing)
	if raw == "" {
		return ""
	}
	if numericPricing.MatchString(raw) {
		return "$" + raw
	}
	var tiers map[string]json.Number
	if err := json.Unmarshal([]byte(raw), &tiers); err != nil || len(tiers) == 0 {
		return ""
	}
	for _, key := range pricingTiers {
		if v, ok := tiers[key]; ok {
			return "$" + v.String()
		}
	}
	for _, v := range tiers {
		return "$" + v.String()
	}
	return ""
}

// DisplayRating renders the average rating as a five-star badge like
// "★★★☆✩ 3.5", clamped to [0, 5]. Returns "" when no rating exists.
func (f *Firm) DisplayRating() string {
	if f.AvgRating == nil {
		return ""
	}
	v := *f.AvgRating
	if v < 0 {
		v = 0
	}
	if v > 5 {
		v = 5
	}
	full := int(v)
	half := v-float64(full) >= 0.5
	empty := 5 - full
	stars := strings.Repeat("★", full)
	if half {
		stars += "☆"
		empty--
	}
	stars += strings.Repeat("✩", empty)
	return fmt.Sprintf("%s %.1f", stars, v)
}
