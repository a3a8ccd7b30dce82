package domain

import "sort"

// AmountRule bounds a category's amount. Min defaults to 0 and Max to
// unbounded when nil. Step > 0 marks an integer-mode category (whole
// units rather than currency).
type AmountRule struct {
	Min  *float64
	Max  *float64
	Step float64
}

// ExpenseCategory is one interview question: a deductible expense type
// with the driver's saved amount, or nil when unanswered / answered "no".
type ExpenseCategory struct {
	Code       string
	Label      string
	Amount     *float64
	Hint       string
	Order      int
	HasOrder   bool
	IsCustom   bool
	Validation *AmountRule
}

// Answered reports whether the category carries a saved amount.
func (c *ExpenseCategory) Answered() bool {
	return c.Amount != nil
}

// Bounds returns the effective min/max for the category. hasMax is false
// when no upper bound is declared.
func (c *ExpenseCategory) Bounds() (min float64, max float64, hasMax bool) {
	if c.Validation == nil {
		return 0, 0, false
	}
	if c.Validation.Min != nil {
		min = *c.Validation.Min
	}
	if c.Validation.Max != nil {
		return min, *c.Validation.Max, true
	}
	return min, 0, false
}

// IntegerMode reports whether the category counts whole units.
func (c *ExpenseCategory) IntegerMode() bool {
	return c.Validation != nil && c.Validation.Step >= 1
}

// SortCategories orders categories for wizard traversal: explicit Order
// ascending first, then categories without an order with unanswered ones
// ahead of answered ones. The sort is stable so equal keys keep their
// fetch order.
func SortCategories(cats []ExpenseCategory) []ExpenseCategory {
	out := make([]ExpenseCategory, len(cats))
	copy(out, cats)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		switch {
		case a.HasOrder && b.HasOrder:
			return a.Order < b.Order
		case a.HasOrder:
			return true
		case b.HasOrder:
			return false
		default:
			return !a.Answered() && b.Answered()
		}
	})
	return out
}

// SameCodeSet reports whether two category lists cover the same codes,
// ignoring order and amounts. The wizard resets only when this is false.
func SameCodeSet(a, b []ExpenseCategory) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for i := range a {
		seen[a[i].Code] = true
	}
	for i := range b {
		if !seen[b[i].Code] {
			return false
		}
	}
	return true
}

// TotalAmount sums all saved amounts across categories.
func TotalAmount(cats []ExpenseCategory) float64 {
	var sum float64
	for i := range cats {
		if cats[i].Amount != nil {
			sum += *cats[i].Amount
		}
	}
	return sum
}
