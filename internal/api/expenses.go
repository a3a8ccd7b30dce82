package api

import (
	"context"
	"fmt"

	"github.com/avlasenko/taxikit/internal/domain"
)

type expenseCategoryDTO struct {
	Code       string   `json:"code"`
	Label      string   `json:"label"`
	Amount     *float64 `json:"amount"`
	Hint       string   `json:"hint,omitempty"`
	Order      *int     `json:"order,omitempty"`
	IsCustom   bool     `json:"is_custom,omitempty"`
	Validation *struct {
		Min  *float64 `json:"min,omitempty"`
		Max  *float64 `json:"max,omitempty"`
		Step float64  `json:"step,omitempty"`
	} `json:"validation,omitempty"`
}

// ExpenseSave is one persisted answer. A nil Amount means "answered no /
// cleared".
type ExpenseSave struct {
	Code   string   `json:"code"`
	Amount *float64 `json:"amount"`
}

// GetExpenses returns the year's expense categories for a business profile.
func (c *Client) GetExpenses(ctx context.Context, profileID int64, year int) ([]domain.ExpenseCategory, error) {
	var dtos []expenseCategoryDTO
	path := fmt.Sprintf("/api/v1/business/%d/expenses/%d", profileID, year)
	if err := c.getJSON(ctx, path, &dtos); err != nil {
		return nil, err
	}
	cats := make([]domain.ExpenseCategory, 0, len(dtos))
	for _, d := range dtos {
		cat := domain.ExpenseCategory{
			Code:     d.Code,
			Label:    d.Label,
			Amount:   d.Amount,
			Hint:     d.Hint,
			IsCustom: d.IsCustom,
		}
		if d.Order != nil {
			cat.Order = *d.Order
			cat.HasOrder = true
		}
		if d.Validation != nil {
			cat.Validation = &domain.AmountRule{
				Min:  d.Validation.Min,
				Max:  d.Validation.Max,
				Step: d.Validation.Step,
			}
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

// SaveExpense persists a single category answer.
func (c *Client) SaveExpense(ctx context.Context, profileID int64, year int, save ExpenseSave) error {
	path := fmt.Sprintf("/api/v1/business/%d/expenses/%d", profileID, year)
	return c.postJSON(ctx, path, save, nil)
}

// SaveExpenses persists a batch of answers in one call.
func (c *Client) SaveExpenses(ctx context.Context, profileID int64, year int, saves []ExpenseSave) error {
	path := fmt.Sprintf("/api/v1/business/%d/expenses/%d", profileID, year)
	body := struct {
		Expenses []ExpenseSave `json:"expenses"`
	}{Expenses: saves}
	return c.postJSON(ctx, path, body, nil)
}
