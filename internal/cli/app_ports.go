package cli

import (
	"context"
	"io"

	"github.com/avlasenko/taxikit/internal/api"
	"github.com/avlasenko/taxikit/internal/domain"
)

// Backend is the slice of the API client the TUI depends on.
// Tests substitute a fake; production wires *api.Client.
type Backend interface {
	PeriodStatus(ctx context.Context, driverID int64, year int) (*domain.PeriodStatus, error)
	SubmitPeriod(ctx context.Context, year int) error

	ListFirms(ctx context.Context) ([]domain.Firm, error)
	SelectFirm(ctx context.Context, firmID int64) error

	ListBusinessProfiles(ctx context.Context, driverID int64) ([]domain.BusinessProfile, error)
	CreateBusinessProfile(ctx context.Context, p domain.BusinessProfile) (*domain.BusinessProfile, error)

	GetExpenses(ctx context.Context, profileID int64, year int) ([]domain.ExpenseCategory, error)
	SaveExpense(ctx context.Context, profileID int64, year int, save api.ExpenseSave) error
	SaveExpenses(ctx context.Context, profileID int64, year int, saves []api.ExpenseSave) error

	UploadDocument(ctx context.Context, driverID int64, year int, documentCode, filename string, file io.Reader) error
	DocumentsByDriver(ctx context.Context, driverID int64) ([]domain.UploadedDocument, error)

	ChatHistory(ctx context.Context, driverID int64) ([]domain.ChatMessage, error)
	ChatSocketURL(driverID int64) string
}

var _ Backend = (*api.Client)(nil)
