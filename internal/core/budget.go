package core

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SyncStatus tracks where a budget stands relative to the remote store.
type SyncStatus string

const (
	StatusLocalOnly   SyncStatus = "local-only"
	StatusSyncPending SyncStatus = "sync-pending"
	StatusSynced      SyncStatus = "synced"
)

// Category field names accepted by ApplyField.
const (
	FieldIncome        = "income"
	FieldMonthlyBills  = "monthlyBills"
	FieldFood          = "food"
	FieldTransport     = "transport"
	FieldSubscriptions = "subscriptions"
	FieldMiscellaneous = "miscellaneous"
)

// Fields lists the category fields in their canonical order.
var Fields = []string{
	FieldIncome,
	FieldMonthlyBills,
	FieldFood,
	FieldTransport,
	FieldSubscriptions,
	FieldMiscellaneous,
}

var (
	ErrMissingOwner   = errors.New("missing owner")
	ErrMissingPeriod  = errors.New("missing period")
	ErrInvalidPeriod  = errors.New("invalid period, want YYYY-MM")
	ErrUnknownField   = errors.New("unknown budget field")
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrInvalidAmount  = errors.New("invalid amount")
)

var periodRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type (
	// Identity is the logged-in user as far as the rest of the system cares:
	// a stable opaque id used as the owner key, plus the email for display.
	Identity struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}

	// Budget is one user's budget for one calendar month. Owner and Period
	// together identify the record everywhere: locally, remotely and on the wire.
	Budget struct {
		ID            string     `json:"id"`
		Owner         string     `json:"owner"`
		Period        string     `json:"period"`
		Income        float64    `json:"income"`
		MonthlyBills  float64    `json:"monthlyBills"`
		Food          float64    `json:"food"`
		Transport     float64    `json:"transport"`
		Subscriptions float64    `json:"subscriptions"`
		Miscellaneous float64    `json:"miscellaneous"`
		CreatedAt     time.Time  `json:"createdAt"`
		UpdatedAt     time.Time  `json:"updatedAt"`
		LastSyncAt    *time.Time `json:"lastSyncAt,omitempty"`
		SyncStatus    SyncStatus `json:"syncStatus"`
	}
)

// NewBudget creates an empty budget for the given owner and period.
// All category amounts start at zero and the record is local-only.
func NewBudget(owner, period string) Budget {
	now := time.Now().UTC()
	return Budget{
		ID:         uuid.NewString(),
		Owner:      owner,
		Period:     period,
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: StatusLocalOnly,
	}
}

// CurrentPeriod returns the YYYY-MM key for the month containing t.
func CurrentPeriod(t time.Time) string {
	return t.Format("2006-01")
}

// ApplyField sets a single category amount. The field name must be one of
// the fixed category set and the amount must be a finite, non-negative
// number. A successful apply bumps UpdatedAt.
func (b *Budget) ApplyField(field string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}
	if amount < 0 {
		return ErrNegativeAmount
	}

	switch field {
	case FieldIncome:
		b.Income = amount
	case FieldMonthlyBills:
		b.MonthlyBills = amount
	case FieldFood:
		b.Food = amount
	case FieldTransport:
		b.Transport = amount
	case FieldSubscriptions:
		b.Subscriptions = amount
	case FieldMiscellaneous:
		b.Miscellaneous = amount
	default:
		return ErrUnknownField
	}

	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Amount returns the current value of a category field.
func (b Budget) Amount(field string) (float64, error) {
	switch field {
	case FieldIncome:
		return b.Income, nil
	case FieldMonthlyBills:
		return b.MonthlyBills, nil
	case FieldFood:
		return b.Food, nil
	case FieldTransport:
		return b.Transport, nil
	case FieldSubscriptions:
		return b.Subscriptions, nil
	case FieldMiscellaneous:
		return b.Miscellaneous, nil
	}
	return 0, ErrUnknownField
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Owner) == "" {
		return ErrMissingOwner
	}
	if strings.TrimSpace(b.Period) == "" {
		return ErrMissingPeriod
	}
	if !periodRe.MatchString(b.Period) {
		return ErrInvalidPeriod
	}
	for _, f := range Fields {
		v, _ := b.Amount(f)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidAmount
		}
		if v < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}

// Key returns the owner-period storage key shared by the local and
// remote stores.
func (b Budget) Key() string {
	return b.Owner + "-" + b.Period
}
