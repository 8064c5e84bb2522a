package core

import "time"

// Recommended categories per type. Advisory only: nothing rejects a
// category outside these lists.
var (
	IncomeCategories = []string{"Salary", "Freelance", "Investments", "Business", "Gifts", "Other"}

	ExpenseCategories = []string{
		"Food & Dining",
		"Transport",
		"Shopping",
		"Bills & Utilities",
		"Entertainment",
		"Health",
		"Education",
		"Rent",
		"Travel",
		"Other",
	}
)

// CategoriesFor returns a copy of the recommended list for a type.
func CategoriesFor(t TransactionType) []string {
	switch t {
	case Income:
		return append([]string(nil), IncomeCategories...)
	case Expense:
		return append([]string(nil), ExpenseCategories...)
	default:
		return nil
	}
}

// ChangeOp names the kind of write behind a ChangeEvent.
type ChangeOp string

const (
	OpCreated  ChangeOp = "created"
	OpUpdated  ChangeOp = "updated"
	OpDeleted  ChangeOp = "deleted"
	OpImported ChangeOp = "imported"
)

// ChangeEvent announces that a user's transaction collection changed.
type ChangeEvent struct {
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Op            ChangeOp  `json:"op"`
	Timestamp     time.Time `json:"timestamp"`
}
