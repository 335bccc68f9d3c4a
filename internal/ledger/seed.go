package ledger

import (
	"time"

	"github.com/google/uuid"

	"finansmart/internal/core"
)

// Categories is the fixed label set offered when recording a transaction.
var Categories = []string{
	"Alimentação",
	"Transporte",
	"Moradia",
	"Conta de Luz",
	"Água",
	"Internet",
	"Lazer",
	"Saúde",
	"Educação",
	"Salário",
	"Freelance",
	"Investimentos",
	"Outros",
}

// seedTransactions builds the example dataset handed to a brand-new owner.
// Dates are relative to now so the default dashboard filters have data to
// show on first login.
func seedTransactions(now time.Time) []core.Transaction {
	daysAgo := func(n int) core.Date {
		return core.DateOf(now.AddDate(0, 0, -n))
	}
	return []core.Transaction{
		{ID: uuid.NewString(), Description: "Salário Mensal", Amount: core.Money{Cents: 500000}, Type: core.Income, Category: "Salário", Date: daysAgo(0)},
		{ID: uuid.NewString(), Description: "Aluguel", Amount: core.Money{Cents: 150000}, Type: core.Expense, Category: "Moradia", Date: daysAgo(0)},
		{ID: uuid.NewString(), Description: "Conta de Luz", Amount: core.Money{Cents: 18000}, Type: core.Expense, Category: "Conta de Luz", Date: daysAgo(5)},
		{ID: uuid.NewString(), Description: "Internet Fibra", Amount: core.Money{Cents: 10000}, Type: core.Expense, Category: "Internet", Date: daysAgo(10)},
		{ID: uuid.NewString(), Description: "Supermercado", Amount: core.Money{Cents: 60000}, Type: core.Expense, Category: "Alimentação", Date: daysAgo(2)},
	}
}
