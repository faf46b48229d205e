package usage

import "github.com/kailas-cloud/kbassist/internal/usecase/completion"

// BudgetReader provides read-only access to completion token budget state.
type BudgetReader interface {
	Snapshot() completion.BudgetSnapshot
	Provider() string
}
