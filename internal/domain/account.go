package domain

import "sort"

// UnknownLabel is the display value for fields that could not be derived.
const UnknownLabel = "unknown"

// Account is the derived, in-memory view of one saved credential profile.
// It is rebuilt from scratch on every repository load; nothing here is
// persisted beyond the underlying record file.
type Account struct {
	Name      string
	Email     string
	Plan      string
	SavedAt   string
	IsCurrent bool
	Path      string
	Record    CredentialRecord
}

// SortAccounts orders the active account first and the remainder by name in
// ascending lexicographic order. The sort is stable so equal names keep their
// enumeration order.
func SortAccounts(accounts []Account) {
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].IsCurrent != accounts[j].IsCurrent {
			return accounts[i].IsCurrent
		}
		return accounts[i].Name < accounts[j].Name
	})
}
