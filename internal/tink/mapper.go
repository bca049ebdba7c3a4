package tink

import (
	"time"

	"github.com/dvcrn/tink-gateway/internal/provider"
)

// Mapper converts provider payloads into the neutral domain model. It must be
// a pure function of its input.
type Mapper interface {
	Transaction(Transaction) provider.Transaction
	Account(Account) provider.Account
	Category(Category) provider.Category
}

// DefaultMapper is the field-by-field mapping for the Tink v1 API.
type DefaultMapper struct{}

var _ Mapper = DefaultMapper{}

// Transaction maps a provider transaction. Date arrives as epoch milliseconds.
// LocalCategoryID is left for business logic to assign.
func (DefaultMapper) Transaction(src Transaction) provider.Transaction {
	return provider.Transaction{
		TransactionID: src.ID,
		AccountID:     src.AccountID,
		Description:   src.Description,
		Notes:         src.Notes,
		Amount:        src.Amount,
		CategoryID:    src.CategoryID,
		Date:          time.UnixMilli(src.Date).UTC(),
	}
}

func (DefaultMapper) Account(src Account) provider.Account {
	return provider.Account{
		AccountID:     src.ID,
		AccountNumber: src.AccountNumber,
		Name:          src.Name,
		Type:          src.Type,
		Balance:       src.Balance,
		CurrencyCode:  src.CurrencyCode,
		Closed:        src.Closed,
	}
}

func (DefaultMapper) Category(src Category) provider.Category {
	return provider.Category{
		CategoryID:    src.ID,
		Code:          src.Code,
		Name:          src.PrimaryName,
		SecondaryName: src.SecondaryName,
		GroupID:       src.Parent,
		Type:          src.Type,
	}
}
