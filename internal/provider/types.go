package provider

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one booked transaction fetched from the aggregation provider.
type Transaction struct {
	TransactionID string          `json:"transactionId"`
	AccountID     string          `json:"accountId"`
	Description   string          `json:"description"`
	Notes         string          `json:"notes,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	CategoryID    string          `json:"categoryId,omitempty"`
	Date          time.Time       `json:"date"`

	// LocalCategoryID is assigned by business logic after the fetch; the
	// provider mapping never sets it.
	LocalCategoryID string `json:"localCategoryId,omitempty"`
}

// Account is a bank account or card known to the provider.
type Account struct {
	AccountID     string          `json:"accountId"`
	AccountNumber string          `json:"accountNumber,omitempty"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	CurrencyCode  string          `json:"currencyCode,omitempty"`
	Closed        bool            `json:"closed"`
}

// Category is a user-facing transaction category. GroupID points at the
// parent group; provider meta buckets carry none.
type Category struct {
	CategoryID    string `json:"categoryId"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	SecondaryName string `json:"secondaryName,omitempty"`
	GroupID       string `json:"groupId"`
	Type          string `json:"type"`
}
