package tink

import "github.com/shopspring/decimal"

// searchQuery is the body of the transaction search request.
type searchQuery struct {
	StartDate int64  `json:"startDate"`
	EndDate   int64  `json:"endDate"`
	Sort      string `json:"sort"`
	Order     string `json:"order"`
}

type searchResponse struct {
	Count   int            `json:"count"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Type        string       `json:"type"`
	Transaction *Transaction `json:"transaction"`
}

// Transaction is a transaction as the provider serializes it.
type Transaction struct {
	ID                  string          `json:"id"`
	AccountID           string          `json:"accountId"`
	Amount              decimal.Decimal `json:"amount"`
	CategoryID          string          `json:"categoryId"`
	CategoryType        string          `json:"categoryType"`
	Date                int64           `json:"date"`
	Description         string          `json:"description"`
	OriginalDescription string          `json:"originalDescription"`
	Notes               string          `json:"notes"`
	Pending             bool            `json:"pending"`
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// Account is an account as the provider serializes it.
type Account struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	CurrencyCode  string          `json:"currencyCode"`
	Closed        bool            `json:"closed"`
}

// Category is a category as the provider serializes it. Parent is empty for
// the top-level expense/income/transfer buckets.
type Category struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Parent        string `json:"parent"`
	PrimaryName   string `json:"primaryName"`
	SecondaryName string `json:"secondaryName"`
	Type          string `json:"type"`
	SortOrder     int    `json:"sortOrder"`
}
