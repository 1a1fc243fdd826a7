package receivables

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type recordInvoiceRequest struct {
	CustomerID         int64           `json:"customer_id" validate:"required,gt=0"`
	InvoiceID          *int64          `json:"invoice_id,omitempty" validate:"omitempty,gt=0"`
	TransactionDate    time.Time       `json:"transaction_date" validate:"required"`
	AmountExcludingTax decimal.Decimal `json:"amount_excluding_tax" validate:"required"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
}

type recordPaymentRequest struct {
	CustomerID      int64           `json:"customer_id" validate:"required,gt=0"`
	TransactionDate time.Time       `json:"transaction_date" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethodID *int64          `json:"payment_method_id,omitempty" validate:"omitempty,gt=0"`
}

type recordCreditNoteRequest struct {
	CustomerID      int64           `json:"customer_id" validate:"required,gt=0"`
	InvoiceID       *int64          `json:"invoice_id,omitempty" validate:"omitempty,gt=0"`
	TransactionDate time.Time       `json:"transaction_date" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
}

type finalizeRequest struct {
	Date time.Time `json:"date" validate:"required"`
}

type applyPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type updateBalanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

type linkInvoiceRequest struct {
	InvoiceID int64 `json:"invoice_id" validate:"required,gt=0"`
}

type changePaymentMethodRequest struct {
	PaymentMethodID int64 `json:"payment_method_id" validate:"required,gt=0"`
}

type transactionResponse struct {
	ID                 int64                       `json:"id"`
	CustomerID         int64                       `json:"customer_id"`
	InvoiceID          *int64                      `json:"invoice_id,omitempty"`
	PaymentMethodID    *int64                      `json:"payment_method_id,omitempty"`
	TransactionDate    time.Time                   `json:"transaction_date"`
	Category           finance.TransactionCategory `json:"category"`
	AmountExcludingTax decimal.Decimal             `json:"amount_excluding_tax"`
	TaxAmount          decimal.Decimal             `json:"tax_amount"`
	TransactionAmount  decimal.Decimal             `json:"transaction_amount"`
	OutstandingBalance decimal.Decimal             `json:"outstanding_balance"`
	FinalizationDate   *time.Time                  `json:"finalization_date,omitempty"`
}

type listTransactionsResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Pagination   shared.Pagination     `json:"pagination"`
}

func transactionToResponse(txn *CustomerTransaction) transactionResponse {
	fin := txn.Financials()
	resp := transactionResponse{
		CustomerID:         txn.CustomerID(),
		TransactionDate:    txn.TransactionDate(),
		Category:           txn.Category(),
		AmountExcludingTax: fin.AmountExcludingTax(),
		TaxAmount:          fin.TaxAmount(),
		TransactionAmount:  fin.TransactionAmount(),
		OutstandingBalance: fin.OutstandingBalance(),
	}
	if id, ok := txn.ID().Value(); ok {
		resp.ID = id
	}
	if invoiceID, ok := txn.InvoiceID(); ok {
		resp.InvoiceID = &invoiceID
	}
	if methodID, ok := txn.PaymentMethodID(); ok {
		resp.PaymentMethodID = &methodID
	}
	if when, ok := txn.FinalizationDate(); ok {
		resp.FinalizationDate = &when
	}
	return resp
}
