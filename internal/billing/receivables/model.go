package receivables

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ReconstructTransaction rehydrates a stored ledger entry through the
// constructor validation path.
func ReconstructTransaction(id int64, customerID int64, invoiceID, paymentMethodID *int64, transactionDate time.Time, financials finance.TransactionFinancials, finalizationDate *time.Time, lastEditedBy int64, lastEditedWhen time.Time) (*CustomerTransaction, error) {
	actor := shared.ActorContext{PersonID: lastEditedBy, At: lastEditedWhen}
	txn, err := NewCustomerTransaction(customerID, transactionDate, financials, actor)
	if err != nil {
		return nil, err
	}
	if err := shared.OptionalID("invoiceID", invoiceID); err != nil {
		return nil, err
	}
	if err := shared.OptionalID("paymentMethodID", paymentMethodID); err != nil {
		return nil, err
	}
	txn.id = shared.PersistedIdentity(id)
	if invoiceID != nil {
		v := *invoiceID
		txn.invoiceID = &v
	}
	if paymentMethodID != nil {
		v := *paymentMethodID
		txn.paymentMethodID = &v
	}
	if finalizationDate != nil {
		if finalizationDate.Before(transactionDate) {
			return nil, shared.NewValidationError("finalizationDate", "stored date precedes transaction date")
		}
		when := *finalizationDate
		txn.finalizationDate = &when
	}
	return txn, nil
}
