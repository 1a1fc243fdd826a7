package invoices

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ReconstructInvoiceLine rehydrates a stored line through the constructor
// validation path.
func ReconstructInvoiceLine(id int64, stockItemID int64, description string, packageTypeID int64, financials finance.LineFinancials, lastEditedBy int64, lastEditedWhen time.Time) (*InvoiceLine, error) {
	actor := shared.ActorContext{PersonID: lastEditedBy, At: lastEditedWhen}
	line, err := NewInvoiceLine(stockItemID, description, packageTypeID, financials, actor)
	if err != nil {
		return nil, err
	}
	line.id = shared.PersistedIdentity(id)
	return line, nil
}

// ReconstructInvoice rehydrates a stored invoice and its lines. A credit
// note without a reason means the row was corrupted.
func ReconstructInvoice(id int64, customerID int64, orderID *int64, invoiceDate time.Time, customerPurchaseOrder string, isCreditNote bool, creditNoteReason, comments, deliveryInstructions string, lines []*InvoiceLine, lastEditedBy int64, lastEditedWhen time.Time) (*Invoice, error) {
	actor := shared.ActorContext{PersonID: lastEditedBy, At: lastEditedWhen}
	inv, err := NewInvoice(customerID, orderID, invoiceDate, customerPurchaseOrder, actor)
	if err != nil {
		return nil, err
	}
	if isCreditNote && creditNoteReason == "" {
		return nil, shared.NewValidationError("creditNoteReason", "required on a credit note")
	}
	if !isCreditNote && creditNoteReason != "" {
		return nil, shared.NewValidationError("creditNoteReason", "only allowed on a credit note")
	}
	inv.id = shared.PersistedIdentity(id)
	inv.isCreditNote = isCreditNote
	inv.creditNoteReason = creditNoteReason
	inv.comments = comments
	inv.deliveryInstructions = deliveryInstructions
	inv.lines = lines
	return inv, nil
}
