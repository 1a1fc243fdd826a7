package invoices

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func testActor(t *testing.T) shared.ActorContext {
	t.Helper()
	actor, err := shared.NewActor(42, time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	return actor
}

func testInvoice(t *testing.T) *Invoice {
	t.Helper()
	actor := testActor(t)
	orderID := int64(5)
	invoice, err := NewInvoice(3, &orderID, date(2024, time.June, 1), "PO-1001", actor)
	require.NoError(t, err)
	invoice.UpdateComments("fragile goods", actor)
	invoice.UpdateDeliveryInstructions("leave at loading dock", actor)

	financials, err := finance.CalculateLine(10, decPtr("4.50"), dec("15"), dec("3.00"))
	require.NoError(t, err)
	line, err := NewInvoiceLine(100, "chilli chocolate", 7, financials, actor)
	require.NoError(t, err)
	require.NoError(t, invoice.AddLine(line, actor))
	return invoice
}

func TestInvoiceTotals(t *testing.T) {
	invoice := testInvoice(t)

	require.True(t, invoice.TotalExcludingTax().Equal(dec("45")))
	require.True(t, invoice.TotalTax().Equal(dec("6.75")))
	require.True(t, invoice.TotalIncludingTax().Equal(dec("51.75")))
	require.True(t, invoice.TotalProfit().Equal(dec("15")))
}

func TestCreateCreditNoteCopiesDocument(t *testing.T) {
	invoice := testInvoice(t)
	actor := testActor(t)

	note, err := invoice.CreateCreditNote("damaged in transit", actor)
	require.NoError(t, err)

	require.True(t, note.IsCreditNote())
	require.Equal(t, "damaged in transit", note.CreditNoteReason())
	require.Equal(t, invoice.CustomerID(), note.CustomerID())
	require.Equal(t, invoice.CustomerPurchaseOrder(), note.CustomerPurchaseOrder())
	require.Equal(t, invoice.Comments(), note.Comments())
	require.Equal(t, invoice.DeliveryInstructions(), note.DeliveryInstructions())

	orderID, ok := note.OrderID()
	require.True(t, ok)
	require.Equal(t, int64(5), orderID)

	require.Equal(t, date(2024, time.June, 10), note.InvoiceDate(), "credit note is dated from the actor")
	require.Len(t, note.Lines(), len(invoice.Lines()))
	require.True(t, note.TotalIncludingTax().Equal(invoice.TotalIncludingTax()))
	_, assigned := note.Lines()[0].ID().Value()
	require.False(t, assigned, "copied lines start unpersisted")
}

func TestCreditNoteCannotBeCredited(t *testing.T) {
	invoice := testInvoice(t)
	actor := testActor(t)

	note, err := invoice.CreateCreditNote("damaged in transit", actor)
	require.NoError(t, err)

	_, err = note.CreateCreditNote("again", actor)
	require.True(t, shared.IsState(err))
}

func TestCreateCreditNoteRequiresReason(t *testing.T) {
	invoice := testInvoice(t)
	actor := testActor(t)

	_, err := invoice.CreateCreditNote("   ", actor)
	require.True(t, shared.IsValidation(err))

	_, err = invoice.CreateCreditNote(strings.Repeat("x", 201), actor)
	require.True(t, shared.IsValidation(err))
}

func TestReconstructInvoiceChecksCreditNoteReason(t *testing.T) {
	_, err := ReconstructInvoice(1, 3, nil, date(2024, time.June, 1), "", true, "", "", "", nil, 42, time.Now())
	require.True(t, shared.IsValidation(err))

	_, err = ReconstructInvoice(1, 3, nil, date(2024, time.June, 1), "", false, "stray reason", "", "", nil, 42, time.Now())
	require.True(t, shared.IsValidation(err))

	invoice, err := ReconstructInvoice(1, 3, nil, date(2024, time.June, 1), "", true, "damaged", "", "", nil, 42, time.Now())
	require.NoError(t, err)
	require.True(t, invoice.IsCreditNote())
}
