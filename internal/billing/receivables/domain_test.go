package receivables

import (
	"bytes"
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

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func testActor(t *testing.T) shared.ActorContext {
	t.Helper()
	actor, err := shared.NewActor(42, time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return actor
}

func invoiceTransaction(t *testing.T, amountExcl, taxRate string) *CustomerTransaction {
	t.Helper()
	financials, err := finance.CalculateTransaction(dec(amountExcl), dec(taxRate), nil)
	require.NoError(t, err)
	txn, err := NewCustomerTransaction(3, date(2024, time.June, 1), financials, testActor(t))
	require.NoError(t, err)
	return txn
}

func TestFinalizeBlocksEveryMutator(t *testing.T) {
	txn := invoiceTransaction(t, "100", "15")
	actor := testActor(t)

	require.NoError(t, txn.LinkInvoice(9, actor))
	require.NoError(t, txn.FinalizeTransaction(date(2024, time.June, 2), actor))
	require.True(t, txn.IsFinalized())

	require.True(t, shared.IsState(txn.ApplyPayment(dec("10"), actor)))
	require.True(t, shared.IsState(txn.UpdateOutstandingBalance(dec("50"), actor)))
	require.True(t, shared.IsState(txn.LinkInvoice(10, actor)))
	require.True(t, shared.IsState(txn.UnlinkInvoice(actor)))
	require.True(t, shared.IsState(txn.ChangePaymentMethod(2, actor)))
	require.True(t, shared.IsState(txn.FinalizeTransaction(date(2024, time.June, 3), actor)))
}

func TestUnfinalizeRestoresMutability(t *testing.T) {
	txn := invoiceTransaction(t, "100", "15")
	actor := testActor(t)

	require.NoError(t, txn.FinalizeTransaction(date(2024, time.June, 2), actor))
	require.True(t, shared.IsState(txn.ApplyPayment(dec("10"), actor)))

	require.NoError(t, txn.UnfinalizeTransaction(actor))
	require.NoError(t, txn.ApplyPayment(dec("10"), actor))
	require.True(t, txn.Financials().OutstandingBalance().Equal(dec("105")))
}

func TestFinalizationDateCannotPrecedeTransactionDate(t *testing.T) {
	txn := invoiceTransaction(t, "100", "15")
	actor := testActor(t)

	err := txn.FinalizeTransaction(date(2024, time.May, 31), actor)
	require.True(t, shared.IsValidation(err))
	require.False(t, txn.IsFinalized())
}

func TestUnfinalizeRequiresFinalized(t *testing.T) {
	txn := invoiceTransaction(t, "100", "15")
	require.True(t, shared.IsState(txn.UnfinalizeTransaction(testActor(t))))
}

func TestApplyPaymentRequiresBalance(t *testing.T) {
	txn := invoiceTransaction(t, "100", "0")
	actor := testActor(t)

	require.NoError(t, txn.ApplyPayment(dec("100"), actor))
	require.True(t, txn.Financials().IsSettled())

	err := txn.ApplyPayment(dec("1"), actor)
	require.True(t, shared.IsState(err))
}

func TestUnlinkInvoiceRequiresLink(t *testing.T) {
	txn := invoiceTransaction(t, "100", "15")
	actor := testActor(t)

	require.True(t, shared.IsState(txn.UnlinkInvoice(actor)))
	require.NoError(t, txn.LinkInvoice(9, actor))
	require.NoError(t, txn.UnlinkInvoice(actor))
	_, linked := txn.InvoiceID()
	require.False(t, linked)
}

func TestCalculateAgingBuckets(t *testing.T) {
	asOf := date(2024, time.June, 30)
	actor := testActor(t)

	aged := func(t *testing.T, on time.Time, amount string) *CustomerTransaction {
		t.Helper()
		financials, err := finance.CalculateTransaction(dec(amount), dec("0"), nil)
		require.NoError(t, err)
		txn, err := NewCustomerTransaction(3, on, financials, actor)
		require.NoError(t, err)
		return txn
	}

	settledFin, err := finance.NewPayment(dec("500"))
	require.NoError(t, err)
	settled, err := NewCustomerTransaction(3, date(2024, time.January, 1), settledFin, actor)
	require.NoError(t, err)

	bucket := CalculateAging([]*CustomerTransaction{
		aged(t, date(2024, time.June, 30), "10"),
		aged(t, date(2024, time.June, 10), "20"),
		aged(t, date(2024, time.May, 10), "30"),
		aged(t, date(2024, time.April, 10), "40"),
		aged(t, date(2024, time.January, 10), "50"),
		settled,
	}, asOf)

	require.True(t, bucket.Current.Equal(dec("10")), "current %s", bucket.Current)
	require.True(t, bucket.Bucket30.Equal(dec("20")), "30 %s", bucket.Bucket30)
	require.True(t, bucket.Bucket60.Equal(dec("30")), "60 %s", bucket.Bucket60)
	require.True(t, bucket.Bucket90.Equal(dec("40")), "90 %s", bucket.Bucket90)
	require.True(t, bucket.Bucket120.Equal(dec("50")), "120 %s", bucket.Bucket120)
	require.True(t, bucket.Total().Equal(dec("150")))
}

func TestWriteAgingCSV(t *testing.T) {
	bucket := AgingBucket{
		Current:   dec("1234.5"),
		Bucket30:  dec("0"),
		Bucket60:  dec("20"),
		Bucket90:  dec("0"),
		Bucket120: dec("1000000"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAgingCSV(&buf, bucket, date(2024, time.June, 30)))

	out := buf.String()
	require.Contains(t, out, "Bucket,Outstanding")
	require.Contains(t, out, "As Of,2024-06-30")
	require.Contains(t, out, `"1,234.50"`)
	require.Contains(t, out, `"1,000,000.00"`)
}
