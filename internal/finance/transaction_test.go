package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func TestCalculateTransactionDefaultsBalanceToTotal(t *testing.T) {
	tf, err := CalculateTransaction(dec("200"), dec("15"), nil)
	require.NoError(t, err)

	require.True(t, tf.TaxAmount().Equal(dec("30")))
	require.True(t, tf.TransactionAmount().Equal(dec("230")))
	require.True(t, tf.OutstandingBalance().Equal(dec("230")))
	require.Equal(t, CategoryInvoice, tf.Category())
	require.False(t, tf.IsSettled())
}

func TestApplyPaymentReducesBalance(t *testing.T) {
	tf, err := CalculateTransaction(dec("100"), dec("10"), nil)
	require.NoError(t, err)

	after, err := tf.ApplyPayment(dec("60"))
	require.NoError(t, err)
	require.True(t, after.OutstandingBalance().Equal(dec("50")))

	// original instance untouched
	require.True(t, tf.OutstandingBalance().Equal(dec("110")))

	settled, err := after.ApplyPayment(dec("50"))
	require.NoError(t, err)
	require.True(t, settled.IsSettled())

	_, err = settled.ApplyPayment(dec("0.01"))
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))

	_, err = tf.ApplyPayment(dec("-1"))
	require.Error(t, err)
}

func TestPaymentEntryIsFullyNegative(t *testing.T) {
	tf, err := NewPayment(dec("75"))
	require.NoError(t, err)

	require.True(t, tf.TransactionAmount().Equal(dec("-75")))
	require.True(t, tf.TaxAmount().IsZero())
	require.True(t, tf.OutstandingBalance().IsZero())
	require.Equal(t, CategoryPayment, tf.Category())

	_, err = NewPayment(dec("0"))
	require.Error(t, err)
}

func TestCreditEntryCarriesNegativeTax(t *testing.T) {
	tf, err := NewCredit(dec("100"), dec("15"))
	require.NoError(t, err)

	require.True(t, tf.AmountExcludingTax().Equal(dec("-100")))
	require.True(t, tf.TaxAmount().Equal(dec("-15")))
	require.True(t, tf.TransactionAmount().Equal(dec("-115")))
	require.True(t, tf.OutstandingBalance().IsZero())
	require.Equal(t, CategoryCreditNote, tf.Category())
}

func TestWithOutstandingBalanceEnforcesSignInvariant(t *testing.T) {
	invoice, err := CalculateTransaction(dec("100"), dec("0"), nil)
	require.NoError(t, err)

	_, err = invoice.WithOutstandingBalance(dec("100.01"))
	require.Error(t, err, "balance cannot exceed transaction amount")

	_, err = invoice.WithOutstandingBalance(dec("-1"))
	require.Error(t, err)

	partial, err := invoice.WithOutstandingBalance(dec("40"))
	require.NoError(t, err)
	require.True(t, partial.OutstandingBalance().Equal(dec("40")))

	payment, err := NewPayment(dec("50"))
	require.NoError(t, err)
	_, err = payment.WithOutstandingBalance(dec("1"))
	require.Error(t, err, "negative entries keep zero balance")
}

func TestReconstructTransactionChecksSum(t *testing.T) {
	_, err := ReconstructTransaction(dec("100"), dec("15"), dec("115"), dec("115"))
	require.NoError(t, err)

	_, err = ReconstructTransaction(dec("100"), dec("15"), dec("116"), dec("115"))
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}

func TestZeroAmountEntryIsOther(t *testing.T) {
	tf, err := ReconstructTransaction(decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	require.Equal(t, CategoryOther, tf.Category())
}
