package receivables

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// AgingBucket summarises open balances by how long they have been owed.
type AgingBucket struct {
	Current   decimal.Decimal `json:"current"`
	Bucket30  decimal.Decimal `json:"bucket_30"`
	Bucket60  decimal.Decimal `json:"bucket_60"`
	Bucket90  decimal.Decimal `json:"bucket_90"`
	Bucket120 decimal.Decimal `json:"bucket_120"`
}

// Total sums every bucket.
func (b AgingBucket) Total() decimal.Decimal {
	return b.Current.Add(b.Bucket30).Add(b.Bucket60).Add(b.Bucket90).Add(b.Bucket120)
}

// CalculateAging groups outstanding balances by days since the transaction
// date. Settled and non-positive entries carry no balance and drop out.
func CalculateAging(transactions []*CustomerTransaction, asOf time.Time) AgingBucket {
	bucket := AgingBucket{
		Current:   decimal.Zero,
		Bucket30:  decimal.Zero,
		Bucket60:  decimal.Zero,
		Bucket90:  decimal.Zero,
		Bucket120: decimal.Zero,
	}
	for _, txn := range transactions {
		balance := txn.Financials().OutstandingBalance()
		if balance.IsZero() {
			continue
		}
		days := txn.DaysOutstanding(asOf)
		switch {
		case days <= 0:
			bucket.Current = bucket.Current.Add(balance)
		case days <= 30:
			bucket.Bucket30 = bucket.Bucket30.Add(balance)
		case days <= 60:
			bucket.Bucket60 = bucket.Bucket60.Add(balance)
		case days <= 90:
			bucket.Bucket90 = bucket.Bucket90.Add(balance)
		default:
			bucket.Bucket120 = bucket.Bucket120.Add(balance)
		}
	}
	return bucket
}

// WriteAgingCSV serialises the aging buckets to CSV. Amounts are grouped
// with thousands separators for spreadsheet consumers.
func WriteAgingCSV(w io.Writer, bucket AgingBucket, asOf time.Time) error {
	printer := message.NewPrinter(language.English)
	format := func(d decimal.Decimal) string {
		value, _ := d.Round(2).Float64()
		return printer.Sprintf("%.2f", value)
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Bucket", "Outstanding"}); err != nil {
		return err
	}
	records := [][]string{
		{"As Of", asOf.Format("2006-01-02")},
		{"Current", format(bucket.Current)},
		{"1-30 Days", format(bucket.Bucket30)},
		{"31-60 Days", format(bucket.Bucket60)},
		{"61-90 Days", format(bucket.Bucket90)},
		{"90+ Days", format(bucket.Bucket120)},
		{"Total", format(bucket.Total())},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
