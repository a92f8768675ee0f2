package job

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sternrassler/reconcheck/pkg/endpoint"
	"github.com/Sternrassler/reconcheck/pkg/logging"
	"github.com/rs/zerolog"
)

// Column names of the transactions input CSV.
const (
	ColumnMerchantID    = "Merchant ID"
	ColumnMerchantTxnID = "Merchant Transaction Id"
	ColumnPaymentID     = "Payment Id"
)

// TransactionInputColumns lists the columns a transactions CSV must carry.
var TransactionInputColumns = []string{ColumnMerchantID, ColumnMerchantTxnID, ColumnPaymentID}

// TransactionColumns is the header of the transactions report.
var TransactionColumns = []string{"Payment Id", "Merchant Transaction Id", "Hermes Response", "Payments Debug Response"}

// Transaction is one row of the transactions input CSV.
type Transaction struct {
	MerchantID    string
	MerchantTxnID string
	PaymentID     string
}

// TransactionFromRow reads a Transaction from a CSV row keyed by header.
func TransactionFromRow(row map[string]string) Transaction {
	return Transaction{
		MerchantID:    strings.TrimSpace(row[ColumnMerchantID]),
		MerchantTxnID: strings.TrimSpace(row[ColumnMerchantTxnID]),
		PaymentID:     strings.TrimSpace(row[ColumnPaymentID]),
	}
}

// TransactionRecord is the combined result for one Transaction.
type TransactionRecord struct {
	PaymentID        string
	MerchantTxnID    string
	HermesResponse   string
	PaymentsResponse string
}

// Columns renders the record as a report row.
func (r TransactionRecord) Columns() []string {
	return []string{r.PaymentID, r.MerchantTxnID, r.HermesResponse, r.PaymentsResponse}
}

// TransactionProbe checks a transaction against hermes and the payment service.
type TransactionProbe struct {
	hermes   *Probe
	payments *Probe
	logger   zerolog.Logger
}

// NewTransactionProbe creates a probe backed by the hermes status check and
// payments debug endpoints.
func NewTransactionProbe(getter Getter, bases endpoint.BaseURLs) (*TransactionProbe, error) {
	hermes, err := endpoint.New(endpoint.KindHermesStatus, bases)
	if err != nil {
		return nil, fmt.Errorf("resolve hermes status endpoint: %w", err)
	}
	payments, err := endpoint.New(endpoint.KindPaymentsDebug, bases)
	if err != nil {
		return nil, fmt.Errorf("resolve payments debug endpoint: %w", err)
	}

	return &TransactionProbe{
		hermes:   NewProbe(getter, hermes),
		payments: NewProbe(getter, payments),
		logger:   logging.NewLogger(logging.ComponentProbe).With().Str("endpoint", "transactions").Logger(),
	}, nil
}

// Fetch queries hermes (when both merchant IDs are present) and then the
// payment service (when the payment ID is present). It matches batch.FetchFunc.
func (p *TransactionProbe) Fetch(ctx context.Context, tx Transaction) TransactionRecord {
	rec := TransactionRecord{
		PaymentID:        orNotAvailable(tx.PaymentID),
		MerchantTxnID:    orNotAvailable(tx.MerchantTxnID),
		HermesResponse:   endpoint.SentinelSkipped,
		PaymentsResponse: endpoint.SentinelSkipped,
	}

	if tx.MerchantID != "" && tx.MerchantTxnID != "" {
		_, rec.HermesResponse = p.hermes.Lookup(ctx, tx.MerchantID, tx.MerchantTxnID)
	}

	if tx.PaymentID != "" {
		_, rec.PaymentsResponse = p.payments.Lookup(ctx, tx.PaymentID)
	}

	p.logger.Info().
		Str("payment_id", rec.PaymentID).
		Str("merchant_txn_id", rec.MerchantTxnID).
		Msg("Processed row")

	return rec
}

func orNotAvailable(s string) string {
	if s == "" {
		return endpoint.SentinelNotAvailable
	}
	return s
}
