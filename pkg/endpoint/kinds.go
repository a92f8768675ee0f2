// Package endpoint describes the housekeeping endpoints reconcheck can query.
//
// Each Kind resolves, once at startup, into an Endpoint carrying everything
// that differs between endpoints: how to build the request URL from a key,
// how to extract the reported value from a 200 response, and the header of
// the output report.
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Kind identifies a supported endpoint.
type Kind int

const (
	KindUnknown Kind = iota
	KindHermesReversal
	KindRefundOrchestrator
	KindMandateRegistration
	KindPaymentsDebug
	KindRefundsHousekeeping
	KindHermesStatus
)

// ErrUnknownKind is returned by ParseKind for unsupported names.
var ErrUnknownKind = errors.New("unknown endpoint kind")

var kindNames = map[Kind]string{
	KindHermesReversal:      "hermes",
	KindRefundOrchestrator:  "ro",
	KindMandateRegistration: "mandate",
	KindPaymentsDebug:       "payments-debug",
	KindRefundsHousekeeping: "refunds",
	KindHermesStatus:        "hermes-status",
}

var kindAliases = map[string]Kind{
	"mandate_check":         KindMandateRegistration,
	"payments_debug":        KindPaymentsDebug,
	"payment_service_debug": KindPaymentsDebug,
	"refunds_housekeeping":  KindRefundsHousekeeping,
	"hermes_status_check":   KindHermesStatus,
}

// String returns the CLI name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind resolves a CLI name (case-insensitive) into a Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range kindNames {
		if n == name {
			return kind, nil
		}
	}
	if kind, ok := kindAliases[name]; ok {
		return kind, nil
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// ProbeKinds lists the kinds that take a single identifier per key.
func ProbeKinds() []Kind {
	return []Kind{
		KindHermesReversal,
		KindRefundOrchestrator,
		KindMandateRegistration,
		KindPaymentsDebug,
		KindRefundsHousekeeping,
	}
}

// BaseURLs holds the scheme+host of each backing service.
type BaseURLs struct {
	Hermes             string
	RefundOrchestrator string
	PaymentService     string
}

// DefaultBaseURLs returns the production service hosts.
func DefaultBaseURLs() BaseURLs {
	return BaseURLs{
		Hermes:             "https://hermes.drove.mer.phonepe.mhx",
		RefundOrchestrator: "https://refund-orchestrator.drove.mer.phonepe.mhx",
		PaymentService:     "https://paymentservice-txnl.drove.pymts.phonepe.nm5",
	}
}

// Path segments and suffixes of the housekeeping APIs.
const (
	pathAccountingEventDetails = "/v1/housekeeping/accountingEventDetails"
	pathAccountingEvents       = "/v1/accounting/events"
	pathHousekeepingDebug      = "/v1/housekeeping/debug"
	pathHousekeepingRefunds    = "/v1/housekeeping/refunds"
	pathHousekeepingDB         = "/v1/housekeeping/db"

	eventFulfilmentReversal   = "/MERCHANT_FULFILMENT_REVERSAL"
	eventMandateRegistration  = "/MERCHANT_MANDATE_REGISTRATION"
	queryAlreadyReversedLimit = "?alreadyReversedFetchLimit=1000"
)

// Endpoint is a resolved Kind.
type Endpoint struct {
	Kind Kind

	// Columns is the header row of the output report
	Columns []string

	// Noun describes the keys in prompts and summaries, e.g. "refund IDs"
	Noun string

	// Extractor produces the reported value from a 200 response body
	Extractor Extractor

	base   string
	path   string
	suffix string
	arity  int
}

// New resolves a Kind against the configured service hosts.
func New(kind Kind, bases BaseURLs) (Endpoint, error) {
	switch kind {
	case KindHermesReversal:
		return Endpoint{
			Kind:      kind,
			Columns:   []string{"transactionId", "statusCode", "reconciliationState"},
			Noun:      "transactions",
			Extractor: Field("data.reconciliationState", SentinelReconStateMissing),
			base:      bases.Hermes,
			path:      pathAccountingEventDetails,
			suffix:    eventFulfilmentReversal,
			arity:     1,
		}, nil
	case KindRefundOrchestrator:
		return Endpoint{
			Kind:      kind,
			Columns:   []string{"transactionId", "statusCode", "responseBody"},
			Noun:      "transactions",
			Extractor: RawJSONExtractor{},
			base:      bases.RefundOrchestrator,
			path:      pathAccountingEvents,
			suffix:    eventFulfilmentReversal,
			arity:     1,
		}, nil
	case KindMandateRegistration:
		return Endpoint{
			Kind:      kind,
			Columns:   []string{"OMA_ID", "StatusCode", "ReconciliationState"},
			Noun:      "OMA IDs",
			Extractor: Field("data.reconciliationState", SentinelReconStateMissing),
			base:      bases.Hermes,
			path:      pathAccountingEventDetails,
			suffix:    eventMandateRegistration,
			arity:     1,
		}, nil
	case KindPaymentsDebug:
		return Endpoint{
			Kind:      kind,
			Columns:   []string{"transaction_id", "status_code", "execution_state"},
			Noun:      "transaction IDs",
			Extractor: Field("data.executionState", SentinelExecStateMissing),
			base:      bases.PaymentService,
			path:      pathHousekeepingDebug,
			suffix:    queryAlreadyReversedLimit,
			arity:     1,
		}, nil
	case KindRefundsHousekeeping:
		return Endpoint{
			Kind:      kind,
			Columns:   []string{"refund_id", "status_code", "state"},
			Noun:      "refund IDs",
			Extractor: Field("state", SentinelNotAvailable),
			base:      bases.RefundOrchestrator,
			path:      pathHousekeepingRefunds,
			arity:     1,
		}, nil
	case KindHermesStatus:
		return Endpoint{
			Kind:      kind,
			Columns:   []string{"merchantTransaction", "statusCode", "message"},
			Noun:      "merchant transactions",
			Extractor: Field("message", SentinelMessageMissing),
			base:      bases.Hermes,
			path:      pathHousekeepingDB,
			arity:     2,
		}, nil
	default:
		return Endpoint{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

// Arity is the number of identifier parts URL expects.
func (e Endpoint) Arity() int {
	return e.arity
}

// URL builds the request URL for one key. Each part becomes one escaped
// path segment between the endpoint path and its fixed suffix.
func (e Endpoint) URL(parts ...string) (string, error) {
	if len(parts) != e.arity {
		return "", fmt.Errorf("%s expects %d identifier(s), got %d", e.Kind, e.arity, len(parts))
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(e.base, "/"))
	b.WriteString(e.path)
	for _, part := range parts {
		if part == "" {
			return "", fmt.Errorf("%s: empty identifier", e.Kind)
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(part))
	}
	b.WriteString(e.suffix)

	return b.String(), nil
}
