package monitoring

import (
	"strconv"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ClaimOutcome string

var (
	ClaimPaid ClaimOutcome = "paid"
	ClaimZero ClaimOutcome = "zero"
)

type ledgerPromMetrics struct {
	transferCount     *prometheus.CounterVec
	rejectedOpCount   *prometheus.CounterVec
	currentSnapshotID *prometheus.GaugeVec
	periodsFunded     prometheus.Counter
	claimCount        *prometheus.CounterVec
	interestPaid      prometheus.Counter
	panicCount        prometheus.Counter
	apiRequestCount   *prometheus.CounterVec
}

func newLedgerPromMetrics() *ledgerPromMetrics {
	return &ledgerPromMetrics{
		transferCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapledger_transfer_count",
				Help: "The total number of applied balance moves, mints and burns included",
			},
			[]string{"source"},
		),
		rejectedOpCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapledger_rejected_op_count",
				Help: "The total number of rejected ledger operations",
			},
			[]string{"source", "code"},
		),
		currentSnapshotID: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "snapledger_current_snapshot_id",
				Help: "The latest issued snapshot id",
			},
			[]string{"source"},
		),
		periodsFunded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "snapledger_periods_funded_count",
				Help: "The total number of funded distribution periods",
			},
		),
		claimCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapledger_claim_count",
				Help: "The total number of accepted interest claims",
			},
			[]string{"outcome"},
		),
		interestPaid: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "snapledger_interest_paid_units",
				Help: "Interest paid out in payout-currency base units",
			},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "snapledger_panic_count",
				Help: "The total number of recovered panics",
			},
		),
		apiRequestCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapledger_api_request_count",
				Help: "The total number of API requests by route and status",
			},
			[]string{"route", "status"},
		),
	}
}

var ledgerMetrics = newLedgerPromMetrics()

func RecordTransfer(source string) {
	ledgerMetrics.transferCount.With(prometheus.Labels{"source": source}).Inc()
}

func RecordRejectedOp(source string, code string) {
	ledgerMetrics.rejectedOpCount.With(prometheus.Labels{
		"source": source,
		"code":   code,
	}).Inc()
}

func SetCurrentSnapshotID(source string, id uint64) {
	ledgerMetrics.currentSnapshotID.With(prometheus.Labels{"source": source}).Set(float64(id))
}

func IncreasePeriodsFunded() {
	ledgerMetrics.periodsFunded.Inc()
}

func RecordClaim(amount *uint256.Int) {
	if amount.IsZero() {
		ledgerMetrics.claimCount.With(prometheus.Labels{"outcome": string(ClaimZero)}).Inc()
		return
	}
	ledgerMetrics.claimCount.With(prometheus.Labels{"outcome": string(ClaimPaid)}).Inc()
	ledgerMetrics.interestPaid.Add(amount.Float64())
}

func IncreasePanicCount() {
	ledgerMetrics.panicCount.Inc()
}

func RecordAPIRequest(route string, status int) {
	ledgerMetrics.apiRequestCount.With(prometheus.Labels{
		"route":  route,
		"status": strconv.Itoa(status),
	}).Inc()
}
