package monitoring

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordClaim(t *testing.T) {
	paid := ledgerMetrics.claimCount.With(prometheus.Labels{"outcome": string(ClaimPaid)})
	zero := ledgerMetrics.claimCount.With(prometheus.Labels{"outcome": string(ClaimZero)})
	paidBefore := testutil.ToFloat64(paid)
	zeroBefore := testutil.ToFloat64(zero)
	unitsBefore := testutil.ToFloat64(ledgerMetrics.interestPaid)

	RecordClaim(uint256.NewInt(250))
	RecordClaim(uint256.NewInt(0))

	assert.Equal(t, paidBefore+1, testutil.ToFloat64(paid))
	assert.Equal(t, zeroBefore+1, testutil.ToFloat64(zero))
	assert.Equal(t, unitsBefore+250, testutil.ToFloat64(ledgerMetrics.interestPaid))
}

func TestSnapshotGaugeAndRejections(t *testing.T) {
	SetCurrentSnapshotID("TEST", 7)
	assert.Equal(t, 7.0, testutil.ToFloat64(ledgerMetrics.currentSnapshotID.With(prometheus.Labels{"source": "TEST"})))

	rejected := ledgerMetrics.rejectedOpCount.With(prometheus.Labels{"source": "TEST", "code": "blacklisted"})
	before := testutil.ToFloat64(rejected)
	RecordRejectedOp("TEST", "blacklisted")
	assert.Equal(t, before+1, testutil.ToFloat64(rejected))
}
