package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestStandardInstrumentsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("minishop", "", reg)
	counters, histograms := Standard(r)

	counters[observability.MUsecaseRequests].Add(1,
		observability.L("use_case", "order.create"),
		observability.L("outcome", "success"),
	)
	histograms[observability.MUsecaseDuration].Observe(0.2, observability.L("use_case", "order.create"))

	// same name resolves to the already registered vector
	again := r.Counter(string(observability.MUsecaseRequests), "dup", "use_case", "outcome")
	again.Add(2, observability.L("use_case", "order.create"), observability.L("outcome", "success"))

	cv, ok := r.(*registry).counters.Load(string(observability.MUsecaseRequests))
	require.True(t, ok)
	require.Equal(t, float64(3), testutil.ToFloat64(cv.(*prometheus.CounterVec).WithLabelValues("order.create", "success")))

	n, err := testutil.GatherAndCount(reg, "minishop_usecase_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
