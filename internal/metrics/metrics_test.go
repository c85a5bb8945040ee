package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}

func TestObserveBatch(t *testing.T) {
	before := testutil.ToFloat64(BatchRowsTotal.WithLabelValues("failed"))

	ObserveBatch(3, 2)

	assert.Equal(t, before+2, testutil.ToFloat64(BatchRowsTotal.WithLabelValues("failed")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(BatchRowsTotal.WithLabelValues("succeeded")), 3.0)
}
