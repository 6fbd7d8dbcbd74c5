package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"png_compression/entity"
)

func TestObserveCompression(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, func() float64 { return 7 })

	c.ObserveCompression(entity.StatusSucceeded, entity.StagePublished, time.Second, 100, 60)
	c.ObserveCompression(entity.StatusFailed, entity.StageValidating, time.Millisecond, 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.compressions.WithLabelValues(entity.StatusSucceeded, string(entity.StagePublished))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.compressions.WithLabelValues(entity.StatusFailed, string(entity.StageValidating))))
	assert.Equal(t, 100.0, testutil.ToFloat64(c.sourceBytes))
	assert.Equal(t, 60.0, testutil.ToFloat64(c.outputBytes))

	n, err := testutil.GatherAndCount(reg, "png_compression_stored_objects")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveCompression(entity.StatusSucceeded, entity.StagePublished, time.Second, 1, 1)
	c.ObserveHTTP("GET", "/", 200)
}
