package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SourceListings.WithLabelValues("Seek").Add(3)
	m.ListingsInserted.Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.SourceListings.WithLabelValues("Seek")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListingsInserted))

	// A second registry must not collide with the first.
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}
