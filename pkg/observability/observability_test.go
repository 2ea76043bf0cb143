package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_OwnRegistry(t *testing.T) {
	// Two collectors with the same namespace must not clash
	a := NewCollector("conceptmap")
	b := NewCollector("conceptmap")

	a.ObserveOperation("add_node", nil)
	a.ObserveOperation("add_node", errors.New("boom"))
	a.AutoLinks.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.MapOperations.WithLabelValues("add_node", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.MapOperations.WithLabelValues("add_node", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.AutoLinks))

	families, err := a.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("conceptmap")
	c.AutoLinks.Inc()
	w := httptest.NewRecorder()

	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "conceptmap_auto_links_total 1")
}

func TestTracer_Disabled(t *testing.T) {
	tracer := NewTracer("conceptmap-api", false)
	called := false

	err := tracer.TraceFunction(context.Background(), "op", func(ctx context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, tracer.Enabled())

	var nilTracer *Tracer
	assert.False(t, nilTracer.Enabled())
	nilTracer.AddAnnotation(context.Background(), "k", "v")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	w := httptest.NewRecorder()
	tracer.Middleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
