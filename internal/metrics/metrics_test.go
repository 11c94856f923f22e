package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/serroba/shortlinks/internal/metrics"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("registers collectors", func(t *testing.T) {
		m, err := metrics.New(prometheus.NewRegistry())

		require.NoError(t, err)
		assert.NotNil(t, m.Links)
	})

	t.Run("fails on duplicate registration", func(t *testing.T) {
		reg := prometheus.NewRegistry()

		_, err := metrics.New(reg)
		require.NoError(t, err)

		_, err = metrics.New(reg)
		assert.Error(t, err)
	})
}

func TestMetrics_Observe(t *testing.T) {
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveShorten(true)
	m.ObserveShorten(false)
	m.ObserveShorten(false)
	m.ObserveCollision()
	m.ObserveResolve(shortener.OutcomeFound)
	m.ObserveResolve(shortener.OutcomeNotFound)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Links.WithLabelValues("created")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Links.WithLabelValues("reused")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Collisions), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Redirects.WithLabelValues(shortener.OutcomeFound)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Redirects.WithLabelValues(shortener.OutcomeNotFound)), 0)
}

func TestMetrics_WithService(t *testing.T) {
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	gen, err := shortener.NewCodeGenerator()
	require.NoError(t, err)

	svc := shortener.NewService(store.NewMemoryStore(), gen, "http://localhost:5000", zap.NewNop(),
		shortener.WithRecorder(m))
	ctx := context.Background()

	res, err := svc.Shorten(ctx, shortener.ShortenInput{OriginalURL: "example.com"})
	require.NoError(t, err)

	_, err = svc.Shorten(ctx, shortener.ShortenInput{OriginalURL: "example.com"})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, res.Link.Code)
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Links.WithLabelValues("created")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Links.WithLabelValues("reused")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Redirects.WithLabelValues(shortener.OutcomeFound)), 0)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	m.ObserveCollision()

	w := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shortlinks_code_collisions_total 1")
}
