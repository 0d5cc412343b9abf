package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMutation(t *testing.T) {
	m := New()
	m.RecordMutation("add_group", nil)
	m.RecordMutation("add_group", nil)
	m.RecordMutation("add_group", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("add_group", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("add_group", "error")))
}

func TestSetSizes(t *testing.T) {
	m := New()
	m.SetSizes(3, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Groups))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MetaGroups))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/groups/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, name := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/groups/"+name, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/groups/{name}", "418")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.EventsDropped.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "pkggroups_events_dropped_total 1"))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.WSConnections.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.WSConnections))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.WSConnections))
}
