package ui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"equivproof/domain/verdict"
	"equivproof/internal"
	"equivproof/internal/ledger"
	"equivproof/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, withReport bool) *App {
	l := ledger.New(ledger.WithClock(testkit.NewFixedClock(testkit.Epoch)), ledger.WithLogger(internal.Discard()))
	_, err := l.Record("eigh", verdict.L3, "adversarial", true, "attempts=100 failures=0")
	require.NoError(t, err)

	var reporter Reporter
	if withReport {
		reporter = l
	}
	app, err := NewApp(Config{Port: "0"}, l, reporter, internal.Discard())
	require.NoError(t, err)
	return app
}

func serve(app *App, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndex(t *testing.T) {
	rec := serve(newApp(t, true), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eigh")
	assert.Contains(t, rec.Body.String(), "L3 (adversarial)")
	assert.Contains(t, rec.Body.String(), `href="/report"`)
}

func TestReport(t *testing.T) {
	rec := serve(newApp(t, true), "/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<table>")

	rec = serve(newApp(t, false), "/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMountedAPI(t *testing.T) {
	rec := serve(newApp(t, false), "/api/targets/eigh")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"current_level":"L3"`)
}

func TestIndexLinksResolveForNestedTargets(t *testing.T) {
	l := ledger.New(ledger.WithClock(testkit.NewFixedClock(testkit.Epoch)), ledger.WithLogger(internal.Discard()))
	_, err := l.Record("comparator/hermitian_part", verdict.L2, "properties", true, "")
	require.NoError(t, err)
	app, err := NewApp(Config{Port: "0"}, l, nil, internal.Discard())
	require.NoError(t, err)

	rec := serve(app, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/api/targets/comparator/hermitian_part"`)

	rec = serve(app, "/api/targets/comparator/hermitian_part")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"current_level":"L2"`)
}
