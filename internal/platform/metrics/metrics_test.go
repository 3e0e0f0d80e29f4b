package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/codex-employee-import/internal/core/employeeimport"
)

func TestImport_Counters(t *testing.T) {
	t.Parallel()

	m := NewImport()
	m.BatchStaged(3)
	m.BatchStaged(2)
	m.ImportRun(employeeimport.OutcomeImported)
	m.ImportRun(employeeimport.OutcomeEmpty)
	m.ImportRun(employeeimport.OutcomeEmpty)
	m.RowCommitted()
	m.RowFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.batchesTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.stagedRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("imported")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rowsTotal.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rowsTotal.WithLabelValues("failed")))
}

func TestImport_Handler(t *testing.T) {
	t.Parallel()

	m := NewImport()
	m.ImportRun(employeeimport.OutcomeStale)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `employee_import_runs_total{outcome="stale"} 1`), body)
}
