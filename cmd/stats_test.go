package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/researchpanel/internal/metrics"
)

func TestBuildStatsRows(t *testing.T) {
	rows := buildStatsRows(map[metrics.Key]int64{
		{Mode: metrics.ModeWebUI, Outcome: metrics.OutcomeSucceeded}: 4,
		{Mode: metrics.ModeWebUI, Outcome: metrics.OutcomeFailed}:    1,
		{Mode: metrics.ModeQuery, Outcome: metrics.OutcomeFailed}:    2,
	})

	require.Len(t, rows, 2)
	assert.Equal(t, StatsRow{Mode: metrics.ModeWebUI, Succeeded: 4, Failed: 1, Total: 5}, rows[0])
	assert.Equal(t, StatsRow{Mode: metrics.ModeQuery, Succeeded: 0, Failed: 2, Total: 2}, rows[1])
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, []StatsRow{{Mode: metrics.ModeWebUI, Succeeded: 3, Failed: 1, Total: 4}})

	output := buf.String()
	assert.Contains(t, output, "=== Submission Stats ===")
	assert.Contains(t, output, "MODE")
	assert.Regexp(t, `webui\s+3\s+1\s+4`, output)
}

func TestStatsCommandReadsStore(t *testing.T) {
	backend := newSearchBackend(t, http.StatusOK, `{"results": []}`)
	cfg := testAppConfig(backend.URL)
	cfg.MetricsEnabled = true
	cfg.MetricsDBPath = filepath.Join(t.TempDir(), "stats.db")
	overrideAppConfig(t, cfg)

	store, err := metrics.NewStore(cfg.MetricsDBPath)
	require.NoError(t, err)
	require.NoError(t, store.Increment(metrics.ModeWebUI, metrics.OutcomeSucceeded))
	require.NoError(t, store.Increment(metrics.ModeWebUI, metrics.OutcomeSucceeded))
	require.NoError(t, store.Increment(metrics.ModeQuery, metrics.OutcomeFailed))
	require.NoError(t, store.Close())

	output, err := executeRoot(t, "stats", "--json")
	require.NoError(t, err)

	var rows []StatsRow
	require.NoError(t, json.Unmarshal([]byte(output), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].Succeeded)
	assert.Equal(t, int64(1), rows[1].Failed)
}

func TestStatsCommandMetricsDisabled(t *testing.T) {
	backend := newSearchBackend(t, http.StatusOK, `{"results": []}`)
	overrideAppConfig(t, testAppConfig(backend.URL))

	output, err := executeRoot(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, output, "disabled")
}
