package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ca-srg/researchpanel/internal/metadata"
	"github.com/ca-srg/researchpanel/internal/metrics"
	"github.com/ca-srg/researchpanel/internal/panel"
	"github.com/ca-srg/researchpanel/internal/research"
)

func renewableEnergyView() panel.View {
	return panel.Render(panel.Snapshot{
		Status: panel.StatusSucceeded,
		Query:  "renewable energy",
		Results: []research.Result{
			{Metadata: metadata.Metadata{
				metadata.KeyName:   metadata.String("SunCo"),
				metadata.KeySector: metadata.String("Energy"),
			}},
			{},
			{},
		},
	})
}

func TestPrintTextViewRendersCards(t *testing.T) {
	disableColor(t)

	var buf bytes.Buffer
	printTextView(&buf, renewableEnergyView())
	output := buf.String()

	requireNoColorCodes(t, output)
	assert.Contains(t, output, "Query: renewable energy")
	assert.Contains(t, output, "Results: 3")
	assert.Contains(t, output, "[1] SunCo")
	assert.Contains(t, output, "Energy - No industry provided")
	assert.Contains(t, output, "[2] Unknown Company")
	assert.Contains(t, output, "[3] Unknown Company")
	assert.Equal(t, 2, strings.Count(output, "No sector provided - No industry provided"))
	assert.Equal(t, 3, strings.Count(output, panel.FallbackSummary))
	assert.Contains(t, output, "Ticker:   N/A")
	assert.Contains(t, output, "Founded:  Unknown")
}

func TestPrintTextViewEmptyResultsHasNoGrid(t *testing.T) {
	disableColor(t)

	var buf bytes.Buffer
	printTextView(&buf, panel.Render(panel.Snapshot{Status: panel.StatusSucceeded, Query: "nothing"}))

	assert.Equal(t, "Query: nothing\n", buf.String())
}

func TestPrintTextViewFailure(t *testing.T) {
	disableColor(t)

	var buf bytes.Buffer
	printTextView(&buf, panel.Render(panel.Snapshot{
		Status:       panel.StatusFailed,
		Query:        "wind",
		ErrorMessage: panel.ErrorMessage,
	}))

	assert.Contains(t, buf.String(), panel.ErrorMessage)
	assert.NotContains(t, buf.String(), "Results:")
}

func TestPrintViewJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printView(&buf, renewableEnergyView(), outputJSON))

	var decoded panel.View
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Cards, 3)
	assert.Equal(t, "SunCo", decoded.Cards[0].Title)
	assert.Equal(t, panel.FallbackName, decoded.Cards[1].Title)
}

func TestPrintViewYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printView(&buf, renewableEnergyView(), outputYAML))

	var decoded struct {
		Query string `yaml:"query"`
		Cards []struct {
			Title    string `yaml:"title"`
			Subtitle string `yaml:"subtitle"`
		} `yaml:"cards"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "renewable energy", decoded.Query)
	require.Len(t, decoded.Cards, 3)
	assert.Equal(t, "Energy - No industry provided", decoded.Cards[0].Subtitle)
}

func TestQueryCommandPrintsCards(t *testing.T) {
	disableColor(t)
	backend := newSearchBackend(t, http.StatusOK, renewableEnergyBody)
	overrideAppConfig(t, testAppConfig(backend.URL))

	output, err := executeRoot(t, "query", "-q", "renewable energy")
	require.NoError(t, err)

	assert.Contains(t, output, "[1] SunCo")
	assert.Contains(t, output, "Founded:  1998")
	assert.Contains(t, output, "[3] Unknown Company")
	assert.Contains(t, output, "Ticker:   N/A", "empty ticker falls back")
}

func TestQueryCommandJSONOutput(t *testing.T) {
	backend := newSearchBackend(t, http.StatusOK, renewableEnergyBody)
	overrideAppConfig(t, testAppConfig(backend.URL))

	output, err := executeRoot(t, "query", "-q", "renewable energy", "--output", "json")
	require.NoError(t, err)

	var view panel.View
	require.NoError(t, json.Unmarshal([]byte(output), &view))
	assert.Equal(t, panel.StatusSucceeded, view.Status)
	assert.False(t, view.SubmitDisabled)
	assert.True(t, view.ShowGrid)
	require.Len(t, view.Cards, 3)
}

func TestQueryCommandFailureReturnsGenericError(t *testing.T) {
	disableColor(t)
	backend := newSearchBackend(t, http.StatusBadGateway, `{"results": []}`)
	overrideAppConfig(t, testAppConfig(backend.URL))

	output, err := executeRoot(t, "query", "-q", "renewable energy")
	require.Error(t, err)
	assert.Equal(t, panel.ErrorMessage, err.Error())
	assert.Contains(t, output, panel.ErrorMessage)
	assert.NotContains(t, output, "Results:")
}

func TestQueryCommandRecordsMetrics(t *testing.T) {
	backend := newSearchBackend(t, http.StatusOK, `{"results": []}`)
	cfg := testAppConfig(backend.URL)
	cfg.MetricsEnabled = true
	cfg.MetricsDBPath = filepath.Join(t.TempDir(), "stats.db")
	overrideAppConfig(t, cfg)

	_, err := executeRoot(t, "query", "-q", "anything", "-o", "json")
	require.NoError(t, err)

	stats := metrics.GetStats()
	require.NotNil(t, stats)
	assert.Equal(t, int64(1), stats[metrics.Key{Mode: metrics.ModeQuery, Outcome: metrics.OutcomeSucceeded}])
}

func TestQueryCommandRejectsUnknownFormat(t *testing.T) {
	backend := newSearchBackend(t, http.StatusOK, renewableEnergyBody)
	overrideAppConfig(t, testAppConfig(backend.URL))

	_, err := executeRoot(t, "query", "-q", "solar", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestQueryCommandRejectsEmptyQuery(t *testing.T) {
	backend := newSearchBackend(t, http.StatusOK, renewableEnergyBody)
	overrideAppConfig(t, testAppConfig(backend.URL))

	_, err := executeRoot(t, "query", "-q", "")
	require.ErrorIs(t, err, panel.ErrEmptyQuery)
}

func TestQueryCommandSendsWhitespaceQuery(t *testing.T) {
	var bodies []string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))
		_, _ = io.WriteString(w, `{"results":[]}`)
	}))
	t.Cleanup(backend.Close)
	overrideAppConfig(t, testAppConfig(backend.URL))

	_, err := executeRoot(t, "query", "-q", "   ")
	require.NoError(t, err)
	require.Len(t, bodies, 1)
	assert.JSONEq(t, `{"query":"   ","k":5}`, bodies[0])
}

func TestResetQueryState(t *testing.T) {
	require.NoError(t, queryCmd.Flags().Set("output", "yaml"))
	assert.Equal(t, "yaml", queryOutput)

	ResetQueryState()
	assert.Equal(t, outputText, queryOutput)
	assert.False(t, queryCmd.Flags().Lookup("output").Changed)
}
