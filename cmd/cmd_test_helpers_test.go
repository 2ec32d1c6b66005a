package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/researchpanel/internal/types"
)

const renewableEnergyBody = `{"results": [
	{"text": "SunCo builds solar farms", "metadata": {"Name": "SunCo", "Sector": "Energy", "Founded": 1998}},
	{"text": "second"},
	{"text": "third", "metadata": {"Ticker": ""}}
]}`

func newSearchBackend(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

// overrideAppConfig makes setupRuntime use cfg instead of the environment
func overrideAppConfig(t *testing.T, cfg *types.Config) {
	t.Helper()
	prev := loadAppConfig
	loadAppConfig = func() (*types.Config, error) {
		copied := *cfg
		return &copied, nil
	}
	t.Cleanup(func() {
		loadAppConfig = prev
		teardownRuntime()
		appConfig = nil
	})
}

func testAppConfig(endpoint string) *types.Config {
	return &types.Config{
		ResearchEndpointURL: endpoint,
		ResearchRateBurst:   1,
		WebUIHost:           "localhost",
		WebUIPort:           8081,
		LogLevel:            "error",
	}
}

// executeRoot runs the root command with args and returns its stdout
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ResetQueryState()
	statsJSON = false
	t.Cleanup(ResetQueryState)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func requireNoColorCodes(t *testing.T, output string) {
	t.Helper()
	require.NotContains(t, output, "\x1b[")
}
