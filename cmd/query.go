package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ca-srg/researchpanel/internal/metrics"
	"github.com/ca-srg/researchpanel/internal/panel"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	queryText    string
	queryOutput  string
	errQueryFail = errors.New(panel.ErrorMessage)
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run one research query and print the result cards",
	Long: `
Run one research query against the search endpoint and print the result
cards. The request carries the query and k=5, exactly like the web form.

Examples:
  researchpanel query -q "renewable energy"
  researchpanel query -q "semiconductor suppliers" --output json
  researchpanel query -q "regional banks" -o yaml
`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "Text query to search for (required)")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", outputText, "Output format: text|json|yaml")

	_ = queryCmd.MarkFlagRequired("query")
}

// ResetQueryState restores the query flags to their defaults
func ResetQueryState() {
	queryText = ""
	queryOutput = outputText
	for _, name := range []string{"query", "output"} {
		if flag := queryCmd.Flags().Lookup(name); flag != nil {
			_ = flag.Value.Set(flag.DefValue)
			flag.Changed = false
		}
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(strings.TrimSpace(queryOutput))
	switch format {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unsupported output format %q (use text, json or yaml)", queryOutput)
	}

	client, err := newSearchClient(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create search client: %w", err)
	}

	p := panel.New(client, panel.WithLogger(logger))
	snap, err := p.SubmitQuery(cmd.Context(), queryText)
	if errors.Is(err, panel.ErrEmptyQuery) {
		return err
	}

	if err != nil {
		metrics.RecordSubmission(metrics.ModeQuery, metrics.OutcomeFailed)
	} else {
		metrics.RecordSubmission(metrics.ModeQuery, metrics.OutcomeSucceeded)
	}

	if printErr := printView(cmd.OutOrStdout(), panel.Render(snap), format); printErr != nil {
		return fmt.Errorf("failed to print results: %w", printErr)
	}

	if err != nil {
		// The panel already logged the cause
		return errQueryFail
	}
	return nil
}

func printView(w io.Writer, view panel.View, format string) error {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(view)
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(view); err != nil {
			return err
		}
		return encoder.Close()
	default:
		printTextView(w, view)
		return nil
	}
}

func printTextView(w io.Writer, view panel.View) {
	heading := color.New(color.FgCyan, color.Bold)
	faint := color.New(color.Faint)
	failure := color.New(color.FgRed, color.Bold)

	fmt.Fprintf(w, "Query: %s\n", view.Query)

	if view.ShowError {
		fmt.Fprintln(w)
		failure.Fprintln(w, view.ErrorMessage)
	}

	if !view.ShowGrid {
		return
	}

	fmt.Fprintf(w, "Results: %d\n", len(view.Cards))
	for _, card := range view.Cards {
		fmt.Fprintln(w)
		heading.Fprintf(w, "[%d] %s\n", card.Index+1, card.Title)
		faint.Fprintf(w, "    %s\n", card.Subtitle)
		fmt.Fprintf(w, "    %s\n", card.Summary)
		fmt.Fprintf(w, "    Location: %s\n", card.Location)
		fmt.Fprintf(w, "    Ticker:   %s\n", card.Ticker)
		fmt.Fprintf(w, "    Founded:  %s\n", card.Founded)
	}
}
