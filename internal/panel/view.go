package panel

import (
	"github.com/ca-srg/researchpanel/internal/metadata"
	"github.com/ca-srg/researchpanel/internal/research"
)

// Display text used when a metadata field is missing
const (
	SubmitLabel      = "Search"
	FallbackName     = "Unknown Company"
	FallbackSector   = "No sector provided"
	FallbackIndustry = "No industry provided"
	FallbackSummary  = "No business summary available."
	FallbackCity     = "Unknown city"
	FallbackState    = ""
	FallbackCountry  = "Unknown country"
	FallbackTicker   = "N/A"
	FallbackFounded  = "Unknown"
)

// Card is the display form of one search result
type Card struct {
	Index    int    `json:"index" yaml:"index"`
	Title    string `json:"title" yaml:"title"`
	Sector   string `json:"sector" yaml:"sector"`
	Industry string `json:"industry" yaml:"industry"`
	Subtitle string `json:"subtitle" yaml:"subtitle"`
	Summary  string `json:"business_summary" yaml:"business_summary"`
	City     string `json:"city" yaml:"city"`
	State    string `json:"state" yaml:"state"`
	Country  string `json:"country" yaml:"country"`
	Location string `json:"location" yaml:"location"`
	Ticker   string `json:"ticker" yaml:"ticker"`
	Founded  string `json:"founded" yaml:"founded"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
}

// View is everything the page needs to draw the panel
type View struct {
	Query          string `json:"query" yaml:"query"`
	Status         Status `json:"status" yaml:"status"`
	SubmitDisabled bool   `json:"submit_disabled" yaml:"submit_disabled"`
	Busy           bool   `json:"busy" yaml:"busy"`
	SubmitLabel    string `json:"submit_label" yaml:"submit_label"`
	ShowError      bool   `json:"show_error" yaml:"show_error"`
	ErrorMessage   string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	ShowGrid       bool   `json:"show_grid" yaml:"show_grid"`
	Cards          []Card `json:"cards" yaml:"cards"`
}

// Render maps a snapshot to its view. It has no side effects.
func Render(s Snapshot) View {
	v := View{
		Query:          s.Query,
		Status:         s.Status,
		SubmitDisabled: s.Pending,
		Busy:           s.Pending,
		SubmitLabel:    SubmitLabel,
		ShowError:      s.ErrorMessage != "",
		ErrorMessage:   s.ErrorMessage,
		ShowGrid:       len(s.Results) > 0,
		Cards:          make([]Card, 0, len(s.Results)),
	}

	for i, r := range s.Results {
		v.Cards = append(v.Cards, CardFor(i, r))
	}

	return v
}

// CardFor builds the card for the result at position i
func CardFor(i int, r research.Result) Card {
	md := r.Metadata

	c := Card{
		Index:    i,
		Title:    md.Text(metadata.KeyName, FallbackName),
		Sector:   md.Text(metadata.KeySector, FallbackSector),
		Industry: md.Text(metadata.KeyIndustry, FallbackIndustry),
		Summary:  md.Text(metadata.KeyBusinessSummary, FallbackSummary),
		City:     md.Text(metadata.KeyCity, FallbackCity),
		State:    md.Text(metadata.KeyState, FallbackState),
		Country:  md.Text(metadata.KeyCountry, FallbackCountry),
		Ticker:   md.Text(metadata.KeyTicker, FallbackTicker),
		Founded:  md.Text(metadata.KeyFounded, FallbackFounded),
		Text:     r.Text,
	}
	c.Subtitle = c.Sector + " - " + c.Industry
	c.Location = c.City + ", " + c.State + " " + c.Country

	return c
}
