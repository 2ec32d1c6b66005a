package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ca-srg/researchpanel/internal/metadata"
	"github.com/ca-srg/researchpanel/internal/research"
)

func TestCardForFullMetadata(t *testing.T) {
	card := CardFor(0, research.Result{
		Text: "profile",
		Metadata: metadata.Metadata{
			metadata.KeyName:            metadata.String("SunCo"),
			metadata.KeySector:          metadata.String("Energy"),
			metadata.KeyIndustry:        metadata.String("Solar"),
			metadata.KeyBusinessSummary: metadata.String("Builds solar farms."),
			metadata.KeyCity:            metadata.String("Austin"),
			metadata.KeyState:           metadata.String("TX"),
			metadata.KeyCountry:         metadata.String("United States"),
			metadata.KeyTicker:          metadata.String("SUNC"),
			metadata.KeyFounded:         metadata.Number(1976),
		},
	})

	assert.Equal(t, "SunCo", card.Title)
	assert.Equal(t, "Energy - Solar", card.Subtitle)
	assert.Equal(t, "Builds solar farms.", card.Summary)
	assert.Equal(t, "Austin, TX United States", card.Location)
	assert.Equal(t, "SUNC", card.Ticker)
	assert.Equal(t, "1976", card.Founded)
	assert.Equal(t, "profile", card.Text)
}

func TestCardForMissingMetadata(t *testing.T) {
	card := CardFor(2, research.Result{})

	assert.Equal(t, 2, card.Index)
	assert.Equal(t, "Unknown Company", card.Title)
	assert.Equal(t, "No sector provided - No industry provided", card.Subtitle)
	assert.Equal(t, "No business summary available.", card.Summary)
	assert.Equal(t, "Unknown city,  Unknown country", card.Location)
	assert.Equal(t, "N/A", card.Ticker)
	assert.Equal(t, "Unknown", card.Founded)
}

func TestCardFieldsFallBackIndependently(t *testing.T) {
	card := CardFor(0, research.Result{Metadata: metadata.Metadata{
		metadata.KeyIndustry: metadata.String("Utilities"),
		metadata.KeyCountry:  metadata.String("Japan"),
		metadata.KeyTicker:   metadata.String(""),
		metadata.KeyFounded:  metadata.Null(),
	}})

	assert.Equal(t, "No sector provided - Utilities", card.Subtitle)
	assert.Equal(t, "Unknown city,  Japan", card.Location)
	assert.Equal(t, "N/A", card.Ticker)
	assert.Equal(t, "Unknown", card.Founded)
}

func TestRenderErrorIndependentOfResults(t *testing.T) {
	view := Render(Snapshot{
		Status:       StatusFailed,
		ErrorMessage: ErrorMessage,
		Results:      named("A"),
	})

	assert.True(t, view.ShowError)
	assert.True(t, view.ShowGrid)
	assert.Len(t, view.Cards, 1)
}

func TestRenderPendingDisablesSubmit(t *testing.T) {
	view := Render(Snapshot{Status: StatusPending, Pending: true})
	assert.True(t, view.SubmitDisabled)
	assert.True(t, view.Busy)
	assert.Equal(t, "Search", view.SubmitLabel)
	assert.NotNil(t, view.Cards)
}
