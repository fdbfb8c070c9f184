package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-records-api/engine"
	"github.com/linesmerrill/police-records-api/models"
)

func strPtr(s string) *string { return &s }

func TestReportRegistry_CreateReportNormalizes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report, err := f.engine.Reports.CreateReport(ctx, engine.NewReport{
		Type:     models.ReportTypeArrest,
		Title:    "  Arrest on Grove St ",
		Location: "Grove St",
		Tags:     []string{"dui", "Unknown", "DUI", " traffic "},
		Involved: []models.InvolvedParty{
			{CID: 55, Name: " John Doe ", Role: "Suspect"},
			{CID: 55, Name: "John Doe", Role: "Witness"},
		},
		Vehicles: []string{"abc 123", "ABC123", "xyz9"},
		FullText: "Suspect detained.",
	}, officer)
	require.NoError(t, err)

	assert.Equal(t, "Arrest on Grove St", report.Title)
	assert.Equal(t, models.ReportDraft, report.Status)
	assert.Equal(t, []string{"DUI", "Traffic"}, report.Tags)
	require.Len(t, report.Involved, 1)
	assert.Equal(t, "John Doe", report.Involved[0].Name)
	assert.Equal(t, "Suspect", report.Involved[0].Role)
	assert.Equal(t, []string{"ABC123", "XYZ9"}, report.Vehicles)
	assert.Equal(t, officer.CID, report.AuthorCID)
	assert.Equal(t, officer.CID, report.LastEditorCID)
	assert.Nil(t, report.SubmittedAt)
}

func TestReportRegistry_CreateReportValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name string
		in   engine.NewReport
	}{
		{"bad type", engine.NewReport{Type: "Memo", Title: "x"}},
		{"no title", engine.NewReport{Type: models.ReportTypeOther, Title: " "}},
		{"bad cid", engine.NewReport{Type: models.ReportTypeOther, Title: "x", Involved: []models.InvolvedParty{{CID: 0}}}},
		{"empty plate", engine.NewReport{Type: models.ReportTypeOther, Title: "x", Vehicles: []string{"  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Reports.CreateReport(ctx, tt.in, officer)
			assert.ErrorIs(t, err, engine.ErrValidation)
		})
	}

	reports, err := f.engine.Reports.ListReports(ctx, engine.ReportQuery{})
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestReportRegistry_UpdateDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report, err := f.engine.Reports.CreateReport(ctx, engine.NewReport{
		Type:  models.ReportTypeTraffic,
		Title: "Collision",
		Tags:  []string{"Traffic"},
	}, officer)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	report, err = f.engine.Reports.UpdateReport(ctx, report.ID, engine.ReportUpdate{
		FullText: strPtr("Two vehicles involved."),
		Tags:     []string{"traffic", "weapons"},
	}, sergeant)
	require.NoError(t, err)

	assert.Equal(t, "Collision", report.Title)
	assert.Equal(t, "Two vehicles involved.", report.FullText)
	assert.Equal(t, []string{"Traffic", "Weapons"}, report.Tags)
	assert.Equal(t, officer.CID, report.AuthorCID)
	assert.Equal(t, sergeant.CID, report.LastEditorCID)
	assert.Equal(t, sergeant.Name, report.LastEditorName)

	last := report.Timeline[len(report.Timeline)-1]
	assert.Equal(t, models.ActionSaved, last.Action)
	assert.Contains(t, last.Note, "fullText")
	assert.Contains(t, last.Note, "tags:2")

	_, err = f.engine.Reports.UpdateReport(ctx, report.ID, engine.ReportUpdate{Title: strPtr(" ")}, sergeant)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestReportRegistry_SubmittedReportIsLocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report, err := f.engine.Reports.CreateReport(ctx, engine.NewReport{
		Type:  models.ReportTypeIncident,
		Title: "Shots fired",
		Tags:  []string{"Violent"},
	}, officer)
	require.NoError(t, err)

	report, err = f.engine.Reports.SubmitReport(ctx, report.ID, officer)
	require.NoError(t, err)
	assert.Equal(t, models.ReportSubmitted, report.Status)
	require.NotNil(t, report.SubmittedAt)

	locked := engine.Conflict(engine.CodeReportLocked)
	_, err = f.engine.Reports.UpdateReport(ctx, report.ID, engine.ReportUpdate{Tags: []string{"Gang"}}, sergeant)
	assert.ErrorIs(t, err, locked)
	_, err = f.engine.Reports.SubmitReport(ctx, report.ID, officer)
	assert.ErrorIs(t, err, locked)

	got, err := f.engine.Reports.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Violent"}, got.Tags)
	assert.Equal(t, officer.CID, got.LastEditorCID)
	assert.Len(t, got.Timeline, 2)
}

func TestReportRegistry_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.Reports.UpdateReport(ctx, "missing", engine.ReportUpdate{Title: strPtr("x")}, officer)
	assert.ErrorIs(t, err, engine.ErrNotFound)
	_, err = f.engine.Reports.SubmitReport(ctx, "missing", officer)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestReportRegistry_ListReports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.engine.Reports.CreateReport(ctx, engine.NewReport{
		Type:     models.ReportTypeTraffic,
		Title:    "Speeding on Route 68",
		Tags:     []string{"Traffic"},
		Vehicles: []string{"fast 1"},
	}, officer)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	second, err := f.engine.Reports.CreateReport(ctx, engine.NewReport{
		Type:     models.ReportTypeArrest,
		Title:    "Narcotics arrest",
		Location: "Vinewood",
		Tags:     []string{"Narcotics"},
		Involved: []models.InvolvedParty{{CID: 77, Name: "Jane Roe"}},
	}, officer)
	require.NoError(t, err)

	all, err := f.engine.Reports.ListReports(ctx, engine.ReportQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	byTag, err := f.engine.Reports.ListReports(ctx, engine.ReportQuery{Tag: "traffic"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, first.ID, byTag[0].ID)

	byType, err := f.engine.Reports.ListReports(ctx, engine.ReportQuery{Type: models.ReportTypeArrest})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, second.ID, byType[0].ID)

	byCID, err := f.engine.Reports.ListReports(ctx, engine.ReportQuery{Query: "77"})
	require.NoError(t, err)
	require.Len(t, byCID, 1)
	assert.Equal(t, second.ID, byCID[0].ID)

	byPlate, err := f.engine.Reports.ListReports(ctx, engine.ReportQuery{Query: "FAST1"})
	require.NoError(t, err)
	require.Len(t, byPlate, 1)
	assert.Equal(t, first.ID, byPlate[0].ID)

	limited, err := f.engine.Reports.ListReports(ctx, engine.ReportQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestReportRegistry_TagCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	catalog, err := f.engine.Reports.GetTagCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultTagCatalog, catalog.Tags)

	catalog, err = f.engine.Reports.SetTagCatalog(ctx, []string{"Robbery", " robbery", "", "Arson"}, sergeant)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arson", "Robbery"}, catalog.Tags)
	require.Len(t, catalog.Timeline, 1)

	report, err := f.engine.Reports.CreateReport(ctx, engine.NewReport{
		Type:  models.ReportTypeInvestigation,
		Title: "Warehouse fire",
		Tags:  []string{"arson", "Traffic"},
	}, officer)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arson"}, report.Tags)
}
