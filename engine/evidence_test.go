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

func newEvidence(t *testing.T, f *fixture, reportID string) models.Evidence {
	t.Helper()
	item, err := f.engine.Evidence.CreateEvidence(context.Background(), engine.NewEvidence{
		Label:    "9mm casing",
		Type:     "Ballistic",
		Holder:   "Ofc. Reyes",
		ReportID: reportID,
		Tags:     []string{"weapons", "weapons"},
	}, officer)
	require.NoError(t, err)
	return item
}

func TestEvidenceLedger_CreateEvidence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	item := newEvidence(t, f, "r1")
	assert.Equal(t, models.EvidenceOpen, item.Status)
	assert.Equal(t, "r1", item.ReportID)
	assert.Equal(t, []string{"weapons"}, item.Tags)
	require.Len(t, item.Events, 1)
	assert.Equal(t, "holder Ofc. Reyes", item.Events[0].Note)

	_, err := f.engine.Evidence.CreateEvidence(ctx, engine.NewEvidence{Label: "x"}, officer)
	assert.ErrorIs(t, err, engine.ErrValidation)
	_, err = f.engine.Evidence.CreateEvidence(ctx, engine.NewEvidence{Holder: "x"}, officer)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestEvidenceLedger_TransferChain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	item := newEvidence(t, f, "")
	item, err := f.engine.Evidence.TransferHolder(ctx, item.ID, "Evidence Locker B", "bagged", officer)
	require.NoError(t, err)
	assert.Equal(t, "Evidence Locker B", item.Holder)
	last := item.Events[len(item.Events)-1]
	assert.Equal(t, models.ActionTransferred, last.Action)
	assert.Equal(t, "Ofc. Reyes -> Evidence Locker B: bagged", last.Note)

	item, err = f.engine.Evidence.TransferHolder(ctx, item.ID, "Crime Lab", "", sergeant)
	require.NoError(t, err)
	assert.Equal(t, "Evidence Locker B -> Crime Lab", item.Events[len(item.Events)-1].Note)

	_, err = f.engine.Evidence.TransferHolder(ctx, item.ID, " ", "", sergeant)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestEvidenceLedger_SealFreezesCustody(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	item := newEvidence(t, f, "r1")
	item, err := f.engine.Evidence.Seal(ctx, item.ID, sergeant)
	require.NoError(t, err)
	assert.Equal(t, models.EvidenceSealed, item.Status)

	sealed := engine.Conflict(engine.CodeSealed)
	_, err = f.engine.Evidence.TransferHolder(ctx, item.ID, "Crime Lab", "", officer)
	assert.ErrorIs(t, err, sealed)
	_, err = f.engine.Evidence.LinkToReport(ctx, item.ID, "r2", officer)
	assert.ErrorIs(t, err, sealed)
	_, err = f.engine.Evidence.UnlinkFromReport(ctx, item.ID, officer)
	assert.ErrorIs(t, err, sealed)
	_, err = f.engine.Evidence.Seal(ctx, item.ID, sergeant)
	assert.ErrorIs(t, err, sealed)

	got, err := f.engine.Evidence.GetEvidence(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ofc. Reyes", got.Holder)
	assert.Equal(t, "r1", got.ReportID)
	assert.Len(t, got.Events, 2)

	got, err = f.engine.Evidence.AddNote(ctx, item.ID, "photographed", sergeant)
	require.NoError(t, err)
	assert.Equal(t, models.ActionNote, got.Events[len(got.Events)-1].Action)
	assert.Len(t, got.Events, 3)
}

func TestEvidenceLedger_ReportLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	item := newEvidence(t, f, "")

	// unlinking an unlinked item writes nothing
	item, err := f.engine.Evidence.UnlinkFromReport(ctx, item.ID, officer)
	require.NoError(t, err)
	assert.Len(t, item.Events, 1)

	item, err = f.engine.Evidence.LinkToReport(ctx, item.ID, "r1", officer)
	require.NoError(t, err)
	assert.Equal(t, "r1", item.ReportID)
	assert.Len(t, item.Events, 2)

	item, err = f.engine.Evidence.LinkToReport(ctx, item.ID, "r1", officer)
	require.NoError(t, err)
	assert.Len(t, item.Events, 2)

	item, err = f.engine.Evidence.LinkToReport(ctx, item.ID, "r2", officer)
	require.NoError(t, err)
	assert.Equal(t, "r2", item.ReportID)

	item, err = f.engine.Evidence.UnlinkFromReport(ctx, item.ID, officer)
	require.NoError(t, err)
	assert.Empty(t, item.ReportID)
	last := item.Events[len(item.Events)-1]
	assert.Equal(t, models.ActionUnlinked, last.Action)
	assert.Equal(t, "r2", last.Note)

	_, err = f.engine.Evidence.LinkToReport(ctx, item.ID, " ", officer)
	assert.ErrorIs(t, err, engine.ErrValidation)
	_, err = f.engine.Evidence.LinkToReport(ctx, "missing", "r1", officer)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestEvidenceLedger_ListEvidence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a := newEvidence(t, f, "r1")
	f.clock.Advance(time.Second)
	b := newEvidence(t, f, "r2")
	f.clock.Advance(time.Second)
	c := newEvidence(t, f, "r1")

	all, err := f.engine.Evidence.ListEvidence(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, c.ID, all[0].ID)
	assert.Equal(t, b.ID, all[1].ID)

	linked, err := f.engine.Evidence.ListEvidence(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, linked, 2)
	assert.Equal(t, c.ID, linked[0].ID)
	assert.Equal(t, a.ID, linked[1].ID)
}
