package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/engine"
	"github.com/linesmerrill/police-records-api/models"
)

func TestCaseIntakeWorkflow_ApproveNumbersCases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report, err := f.engine.Reports.CreateReport(ctx, engine.NewReport{
		Type:     models.ReportTypeInvestigation,
		Title:    "Warehouse burglary",
		Location: "Elysian Island",
		Tags:     []string{"Property"},
	}, officer)
	require.NoError(t, err)

	req, err := f.engine.Intake.RequestCase(ctx, report.ID, "", "needs detectives", officer)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, officer, req.CreatedBy)

	approval, err := f.engine.Intake.Approve(ctx, req.ID, sergeant)
	require.NoError(t, err)
	assert.Equal(t, "CASE-2024-000001", approval.Case.CaseNumber)
	assert.Equal(t, "Warehouse burglary", approval.Case.Title)
	assert.Equal(t, "Elysian Island", approval.Case.Location)
	assert.Equal(t, []string{"Property"}, approval.Case.Tags)
	assert.Equal(t, []string{report.ID}, approval.Case.LinkedReportIDs)
	assert.Equal(t, models.CaseOpen, approval.Case.Status)

	assert.Equal(t, models.RequestApproved, approval.Request.Status)
	assert.Equal(t, approval.Case.ID, approval.Request.CaseID)
	assert.Equal(t, approval.Case.CaseNumber, approval.Request.CaseNumber)
	require.NotNil(t, approval.Request.DecidedBy)
	assert.Equal(t, sergeant, *approval.Request.DecidedBy)

	second, err := f.engine.Intake.RequestCase(ctx, "external-42", "Fraud ring", "", officer)
	require.NoError(t, err)
	approval, err = f.engine.Intake.Approve(ctx, second.ID, sergeant)
	require.NoError(t, err)
	assert.Equal(t, "CASE-2024-000002", approval.Case.CaseNumber)
	assert.Equal(t, "Fraud ring", approval.Case.Title)
}

func TestCaseIntakeWorkflow_ApproveWithoutTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req, err := f.engine.Intake.RequestCase(ctx, "r-unknown", "", "", officer)
	require.NoError(t, err)

	approval, err := f.engine.Intake.Approve(ctx, req.ID, sergeant)
	require.NoError(t, err)
	assert.Equal(t, "Report r-unknown", approval.Case.Title)
}

func TestCaseIntakeWorkflow_DecideOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req, err := f.engine.Intake.RequestCase(ctx, "r1", "Title", "", officer)
	require.NoError(t, err)
	_, err = f.engine.Intake.Approve(ctx, req.ID, sergeant)
	require.NoError(t, err)

	decided := engine.Conflict(engine.CodeRequestDecided)
	_, err = f.engine.Intake.Approve(ctx, req.ID, sergeant)
	assert.ErrorIs(t, err, decided)
	_, err = f.engine.Intake.Reject(ctx, req.ID, "too late", sergeant)
	assert.ErrorIs(t, err, decided)

	cases, err := f.engine.Intake.ListCases(ctx)
	require.NoError(t, err)
	assert.Len(t, cases, 1)

	_, err = f.engine.Intake.Approve(ctx, "missing", sergeant)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestCaseIntakeWorkflow_Reject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	kept, err := f.engine.Intake.RequestCase(ctx, "r1", "Title", "original note", officer)
	require.NoError(t, err)
	replaced, err := f.engine.Intake.RequestCase(ctx, "r2", "Title", "original note", officer)
	require.NoError(t, err)

	kept, err = f.engine.Intake.Reject(ctx, kept.ID, "  ", sergeant)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, kept.Status)
	assert.Equal(t, "original note", kept.Note)
	assert.Empty(t, kept.CaseID)

	replaced, err = f.engine.Intake.Reject(ctx, replaced.ID, "duplicate of CASE-2024-000007", sergeant)
	require.NoError(t, err)
	assert.Equal(t, "duplicate of CASE-2024-000007", replaced.Note)

	cases, err := f.engine.Intake.ListCases(ctx)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestCaseIntakeWorkflow_ConcurrentApprove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req, err := f.engine.Intake.RequestCase(ctx, "r1", "Title", "", officer)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		approved int
		decided  int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Intake.Approve(ctx, req.ID, sergeant)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				approved++
			case engine.KindOf(err) == engine.KindConflict:
				decided++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, approved)
	assert.Equal(t, 9, decided)
	cases, err := f.engine.Intake.ListCases(ctx)
	require.NoError(t, err)
	assert.Len(t, cases, 1)
}

func TestCaseIntakeWorkflow_FailedApproveRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore(databases.NewMemoryStore())
	f := newFixtureWithStore(t, store)

	req, err := f.engine.Intake.RequestCase(ctx, "r1", "Title", "", officer)
	require.NoError(t, err)

	store.FailOn(databases.CaseRequestCollection)
	_, err = f.engine.Intake.Approve(ctx, req.ID, sergeant)
	require.ErrorIs(t, err, errInjected)

	store.FailOn("")
	got, err := f.engine.Intake.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, got.Status)
	cases, err := f.engine.Intake.ListCases(ctx)
	require.NoError(t, err)
	assert.Empty(t, cases)

	approval, err := f.engine.Intake.Approve(ctx, req.ID, sergeant)
	require.NoError(t, err)
	assert.Equal(t, "CASE-2024-000001", approval.Case.CaseNumber)
}

func TestCaseIntakeWorkflow_SequencePerYear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.Intake.CreateCase(ctx, engine.NewCase{Title: "Late 2024"}, sergeant)
	require.NoError(t, err)

	f.clock.Set(time.Date(2025, time.January, 1, 0, 0, 1, 0, time.UTC))
	req, err := f.engine.Intake.RequestCase(ctx, "r1", "New year", "", officer)
	require.NoError(t, err)
	approval, err := f.engine.Intake.Approve(ctx, req.ID, sergeant)
	require.NoError(t, err)
	assert.Equal(t, "CASE-2025-000001", approval.Case.CaseNumber)
}

func TestCaseIntakeWorkflow_CreateCaseSharesSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req, err := f.engine.Intake.RequestCase(ctx, "r1", "From intake", "", officer)
	require.NoError(t, err)
	_, err = f.engine.Intake.Approve(ctx, req.ID, sergeant)
	require.NoError(t, err)

	c, err := f.engine.Intake.CreateCase(ctx, engine.NewCase{
		Title:       " Direct ",
		Priority:    models.PriorityHigh,
		Tags:        []string{"Gang", "gang"},
		ReportIDs:   []string{"r1", "r1"},
		EvidenceIDs: []string{"e1"},
	}, sergeant)
	require.NoError(t, err)
	assert.Equal(t, "CASE-2024-000002", c.CaseNumber)
	assert.Equal(t, "Direct", c.Title)
	assert.Equal(t, models.PriorityHigh, c.Priority)
	assert.Equal(t, []string{"Gang"}, c.Tags)
	assert.Equal(t, []string{"r1"}, c.LinkedReportIDs)
	assert.Equal(t, []string{"e1"}, c.LinkedEvidenceIDs)

	_, err = f.engine.Intake.CreateCase(ctx, engine.NewCase{Title: " "}, sergeant)
	assert.ErrorIs(t, err, engine.ErrValidation)
	_, err = f.engine.Intake.CreateCase(ctx, engine.NewCase{Title: "x", Priority: "Urgent"}, sergeant)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestCaseIntakeWorkflow_CreateCaseLinksEvidence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	item := newEvidence(t, f, "r1")
	sealed := newEvidence(t, f, "r1")
	_, err := f.engine.Evidence.Seal(ctx, sealed.ID, sergeant)
	require.NoError(t, err)

	c, err := f.engine.Intake.CreateCase(ctx, engine.NewCase{
		Title:       "Casings",
		EvidenceIDs: []string{item.ID, sealed.ID, "e-unknown"},
	}, sergeant)
	require.NoError(t, err)
	assert.Equal(t, []string{item.ID, sealed.ID, "e-unknown"}, c.LinkedEvidenceIDs)

	for _, id := range []string{item.ID, sealed.ID} {
		got, err := f.engine.Evidence.GetEvidence(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.CaseID)
		last := got.Events[len(got.Events)-1]
		assert.Equal(t, models.ActionCaseLinked, last.Action)
		assert.Equal(t, c.CaseNumber, last.Note)
	}
	got, err := f.engine.Evidence.GetEvidence(ctx, sealed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EvidenceSealed, got.Status)
	assert.Equal(t, "r1", got.ReportID)
}

func TestCaseIntakeWorkflow_CreateCaseEvidenceRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore(databases.NewMemoryStore())
	f := newFixtureWithStore(t, store)

	item := newEvidence(t, f, "r1")
	store.FailOn(databases.EvidenceCollection)
	_, err := f.engine.Intake.CreateCase(ctx, engine.NewCase{Title: "Casings", EvidenceIDs: []string{item.ID}}, sergeant)
	require.ErrorIs(t, err, errInjected)

	cases, err := f.engine.Intake.ListCases(ctx)
	require.NoError(t, err)
	assert.Empty(t, cases)
	got, err := f.engine.Evidence.GetEvidence(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CaseID)

	store.FailOn("")
	c, err := f.engine.Intake.CreateCase(ctx, engine.NewCase{Title: "Casings"}, sergeant)
	require.NoError(t, err)
	assert.Equal(t, "CASE-2024-000001", c.CaseNumber)
}

func TestCaseIntakeWorkflow_CloseCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.engine.Intake.CreateCase(ctx, engine.NewCase{Title: "Cold case"}, sergeant)
	require.NoError(t, err)

	c, err = f.engine.Intake.CloseCase(ctx, c.ID, "suspect convicted", sergeant)
	require.NoError(t, err)
	assert.Equal(t, models.CaseClosed, c.Status)
	assert.Equal(t, "suspect convicted", c.Timeline[len(c.Timeline)-1].Note)

	_, err = f.engine.Intake.CloseCase(ctx, c.ID, "", sergeant)
	assert.ErrorIs(t, err, engine.Conflict(engine.CodeCaseClosed))
	_, err = f.engine.Intake.CloseCase(ctx, "missing", "", sergeant)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestCaseIntakeWorkflow_ListRequests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.engine.Intake.RequestCase(ctx, "r1", "", "", officer)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	second, err := f.engine.Intake.RequestCase(ctx, "r2", "", "", officer)
	require.NoError(t, err)
	_, err = f.engine.Intake.Reject(ctx, first.ID, "", sergeant)
	require.NoError(t, err)

	all, err := f.engine.Intake.ListRequests(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	pending, err := f.engine.Intake.ListRequests(ctx, models.RequestPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	_, err = f.engine.Intake.ListRequests(ctx, "Maybe")
	assert.ErrorIs(t, err, engine.ErrValidation)

	_, err = f.engine.Intake.RequestCase(ctx, " ", "", "", officer)
	assert.ErrorIs(t, err, engine.ErrValidation)
}
