package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/models"
)

// NewCase holds the fields of a case opened directly by a records clerk
type NewCase struct {
	Title       string          `json:"title"`
	Priority    models.Priority `json:"priority"`
	Location    string          `json:"location"`
	Tags        []string        `json:"tags"`
	ReportIDs   []string        `json:"reportIds"`
	EvidenceIDs []string        `json:"evidenceIds"`
	BoloIDs     []string        `json:"boloIds"`
}

// CaseIntakeWorkflow turns report based case requests into numbered cases.
// A request is decided exactly once; approving it writes the case and the
// decided request in one transaction.
type CaseIntakeWorkflow struct {
	core   *core
	prefix string
}

// RequestCase files a Pending case request for a report
func (w *CaseIntakeWorkflow) RequestCase(ctx context.Context, reportID, reportTitle, note string, actor models.Actor) (models.CaseRequest, error) {
	if err := validActor(actor); err != nil {
		return models.CaseRequest{}, err
	}
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return models.CaseRequest{}, validationf("reportId is required")
	}

	req := models.CaseRequest{
		ID:          w.core.newID(),
		Ts:          w.core.clock(),
		ReportID:    reportID,
		ReportTitle: strings.TrimSpace(reportTitle),
		Note:        strings.TrimSpace(note),
		CreatedBy:   actor,
		Status:      models.RequestPending,
	}
	err := w.core.mutate(ctx, []string{lockKey(databases.CaseRequestCollection, req.ID)}, func(ctx context.Context, tx *txn) error {
		var err error
		if req.Timeline, err = tx.record(ctx, databases.CaseRequestCollection, req.ID, nil, actor, models.ActionRequested, reportID); err != nil {
			return err
		}
		return tx.Save(ctx, databases.CaseRequestCollection, req.ID, req)
	})
	if err != nil {
		return models.CaseRequest{}, err
	}
	return req, nil
}

// Approve decides a Pending request by opening a case for its report. The
// case number is drawn from the sequence of the decision year; a failure
// leaves the request Pending and the sequence untouched.
func (w *CaseIntakeWorkflow) Approve(ctx context.Context, requestID string, actor models.Actor) (models.CaseApproval, error) {
	if err := validActor(actor); err != nil {
		return models.CaseApproval{}, err
	}

	now := w.core.clock()
	seqName := fmt.Sprintf("case-seq-%d", now.Year())
	keys := []string{
		lockKey(databases.CaseRequestCollection, requestID),
		lockKey(databases.CounterCollection, seqName),
	}

	var out models.CaseApproval
	err := w.core.mutate(ctx, keys, func(ctx context.Context, tx *txn) error {
		var req models.CaseRequest
		if err := load(ctx, tx, databases.CaseRequestCollection, "case request", requestID, &req); err != nil {
			return err
		}
		if req.Status != models.RequestPending {
			return conflictf(CodeRequestDecided, "case request %s is already %s", requestID, req.Status)
		}

		c := models.Case{
			ID:                w.core.newID(),
			Title:             req.ReportTitle,
			Status:            models.CaseOpen,
			Priority:          models.PriorityMedium,
			Tags:              []string{},
			LinkedReportIDs:   []string{req.ReportID},
			LinkedEvidenceIDs: []string{},
			LinkedBoloIDs:     []string{},
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		var report models.Report
		err := load(ctx, tx, databases.ReportCollection, "report", req.ReportID, &report)
		switch {
		case err == nil:
			if c.Title == "" {
				c.Title = report.Title
			}
			c.Location = report.Location
			c.Tags = append(c.Tags, report.Tags...)
		case KindOf(err) != KindNotFound:
			return err
		}
		if c.Title == "" {
			c.Title = "Report " + req.ReportID
		}

		seq, err := tx.NextSequence(ctx, seqName)
		if err != nil {
			return err
		}
		c.CaseNumber = fmt.Sprintf("%s-%d-%06d", w.prefix, now.Year(), seq)
		if c.Timeline, err = tx.record(ctx, databases.CaseCollection, c.ID, nil, actor, models.ActionCreated, "request "+req.ID); err != nil {
			return err
		}
		if err := tx.Save(ctx, databases.CaseCollection, c.ID, c); err != nil {
			return err
		}

		decider := actor
		req.Status = models.RequestApproved
		req.DecidedBy = &decider
		req.DecidedAt = &now
		req.CaseID = c.ID
		req.CaseNumber = c.CaseNumber
		if req.Timeline, err = tx.record(ctx, databases.CaseRequestCollection, req.ID, req.Timeline, actor, models.ActionApproved, c.CaseNumber); err != nil {
			return err
		}
		if err := tx.Save(ctx, databases.CaseRequestCollection, req.ID, req); err != nil {
			return err
		}
		out = models.CaseApproval{Case: c, Request: req}
		return nil
	})
	if err != nil {
		return models.CaseApproval{}, err
	}
	return out, nil
}

// Reject decides a Pending request without opening a case. A non-empty
// reason replaces the request note.
func (w *CaseIntakeWorkflow) Reject(ctx context.Context, requestID, reason string, actor models.Actor) (models.CaseRequest, error) {
	if err := validActor(actor); err != nil {
		return models.CaseRequest{}, err
	}
	reason = strings.TrimSpace(reason)

	var req models.CaseRequest
	err := w.core.mutate(ctx, []string{lockKey(databases.CaseRequestCollection, requestID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.CaseRequestCollection, "case request", requestID, &req); err != nil {
			return err
		}
		if req.Status != models.RequestPending {
			return conflictf(CodeRequestDecided, "case request %s is already %s", requestID, req.Status)
		}
		now := w.core.clock()
		decider := actor
		req.Status = models.RequestRejected
		req.DecidedBy = &decider
		req.DecidedAt = &now
		if reason != "" {
			req.Note = reason
		}
		var err error
		if req.Timeline, err = tx.record(ctx, databases.CaseRequestCollection, req.ID, req.Timeline, actor, models.ActionRejected, reason); err != nil {
			return err
		}
		return tx.Save(ctx, databases.CaseRequestCollection, req.ID, req)
	})
	if err != nil {
		return models.CaseRequest{}, err
	}
	return req, nil
}

// ListRequests returns case requests newest first, optionally by status
func (w *CaseIntakeWorkflow) ListRequests(ctx context.Context, status models.CaseRequestStatus) ([]models.CaseRequest, error) {
	if status != "" && !status.IsValid() {
		return nil, validationf("invalid case request status %q", status)
	}
	all := []models.CaseRequest{}
	if err := w.core.store.FindAll(ctx, databases.CaseRequestCollection, &all); err != nil {
		return nil, err
	}
	reqs := []models.CaseRequest{}
	for _, req := range all {
		if status == "" || req.Status == status {
			reqs = append(reqs, req)
		}
	}
	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].Ts.After(reqs[j].Ts) })
	return reqs, nil
}

// GetRequest returns one case request
func (w *CaseIntakeWorkflow) GetRequest(ctx context.Context, requestID string) (models.CaseRequest, error) {
	var req models.CaseRequest
	err := load(ctx, w.core.store, databases.CaseRequestCollection, "case request", requestID, &req)
	return req, err
}

// CreateCase opens a numbered case without an intake request
func (w *CaseIntakeWorkflow) CreateCase(ctx context.Context, in NewCase, actor models.Actor) (models.Case, error) {
	if err := validActor(actor); err != nil {
		return models.Case{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Case{}, validationf("case title is required")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.IsValid() {
		return models.Case{}, validationf("invalid case priority %q", in.Priority)
	}

	now := w.core.clock()
	seqName := fmt.Sprintf("case-seq-%d", now.Year())
	c := models.Case{
		ID:                w.core.newID(),
		Title:             title,
		Status:            models.CaseOpen,
		Priority:          in.Priority,
		Location:          strings.TrimSpace(in.Location),
		Tags:              normalizeTags(in.Tags),
		LinkedReportIDs:   stringsUnique(in.ReportIDs),
		LinkedEvidenceIDs: stringsUnique(in.EvidenceIDs),
		LinkedBoloIDs:     stringsUnique(in.BoloIDs),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	keys := []string{lockKey(databases.CounterCollection, seqName)}
	for _, id := range c.LinkedEvidenceIDs {
		keys = append(keys, lockKey(databases.EvidenceCollection, id))
	}
	err := w.core.mutate(ctx, keys, func(ctx context.Context, tx *txn) error {
		seq, err := tx.NextSequence(ctx, seqName)
		if err != nil {
			return err
		}
		c.CaseNumber = fmt.Sprintf("%s-%d-%06d", w.prefix, now.Year(), seq)
		if c.Timeline, err = tx.record(ctx, databases.CaseCollection, c.ID, nil, actor, models.ActionCreated, c.CaseNumber); err != nil {
			return err
		}
		if err := tx.Save(ctx, databases.CaseCollection, c.ID, c); err != nil {
			return err
		}
		return w.linkEvidence(ctx, tx, c, actor)
	})
	if err != nil {
		return models.Case{}, err
	}
	return c, nil
}

// linkEvidence points every existing evidence item of c back at the case.
// Ids with no evidence item stay on the case as plain references.
func (w *CaseIntakeWorkflow) linkEvidence(ctx context.Context, tx *txn, c models.Case, actor models.Actor) error {
	for _, id := range c.LinkedEvidenceIDs {
		var item models.Evidence
		err := load(ctx, tx, databases.EvidenceCollection, "evidence", id, &item)
		if KindOf(err) == KindNotFound {
			continue
		}
		if err != nil {
			return err
		}
		if item.CaseID == c.ID {
			continue
		}
		item.CaseID = c.ID
		item.UpdatedAt = c.CreatedAt
		if item.Events, err = tx.record(ctx, databases.EvidenceCollection, item.ID, item.Events, actor, models.ActionCaseLinked, c.CaseNumber); err != nil {
			return err
		}
		if err := tx.Save(ctx, databases.EvidenceCollection, item.ID, item); err != nil {
			return err
		}
	}
	return nil
}

// CloseCase closes an Open case
func (w *CaseIntakeWorkflow) CloseCase(ctx context.Context, caseID, note string, actor models.Actor) (models.Case, error) {
	if err := validActor(actor); err != nil {
		return models.Case{}, err
	}

	var c models.Case
	err := w.core.mutate(ctx, []string{lockKey(databases.CaseCollection, caseID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.CaseCollection, "case", caseID, &c); err != nil {
			return err
		}
		if c.Status == models.CaseClosed {
			return conflictf(CodeCaseClosed, "case %s is already closed", c.CaseNumber)
		}
		c.Status = models.CaseClosed
		c.UpdatedAt = w.core.clock()
		var err error
		if c.Timeline, err = tx.record(ctx, databases.CaseCollection, c.ID, c.Timeline, actor, models.ActionClosed, strings.TrimSpace(note)); err != nil {
			return err
		}
		return tx.Save(ctx, databases.CaseCollection, c.ID, c)
	})
	if err != nil {
		return models.Case{}, err
	}
	return c, nil
}

// GetCase returns one case
func (w *CaseIntakeWorkflow) GetCase(ctx context.Context, caseID string) (models.Case, error) {
	var c models.Case
	err := load(ctx, w.core.store, databases.CaseCollection, "case", caseID, &c)
	return c, err
}

// ListCases returns every case, newest first
func (w *CaseIntakeWorkflow) ListCases(ctx context.Context) ([]models.Case, error) {
	cases := []models.Case{}
	if err := w.core.store.FindAll(ctx, databases.CaseCollection, &cases); err != nil {
		return nil, err
	}
	sort.SliceStable(cases, func(i, j int) bool { return cases[i].CreatedAt.After(cases[j].CreatedAt) })
	return cases, nil
}
