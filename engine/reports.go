package engine

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/models"
)

const tagCatalogID = "tagCatalog"

// DefaultTagCatalog seeds the catalog until an administrator sets one
var DefaultTagCatalog = []string{"DUI", "Gang", "Juvenile", "Narcotics", "Property", "Traffic", "Violent", "Weapons"}

// NewReport holds the fields of a report at creation
type NewReport struct {
	Type     models.ReportType      `json:"type"`
	Title    string                 `json:"title"`
	Location string                 `json:"location"`
	Tags     []string               `json:"tags"`
	Involved []models.InvolvedParty `json:"involved"`
	Vehicles []string               `json:"vehicles"`
	FullText string                 `json:"fullText"`
}

// ReportUpdate holds the fields to replace on a draft report. Nil fields are
// left unchanged.
type ReportUpdate struct {
	Title    *string                `json:"title,omitempty"`
	Location *string                `json:"location,omitempty"`
	FullText *string                `json:"fullText,omitempty"`
	Tags     []string               `json:"tags,omitempty"`
	Involved []models.InvolvedParty `json:"involved,omitempty"`
	Vehicles []string               `json:"vehicles,omitempty"`
}

// ReportQuery filters listReports. Query matches id, title, location, tags,
// involved cids and vehicle plates case-insensitively.
type ReportQuery struct {
	Query string
	Tag   string
	Type  models.ReportType
	Limit int
}

// ReportRegistry owns investigative reports and the shared tag catalog.
// Reports are editable while Draft; submitting locks them permanently.
type ReportRegistry struct {
	core *core
}

// CreateReport creates a Draft report. Tags outside the catalog are dropped.
func (r *ReportRegistry) CreateReport(ctx context.Context, in NewReport, actor models.Actor) (models.Report, error) {
	if err := validActor(actor); err != nil {
		return models.Report{}, err
	}
	var report models.Report
	err := r.core.mutate(ctx, nil, func(ctx context.Context, tx *txn) error {
		var err error
		report, err = r.create(ctx, tx, in, actor, "")
		return err
	})
	if err != nil {
		return models.Report{}, err
	}
	return report, nil
}

// create writes a new draft report inside an existing transaction.
func (r *ReportRegistry) create(ctx context.Context, tx *txn, in NewReport, actor models.Actor, note string) (models.Report, error) {
	if !in.Type.IsValid() {
		return models.Report{}, validationf("invalid report type %q", in.Type)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Report{}, validationf("report title is required")
	}
	involved, err := normalizeInvolved(in.Involved)
	if err != nil {
		return models.Report{}, err
	}
	vehicles, err := normalizePlates(in.Vehicles)
	if err != nil {
		return models.Report{}, err
	}
	catalog, err := r.catalog(ctx, tx)
	if err != nil {
		return models.Report{}, err
	}

	now := r.core.clock()
	report := models.Report{
		ID:             r.core.newID(),
		Type:           in.Type,
		Title:          title,
		Location:       strings.TrimSpace(in.Location),
		Tags:           filterTags(in.Tags, catalog.Tags),
		Involved:       involved,
		Vehicles:       vehicles,
		FullText:       in.FullText,
		Status:         models.ReportDraft,
		AuthorCID:      actor.CID,
		AuthorName:     actor.Name,
		LastEditorCID:  actor.CID,
		LastEditorName: actor.Name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if report.Timeline, err = tx.record(ctx, databases.ReportCollection, report.ID, nil, actor, models.ActionCreated, note); err != nil {
		return models.Report{}, err
	}
	if err := tx.Save(ctx, databases.ReportCollection, report.ID, report); err != nil {
		return models.Report{}, err
	}
	return report, nil
}

// UpdateReport replaces the provided fields of a Draft report
func (r *ReportRegistry) UpdateReport(ctx context.Context, reportID string, in ReportUpdate, actor models.Actor) (models.Report, error) {
	if err := validActor(actor); err != nil {
		return models.Report{}, err
	}
	var involved []models.InvolvedParty
	var vehicles []string
	var err error
	if in.Involved != nil {
		if involved, err = normalizeInvolved(in.Involved); err != nil {
			return models.Report{}, err
		}
	}
	if in.Vehicles != nil {
		if vehicles, err = normalizePlates(in.Vehicles); err != nil {
			return models.Report{}, err
		}
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return models.Report{}, validationf("report title cannot be empty")
	}

	var report models.Report
	err = r.core.mutate(ctx, []string{lockKey(databases.ReportCollection, reportID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.ReportCollection, "report", reportID, &report); err != nil {
			return err
		}
		if report.Status == models.ReportSubmitted {
			return conflictf(CodeReportLocked, "report %s is submitted and read-only", reportID)
		}

		var changed []string
		if in.Title != nil {
			report.Title = strings.TrimSpace(*in.Title)
			changed = append(changed, "title")
		}
		if in.Location != nil {
			report.Location = strings.TrimSpace(*in.Location)
			changed = append(changed, "location")
		}
		if in.FullText != nil {
			report.FullText = *in.FullText
			changed = append(changed, "fullText")
		}
		if in.Tags != nil {
			catalog, err := r.catalog(ctx, tx)
			if err != nil {
				return err
			}
			report.Tags = filterTags(in.Tags, catalog.Tags)
			changed = append(changed, "tags")
		}
		if in.Involved != nil {
			report.Involved = involved
			changed = append(changed, "involved")
		}
		if in.Vehicles != nil {
			report.Vehicles = vehicles
			changed = append(changed, "vehicles")
		}

		report.UpdatedAt = r.core.clock()
		report.LastEditorCID, report.LastEditorName = actor.CID, actor.Name
		note := fmt.Sprintf("fields:%s tags:%d involved:%d vehicles:%d",
			strings.Join(changed, ","), len(report.Tags), len(report.Involved), len(report.Vehicles))
		var err error
		if report.Timeline, err = tx.record(ctx, databases.ReportCollection, report.ID, report.Timeline, actor, models.ActionSaved, note); err != nil {
			return err
		}
		return tx.Save(ctx, databases.ReportCollection, report.ID, report)
	})
	if err != nil {
		return models.Report{}, err
	}
	return report, nil
}

// SubmitReport locks a Draft report permanently
func (r *ReportRegistry) SubmitReport(ctx context.Context, reportID string, actor models.Actor) (models.Report, error) {
	if err := validActor(actor); err != nil {
		return models.Report{}, err
	}

	var report models.Report
	err := r.core.mutate(ctx, []string{lockKey(databases.ReportCollection, reportID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.ReportCollection, "report", reportID, &report); err != nil {
			return err
		}
		if report.Status == models.ReportSubmitted {
			return conflictf(CodeReportLocked, "report %s is already submitted", reportID)
		}
		now := r.core.clock()
		report.Status = models.ReportSubmitted
		report.SubmittedAt = &now
		report.UpdatedAt = now
		report.LastEditorCID, report.LastEditorName = actor.CID, actor.Name
		var err error
		if report.Timeline, err = tx.record(ctx, databases.ReportCollection, report.ID, report.Timeline, actor, models.ActionSubmitted, ""); err != nil {
			return err
		}
		return tx.Save(ctx, databases.ReportCollection, report.ID, report)
	})
	if err != nil {
		return models.Report{}, err
	}
	return report, nil
}

// GetReport returns one report
func (r *ReportRegistry) GetReport(ctx context.Context, reportID string) (models.Report, error) {
	var report models.Report
	err := load(ctx, r.core.store, databases.ReportCollection, "report", reportID, &report)
	return report, err
}

// ListReports returns matching reports, newest first
func (r *ReportRegistry) ListReports(ctx context.Context, q ReportQuery) ([]models.Report, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	query := strings.ToLower(strings.TrimSpace(q.Query))
	tag := strings.ToLower(strings.TrimSpace(q.Tag))

	reports := []models.Report{}
	for _, rep := range all {
		if q.Type != "" && rep.Type != q.Type {
			continue
		}
		if tag != "" && !containsFold(rep.Tags, tag) {
			continue
		}
		if query != "" && !reportMatches(rep, query) {
			continue
		}
		reports = append(reports, rep)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

// all returns every report, newest first.
func (r *ReportRegistry) all(ctx context.Context) ([]models.Report, error) {
	reports := []models.Report{}
	if err := r.core.store.FindAll(ctx, databases.ReportCollection, &reports); err != nil {
		return nil, err
	}
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].CreatedAt.After(reports[j].CreatedAt) })
	return reports, nil
}

// GetTagCatalog returns the allowed report tags
func (r *ReportRegistry) GetTagCatalog(ctx context.Context) (models.TagCatalog, error) {
	return r.catalog(ctx, r.core.store)
}

// SetTagCatalog replaces the allowed report tags. Existing reports keep
// their tags.
func (r *ReportRegistry) SetTagCatalog(ctx context.Context, tags []string, actor models.Actor) (models.TagCatalog, error) {
	if err := validActor(actor); err != nil {
		return models.TagCatalog{}, err
	}
	var catalog models.TagCatalog
	err := r.core.mutate(ctx, []string{lockKey(databases.SettingsCollection, tagCatalogID)}, func(ctx context.Context, tx *txn) error {
		var err error
		if catalog, err = r.catalog(ctx, tx); err != nil {
			return err
		}
		catalog.Tags = normalizeTags(tags)
		catalog.UpdatedAt = r.core.clock()
		if catalog.Timeline, err = tx.record(ctx, databases.SettingsCollection, tagCatalogID, catalog.Timeline, actor, models.ActionSaved, strings.Join(catalog.Tags, ",")); err != nil {
			return err
		}
		return tx.Save(ctx, databases.SettingsCollection, tagCatalogID, catalog)
	})
	if err != nil {
		return models.TagCatalog{}, err
	}
	return catalog, nil
}

func (r *ReportRegistry) catalog(ctx context.Context, s databases.Store) (models.TagCatalog, error) {
	var catalog models.TagCatalog
	err := load(ctx, s, databases.SettingsCollection, "tag catalog", tagCatalogID, &catalog)
	if KindOf(err) == KindNotFound {
		return models.TagCatalog{ID: tagCatalogID, Tags: append([]string{}, DefaultTagCatalog...)}, nil
	}
	return catalog, err
}

func normalizeTags(tags []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// filterTags keeps the tags present in the catalog, using the catalog
// spelling, de-duplicated in input order.
func filterTags(tags, catalog []string) []string {
	allowed := make(map[string]string, len(catalog))
	for _, c := range catalog {
		allowed[strings.ToLower(c)] = c
	}
	seen := map[string]bool{}
	out := []string{}
	for _, t := range tags {
		c, ok := allowed[strings.ToLower(strings.TrimSpace(t))]
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func normalizeInvolved(parties []models.InvolvedParty) ([]models.InvolvedParty, error) {
	seen := map[int]bool{}
	out := []models.InvolvedParty{}
	for _, p := range parties {
		if p.CID <= 0 {
			return nil, validationf("involved party cid must be positive, got %d", p.CID)
		}
		if seen[p.CID] {
			continue
		}
		seen[p.CID] = true
		p.Name = strings.TrimSpace(p.Name)
		p.Role = strings.TrimSpace(p.Role)
		out = append(out, p)
	}
	return out, nil
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

func normalizePlates(plates []string) ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	for _, p := range plates {
		p = normalizePlate(p)
		if p == "" {
			return nil, validationf("vehicle plate cannot be empty")
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

func reportMatches(rep models.Report, query string) bool {
	if strings.Contains(strings.ToLower(rep.ID), query) ||
		strings.Contains(strings.ToLower(rep.Title), query) ||
		strings.Contains(strings.ToLower(rep.Location), query) {
		return true
	}
	for _, t := range rep.Tags {
		if strings.Contains(strings.ToLower(t), query) {
			return true
		}
	}
	for _, p := range rep.Involved {
		if strconv.Itoa(p.CID) == query {
			return true
		}
	}
	for _, v := range rep.Vehicles {
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
