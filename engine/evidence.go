package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/models"
)

// NewEvidence holds the fields of an evidence item at intake
type NewEvidence struct {
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Holder   string   `json:"holder"`
	ReportID string   `json:"reportId"`
	Tags     []string `json:"tags"`
}

// EvidenceLedger owns evidence items and their chain of custody. Sealing is
// one-way and freezes holder, report link and tags. Notes are accepted in
// either state.
type EvidenceLedger struct {
	core *core
}

// CreateEvidence logs a new Open evidence item
func (e *EvidenceLedger) CreateEvidence(ctx context.Context, in NewEvidence, actor models.Actor) (models.Evidence, error) {
	if err := validActor(actor); err != nil {
		return models.Evidence{}, err
	}
	label := strings.TrimSpace(in.Label)
	holder := strings.TrimSpace(in.Holder)
	if label == "" || holder == "" {
		return models.Evidence{}, validationf("evidence label and holder are required")
	}

	now := e.core.clock()
	item := models.Evidence{
		ID:        e.core.newID(),
		Label:     label,
		Type:      strings.TrimSpace(in.Type),
		Status:    models.EvidenceOpen,
		Holder:    holder,
		ReportID:  strings.TrimSpace(in.ReportID),
		Tags:      stringsUnique(in.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := e.core.mutate(ctx, []string{lockKey(databases.EvidenceCollection, item.ID)}, func(ctx context.Context, tx *txn) error {
		var err error
		if item.Events, err = tx.record(ctx, databases.EvidenceCollection, item.ID, nil, actor, models.ActionCreated, "holder "+holder); err != nil {
			return err
		}
		return tx.Save(ctx, databases.EvidenceCollection, item.ID, item)
	})
	if err != nil {
		return models.Evidence{}, err
	}
	return item, nil
}

// AddNote appends a note to the custody chain, sealed or not
func (e *EvidenceLedger) AddNote(ctx context.Context, evidenceID, note string, actor models.Actor) (models.Evidence, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return models.Evidence{}, validationf("note is required")
	}
	return e.update(ctx, evidenceID, actor, func(item *models.Evidence) (string, string, error) {
		return models.ActionNote, note, nil
	})
}

// TransferHolder hands an Open item to a new holder
func (e *EvidenceLedger) TransferHolder(ctx context.Context, evidenceID, holder, note string, actor models.Actor) (models.Evidence, error) {
	holder = strings.TrimSpace(holder)
	if holder == "" {
		return models.Evidence{}, validationf("new holder is required")
	}
	return e.update(ctx, evidenceID, actor, func(item *models.Evidence) (string, string, error) {
		if item.Status == models.EvidenceSealed {
			return "", "", conflictf(CodeSealed, "evidence %s is sealed", item.ID)
		}
		entry := fmt.Sprintf("%s -> %s", item.Holder, holder)
		if note = strings.TrimSpace(note); note != "" {
			entry += ": " + note
		}
		item.Holder = holder
		return models.ActionTransferred, entry, nil
	})
}

// Seal freezes an Open item. Sealing twice is a conflict.
func (e *EvidenceLedger) Seal(ctx context.Context, evidenceID string, actor models.Actor) (models.Evidence, error) {
	return e.update(ctx, evidenceID, actor, func(item *models.Evidence) (string, string, error) {
		if item.Status == models.EvidenceSealed {
			return "", "", conflictf(CodeSealed, "evidence %s is already sealed", item.ID)
		}
		item.Status = models.EvidenceSealed
		return models.ActionSealed, "", nil
	})
}

// LinkToReport points an Open item at a report, replacing any prior link.
// Linking to the report already linked returns the item unchanged.
func (e *EvidenceLedger) LinkToReport(ctx context.Context, evidenceID, reportID string, actor models.Actor) (models.Evidence, error) {
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return models.Evidence{}, validationf("reportId is required")
	}
	return e.update(ctx, evidenceID, actor, func(item *models.Evidence) (string, string, error) {
		if item.Status == models.EvidenceSealed {
			return "", "", conflictf(CodeSealed, "evidence %s is sealed", item.ID)
		}
		if item.ReportID == reportID {
			return "", "", nil
		}
		item.ReportID = reportID
		return models.ActionLinked, reportID, nil
	})
}

// UnlinkFromReport clears the report link of an Open item. An unlinked item
// is returned unchanged.
func (e *EvidenceLedger) UnlinkFromReport(ctx context.Context, evidenceID string, actor models.Actor) (models.Evidence, error) {
	return e.update(ctx, evidenceID, actor, func(item *models.Evidence) (string, string, error) {
		if item.Status == models.EvidenceSealed {
			return "", "", conflictf(CodeSealed, "evidence %s is sealed", item.ID)
		}
		if item.ReportID == "" {
			return "", "", nil
		}
		prior := item.ReportID
		item.ReportID = ""
		return models.ActionUnlinked, prior, nil
	})
}

// GetEvidence returns one evidence item
func (e *EvidenceLedger) GetEvidence(ctx context.Context, evidenceID string) (models.Evidence, error) {
	var item models.Evidence
	err := load(ctx, e.core.store, databases.EvidenceCollection, "evidence", evidenceID, &item)
	return item, err
}

// ListEvidence returns evidence items newest first, limited to those linked
// to reportID when it is not empty.
func (e *EvidenceLedger) ListEvidence(ctx context.Context, reportID string) ([]models.Evidence, error) {
	items := []models.Evidence{}
	if err := e.core.store.FindAll(ctx, databases.EvidenceCollection, &items); err != nil {
		return nil, err
	}
	reportID = strings.TrimSpace(reportID)
	out := []models.Evidence{}
	for _, item := range items {
		if reportID == "" || item.ReportID == reportID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// update loads the item under its lock and applies change. An empty action
// means nothing changed and nothing is written.
func (e *EvidenceLedger) update(ctx context.Context, evidenceID string, actor models.Actor, change func(item *models.Evidence) (action, note string, err error)) (models.Evidence, error) {
	if err := validActor(actor); err != nil {
		return models.Evidence{}, err
	}

	var item models.Evidence
	err := e.core.mutate(ctx, []string{lockKey(databases.EvidenceCollection, evidenceID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.EvidenceCollection, "evidence", evidenceID, &item); err != nil {
			return err
		}
		action, note, err := change(&item)
		if err != nil || action == "" {
			return err
		}
		item.UpdatedAt = e.core.clock()
		if item.Events, err = tx.record(ctx, databases.EvidenceCollection, item.ID, item.Events, actor, action, note); err != nil {
			return err
		}
		return tx.Save(ctx, databases.EvidenceCollection, item.ID, item)
	})
	if err != nil {
		return models.Evidence{}, err
	}
	return item, nil
}
