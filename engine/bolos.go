package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/models"
)

// NewBolo holds the fields of a bolo at creation
type NewBolo struct {
	Type             models.BoloType `json:"type"`
	Priority         models.Priority `json:"priority"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Tags             []string        `json:"tags"`
	People           []int           `json:"people"`
	Vehicles         []string        `json:"vehicles"`
	ReportIDs        []string        `json:"reportIds"`
	ExpiresInMinutes int             `json:"expiresInMinutes"`
}

// BoloFilter narrows GetBolos. Empty fields match everything.
type BoloFilter struct {
	Status   models.BoloStatus
	Type     models.BoloType
	Priority models.Priority
	Query    string
	// ActiveOnly keeps Active bolos whose advisory expiry has not passed.
	ActiveOnly bool
}

// BoloRegistry owns bolo alerts. Active and Suspended are freely
// interchangeable; Closed is terminal. Expiry is advisory and never changes
// the stored status.
type BoloRegistry struct {
	core *core
}

// CreateBolo creates an Active bolo
func (b *BoloRegistry) CreateBolo(ctx context.Context, in NewBolo, actor models.Actor) (models.BoloView, error) {
	if err := validActor(actor); err != nil {
		return models.BoloView{}, err
	}
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return models.BoloView{}, validationf("bolo title and description are required")
	}
	if in.Type == "" {
		in.Type = models.BoloGeneral
	}
	if !in.Type.IsValid() {
		return models.BoloView{}, validationf("invalid bolo type %q", in.Type)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.IsValid() {
		return models.BoloView{}, validationf("invalid bolo priority %q", in.Priority)
	}
	if in.ExpiresInMinutes < 0 {
		return models.BoloView{}, validationf("expiresInMinutes cannot be negative")
	}

	now := b.core.clock()
	bolo := models.Bolo{
		ID:          b.core.newID(),
		Type:        in.Type,
		Priority:    in.Priority,
		Title:       title,
		Description: description,
		Tags:        normalizeTags(in.Tags),
		People:      positiveUnique(in.People),
		Vehicles:    platesLenient(in.Vehicles),
		ReportIDs:   stringsUnique(in.ReportIDs),
		Status:      models.BoloActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.ExpiresInMinutes > 0 {
		expires := now.Add(time.Duration(in.ExpiresInMinutes) * time.Minute)
		bolo.ExpiresAt = &expires
	}

	err := b.core.mutate(ctx, []string{lockKey(databases.BoloCollection, bolo.ID)}, func(ctx context.Context, tx *txn) error {
		var err error
		if bolo.Timeline, err = tx.record(ctx, databases.BoloCollection, bolo.ID, nil, actor, models.ActionCreated, string(bolo.Priority)); err != nil {
			return err
		}
		return tx.Save(ctx, databases.BoloCollection, bolo.ID, bolo)
	})
	if err != nil {
		return models.BoloView{}, err
	}
	return b.view(bolo), nil
}

// UpdateStatus changes the status of a bolo that is not Closed. Setting the
// current status again is a no-op.
func (b *BoloRegistry) UpdateStatus(ctx context.Context, boloID string, status models.BoloStatus, actor models.Actor) (models.BoloView, error) {
	if err := validActor(actor); err != nil {
		return models.BoloView{}, err
	}
	if !status.IsValid() {
		return models.BoloView{}, validationf("invalid bolo status %q", status)
	}

	var bolo models.Bolo
	err := b.core.mutate(ctx, []string{lockKey(databases.BoloCollection, boloID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.BoloCollection, "bolo", boloID, &bolo); err != nil {
			return err
		}
		if bolo.Status == models.BoloClosed {
			return conflictf(CodeBoloClosed, "bolo %s is closed", boloID)
		}
		if bolo.Status == status {
			return nil
		}
		bolo.Status = status
		bolo.UpdatedAt = b.core.clock()
		var err error
		if bolo.Timeline, err = tx.record(ctx, databases.BoloCollection, bolo.ID, bolo.Timeline, actor, models.ActionStatusChanged, string(status)); err != nil {
			return err
		}
		return tx.Save(ctx, databases.BoloCollection, bolo.ID, bolo)
	})
	if err != nil {
		return models.BoloView{}, err
	}
	return b.view(bolo), nil
}

// RecordSighting appends a sighting regardless of status. Sightings of a
// Closed or expired bolo are marked inactive in the note.
func (b *BoloRegistry) RecordSighting(ctx context.Context, boloID, note string, actor models.Actor) (models.BoloView, error) {
	if err := validActor(actor); err != nil {
		return models.BoloView{}, err
	}

	var bolo models.Bolo
	err := b.core.mutate(ctx, []string{lockKey(databases.BoloCollection, boloID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.BoloCollection, "bolo", boloID, &bolo); err != nil {
			return err
		}
		now := b.core.clock()
		text := strings.TrimSpace(note)
		if bolo.Status == models.BoloClosed || bolo.Expired(now) {
			text = strings.TrimSpace("[inactive] " + text)
		}
		bolo.UpdatedAt = now
		var err error
		if bolo.Timeline, err = tx.record(ctx, databases.BoloCollection, bolo.ID, bolo.Timeline, actor, models.ActionSighting, text); err != nil {
			return err
		}
		return tx.Save(ctx, databases.BoloCollection, bolo.ID, bolo)
	})
	if err != nil {
		return models.BoloView{}, err
	}
	return b.view(bolo), nil
}

// GetBolo returns one bolo with its expiry state
func (b *BoloRegistry) GetBolo(ctx context.Context, boloID string) (models.BoloView, error) {
	var bolo models.Bolo
	if err := load(ctx, b.core.store, databases.BoloCollection, "bolo", boloID, &bolo); err != nil {
		return models.BoloView{}, err
	}
	return b.view(bolo), nil
}

// GetBolos returns bolos matching the filter, newest first
func (b *BoloRegistry) GetBolos(ctx context.Context, f BoloFilter) ([]models.BoloView, error) {
	all, err := b.all(ctx)
	if err != nil {
		return nil, err
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	now := b.core.clock()

	views := []models.BoloView{}
	for _, bolo := range all {
		switch {
		case f.Status != "" && bolo.Status != f.Status,
			f.Type != "" && bolo.Type != f.Type,
			f.Priority != "" && bolo.Priority != f.Priority,
			f.ActiveOnly && (bolo.Status != models.BoloActive || bolo.Expired(now)),
			query != "" && !boloMatches(bolo, query):
			continue
		}
		views = append(views, b.view(bolo))
	}
	return views, nil
}

// ExpiredActive returns Active bolos whose advisory expiry has passed
func (b *BoloRegistry) ExpiredActive(ctx context.Context) ([]models.Bolo, error) {
	all, err := b.all(ctx)
	if err != nil {
		return nil, err
	}
	now := b.core.clock()
	expired := []models.Bolo{}
	for _, bolo := range all {
		if bolo.Status == models.BoloActive && bolo.Expired(now) {
			expired = append(expired, bolo)
		}
	}
	return expired, nil
}

func (b *BoloRegistry) all(ctx context.Context) ([]models.Bolo, error) {
	bolos := []models.Bolo{}
	if err := b.core.store.FindAll(ctx, databases.BoloCollection, &bolos); err != nil {
		return nil, err
	}
	sort.SliceStable(bolos, func(i, j int) bool { return bolos[i].CreatedAt.After(bolos[j].CreatedAt) })
	return bolos, nil
}

func (b *BoloRegistry) view(bolo models.Bolo) models.BoloView {
	return models.BoloView{Bolo: bolo, Expired: bolo.Expired(b.core.clock())}
}

func boloMatches(bolo models.Bolo, query string) bool {
	if strings.Contains(strings.ToLower(bolo.ID), query) ||
		strings.Contains(strings.ToLower(bolo.Title), query) ||
		strings.Contains(strings.ToLower(bolo.Description), query) {
		return true
	}
	for _, v := range bolo.Vehicles {
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	for _, t := range bolo.Tags {
		if strings.Contains(strings.ToLower(t), query) {
			return true
		}
	}
	return false
}

func positiveUnique(values []int) []int {
	seen := map[int]bool{}
	out := []int{}
	for _, v := range values {
		if v > 0 && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// platesLenient normalizes plates, dropping empty ones.
func platesLenient(plates []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, p := range plates {
		p = normalizePlate(p)
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func stringsUnique(values []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
