package models

import "time"

// EvidenceStatus is the seal state of an evidence item
type EvidenceStatus string

// Predefined EvidenceStatus values
const (
	EvidenceOpen   EvidenceStatus = "Open"
	EvidenceSealed EvidenceStatus = "Sealed"
)

// Evidence holds the structure for the evidence collection. Events is the
// chain of custody.
type Evidence struct {
	ID        string         `json:"id" bson:"_id"`
	Label     string         `json:"label" bson:"label"`
	Type      string         `json:"type,omitempty" bson:"type,omitempty"`
	Status    EvidenceStatus `json:"status" bson:"status"`
	Holder    string         `json:"holder" bson:"holder"`
	ReportID  string         `json:"reportId,omitempty" bson:"reportId,omitempty"`
	CaseID    string         `json:"caseId,omitempty" bson:"caseId,omitempty"`
	Tags      []string       `json:"tags" bson:"tags"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt" bson:"updatedAt"`
	Events    []Event        `json:"events" bson:"events"`
}
