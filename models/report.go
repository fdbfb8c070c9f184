package models

import "time"

// ReportType represents the standardized types of investigative reports
type ReportType string

// Predefined ReportType values
const (
	ReportTypeIncident      ReportType = "Incident"
	ReportTypeArrest        ReportType = "Arrest"
	ReportTypeTraffic       ReportType = "Traffic"
	ReportTypeInvestigation ReportType = "Investigation"
	ReportTypeOther         ReportType = "Other"
)

// ValidReportTypes returns all valid ReportType values
func ValidReportTypes() []ReportType {
	return []ReportType{
		ReportTypeIncident,
		ReportTypeArrest,
		ReportTypeTraffic,
		ReportTypeInvestigation,
		ReportTypeOther,
	}
}

// IsValid checks if the ReportType value is one of the predefined constants
func (t ReportType) IsValid() bool {
	for _, validType := range ValidReportTypes() {
		if t == validType {
			return true
		}
	}
	return false
}

// ReportStatus is the draft/submitted lock state of a report
type ReportStatus string

// Predefined ReportStatus values
const (
	ReportDraft     ReportStatus = "Draft"
	ReportSubmitted ReportStatus = "Submitted"
)

// InvolvedParty is a person referenced by a report
type InvolvedParty struct {
	CID  int    `json:"cid" bson:"cid"`
	Name string `json:"name" bson:"name"`
	Role string `json:"role" bson:"role"`
}

// Report holds the structure for the reports collection
type Report struct {
	ID             string          `json:"id" bson:"_id"`
	Type           ReportType      `json:"type" bson:"type"`
	Title          string          `json:"title" bson:"title"`
	Location       string          `json:"location" bson:"location"`
	Tags           []string        `json:"tags" bson:"tags"`
	Involved       []InvolvedParty `json:"involved" bson:"involved"`
	Vehicles       []string        `json:"vehicles" bson:"vehicles"`
	FullText       string          `json:"fullText" bson:"fullText"`
	Status         ReportStatus    `json:"status" bson:"status"`
	AuthorCID      int             `json:"authorCid" bson:"authorCid"`
	AuthorName     string          `json:"authorName" bson:"authorName"`
	LastEditorCID  int             `json:"lastEditorCid" bson:"lastEditorCid"`
	LastEditorName string          `json:"lastEditorName" bson:"lastEditorName"`
	CreatedAt      time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt" bson:"updatedAt"`
	SubmittedAt    *time.Time      `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
	Timeline       []Event         `json:"timeline" bson:"timeline"`
}

// TagCatalog is the shared set of allowed report tags
type TagCatalog struct {
	ID        string    `json:"-" bson:"_id"`
	Tags      []string  `json:"tags" bson:"tags"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
	Timeline  []Event   `json:"timeline" bson:"timeline"`
}
