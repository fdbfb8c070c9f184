package models

import "time"

// CaseStatus is the lifecycle state of a formal case
type CaseStatus string

// Predefined CaseStatus values
const (
	CaseOpen   CaseStatus = "Open"
	CaseClosed CaseStatus = "Closed"
)

// Case holds the structure for the cases collection
type Case struct {
	ID                string     `json:"id" bson:"_id"`
	CaseNumber        string     `json:"caseNumber" bson:"caseNumber"`
	Title             string     `json:"title" bson:"title"`
	Status            CaseStatus `json:"status" bson:"status"`
	Priority          Priority   `json:"priority" bson:"priority"`
	Location          string     `json:"location" bson:"location"`
	Tags              []string   `json:"tags" bson:"tags"`
	LinkedReportIDs   []string   `json:"linkedReportIds" bson:"linkedReportIds"`
	LinkedEvidenceIDs []string   `json:"linkedEvidenceIds" bson:"linkedEvidenceIds"`
	LinkedBoloIDs     []string   `json:"linkedBoloIds" bson:"linkedBoloIds"`
	Timeline          []Event    `json:"timeline" bson:"timeline"`
	CreatedAt         time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// CaseApproval is the pair of writes produced by approving a case request
type CaseApproval struct {
	Case    Case        `json:"case"`
	Request CaseRequest `json:"request"`
}
