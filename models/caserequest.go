package models

import "time"

// CaseRequestStatus is the decision state of a case intake request
type CaseRequestStatus string

// Predefined CaseRequestStatus values
const (
	RequestPending  CaseRequestStatus = "Pending"
	RequestApproved CaseRequestStatus = "Approved"
	RequestRejected CaseRequestStatus = "Rejected"
)

// CaseRequest holds the structure for the caseRequests collection
type CaseRequest struct {
	ID          string            `json:"id" bson:"_id"`
	Ts          time.Time         `json:"ts" bson:"ts"`
	ReportID    string            `json:"reportId" bson:"reportId"`
	ReportTitle string            `json:"reportTitle" bson:"reportTitle"`
	Note        string            `json:"note,omitempty" bson:"note,omitempty"`
	CreatedBy   Actor             `json:"createdBy" bson:"createdBy"`
	Status      CaseRequestStatus `json:"status" bson:"status"`
	DecidedBy   *Actor            `json:"decidedBy,omitempty" bson:"decidedBy,omitempty"`
	DecidedAt   *time.Time        `json:"decidedAt,omitempty" bson:"decidedAt,omitempty"`
	CaseID      string            `json:"caseId,omitempty" bson:"caseId,omitempty"`
	CaseNumber  string            `json:"caseNumber,omitempty" bson:"caseNumber,omitempty"`
	Timeline    []Event           `json:"timeline" bson:"timeline"`
}

// IsValid checks if the CaseRequestStatus value is one of the predefined constants
func (s CaseRequestStatus) IsValid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}
