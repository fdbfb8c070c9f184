package models

import "time"

// CallStatus is the lifecycle state of a dispatch call
type CallStatus string

// Predefined CallStatus values
const (
	CallNew      CallStatus = "New"
	CallAccepted CallStatus = "Accepted"
	CallEnRoute  CallStatus = "EnRoute"
	CallOnScene  CallStatus = "OnScene"
	CallClosed   CallStatus = "Closed"
)

// ValidCallStatuses returns all valid CallStatus values
func ValidCallStatuses() []CallStatus {
	return []CallStatus{CallNew, CallAccepted, CallEnRoute, CallOnScene, CallClosed}
}

// IsValid checks if the CallStatus value is one of the predefined constants
func (s CallStatus) IsValid() bool {
	for _, v := range ValidCallStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// Coordinate is an optional origin point of a call
type Coordinate struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Call holds the structure for the calls collection
type Call struct {
	ID               string      `json:"id" bson:"_id"`
	Code             string      `json:"code" bson:"code"`
	Title            string      `json:"title" bson:"title"`
	Location         string      `json:"location" bson:"location"`
	OriginCoordinate *Coordinate `json:"originCoordinate,omitempty" bson:"originCoordinate,omitempty"`
	CreatedAt        time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt" bson:"updatedAt"`
	Status           CallStatus  `json:"status" bson:"status"`
	AssignedUnitID   string      `json:"assignedUnitId,omitempty" bson:"assignedUnitId,omitempty"`
	Timeline         []Event     `json:"timeline" bson:"timeline"`
	ReportSummary    string      `json:"reportSummary,omitempty" bson:"reportSummary,omitempty"`
	ReportID         string      `json:"reportId,omitempty" bson:"reportId,omitempty"`
}
