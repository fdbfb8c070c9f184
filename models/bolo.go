package models

import "time"

// BoloType is the subject kind of a BOLO
type BoloType string

// Predefined BoloType values
const (
	BoloPerson  BoloType = "Person"
	BoloVehicle BoloType = "Vehicle"
	BoloGeneral BoloType = "General"
)

// IsValid checks if the BoloType value is one of the predefined constants
func (t BoloType) IsValid() bool {
	return t == BoloPerson || t == BoloVehicle || t == BoloGeneral
}

// Priority is shared by BOLOs and cases
type Priority string

// Predefined Priority values
const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// IsValid checks if the Priority value is one of the predefined constants
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// BoloStatus is the lifecycle state of a BOLO
type BoloStatus string

// Predefined BoloStatus values
const (
	BoloActive    BoloStatus = "Active"
	BoloSuspended BoloStatus = "Suspended"
	BoloClosed    BoloStatus = "Closed"
)

// IsValid checks if the BoloStatus value is one of the predefined constants
func (s BoloStatus) IsValid() bool {
	return s == BoloActive || s == BoloSuspended || s == BoloClosed
}

// Bolo holds the structure for the bolos collection
type Bolo struct {
	ID          string     `json:"id" bson:"_id"`
	Type        BoloType   `json:"type" bson:"type"`
	Priority    Priority   `json:"priority" bson:"priority"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Tags        []string   `json:"tags" bson:"tags"`
	People      []int      `json:"people" bson:"people"`
	Vehicles    []string   `json:"vehicles" bson:"vehicles"`
	ReportIDs   []string   `json:"reportIds" bson:"reportIds"`
	Status      BoloStatus `json:"status" bson:"status"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
	Timeline    []Event    `json:"timeline" bson:"timeline"`
}

// Expired reports whether the advisory expiry of the bolo has passed at now
func (b Bolo) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && now.After(*b.ExpiresAt)
}

// BoloView is a bolo decorated with its advisory expiry state
type BoloView struct {
	Bolo
	Expired bool `json:"expired"`
}
