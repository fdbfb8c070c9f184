package models

import "time"

// MaxUnitMembers is the squad capacity of a single unit
const MaxUnitMembers = 4

// UnitStatus is the availability of a unit
type UnitStatus string

// Predefined UnitStatus values
const (
	UnitAvailable   UnitStatus = "Available"
	UnitUnavailable UnitStatus = "Unavailable"
)

// IsValid checks if the UnitStatus value is one of the predefined constants
func (s UnitStatus) IsValid() bool {
	return s == UnitAvailable || s == UnitUnavailable
}

// Unit holds the structure for the units collection
type Unit struct {
	ID            string     `json:"id" bson:"_id"`
	Callsign      string     `json:"callsign" bson:"callsign"`
	Label         string     `json:"label" bson:"label"`
	Members       []int      `json:"members" bson:"members"`
	Status        UnitStatus `json:"status" bson:"status"`
	UpdatedByCID  int        `json:"updatedByCid" bson:"updatedByCid"`
	UpdatedByName string     `json:"updatedByName" bson:"updatedByName"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt"`
	Timeline      []Event    `json:"timeline" bson:"timeline"`
}

// HasMember reports whether cid is a member of the unit
func (u Unit) HasMember(cid int) bool {
	for _, m := range u.Members {
		if m == cid {
			return true
		}
	}
	return false
}
