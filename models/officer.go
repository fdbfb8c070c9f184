package models

import "time"

// Officer holds the structure for the officers collection
type Officer struct {
	CID       int       `json:"cid" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	OnDuty    bool      `json:"onDuty" bson:"onDuty"`
	UnitID    string    `json:"unitId,omitempty" bson:"unitId,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
	Timeline  []Event   `json:"timeline" bson:"timeline"`
}

// Roster is the combined officers and units view returned to dispatch clients
type Roster struct {
	Officers []Officer `json:"officers"`
	Units    []Unit    `json:"units"`
}
