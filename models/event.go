package models

import "time"

// Event is a single entry in an aggregate's timeline. Seq is the 1-based
// position of the entry in the owning timeline.
type Event struct {
	Seq       int       `json:"seq" bson:"seq"`
	At        time.Time `json:"at" bson:"at"`
	Action    string    `json:"action" bson:"action"`
	ActorCID  int       `json:"actorCid" bson:"actorCid"`
	ActorName string    `json:"actorName" bson:"actorName"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty"`
}

// Actor identifies the already authenticated officer issuing a command
type Actor struct {
	CID  int    `json:"cid" bson:"cid"`
	Name string `json:"name" bson:"name"`
}

// AuditEntry holds the structure for the append-only audit collection
type AuditEntry struct {
	ID         string    `json:"_id" bson:"_id"`
	EntityType string    `json:"entityType" bson:"entityType"`
	EntityID   string    `json:"entityId" bson:"entityId"`
	Seq        int       `json:"seq" bson:"seq"`
	At         time.Time `json:"at" bson:"at"`
	Action     string    `json:"action" bson:"action"`
	ActorCID   int       `json:"actorCid" bson:"actorCid"`
	ActorName  string    `json:"actorName" bson:"actorName"`
	Note       string    `json:"note,omitempty" bson:"note,omitempty"`
}

// Timeline action names recorded on aggregates and in the audit collection
const (
	ActionCreated       = "Created"
	ActionAccepted      = "Accepted"
	ActionNote          = "Note"
	ActionClosed        = "Closed"
	ActionSaved         = "Saved"
	ActionSubmitted     = "Submitted"
	ActionStatusChanged = "StatusChanged"
	ActionSighting      = "Sighting"
	ActionTransferred   = "Transferred"
	ActionLinked        = "Linked"
	ActionUnlinked      = "Unlinked"
	ActionSealed        = "Sealed"
	ActionCaseLinked    = "CaseLinked"
	ActionMemberAdded   = "MemberAdded"
	ActionMemberRemoved = "MemberRemoved"
	ActionDutyChanged   = "DutyChanged"
	ActionRequested     = "Requested"
	ActionApproved      = "Approved"
	ActionRejected      = "Rejected"
)
