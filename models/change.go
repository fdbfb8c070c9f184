package models

import "time"

// Change is published to subscribers after a state change has been committed
type Change struct {
	Type   string    `json:"type"`
	ID     string    `json:"id"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
	Actor  Actor     `json:"actor"`
}
