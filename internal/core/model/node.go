package model

import "time"

// Side distinguishes the two graphs of a paired clustering.
type Side string

const (
	SideActual    Side = "actual"
	SidePredicted Side = "predicted"
)

// ClusterNode is a class of one side of a session as stored in the graph database.
type ClusterNode struct {
	UUID      string    `json:"uuid"`
	SessionID string    `json:"session_id"`
	Side      Side      `json:"side"`
	Index     int       `json:"index"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
