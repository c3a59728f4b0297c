// Package model defines the core data structures shared by the query
// service components.
package model

import "time"

// QueryKind identifies one of the spatial query operations.
type QueryKind int

const (
	// QueryKindPeers builds per-box peer lists.
	QueryKindPeers QueryKind = 0
	// QueryKindArea builds per-ball overlapping-leaf lists.
	QueryKindArea QueryKind = 1
	// QueryKindLeavesToBalls builds the per-leaf ball lists.
	QueryKindLeavesToBalls QueryKind = 2
	// QueryKindSpaceInvader builds the per-leaf max-distance table.
	QueryKindSpaceInvader QueryKind = 3
)

// String returns the string representation of QueryKind.
func (k QueryKind) String() string {
	switch k {
	case QueryKindPeers:
		return "peers"
	case QueryKindArea:
		return "area"
	case QueryKindLeavesToBalls:
		return "lbl"
	case QueryKindSpaceInvader:
		return "siq"
	default:
		return "unknown"
	}
}

// ParseQueryKind parses a query kind name.
func ParseQueryKind(s string) (QueryKind, bool) {
	switch s {
	case "peers":
		return QueryKindPeers, true
	case "area":
		return QueryKindArea, true
	case "lbl", "leaves-to-balls":
		return QueryKindLeavesToBalls, true
	case "siq", "space-invader":
		return QueryKindSpaceInvader, true
	default:
		return 0, false
	}
}

// TaskStatus represents the status of a queued query task.
type TaskStatus int

const (
	TaskStatusPending   TaskStatus = 0 // Queued, not picked up yet
	TaskStatusRunning   TaskStatus = 1 // Being processed by a worker
	TaskStatusCompleted TaskStatus = 2 // Result uploaded
	TaskStatusFailed    TaskStatus = 3 // Processing failed
)

// String returns the string representation of TaskStatus.
func (s TaskStatus) String() string {
	switch s {
	case TaskStatusPending:
		return "pending"
	case TaskStatusRunning:
		return "running"
	case TaskStatusCompleted:
		return "completed"
	case TaskStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task represents one queued query task: a tree snapshot, an optional ball
// set, and the query kind to run against them.
type Task struct {
	ID         int64      `json:"id"`
	TaskUUID   string     `json:"tid"`
	Kind       QueryKind  `json:"kind"`
	Status     TaskStatus `json:"status"`
	StatusInfo string     `json:"status_info"`

	// TreeKey and BallsKey locate the input snapshots in object storage.
	// BallsKey is empty for peer-list-only tasks.
	TreeKey  string `json:"tree_key"`
	BallsKey string `json:"balls_key"`

	// ResultKey locates the uploaded result once the task completes.
	ResultKey string `json:"result_key"`

	CreateTime time.Time  `json:"create_time"`
	BeginTime  *time.Time `json:"begin_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

// Result is the JSON envelope a completed task uploads.
type Result struct {
	TaskUUID string    `json:"tid"`
	Kind     QueryKind `json:"kind"`
	Version  string    `json:"version"`

	// Exactly one of the following is set, depending on Kind.
	PeerListStarts       []int32   `json:"peer_list_starts,omitempty"`
	PeerLists            []int32   `json:"peer_lists,omitempty"`
	LeavesNearBallStarts []int32   `json:"leaves_near_ball_starts,omitempty"`
	LeavesNearBallLists  []int32   `json:"leaves_near_ball_lists,omitempty"`
	BallsNearBoxStarts   []int32   `json:"balls_near_box_starts,omitempty"`
	BallsNearBoxLists    []int32   `json:"balls_near_box_lists,omitempty"`
	SpaceInvaderDists    []float64 `json:"space_invader_dists,omitempty"`

	ElapsedMillis int64 `json:"elapsed_ms"`
}
