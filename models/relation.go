package models

import "time"

type FollowStatus string

const (
	FollowRequested FollowStatus = "requested"
	FollowAccepted  FollowStatus = "accepted"
	FollowRejected  FollowStatus = "rejected"
)

// FollowEdge is a directed follow relationship. At most one edge may exist
// per ordered (follower, following) pair; the composite unique index is the
// final arbiter for concurrent creates.
type FollowEdge struct {
	ID          int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID  int64        `gorm:"index:follow_pair_idx,unique;index" json:"follower_id"`
	FollowingID int64        `gorm:"index:follow_pair_idx,unique;index" json:"following_id"`
	Status      FollowStatus `gorm:"size:20" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (FollowEdge) TableName() string {
	return "follow_edges"
}

// BlockEdge severs the relationship in both directions. Its existence is
// never revealed to the blocked account.
type BlockEdge struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BlockerID int64     `gorm:"index:block_pair_idx,unique;index" json:"blocker_id"`
	BlockedID int64     `gorm:"index:block_pair_idx,unique;index" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (BlockEdge) TableName() string {
	return "block_edges"
}

type HistoryAction string

const (
	ActionFollow         HistoryAction = "follow"
	ActionUnfollow       HistoryAction = "unfollow"
	ActionAccept         HistoryAction = "accept"
	ActionReject         HistoryAction = "reject"
	ActionCancel         HistoryAction = "cancel"
	ActionBlock          HistoryAction = "block"
	ActionUnblock        HistoryAction = "unblock"
	ActionRemoveFollower HistoryAction = "remove_follower"
)

// RelationshipHistory is the append-only audit trail. Rows are written by the
// command processor and never read back for live state.
type RelationshipHistory struct {
	ID          int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID  int64         `gorm:"index" json:"follower_id"`
	FollowingID int64         `gorm:"index" json:"following_id"`
	Action      HistoryAction `gorm:"size:20" json:"action"`
	Metadata    string        `gorm:"size:255" json:"metadata,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (RelationshipHistory) TableName() string {
	return "relationship_history"
}
