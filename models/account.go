package models

import (
	"time"
)

// Account is the directory record for a user. The relationship engine only
// reads it (privacy flag, display fields); ownership stays with the directory.
type Account struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Nickname  string    `gorm:"size:60;uniqueIndex" json:"nickname"`
	FirstName string    `gorm:"size:255" json:"first_name"`
	LastName  string    `gorm:"size:255" json:"last_name"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url"`
	Private   bool      `gorm:"default:false" json:"private"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

type SessionToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID int64     `gorm:"index:session_token_idx,unique" json:"account_id"`
	TokenHash string    `gorm:"size:255;index:session_token_idx,unique" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (SessionToken) TableName() string {
	return "session_tokens"
}
