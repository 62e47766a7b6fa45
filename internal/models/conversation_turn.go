package models

import "time"

// ConversationTurn records a single inbound or outbound message exchanged
// with a user. Sessions themselves live in memory and are safe to lose;
// the turn log exists for auditing, not recovery.
type ConversationTurn struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"size:128;not null;index"`
	UserName  string    `gorm:"size:64"`
	Direction string    `gorm:"size:8;not null"` // "in" or "out"
	Step      string    `gorm:"size:32"`         // session step when the turn was handled
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}
