package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Thread is a conversation about one listing.
type Thread struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID      `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	Listing   *Listing       `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	Members   []ThreadMember `gorm:"foreignKey:ThreadID" json:"members,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (Thread) TableName() string {
	return "threads"
}

func (t *Thread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ThreadMember grants a user access to a thread's messages.
// Current usage always writes exactly two per thread; the table does not cap it.
type ThreadMember struct {
	ThreadID  uuid.UUID `gorm:"column:thread_id;type:uuid;primaryKey" json:"thread_id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey;index" json:"user_id"`
	Thread    *Thread   `gorm:"foreignKey:ThreadID" json:"thread,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ThreadMember) TableName() string {
	return "thread_members"
}

// Message is an append-only entry in a thread.
type Message struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ThreadID  uuid.UUID `gorm:"column:thread_id;type:uuid;not null;index:idx_messages_thread_created,priority:1" json:"thread_id"`
	SenderID  uuid.UUID `gorm:"column:sender_id;type:uuid;not null" json:"sender_id"`
	Body      string    `gorm:"column:body;not null" json:"body"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_messages_thread_created,priority:2" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
