package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message statuses accepted by the store.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
	StatusReceived  = "received"
)

// Contact represents an address book entry. Phone is the natural key used by bulk imports.
type Contact struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string                      `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string                      `gorm:"type:varchar(50);not null;uniqueIndex" json:"phone"`
	Email     *string                     `gorm:"type:varchar(255)" json:"email"`
	Company   *string                     `gorm:"type:varchar(255)" json:"company"`
	Tags      datatypes.JSONSlice[string] `json:"tags"`
	CreatedAt time.Time                   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Tags == nil {
		c.Tags = datatypes.JSONSlice[string]{}
	}
	return nil
}

// ContactSummary is the slice of a contact embedded in message listings.
type ContactSummary struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
}

func (ContactSummary) TableName() string {
	return "contacts"
}

// Message is an outbound or inbound message record.
type Message struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ContactID    *uuid.UUID      `gorm:"type:uuid;index" json:"contact_id"`
	Phone        string          `gorm:"type:varchar(50);index" json:"phone"`
	MessageText  string          `gorm:"type:text" json:"message_text"`
	TemplateName *string         `gorm:"type:varchar(255)" json:"template_name"`
	Status       string          `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message"`
	CreatedAt    time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Contact      *ContactSummary `gorm:"foreignKey:ContactID;constraint:OnDelete:SET NULL;" json:"contacts"`
}

func (Message) TableName() string {
	return "messages"
}

// Campaign groups a template send to a set of recipients.
type Campaign struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	TemplateName string         `gorm:"type:varchar(255)" json:"template_name"`
	Status       string         `gorm:"type:varchar(20);default:'draft'" json:"status"`
	Recipients   datatypes.JSON `json:"recipients"`
	ScheduledAt  *time.Time     `json:"scheduled_at"`
	SentCount    int            `gorm:"default:0" json:"sent_count"`
	FailedCount  int            `gorm:"default:0" json:"failed_count"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Template represents a locally kept message template
type Template struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	Language   string         `gorm:"type:varchar(50)" json:"language"`
	Category   string         `gorm:"type:varchar(100)" json:"category"`
	Status     string         `gorm:"type:varchar(50)" json:"status"`
	Body       string         `gorm:"type:text" json:"body"`
	Components datatypes.JSON `json:"components"` // provider component blocks
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Setting is an opaque key/value pair. Value holds any JSON document.
type Setting struct {
	Key       string         `gorm:"primaryKey;type:varchar(255)" json:"key"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"-"`
}

func (Setting) TableName() string {
	return "settings"
}

// ActivityLog is an append-only audit entry.
type ActivityLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Action    string         `gorm:"type:varchar(255);not null;index" json:"action"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// All lists every model managed by auto-migration, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Contact{},
		&Message{},
		&Campaign{},
		&Template{},
		&Setting{},
		&ActivityLog{},
	}
}
