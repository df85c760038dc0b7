// Package domain defines the persistence models for users, chat sessions,
// messages, orders, and the product catalog. These types are mapped with
// GORM and form the system of record for the pharmacy chat backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Session status values.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// Message sender values.
const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

// Order status values. There is no persisted "failed" state: a failed
// saga compensates by deleting the pending row.
const (
	OrderPending   = "pending"
	OrderFulfilled = "fulfilled"
)

// User is a customer identified by a deterministic fingerprint of their
// name. Two distinct people with the same name share a fingerprint; the
// system accepts that ambiguity (see UserFingerprint).
//
// All identity fields except Name are collected progressively during the
// conversation and stay empty until the customer provides them.
type User struct {
	ID       string `json:"user_id"  gorm:"column:user_id;type:char(16);primaryKey"`
	Name     string `json:"name"     gorm:"type:varchar(255);not null"`
	Age      *int   `json:"age,omitempty"`
	Phone    string `json:"phone,omitempty"     gorm:"type:varchar(32)"`
	AltPhone string `json:"alt_phone,omitempty" gorm:"type:varchar(32)"`
	Email    string `json:"email,omitempty"     gorm:"type:varchar(255)"`
	Gender   string `json:"gender,omitempty"    gorm:"type:varchar(16)"`
	Address  string `json:"address,omitempty"   gorm:"type:text"`
	Landmark string `json:"landmark,omitempty"  gorm:"type:varchar(255)"`
	City     string `json:"city,omitempty"      gorm:"type:varchar(128)"`
	State    string `json:"state,omitempty"     gorm:"type:varchar(128)"`
	LGA      string `json:"lga,omitempty"       gorm:"column:lga;type:varchar(128)"`
	HMOID    string `json:"hmo_id,omitempty"    gorm:"column:hmo_id;type:varchar(64)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// ChatSession is one conversation window for a user. At most one session
// per user should be active at a time; SessionService serializes
// check-then-create per user to uphold that.
type ChatSession struct {
	ID        string         `json:"session_id" gorm:"column:session_id;type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:char(16);not null;index:idx_user_sessions"`
	Status    string         `json:"status"     gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','completed')"`
	StartedAt time.Time      `json:"started_at" gorm:"not null"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for ChatSession.
func (ChatSession) TableName() string { return "chat_sessions" }

// ChatMessage is a single utterance in a session. Rows are append-only:
// they are never updated or deleted, and reads order by (CreatedAt, ID)
// so storage order never leaks into history ordering.
type ChatMessage struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:char(36);not null;index:idx_session_msgs,priority:1"`
	UserID    string    `json:"user_id"    gorm:"type:char(16);not null"`
	Sender    string    `json:"sender"     gorm:"type:varchar(8);not null;check:sender IN ('user','agent')"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_session_msgs,priority:2"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }

// Order is a durable order-placement intent plus its outcome. A row is
// written with status "pending" before the fulfillment API is called and
// either promoted to "fulfilled" with the API response or deleted by the
// saga's compensation step.
//
// BatchID is the legacy 8-hex key the fulfillment wire contract carries;
// it is not unique across repeated orders. IdempotencyKey is the storage
// key: derived from the user, the full item list, and a client token or
// random nonce, so distinct orders do not collide.
type Order struct {
	ID             string `json:"id"              gorm:"type:char(36);primaryKey"`
	IdempotencyKey string `json:"idempotency_key" gorm:"type:char(64);not null;uniqueIndex:ux_orders_idem"`
	BatchID        string `json:"batch_id"        gorm:"type:char(8);not null;index"`
	UserID         string `json:"user_id"         gorm:"type:char(16);not null;index"`
	SessionID      string `json:"session_id"      gorm:"type:char(36);not null"`

	// Customer snapshot at order time.
	CustomerName     string `json:"customer_name"      gorm:"type:varchar(255);not null"`
	CustomerAge      int    `json:"customer_age"`
	CustomerHMOID    string `json:"customer_hmo_id"    gorm:"column:customer_hmo_id;type:varchar(64)"`
	CustomerPhone    string `json:"customer_phone"     gorm:"type:varchar(32)"`
	CustomerAltPhone string `json:"customer_alt_phone" gorm:"type:varchar(32)"`
	CustomerEmail    string `json:"customer_email"     gorm:"type:varchar(255)"`
	CustomerAddress  string `json:"customer_address"   gorm:"type:text"`
	CustomerGender   string `json:"customer_gender"    gorm:"type:varchar(16)"`
	Landmark         string `json:"landmark"           gorm:"type:varchar(255)"`
	City             string `json:"city"               gorm:"type:varchar(128)"`
	State            string `json:"state"              gorm:"type:varchar(128)"`
	LGA              string `json:"lga"                gorm:"column:lga;type:varchar(128)"`

	FulfilmentMode string `json:"fulfilment_mode" gorm:"type:varchar(16);not null"`
	Items          string `json:"order_items"     gorm:"type:text;not null"` // JSON array of OrderItem
	APIResponse    string `json:"api_response"    gorm:"type:text"`          // JSON, empty until fulfilled
	Status         string `json:"status"          gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','fulfilled')"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OrderItem is one line of an order as carried on the fulfillment wire.
type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Dosage   string `json:"dosage"`
	Form     string `json:"form"`
	Note     string `json:"note,omitempty"`
}

// CatalogEntry is one product row mirrored from the external catalog
// source. Payload is the opaque source record serialized as JSON; this
// backend never interprets it beyond handing it to the agent as context.
type CatalogEntry struct {
	ID        string    `json:"id"      gorm:"column:row_id;type:varchar(64);primaryKey"`
	Payload   string    `json:"payload" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for CatalogEntry.
func (CatalogEntry) TableName() string { return "catalog_entries" }

// CatalogEmbedding holds the similarity-search vector for one catalog
// row. Vector is a JSON-encoded []float32 of fixed dimension; Content is
// the text the vector was computed from and what retrieval returns.
type CatalogEmbedding struct {
	ID          uint      `json:"-"             gorm:"primaryKey;autoIncrement"`
	ParentRowID string    `json:"parent_row_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_embeddings_parent"`
	Content     string    `json:"content"       gorm:"type:text;not null"`
	Vector      string    `json:"-"             gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for CatalogEmbedding.
func (CatalogEmbedding) TableName() string { return "catalog_embeddings" }
