package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payment statuses. Anything else is an admin approval label.
const (
	PaymentStatusUnverified = "unverified"
	PaymentStatusSucceeded  = "succeeded"
	PaymentStatusFailed     = "failed"
)

// Payment is a client-reported payment document. It stays unverified until
// the processor webhook confirms the referenced intent.
type Payment struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string         `json:"user_id" gorm:"type:varchar(36);index"`
	IntentID  string         `json:"intent_id,omitempty" gorm:"index"`
	Payload   datatypes.JSON `json:"payload" swaggertype:"object"`
	Status    string         `json:"status" gorm:"not null;default:'unverified'"`
	Verified  bool           `json:"verified" gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName returns the database table name for the Payment model.
func (Payment) TableName() string {
	return "payments"
}

// IntentVerdict holds the processor's latest verdict for a payment intent.
// An empty Status means a payment referencing the intent was recorded but
// no verdict has arrived yet.
type IntentVerdict struct {
	IntentID  string    `json:"intent_id" gorm:"primaryKey;type:varchar(255)"`
	Status    string    `json:"status" gorm:"not null;default:''"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for the IntentVerdict model.
func (IntentVerdict) TableName() string {
	return "intent_verdicts"
}
