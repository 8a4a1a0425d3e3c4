package models

import "time"

// Booking is the durable record produced by a successful slot claim.
type Booking struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProviderID string    `json:"provider_id" gorm:"type:varchar(36);index;not null"`
	SlotID     uint      `json:"-" gorm:"uniqueIndex;not null"`
	UserID     string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"user_email"`
	Date       string    `json:"date" gorm:"column:slot_date;not null"`
	Time       string    `json:"time" gorm:"column:slot_time;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for the Booking model.
func (Booking) TableName() string {
	return "bookings"
}
