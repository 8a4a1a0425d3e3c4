package models

import "time"

// Provider is a bookable service entity that owns an ordered list of slots.
type Provider struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name           string    `json:"name" gorm:"not null"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	Specialization string    `json:"specialization"`
	Slots          []Slot    `json:"slots" gorm:"foreignKey:ProviderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for the Provider model.
func (Provider) TableName() string {
	return "providers"
}

// Slot is one (date, time) unit of bookable capacity. Slots are only read
// and written through their provider; the row id fixes insertion order.
type Slot struct {
	ID         uint    `json:"-" gorm:"primaryKey;autoIncrement"`
	ProviderID string  `json:"-" gorm:"type:varchar(36);index:idx_slots_lookup,priority:1;not null"`
	Date       string  `json:"date" gorm:"column:slot_date;index:idx_slots_lookup,priority:2;not null"`
	Time       string  `json:"time" gorm:"column:slot_time;index:idx_slots_lookup,priority:3;not null"`
	Booked     bool    `json:"booked" gorm:"not null;default:false"`
	UserID     *string `json:"user_id" gorm:"type:varchar(36)"`
}

// TableName returns the database table name for the Slot model.
func (Slot) TableName() string {
	return "slots"
}

// SlotKey identifies a slot within a provider.
type SlotKey struct {
	Date string
	Time string
}

// Key returns the (date, time) pair of the slot.
func (s Slot) Key() SlotKey {
	return SlotKey{Date: s.Date, Time: s.Time}
}
