package models

import "time"

// Customer is a tracked client machine reachable through AnyDesk.
type Customer struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	// AnydeskID holds the grouped form ("123 456 789") when the input had
	// 9-11 digits, otherwise the trimmed input.
	AnydeskID string  `gorm:"column:anydesk_id;size:64;not null;uniqueIndex" json:"anydeskId"`
	Category  string  `gorm:"size:128;not null;default:Uncategorized;index" json:"category"`
	Notes     *string `gorm:"type:text" json:"notes,omitempty"`
}
