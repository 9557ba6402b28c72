package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventView       = "view"
	EventClick      = "click"
	EventAddToCart  = "add_to_cart"
	EventPurchase   = "purchase"
	EventImpression = "impression"
)

// UserInteraction is the raw event log (views, clicks, add-to-cart,
// recommendation impressions). Persisted for offline analysis; the
// pipeline itself labels from transactions, not from this table.
type UserInteraction struct {
	ID        uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint              `gorm:"column:user_id;index" json:"user_id"`
	ArticleID string            `gorm:"column:article_id;index" json:"article_id"`
	EventType string            `gorm:"column:event_type;index" json:"event_type"` // view, click, add_to_cart, purchase, impression
	Value     float64           `gorm:"column:value" json:"value"`
	Context   datatypes.JSONMap `gorm:"column:context" json:"context,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at;index" json:"created_at"`
}

func (UserInteraction) TableName() string {
	return "user_interactions"
}
