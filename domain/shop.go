package domain

import "time"

type CartItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"column:user_id;index" json:"user_id"`
	ArticleID string    `gorm:"column:article_id;index" json:"article_id"`
	Qty       int       `gorm:"column:qty;default:1" json:"qty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"column:user_id;index" json:"user_id"`
	ArticleID string    `gorm:"column:article_id;index" json:"article_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

type Order struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint      `gorm:"column:user_id;index" json:"user_id"`
	TotalAmount   float64   `gorm:"column:total_amount;type:numeric" json:"total_amount"`
	PaymentMethod string    `gorm:"column:payment_method;default:standard" json:"payment_method"`
	PaymentStatus string    `gorm:"column:payment_status;default:paid" json:"payment_status"`
	ClientOrderID string    `gorm:"column:client_order_id;uniqueIndex" json:"client_order_id"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint    `gorm:"column:order_id;index" json:"order_id"`
	ArticleID string  `gorm:"column:article_id;index" json:"article_id"`
	Qty       int     `gorm:"column:qty;default:1" json:"qty"`
	Price     float64 `gorm:"column:price;type:numeric" json:"price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
