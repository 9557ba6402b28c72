package domain

import "time"

// CREATE TABLE public.transactions (
//     id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     user_id      BIGINT NOT NULL,
//     article_id   VARCHAR(50) NOT NULL,
//     price        NUMERIC NOT NULL,
//     purchased_at TIMESTAMPTZ NOT NULL
// );
// Append-only purchase history. Source of every retrieval rule and of the
// temporal labels used for training; the personalization pipeline only
// reads it, checkout appends the rows.

type Transaction struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"column:user_id;index" json:"user_id"`
	ArticleID   string    `gorm:"column:article_id;index" json:"article_id"`
	Price       float64   `gorm:"column:price;type:numeric" json:"price"`
	PurchasedAt time.Time `gorm:"column:purchased_at;index" json:"purchased_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
