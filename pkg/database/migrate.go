package database

import (
	"modaMarket/domain"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema from the domain models. Development
// convenience only; production schemas are managed outside the service.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Product{},
		&domain.Transaction{},
		&domain.CartItem{},
		&domain.WishlistItem{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.UserInteraction{},
	)
}
