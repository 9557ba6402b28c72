package domain

import (
	"strings"
	"time"
)

// CREATE TABLE public.products (
//     article_id          VARCHAR(50) PRIMARY KEY,
//     name                VARCHAR(500) NOT NULL,
//     description         VARCHAR(1000),
//     price               NUMERIC NOT NULL,
//     stock               INTEGER DEFAULT 0,
//     department_no       INTEGER,
//     product_group_name  VARCHAR(255),
//     gender_tag          INTEGER,
//     image_path          VARCHAR(500),
//     colors              VARCHAR(255),
//     primary_color       VARCHAR(50),
//     color_description   VARCHAR(500),
//     created_at          TIMESTAMPTZ DEFAULT NOW()
// );

type Product struct {
	ArticleID        string    `gorm:"column:article_id;primaryKey" json:"article_id"`
	Name             string    `gorm:"column:name;type:varchar(500)" json:"name"`
	Description      string    `gorm:"column:description;type:varchar(1000)" json:"description"`
	Price            float64   `gorm:"column:price;type:numeric" json:"price"`
	Stock            int       `gorm:"column:stock;default:0" json:"stock"`
	DepartmentNo     int       `gorm:"column:department_no" json:"department_no"`
	ProductGroupName string    `gorm:"column:product_group_name" json:"product_group_name"`
	GenderTag        int       `gorm:"column:gender_tag" json:"gender_tag"`
	ImagePath        string    `gorm:"column:image_path" json:"image_path"`
	Colors           string    `gorm:"column:colors" json:"colors"` // comma-separated color names
	PrimaryColor     string    `gorm:"column:primary_color" json:"primary_color"`
	ColorDescription string    `gorm:"column:color_description" json:"color_description"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}

// KnownCategories are the product groups a customer may register as
// preferred. Kept in sync with the catalog import.
var KnownCategories = []string{
	"Trousers",
	"Dresses",
	"Sweaters",
	"Shirts",
	"T-shirts",
	"Jackets",
	"Skirts",
	"Shoes",
	"Accessories",
	"Underwear",
	"Swimwear",
	"Nightwear",
}

func IsKnownCategory(category string) bool {
	for _, c := range KnownCategories {
		if c == category {
			return true
		}
	}
	return false
}

func (p Product) HasImage() bool {
	return p.ImagePath != ""
}

// ColorSet splits the comma-separated colors column into a normalized set.
func (p Product) ColorSet() map[string]struct{} {
	out := make(map[string]struct{})
	for _, c := range strings.Split(p.Colors, ",") {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			out[c] = struct{}{}
		}
	}
	return out
}
