package domain

import (
	"context"
	"time"
)

type Category struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	CreatedAt time.Time `json:"-"`
}

func (Category) TableName() string { return "categories" }

// Product mirrors the catalog row. Price and Rating are decimal columns
// carried as strings end to end so no float rounding sneaks into payloads.
type Product struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Description   *string   `json:"description"`
	Price         string    `gorm:"type:numeric(10,2);not null" json:"price"`
	Image         string    `gorm:"not null" json:"image"`
	CategoryID    int64     `gorm:"not null" json:"category_id"`
	Category      *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Rating        string    `gorm:"type:numeric(2,1);default:4.0" json:"rating"`
	IsFeatured    bool      `gorm:"default:false" json:"is_featured"`
	StockQuantity int       `gorm:"default:100" json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// HomeProducts is the landing-page payload cached under a single key.
type HomeProducts struct {
	Featured []Product `json:"featured"`
	Popular  []Product `json:"popular"`
}

type ProductRepository interface {
	// FindByID returns (nil, nil) when no product matches.
	FindByID(ctx context.Context, id int64) (*Product, error)
	Featured(ctx context.Context, limit int) ([]Product, error)
	Popular(ctx context.Context, limit int) ([]Product, error)
}
