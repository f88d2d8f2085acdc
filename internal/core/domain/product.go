package domain

import "time"

// Product is a catalog entry.
type Product struct {
	ID              string    `json:"id" bson:"_id"`
	ProductName     string    `json:"productName" bson:"product_name"`
	Description     string    `json:"description,omitempty" bson:"description,omitempty"`
	Price           float64   `json:"price" bson:"price"`
	QuantityInStock int       `json:"quantityInStock" bson:"quantity_in_stock"`
	ImageURL        string    `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	Rating          *float64  `json:"rating,omitempty" bson:"rating,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updated_at"`
}
