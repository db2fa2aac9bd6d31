package catalog

import (
	"errors"
	"math"
	"time"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
)

// Region is the store market a card code redeems in.
type Region string

const (
	RegionUSA    Region = "USA"
	RegionIndia  Region = "India"
	RegionPoland Region = "Poland"
	RegionTurkey Region = "Turkey"
)

// Regions lists the supported markets in display order.
var Regions = []Region{RegionUSA, RegionIndia, RegionPoland, RegionTurkey}

func (r Region) Valid() bool {
	for _, known := range Regions {
		if r == known {
			return true
		}
	}
	return false
}

// Product is a prepaid card denomination sold for a fixed price.
// Price is what the buyer pays; Discount only drives the crossed-out price.
type Product struct {
	ID          string    `json:"id" yaml:"id" db:"id"`
	Name        string    `json:"name" yaml:"name" db:"name"`
	Region      Region    `json:"region" yaml:"region" db:"region"`
	Currency    string    `json:"currency" yaml:"currency" db:"currency"`
	Price       int64     `json:"price" yaml:"price" db:"price"`
	Discount    int       `json:"discount" yaml:"discount" db:"discount"`
	Description string    `json:"description,omitempty" yaml:"description" db:"description"`
	Archived    bool      `json:"archived,omitempty" yaml:"-" db:"archived"`
	CreatedAt   time.Time `json:"created_at" yaml:"-" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-" db:"updated_at"`
}

// OriginalPrice is the pre-discount price shown next to Price.
func (p *Product) OriginalPrice() int64 {
	if p.Discount <= 0 || p.Discount >= 100 {
		return p.Price
	}
	return int64(math.Round(float64(p.Price) / (1 - float64(p.Discount)/100)))
}

// ProductView is the public representation, with the derived original price.
type ProductView struct {
	*Product
	OriginalPrice int64 `json:"original_price"`
}

func NewProductView(p *Product) ProductView {
	return ProductView{Product: p, OriginalPrice: p.OriginalPrice()}
}

func (p *Product) clone() *Product {
	c := *p
	return &c
}
