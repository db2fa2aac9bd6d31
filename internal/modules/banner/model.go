package banner

import (
	"errors"
	"time"
)

var (
	ErrBannerNotFound = errors.New("banner not found")
	ErrInvalidBanner  = errors.New("invalid banner")
)

// Banner is a promo slide on the storefront. Lower Order sorts first.
type Banner struct {
	ID        string    `json:"id"`
	Enabled   bool      `json:"enabled"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Link      string    `json:"link,omitempty"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BannerRequest carries the editable fields for create and update.
type BannerRequest struct {
	Enabled  *bool  `json:"enabled"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	ImageURL string `json:"image_url"`
	Link     string `json:"link"`
	Order    int    `json:"order"`
}
