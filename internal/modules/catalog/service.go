package catalog

import (
	"context"
	"fmt"
	"strings"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	// GetProduct hides archived products behind ErrProductNotFound.
	GetProduct(ctx context.Context, id string) (*Product, error)
	// LookupProduct returns archived products too, for order history and admin screens.
	LookupProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, region Region) ([]*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error)
	SetPrice(ctx context.Context, id string, price int64) (*Product, error)
	SetDiscount(ctx context.Context, id string, discount int) (*Product, error)
	ArchiveProduct(ctx context.Context, id string) error
	Seed(ctx context.Context, products []*Product) (int, error)
}

// CreateProductRequest holds the data for creating a product.
type CreateProductRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Region      Region `json:"region"`
	Currency    string `json:"currency"`
	Price       int64  `json:"price"`
	Discount    int    `json:"discount"`
	Description string `json:"description"`
}

// UpdateProductRequest carries the mutable fields. Identity and region are fixed.
type UpdateProductRequest struct {
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	Price       int64  `json:"price"`
	Discount    int    `json:"discount"`
	Description string `json:"description"`
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	p := &Product{
		ID:          strings.TrimSpace(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Region:      req.Region,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Price:       req.Price,
		Discount:    req.Discount,
		Description: req.Description,
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if !p.Region.Valid() {
		return nil, fmt.Errorf("%w: unknown region %q", ErrInvalidProduct, p.Region)
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Archived {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *service) LookupProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListProducts(ctx context.Context, region Region) ([]*Product, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]*Product, 0, len(all))
	for _, p := range all {
		if p.Archived {
			continue
		}
		if region != "" && p.Region != region {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *service) ListAll(ctx context.Context) ([]*Product, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(req.Name)
	if req.Currency != "" {
		p.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	}
	p.Price = req.Price
	p.Discount = req.Discount
	p.Description = req.Description
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) SetPrice(ctx context.Context, id string, price int64) (*Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Price = price
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) SetDiscount(ctx context.Context, id string, discount int) (*Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Discount = discount
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ArchiveProduct hides a product from the storefront. Orders keep their line item snapshot.
func (s *service) ArchiveProduct(ctx context.Context, id string) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	p.Archived = true
	return s.repo.Update(ctx, p)
}

// Seed creates the given products when the catalog is empty and reports how many were added.
func (s *service) Seed(ctx context.Context, products []*Product) (int, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, p := range products {
		if _, err := s.CreateProduct(ctx, CreateProductRequest{
			ID:          p.ID,
			Name:        p.Name,
			Region:      p.Region,
			Currency:    p.Currency,
			Price:       p.Price,
			Discount:    p.Discount,
			Description: p.Description,
		}); err != nil {
			return i, fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return len(products), nil
}

func validate(p *Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Currency == "":
		return fmt.Errorf("%w: currency is required", ErrInvalidProduct)
	case p.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	case p.Discount < 0 || p.Discount > 100:
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidProduct)
	}
	return nil
}
