package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"go-storefront/internal/core/cache"
	"go-storefront/internal/domain"
)

const (
	productKeyPrefix = "product:"
	homeProductsKey  = "home:products"

	featuredLimit = 6
	popularLimit  = 8
)

// ProductService serves catalog reads through the cache-aside reader.
type ProductService struct {
	products domain.ProductRepository
	reader   *cache.Reader
	ttl      time.Duration
	log      *zap.Logger
}

func NewProductService(products domain.ProductRepository, reader *cache.Reader, ttl time.Duration, log *zap.Logger) *ProductService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{products: products, reader: reader, ttl: ttl, log: log}
}

func ProductKey(id int64) string { return productKeyPrefix + strconv.FormatInt(id, 10) }

// GetProduct returns (nil, nil) for an unknown id; missing products are
// never written to the cache.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return cache.GetOrLoadJSON(s.reader, ctx, ProductKey(id), s.ttl,
		func(ctx context.Context) (*domain.Product, error) {
			return s.products.FindByID(ctx, id)
		})
}

// HomeProducts returns the landing-page sections (featured capped at 6,
// popular at 8), cached as one payload under home:products.
func (s *ProductService) HomeProducts(ctx context.Context) (*domain.HomeProducts, error) {
	return cache.GetOrLoadJSON(s.reader, ctx, homeProductsKey, s.ttl,
		func(ctx context.Context) (*domain.HomeProducts, error) {
			featured, err := s.products.Featured(ctx, featuredLimit)
			if err != nil {
				return nil, fmt.Errorf("load featured: %w", err)
			}
			popular, err := s.products.Popular(ctx, popularLimit)
			if err != nil {
				return nil, fmt.Errorf("load popular: %w", err)
			}
			return &domain.HomeProducts{Featured: featured, Popular: popular}, nil
		})
}
