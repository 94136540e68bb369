package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/internal/util"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
)

const catalogCachePrefix = "catalog:"

type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  Cache
	Search ProductSearcher
	Events EventPublisher
	Now    func() time.Time
}

type ProductQuery struct {
	Category  string
	Available *bool
	Page      int
	Size      int
}

type ProductPage struct {
	Items  []models.Product `json:"items"`
	Total  int64            `json:"total"`
	Page   int              `json:"page"`
	Offset int              `json:"offset"`
	Limit  int              `json:"limit"`
}

// cached loads key from the cache or fills it with load. Cache failures
// only cost a database round trip.
func cached[T any](ctx context.Context, c Cache, key string, load func() (T, error)) (T, error) {
	l := logging.FromContext(ctx)
	if c != nil {
		var v T
		hit, err := c.Get(ctx, key, &v)
		if err != nil {
			l.Warn("cache_get_error", "key", key, "error", err)
		} else if hit {
			return v, nil
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if c != nil {
		if err := c.Set(ctx, key, v); err != nil {
			l.Warn("cache_set_error", "key", key, "error", err)
		}
	}
	return v, nil
}

func availableKey(a *bool) string {
	if a == nil {
		return "any"
	}
	return fmt.Sprint(*a)
}

func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	offset, limit := util.Calculate(q.Page, q.Size)
	page := q.Page
	if page < 1 {
		page = 1
	}

	key := fmt.Sprintf("%sproducts:%s:%s:%d:%d", catalogCachePrefix,
		strings.ToLower(q.Category), availableKey(q.Available), offset, limit)
	return cached(ctx, s.Cache, key, func() (*ProductPage, error) {
		total, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{Category: q.Category, Available: q.Available},
			repo.Page{Offset: offset, Limit: limit})
		if err != nil {
			return nil, err
		}
		return &ProductPage{Items: items, Total: total, Page: page, Offset: offset, Limit: limit}, nil
	})
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// SearchProducts prefers the search index and falls back to a LIKE query
// when no index is configured or it fails.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, pageNum, size int) (*ProductPage, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: q is required", ErrValidation)
	}
	offset, limit := util.Calculate(pageNum, size)
	if pageNum < 1 {
		pageNum = 1
	}

	if s.Search != nil {
		total, items, err := s.Search.SearchProducts(ctx, query, offset, limit)
		if err == nil {
			return &ProductPage{Items: items, Total: total, Page: pageNum, Offset: offset, Limit: limit}, nil
		}
		l.Warn("search_index_error", "reason", "falling back to database", "error", err)
	}

	total, items, err := s.Repo.SearchProducts(ctx, query, repo.Page{Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	return &ProductPage{Items: items, Total: total, Page: pageNum, Offset: offset, Limit: limit}, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	p := &models.Product{
		Name:        name,
		Description: req.Description,
		Price:       req.Price,
		Category:    strings.TrimSpace(req.Category),
		ImageURL:    req.ImageURL,
		Available:   req.Available == nil || *req.Available,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.afterProductWrite(ctx, "product_created", *p)
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
		}
		fields["price"] = *req.Price
	}
	if req.Category != nil {
		fields["category"] = strings.TrimSpace(*req.Category)
	}
	if req.ImageURL != nil {
		fields["image_url"] = *req.ImageURL
	}
	if req.Available != nil {
		fields["available"] = *req.Available
	}

	p, err := s.Repo.UpdateProduct(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.afterProductWrite(ctx, "product_updated", *p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return ErrProductNotFound
		case errors.Is(err, repo.ErrReferenced):
			return fmt.Errorf("product has orders, mark it unavailable instead: %w", ErrConflict)
		}
		return fmt.Errorf("delete product: %w", err)
	}

	s.invalidate(ctx)
	publish(ctx, s.Events, mykafka.TopicProducts, id.String(),
		mykafka.NewEvent("product_deleted", "", map[string]any{"product_id": id}))
	return nil
}

func (s *CatalogService) afterProductWrite(ctx context.Context, eventType string, p models.Product) {
	if s.Search != nil {
		if err := s.Search.IndexProduct(ctx, p); err != nil {
			logging.FromContext(ctx).Error("search_index_error", "product_id", p.ID, "error", err)
		}
	}
	s.invalidate(ctx)
	publish(ctx, s.Events, mykafka.TopicProducts, p.ID.String(),
		mykafka.NewEvent(eventType, "", map[string]any{"product_id": p.ID, "name": p.Name, "price": p.Price}))
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidatePrefix(ctx, catalogCachePrefix); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_error", "error", err)
	}
}

func (s *CatalogService) ListEquipment(ctx context.Context, available *bool) ([]models.Equipment, error) {
	key := catalogCachePrefix + "equipment:" + availableKey(available)
	return cached(ctx, s.Cache, key, func() ([]models.Equipment, error) {
		return s.Repo.ListEquipment(ctx, available)
	})
}

func (s *CatalogService) GetEquipment(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	e, err := s.Repo.GetEquipment(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *CatalogService) CreateEquipment(ctx context.Context, req transport.CreateEquipmentRequest) (*models.Equipment, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.WeeklyPrice < 0 || req.MonthlyPrice < 0 || req.Deposit < 0 {
		return nil, fmt.Errorf("%w: prices cannot be negative", ErrValidation)
	}
	if _, ok := models.AddPrices(max(req.WeeklyPrice, req.MonthlyPrice), req.Deposit); !ok {
		return nil, ErrPriceOverflow
	}

	e := &models.Equipment{
		Name:         name,
		Description:  req.Description,
		WeeklyPrice:  req.WeeklyPrice,
		MonthlyPrice: req.MonthlyPrice,
		Deposit:      req.Deposit,
		ImageURL:     req.ImageURL,
		Available:    req.Available == nil || *req.Available,
	}
	if err := s.Repo.CreateEquipment(ctx, e); err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}

	s.invalidate(ctx)
	publish(ctx, s.Events, mykafka.TopicProducts, e.ID.String(),
		mykafka.NewEvent("equipment_created", "", map[string]any{"equipment_id": e.ID, "name": e.Name}))
	return e, nil
}

func (s *CatalogService) ListStores(ctx context.Context) ([]models.Store, error) {
	return cached(ctx, s.Cache, catalogCachePrefix+"stores", func() ([]models.Store, error) {
		return s.Repo.ListStores(ctx)
	})
}

func (s *CatalogService) CreateStore(ctx context.Context, req transport.CreateStoreRequest) (*models.Store, error) {
	st := &models.Store{
		Name:         strings.TrimSpace(req.Name),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		PhoneNumber:  req.PhoneNumber,
		OpeningHours: req.OpeningHours,
	}
	if st.Name == "" || st.Address == "" {
		return nil, fmt.Errorf("%w: name and address are required", ErrValidation)
	}
	if err := s.Repo.CreateStore(ctx, st); err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	s.invalidate(ctx)
	return st, nil
}

// ListEvents returns upcoming events, soonest first.
func (s *CatalogService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.Repo.ListEvents(ctx, clock(s.Now))
}

func (s *CatalogService) CreateEvent(ctx context.Context, req transport.CreateEventRequest) (*models.Event, error) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("%w: starts_at must be RFC 3339", ErrValidation)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	ev := &models.Event{
		Title:       title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    startsAt.UTC(),
	}
	if err := s.Repo.CreateEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return ev, nil
}
