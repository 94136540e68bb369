package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

type ProductFilter struct {
	Category  string
	Available *bool
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// GetProducts returns the subset of ids that exist, keyed by id.
func (r *GormRepo) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter, page Page) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(f.Category))
	}
	if f.Available != nil {
		q = q.Where("available = ?", *f.Available)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0)
	if err := page.apply(q.Order("name ASC, id ASC")).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// SearchProducts is the database fallback when no search index is
// configured.
func (r *GormRepo) SearchProducts(ctx context.Context, query string, page Page) (int64, []models.Product, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0)
	if err := page.apply(q.Order("name ASC, id ASC")).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return translate(r.DB.WithContext(ctx).Create(p).Error)
}

func (r *GormRepo) UpdateProduct(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&p).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&p).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// DeleteProduct removes a product that no order references. Cart lines
// for it cascade.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) GetEquipment(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	var e models.Equipment
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *GormRepo) ListEquipment(ctx context.Context, available *bool) ([]models.Equipment, error) {
	q := r.DB.WithContext(ctx).Model(&models.Equipment{})
	if available != nil {
		q = q.Where("available = ?", *available)
	}

	var items []models.Equipment
	if err := q.Order("name ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateEquipment(ctx context.Context, e *models.Equipment) error {
	return translate(r.DB.WithContext(ctx).Create(e).Error)
}

func (r *GormRepo) ListStores(ctx context.Context) ([]models.Store, error) {
	var items []models.Store
	if err := r.DB.WithContext(ctx).Order("city ASC, name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateStore(ctx context.Context, s *models.Store) error {
	return translate(r.DB.WithContext(ctx).Create(s).Error)
}

// ListEvents returns events starting at or after from, soonest first.
func (r *GormRepo) ListEvents(ctx context.Context, from time.Time) ([]models.Event, error) {
	var items []models.Event
	if err := r.DB.WithContext(ctx).
		Where("starts_at >= ?", from).
		Order("starts_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateEvent(ctx context.Context, e *models.Event) error {
	return translate(r.DB.WithContext(ctx).Create(e).Error)
}
