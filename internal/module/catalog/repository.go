package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/simp-lee/storeadmin/internal/domain"
	"github.com/simp-lee/storeadmin/internal/pkg"
)

// Fields lists the columns of a kind that list queries may touch.
// Anything not named here is ignored, so it doubles as an allowlist.
type Fields struct {
	Search []string
	Filter []string
	Sort   []string
}

// Reader is the read side of a catalog collection.
type Reader[T domain.Entity] interface {
	List(ctx context.Context, req domain.PageRequest) (pkg.ListResult[T], error)
	Get(ctx context.Context, id uint) (*T, error)
}

// Repository is a GORM-backed Reader for one entity kind.
type Repository[T domain.Entity] struct {
	db     *gorm.DB
	fields Fields
}

// NewRepository creates a Repository for T over db.
func NewRepository[T domain.Entity](db *gorm.DB, fields Fields) *Repository[T] {
	return &Repository[T]{db: db, fields: fields}
}

// List returns one page of T. RecordsTotal counts every row; RecordsFiltered
// counts rows matching the search text and filters. A page past the end
// yields no items but still reports both counts.
func (r *Repository[T]) List(ctx context.Context, req domain.PageRequest) (pkg.ListResult[T], error) {
	var result pkg.ListResult[T]

	if err := r.db.WithContext(ctx).Model(new(T)).Count(&result.RecordsTotal).Error; err != nil {
		return result, mapError(err)
	}

	if err := r.filtered(ctx, req).Count(&result.RecordsFiltered).Error; err != nil {
		return result, mapError(err)
	}

	items := make([]T, 0, req.PerPage)
	if result.RecordsFiltered > 0 {
		if err := r.filtered(ctx, req).Scopes(
			pkg.Sort(req, r.fields.Sort),
			pkg.Paginate(req),
		).Find(&items).Error; err != nil {
			return result, mapError(err)
		}
	}
	result.Items = items
	return result, nil
}

// Get retrieves a single row by primary key.
func (r *Repository[T]) Get(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &item, nil
}

// Create inserts item.
func (r *Repository[T]) Create(ctx context.Context, item *T) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// filtered starts a fresh query with the search and filter scopes applied.
func (r *Repository[T]) filtered(ctx context.Context, req domain.PageRequest) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(T)).Scopes(
		pkg.Search(req, r.fields.Search),
		pkg.Filter(req, r.fields.Filter),
	)
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewAppError(domain.CodeInternal, "request canceled", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by message, since
// the pure-Go SQLite driver does not translate them to gorm.ErrDuplicatedKey.
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
