package products

import (
	"context"

	"github.com/angelmondragon/cartflow/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the cart product persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.CartProduct, error)
	Create(ctx context.Context, product *models.CartProduct) (*models.CartProduct, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart product repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context) ([]models.CartProduct, error) {
	var rows []models.CartProduct
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Create(ctx context.Context, product *models.CartProduct) (*models.CartProduct, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.CartProduct{})
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartProduct{}).
		Where("id = ?", id).
		Update("quantity", quantity)
	return res.RowsAffected, res.Error
}
