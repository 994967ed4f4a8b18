package storage

import (
	"context"

	"gorm.io/gorm"

	"bizdesk-service/internal/model"
)

const productBatchSize = 100

func (s *GormStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	return list[model.Product](ctx, s, "list products", nil)
}

func (s *GormStore) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	return get[model.Product](ctx, s, "get product", id)
}

func (s *GormStore) CreateProduct(ctx context.Context, p *model.Product) error {
	return create(ctx, s, "create product", p)
}

func (s *GormStore) UpdateProduct(ctx context.Context, id uint, patch model.Patch) (*model.Product, error) {
	return update[model.Product](ctx, s, "update product", id, patch)
}

func (s *GormStore) DeleteProduct(ctx context.Context, id uint) error {
	return remove[model.Product](ctx, s, "delete product", id)
}

// CreateProducts inserts every product in one transaction.
func (s *GormStore) CreateProducts(ctx context.Context, products []model.Product) ([]model.Product, error) {
	if len(products) == 0 {
		return []model.Product{}, nil
	}
	err := s.transaction(ctx, "create products", "insert", func(tx *gorm.DB) error {
		return tx.CreateInBatches(&products, productBatchSize).Error
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProducts applies patch to every id. A missing id aborts the whole
// batch with ErrNotFound.
func (s *GormStore) UpdateProducts(ctx context.Context, ids []uint, patch model.Patch) ([]model.Product, error) {
	const op = "update products"
	var out []model.Product
	err := s.transaction(ctx, op, "update", func(tx *gorm.DB) error {
		if err := requireAll(tx, op, &model.Product{}, ids); err != nil {
			return err
		}
		if len(patch) > 0 {
			err := tx.Model(&model.Product{}).Where("id IN ?", ids).Updates(map[string]any(patch)).Error
			if err != nil {
				return err
			}
		}
		return tx.Where("id IN ?", ids).Order("id").Find(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteProducts removes every id or, if any is missing, none.
func (s *GormStore) DeleteProducts(ctx context.Context, ids []uint) error {
	const op = "delete products"
	return s.transaction(ctx, op, "delete", func(tx *gorm.DB) error {
		res := tx.Where("id IN ?", ids).Delete(&model.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return notFound(op)
		}
		return nil
	})
}

func (s *GormStore) ListLowStockProducts(ctx context.Context) ([]model.Product, error) {
	return list[model.Product](ctx, s, "list low stock products", func(db *gorm.DB) *gorm.DB {
		return db.Where("stock_level <= min_stock_level")
	})
}

// requireAll fails with ErrNotFound unless every id exists in the table of
// m. ids must not contain duplicates.
func requireAll(tx *gorm.DB, op string, m any, ids []uint) error {
	var n int64
	if err := tx.Model(m).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return notFound(op)
	}
	return nil
}
