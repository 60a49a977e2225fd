package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shop_catalog/internal/models"
)

const maxIDAttempts = 3

func orderedComments(db *gorm.DB) *gorm.DB {
	return db.Order("comments.id ASC")
}

func (r *GormRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Comments", orderedComments).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Comments", orderedComments).
		First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

// CreateProduct assigns prod.ID = max(id)+1 and inserts the row in the same
// transaction. A concurrent writer that grabbed the same id makes the insert
// fail with a duplicate key, in which case the allocation is retried.
func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var maxID int
			if err := tx.Model(&models.Product{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
				return err
			}
			prod.ID = maxID + 1
			return tx.Omit(clause.Associations).Create(prod).Error
		})
		if !isDuplicate(err) {
			return err
		}
	}
	return err
}

// UpdateProduct loads the product, lets apply mutate it, and writes every
// mirrored column back, all inside one transaction.
func (r *GormRepo) UpdateProduct(ctx context.Context, id int, apply func(*models.Product) error) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&prod, id).Error; err != nil {
			return err
		}
		if err := apply(&prod); err != nil {
			return err
		}
		return tx.Model(&models.Product{}).Where("id = ?", id).Updates(map[string]any{
			"nombre":     prod.Nombre,
			"precio":     prod.Precio,
			"imagen":     prod.Imagen,
			"habilitado": prod.Habilitado,
			"extra":      prod.Extra,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ImportProducts inserts products with their ids preserved, skipping ids that
// already exist. Comments are only inserted for products that were imported.
func (r *GormRepo) ImportProducts(ctx context.Context, items []models.Product) (int, error) {
	imported := 0
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			p := items[i]
			comments := p.Comments
			p.Comments = nil

			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			imported++

			for j := range comments {
				c := models.Comment{ProductID: p.ID, Body: comments[j].Body}
				if err := tx.Create(&c).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}
