package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_catalog/internal/models"
)

func productExists(tx *gorm.DB, id int) error {
	var n int64
	if err := tx.Model(&models.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ListComments(ctx context.Context, productID int) ([]models.Comment, error) {
	var items []models.Comment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := productExists(tx, productID); err != nil {
			return err
		}
		return tx.Where("product_id = ?", productID).Order("id ASC").Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) AddComment(ctx context.Context, productID int, body string) (*models.Comment, error) {
	c := models.Comment{ProductID: productID, Body: body}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := productExists(tx, productID); err != nil {
			return err
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}
