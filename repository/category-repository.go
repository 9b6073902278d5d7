package repository

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Category struct {
	Id          int    `gorm:"primaryKey"`
	Name        string `gorm:"not null;uniqueIndex"`
	Description string `gorm:"not null"`
}

type CategoryAccess struct {
	UserId          int       `gorm:"primaryKey"`
	CategoryId      int       `gorm:"primaryKey"`
	AccessGranted   bool      `gorm:"not null;default:true"`
	AccessGrantedAt time.Time `gorm:"not null"`

	User     *User     `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE;"`
	Category *Category `gorm:"foreignKey:CategoryId;constraint:OnDelete:CASCADE;"`
}

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

func (r *CategoryRepository) GetCategoryById(id int) (*Category, error) {
	var category Category
	result := r.DB.First(&category, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &category, nil
}

func (r *CategoryRepository) GetAllCategories() ([]*Category, error) {
	var categories []*Category
	result := r.DB.Order("id ASC").Find(&categories)
	if result.Error != nil {
		return nil, result.Error
	}
	return categories, nil
}

func (r *CategoryRepository) SaveCategory(category *Category) (*Category, error) {
	result := r.DB.Save(category)
	if result.Error != nil {
		return nil, result.Error
	}
	return category, nil
}

func (r *CategoryRepository) DeleteCategory(categoryId int) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&CategoryAccess{}, "category_id = ?", categoryId).Error; err != nil {
			return err
		}
		return tx.Delete(&Category{Id: categoryId}).Error
	})
}

// UpsertAccess grants access for (userId, categoryId). Concurrent grants
// converge on a single row, the conflict clause keeps the original
// access_granted_at so a re-grant is a pure no-op.
func (r *CategoryRepository) UpsertAccess(access *CategoryAccess) error {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("UpsertAccess"))
	defer timer.ObserveDuration()
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "category_id"}},
		DoNothing: true,
	}).Create(access).Error
}

func (r *CategoryRepository) GetAccess(userId int, categoryId int) (*CategoryAccess, error) {
	var access CategoryAccess
	result := r.DB.First(&access, "user_id = ? AND category_id = ?", userId, categoryId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &access, nil
}

func (r *CategoryRepository) GetAccessForUser(userId int) ([]*CategoryAccess, error) {
	var accesses []*CategoryAccess
	result := r.DB.Find(&accesses, "user_id = ?", userId)
	if result.Error != nil {
		return nil, result.Error
	}
	return accesses, nil
}
