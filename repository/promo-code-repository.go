package repository

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountType = string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

type PromoCode struct {
	Id            int              `gorm:"primaryKey"`
	Code          string           `gorm:"uniqueIndex;not null"`
	Description   string           `gorm:"not null"`
	DiscountType  DiscountType     `gorm:"not null"`
	DiscountValue decimal.Decimal  `gorm:"type:numeric(12,2);not null"`
	MinAmount     *decimal.Decimal `gorm:"type:numeric(12,2);null"`
	MaxDiscount   *decimal.Decimal `gorm:"type:numeric(12,2);null"`
	ValidFrom     time.Time        `gorm:"not null"`
	ValidUntil    time.Time        `gorm:"not null"`
	UsageLimit    *int             `gorm:"null"`
	UsedCount     int              `gorm:"not null;default:0"`
	IsActive      bool             `gorm:"not null;default:true"`
}

type PromoCodeRepository struct {
	DB *gorm.DB
}

func NewPromoCodeRepository(db *gorm.DB) *PromoCodeRepository {
	return &PromoCodeRepository{DB: db}
}

// GetPromoCodeByCode looks the code up case-insensitively. Codes are stored
// uppercased, see SavePromoCode.
func (r *PromoCodeRepository) GetPromoCodeByCode(code string) (*PromoCode, error) {
	var promoCode PromoCode
	result := r.DB.First(&promoCode, "code = ?", strings.ToUpper(code))
	if result.Error != nil {
		return nil, result.Error
	}
	return &promoCode, nil
}

func (r *PromoCodeRepository) GetAllPromoCodes() ([]*PromoCode, error) {
	var promoCodes []*PromoCode
	result := r.DB.Order("id ASC").Find(&promoCodes)
	if result.Error != nil {
		return nil, result.Error
	}
	return promoCodes, nil
}

func (r *PromoCodeRepository) SavePromoCode(promoCode *PromoCode) (*PromoCode, error) {
	promoCode.Code = strings.ToUpper(promoCode.Code)
	result := r.DB.Save(promoCode)
	if result.Error != nil {
		return nil, result.Error
	}
	return promoCode, nil
}

func (r *PromoCodeRepository) DeletePromoCode(code string) error {
	return r.DB.Delete(&PromoCode{}, "code = ?", strings.ToUpper(code)).Error
}
