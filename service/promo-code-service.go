package service

import (
	"fmt"
	"strings"
	"time"

	"questboard/app_error"
	"questboard/auth"
	"questboard/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var oneHundred = decimal.NewFromInt(100)

type PromoCodeService struct {
	promoCodeRepository *repository.PromoCodeRepository
	authorizer          auth.Authorizer
	now                 func() time.Time
}

// PromoQuote is the result of validating a code against an amount. Producing a
// quote never consumes the code, used counts are only incremented by payment
// completion.
type PromoQuote struct {
	Code         string
	Description  string
	DiscountType repository.DiscountType
	Discount     decimal.Decimal
	FinalAmount  decimal.Decimal
}

func NewPromoCodeService(db *gorm.DB, authorizer auth.Authorizer) *PromoCodeService {
	return &PromoCodeService{
		promoCodeRepository: repository.NewPromoCodeRepository(db),
		authorizer:          authorizer,
		now:                 time.Now,
	}
}

// Validate looks up a code case-insensitively and computes the discount quote
// for the given amount. Read-only and side effect free.
func (s *PromoCodeService) Validate(code string, amount decimal.Decimal) (*PromoQuote, error) {
	promoCode, err := s.promoCodeRepository.GetPromoCodeByCode(code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, app_error.ErrNotFound
		}
		return nil, err
	}
	return s.Quote(promoCode, amount)
}

// Quote applies the constraint checks in order, each with its own failure mode,
// then computes the discount. Rounding to two places happens once at the end,
// intermediate values keep full precision.
func (s *PromoCodeService) Quote(promoCode *repository.PromoCode, amount decimal.Decimal) (*PromoQuote, error) {
	if !promoCode.IsActive {
		return nil, app_error.ErrNotFound
	}
	now := s.now()
	if now.Before(promoCode.ValidFrom) || now.After(promoCode.ValidUntil) {
		return nil, app_error.ErrExpired
	}
	if promoCode.MinAmount != nil && amount.LessThan(*promoCode.MinAmount) {
		return nil, app_error.BelowMinimum(*promoCode.MinAmount)
	}
	if promoCode.UsageLimit != nil && promoCode.UsedCount >= *promoCode.UsageLimit {
		return nil, app_error.ErrUsageExhausted
	}

	var discount decimal.Decimal
	if promoCode.DiscountType == repository.DiscountPercentage {
		discount = amount.Mul(promoCode.DiscountValue).Div(oneHundred)
		if promoCode.MaxDiscount != nil && discount.GreaterThan(*promoCode.MaxDiscount) {
			discount = *promoCode.MaxDiscount
		}
	} else {
		discount = promoCode.DiscountValue
	}
	// a discount can never exceed the payable amount nor be negative
	if discount.GreaterThan(amount) {
		discount = amount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	discount = discount.Round(2)
	return &PromoQuote{
		Code:         promoCode.Code,
		Description:  promoCode.Description,
		DiscountType: promoCode.DiscountType,
		Discount:     discount,
		FinalAmount:  amount.Sub(discount).Round(2),
	}, nil
}

func (s *PromoCodeService) GetAllPromoCodes(actor *repository.User) ([]*repository.PromoCode, error) {
	if !s.authorizer.CanModerate(actor) {
		return nil, app_error.ErrUnauthorized
	}
	return s.promoCodeRepository.GetAllPromoCodes()
}

func (s *PromoCodeService) SavePromoCode(promoCode *repository.PromoCode, actor *repository.User) (*repository.PromoCode, error) {
	if !s.authorizer.CanModerate(actor) {
		return nil, app_error.ErrUnauthorized
	}
	if promoCode.ValidUntil.Before(promoCode.ValidFrom) {
		return nil, fmt.Errorf("valid_from must not be after valid_until")
	}
	if promoCode.DiscountType != repository.DiscountPercentage && promoCode.DiscountType != repository.DiscountFixed {
		return nil, fmt.Errorf("invalid discount type %q", promoCode.DiscountType)
	}
	if promoCode.DiscountValue.IsNegative() {
		return nil, fmt.Errorf("discount value must not be negative")
	}
	return s.promoCodeRepository.SavePromoCode(promoCode)
}

func (s *PromoCodeService) DeletePromoCode(code string, actor *repository.User) error {
	if !s.authorizer.CanModerate(actor) {
		return app_error.ErrUnauthorized
	}
	if strings.TrimSpace(code) == "" {
		return app_error.ErrNotFound
	}
	return s.promoCodeRepository.DeletePromoCode(code)
}
