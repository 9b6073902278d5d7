package service

import (
	"testing"
	"time"

	"questboard/app_error"
	"questboard/auth"
	"questboard/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testPromoCode() *repository.PromoCode {
	return &repository.PromoCode{
		Code:          "SUMMER20",
		Description:   "20% off",
		DiscountType:  repository.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(20),
		ValidFrom:     fixedClock().Add(-24 * time.Hour),
		ValidUntil:    fixedClock().Add(24 * time.Hour),
		IsActive:      true,
	}
}

func quoteService() *PromoCodeService {
	return &PromoCodeService{now: fixedClock}
}

func TestPercentageDiscountClampsToMaxDiscount(t *testing.T) {
	promoCode := testPromoCode()
	maxDiscount := decimal.NewFromInt(100)
	promoCode.MaxDiscount = &maxDiscount

	quote, err := quoteService().Quote(promoCode, decimal.NewFromInt(1000))
	assert.NoError(t, err)
	assert.True(t, quote.Discount.Equal(decimal.NewFromInt(100)), "discount was %s", quote.Discount)
	assert.True(t, quote.FinalAmount.Equal(decimal.NewFromInt(900)), "final amount was %s", quote.FinalAmount)
}

func TestPercentageDiscountWithoutCap(t *testing.T) {
	quote, err := quoteService().Quote(testPromoCode(), decimal.NewFromInt(250))
	assert.NoError(t, err)
	assert.True(t, quote.Discount.Equal(decimal.NewFromInt(50)), "discount was %s", quote.Discount)
	assert.True(t, quote.FinalAmount.Equal(decimal.NewFromInt(200)), "final amount was %s", quote.FinalAmount)
}

func TestFixedDiscountClampsToAmount(t *testing.T) {
	promoCode := testPromoCode()
	promoCode.DiscountType = repository.DiscountFixed
	promoCode.DiscountValue = decimal.NewFromInt(50)

	quote, err := quoteService().Quote(promoCode, decimal.NewFromInt(30))
	assert.NoError(t, err)
	// the discount never exceeds the payable amount, the final amount never goes negative
	assert.True(t, quote.Discount.Equal(decimal.NewFromInt(30)), "discount was %s", quote.Discount)
	assert.True(t, quote.FinalAmount.IsZero(), "final amount was %s", quote.FinalAmount)
}

func TestDiscountRoundsHalfUpAtTheEnd(t *testing.T) {
	promoCode := testPromoCode()
	promoCode.DiscountValue = decimal.NewFromInt(15)

	// 15% of 0.10 is 0.015, rounded half up to 0.02 only at the final step
	quote, err := quoteService().Quote(promoCode, decimal.NewFromFloat(0.10))
	assert.NoError(t, err)
	assert.Equal(t, "0.02", quote.Discount.StringFixed(2))
	assert.Equal(t, "0.08", quote.FinalAmount.StringFixed(2))
}

func TestInactiveCodeIsNotFound(t *testing.T) {
	promoCode := testPromoCode()
	promoCode.IsActive = false

	_, err := quoteService().Quote(promoCode, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, app_error.ErrNotFound)
}

func TestCodeOutsideValidityWindowIsExpired(t *testing.T) {
	notYetValid := testPromoCode()
	notYetValid.ValidFrom = fixedClock().Add(time.Hour)
	notYetValid.ValidUntil = fixedClock().Add(48 * time.Hour)
	_, err := quoteService().Quote(notYetValid, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, app_error.ErrExpired)

	expired := testPromoCode()
	expired.ValidFrom = fixedClock().Add(-48 * time.Hour)
	expired.ValidUntil = fixedClock().Add(-time.Hour)
	_, err = quoteService().Quote(expired, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, app_error.ErrExpired)
}

func TestAmountBelowMinimum(t *testing.T) {
	promoCode := testPromoCode()
	minAmount := decimal.NewFromInt(500)
	promoCode.MinAmount = &minAmount

	_, err := quoteService().Quote(promoCode, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, app_error.ErrBelowMinimum)
	assert.Contains(t, err.Error(), "500.00")
	// quoting is read-only, nothing was consumed
	assert.Equal(t, 0, promoCode.UsedCount)
}

func TestUsageLimitExhausted(t *testing.T) {
	promoCode := testPromoCode()
	usageLimit := 3
	promoCode.UsageLimit = &usageLimit
	promoCode.UsedCount = 3

	_, err := quoteService().Quote(promoCode, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, app_error.ErrUsageExhausted)
}

func TestValidateLooksUpCaseInsensitively(t *testing.T) {
	defer TearDown()
	promoCodeService := NewPromoCodeService(db, auth.NewPermissionPolicy())
	promoCodeService.now = fixedClock

	admin := createTestUser(t, "admin", repository.PermissionAdmin)
	_, err := promoCodeService.SavePromoCode(testPromoCode(), admin)
	assert.NoError(t, err)

	quote, err := promoCodeService.Validate("summer20", decimal.NewFromInt(250))
	assert.NoError(t, err)
	assert.Equal(t, "SUMMER20", quote.Code)

	_, err = promoCodeService.Validate("NOSUCHCODE", decimal.NewFromInt(250))
	assert.ErrorIs(t, err, app_error.ErrNotFound)

	// validation never consumes the code
	stored, err := promoCodeService.promoCodeRepository.GetPromoCodeByCode("SUMMER20")
	assert.NoError(t, err)
	assert.Equal(t, 0, stored.UsedCount)
}
