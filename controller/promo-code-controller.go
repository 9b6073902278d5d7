package controller

import (
	"time"

	"questboard/app_error"
	"questboard/auth"
	"questboard/repository"
	"questboard/service"
	"questboard/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PromoCodeController struct {
	promoCodeService *service.PromoCodeService
	userService      *service.UserService
}

func NewPromoCodeController(db *gorm.DB, authorizer auth.Authorizer) *PromoCodeController {
	return &PromoCodeController{
		promoCodeService: service.NewPromoCodeService(db, authorizer),
		userService:      service.NewUserService(db, authorizer),
	}
}

func setupPromoCodeController(db *gorm.DB, authorizer auth.Authorizer) []RouteInfo {
	e := NewPromoCodeController(db, authorizer)
	baseUrl := "/promo-codes"
	routes := []RouteInfo{
		{Method: "POST", Path: "/validate", HandlerFunc: e.validatePromoCodeHandler()},
		{Method: "GET", Path: "", HandlerFunc: e.getPromoCodesHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
		{Method: "PUT", Path: "", HandlerFunc: e.savePromoCodeHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
		{Method: "DELETE", Path: "/:code", HandlerFunc: e.deletePromoCodeHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
	}
	for i, route := range routes {
		routes[i].Path = baseUrl + route.Path
	}
	return routes
}

// @id ValidatePromoCode
// @Description Computes the discount quote for a code and amount. Does not
// @Description consume the code, usage is only counted on payment completion.
// @Tags promo-code
// @Accept json
// @Produce json
// @Param body body PromoCodeValidation true "Code and amount to validate"
// @Success 200 {object} PromoQuote
// @Router /promo-codes/validate [post]
func (e *PromoCodeController) validatePromoCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var validation PromoCodeValidation
		if err := c.BindJSON(&validation); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		quote, err := e.promoCodeService.Validate(validation.Code, validation.Amount)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toPromoQuoteResponse(quote))
	}
}

// @id GetPromoCodes
// @Description Fetches all promo codes
// @Tags promo-code
// @Produce json
// @Security BearerAuth
// @Success 200 {array} PromoCode
// @Router /promo-codes [get]
func (e *PromoCodeController) getPromoCodesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		promoCodes, err := e.promoCodeService.GetAllPromoCodes(user)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(promoCodes, toPromoCodeResponse))
	}
}

// @id SavePromoCode
// @Description Creates or updates a promo code
// @Tags promo-code
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PromoCodeCreate true "Promo code to create"
// @Success 201 {object} PromoCode
// @Router /promo-codes [put]
func (e *PromoCodeController) savePromoCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var promoCodeCreate PromoCodeCreate
		if err := c.BindJSON(&promoCodeCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		promoCode, err := e.promoCodeService.SavePromoCode(promoCodeCreate.toModel(), user)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toPromoCodeResponse(promoCode))
	}
}

// @id DeletePromoCode
// @Description Deletes a promo code
// @Tags promo-code
// @Produce json
// @Security BearerAuth
// @Param code path string true "Promo code"
// @Success 204
// @Router /promo-codes/{code} [delete]
func (e *PromoCodeController) deletePromoCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		if err := e.promoCodeService.DeletePromoCode(c.Param("code"), user); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

type PromoCodeValidation struct {
	Code   string          `json:"code" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type PromoCodeCreate struct {
	Id            *int             `json:"id"`
	Code          string           `json:"code" binding:"required"`
	Description   string           `json:"description"`
	DiscountType  string           `json:"discount_type" binding:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue decimal.Decimal  `json:"discount_value" binding:"required"`
	MinAmount     *decimal.Decimal `json:"min_amount"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	ValidFrom     time.Time        `json:"valid_from" binding:"required"`
	ValidUntil    time.Time        `json:"valid_until" binding:"required"`
	UsageLimit    *int             `json:"usage_limit"`
	IsActive      bool             `json:"is_active"`
}

func (p *PromoCodeCreate) toModel() *repository.PromoCode {
	promoCode := &repository.PromoCode{
		Code:          p.Code,
		Description:   p.Description,
		DiscountType:  p.DiscountType,
		DiscountValue: p.DiscountValue,
		MinAmount:     p.MinAmount,
		MaxDiscount:   p.MaxDiscount,
		ValidFrom:     p.ValidFrom,
		ValidUntil:    p.ValidUntil,
		UsageLimit:    p.UsageLimit,
		IsActive:      p.IsActive,
	}
	if p.Id != nil {
		promoCode.Id = *p.Id
	}
	return promoCode
}

type PromoCode struct {
	Id            int              `json:"id" binding:"required"`
	Code          string           `json:"code" binding:"required"`
	Description   string           `json:"description"`
	DiscountType  string           `json:"discount_type" binding:"required"`
	DiscountValue decimal.Decimal  `json:"discount_value" binding:"required"`
	MinAmount     *decimal.Decimal `json:"min_amount"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	ValidFrom     time.Time        `json:"valid_from" binding:"required"`
	ValidUntil    time.Time        `json:"valid_until" binding:"required"`
	UsageLimit    *int             `json:"usage_limit"`
	UsedCount     int              `json:"used_count"`
	IsActive      bool             `json:"is_active"`
}

func toPromoCodeResponse(promoCode *repository.PromoCode) *PromoCode {
	return &PromoCode{
		Id:            promoCode.Id,
		Code:          promoCode.Code,
		Description:   promoCode.Description,
		DiscountType:  promoCode.DiscountType,
		DiscountValue: promoCode.DiscountValue,
		MinAmount:     promoCode.MinAmount,
		MaxDiscount:   promoCode.MaxDiscount,
		ValidFrom:     promoCode.ValidFrom,
		ValidUntil:    promoCode.ValidUntil,
		UsageLimit:    promoCode.UsageLimit,
		UsedCount:     promoCode.UsedCount,
		IsActive:      promoCode.IsActive,
	}
}

type PromoQuote struct {
	Code         string          `json:"code" binding:"required"`
	Description  string          `json:"description"`
	DiscountType string          `json:"discount_type" binding:"required"`
	Discount     decimal.Decimal `json:"discount" binding:"required"`
	FinalAmount  decimal.Decimal `json:"final_amount" binding:"required"`
}

func toPromoQuoteResponse(quote *service.PromoQuote) *PromoQuote {
	return &PromoQuote{
		Code:         quote.Code,
		Description:  quote.Description,
		DiscountType: quote.DiscountType,
		Discount:     quote.Discount,
		FinalAmount:  quote.FinalAmount,
	}
}
