package controller

import (
	"strconv"
	"strings"

	"questboard/app_error"
	"questboard/auth"
	"questboard/repository"
	"questboard/service"
	"questboard/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryController struct {
	categoryAccessService *service.CategoryAccessService
	userService           *service.UserService
}

func NewCategoryController(db *gorm.DB, authorizer auth.Authorizer) *CategoryController {
	return &CategoryController{
		categoryAccessService: service.NewCategoryAccessService(db, authorizer),
		userService:           service.NewUserService(db, authorizer),
	}
}

func setupCategoryController(db *gorm.DB, authorizer auth.Authorizer) []RouteInfo {
	e := NewCategoryController(db, authorizer)
	routes := []RouteInfo{
		{Method: "GET", Path: "/categories", HandlerFunc: e.getCategoriesHandler()},
		{Method: "PUT", Path: "/categories", HandlerFunc: e.saveCategoryHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
		{Method: "DELETE", Path: "/categories/:category_id", HandlerFunc: e.deleteCategoryHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
		{Method: "POST", Path: "/categories/:category_id/access/:user_id", HandlerFunc: e.grantAccessHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
		{Method: "GET", Path: "/categories/:category_id/access", HandlerFunc: e.checkAccessHandler(), Authenticated: true},
		{Method: "GET", Path: "/users/self/category-access", HandlerFunc: e.bulkCheckAccessHandler(), Authenticated: true},
	}
	return routes
}

// @id GetCategories
// @Description Fetches all paid content categories
// @Tags category
// @Produce json
// @Success 200 {array} Category
// @Router /categories [get]
func (e *CategoryController) getCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := e.categoryAccessService.GetAllCategories()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(categories, toCategoryResponse))
	}
}

// @id SaveCategory
// @Description Creates or updates a category
// @Tags category
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CategoryCreate true "Category to create"
// @Success 201 {object} Category
// @Router /categories [put]
func (e *CategoryController) saveCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var categoryCreate CategoryCreate
		if err := c.BindJSON(&categoryCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		category, err := e.categoryAccessService.SaveCategory(categoryCreate.toModel(), user)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toCategoryResponse(category))
	}
}

// @id DeleteCategory
// @Description Deletes a category and its access grants
// @Tags category
// @Produce json
// @Security BearerAuth
// @Param category_id path int true "Category Id"
// @Success 204
// @Router /categories/{category_id} [delete]
func (e *CategoryController) deleteCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		if err := e.categoryAccessService.DeleteCategory(categoryId, user); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

// @id GrantCategoryAccess
// @Description Grants a user access to a category. Called by the payment
// @Description completion flow, granting twice is a no-op.
// @Tags category
// @Produce json
// @Security BearerAuth
// @Param category_id path int true "Category Id"
// @Param user_id path int true "User Id"
// @Success 201 {object} CategoryAccess
// @Router /categories/{category_id}/access/{user_id} [post]
func (e *CategoryController) grantAccessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.categoryAccessService.GrantAccess(userId, categoryId); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, CategoryAccess{UserId: userId, CategoryId: categoryId, AccessGranted: true})
	}
}

// @id CheckCategoryAccess
// @Description Checks whether the calling user has access to a category
// @Tags category
// @Produce json
// @Security BearerAuth
// @Param category_id path int true "Category Id"
// @Success 200 {object} CategoryAccess
// @Router /categories/{category_id}/access [get]
func (e *CategoryController) checkAccessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		granted, err := e.categoryAccessService.CheckAccess(user.Id, categoryId)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, CategoryAccess{UserId: user.Id, CategoryId: categoryId, AccessGranted: granted})
	}
}

// @id BulkCheckCategoryAccess
// @Description Checks the calling user's access for several categories at once
// @Tags category
// @Produce json
// @Security BearerAuth
// @Param category_ids query string true "Comma separated category ids"
// @Success 200 {object} map[int]bool
// @Router /users/self/category-access [get]
func (e *CategoryController) bulkCheckAccessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		categoryIds := make([]int, 0)
		for _, raw := range strings.Split(c.Query("category_ids"), ",") {
			if raw == "" {
				continue
			}
			categoryId, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
			categoryIds = append(categoryIds, categoryId)
		}
		access, err := e.categoryAccessService.BulkCheckAccess(user.Id, categoryIds)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, access)
	}
}

type CategoryCreate struct {
	Id          *int   `json:"id"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (e *CategoryCreate) toModel() *repository.Category {
	category := &repository.Category{
		Name:        e.Name,
		Description: e.Description,
	}
	if e.Id != nil {
		category.Id = *e.Id
	}
	return category
}

type Category struct {
	Id          int    `json:"id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CategoryAccess struct {
	UserId        int  `json:"user_id" binding:"required"`
	CategoryId    int  `json:"category_id" binding:"required"`
	AccessGranted bool `json:"access_granted"`
}

func toCategoryResponse(category *repository.Category) *Category {
	return &Category{
		Id:          category.Id,
		Name:        category.Name,
		Description: category.Description,
	}
}
