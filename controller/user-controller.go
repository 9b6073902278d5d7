package controller

import (
	"strconv"

	"questboard/app_error"
	"questboard/auth"
	"questboard/repository"
	"questboard/service"
	"questboard/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	userService *service.UserService
}

func NewUserController(db *gorm.DB, authorizer auth.Authorizer) *UserController {
	return &UserController{
		userService: service.NewUserService(db, authorizer),
	}
}

func setupUserController(db *gorm.DB, authorizer auth.Authorizer) []RouteInfo {
	e := NewUserController(db, authorizer)
	routes := []RouteInfo{
		{Method: "GET", Path: "/users", HandlerFunc: e.getAllUsersHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
		{Method: "GET", Path: "/users/self", HandlerFunc: e.getUserHandler(), Authenticated: true},
		{Method: "GET", Path: "/users/:user_id", HandlerFunc: e.getUserByIdHandler()},
		{Method: "PATCH", Path: "/users/:user_id/permissions", HandlerFunc: e.changePermissionsHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
		{Method: "POST", Path: "/users/reset-points", HandlerFunc: e.resetPointsHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
	}
	return routes
}

// @id GetAllUsers
// @Description Fetches all users
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {array} User
// @Router /users [get]
func (e *UserController) getAllUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := e.userService.GetAllUsers()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(users, toUserResponse))
	}
}

// @id GetUserSelf
// @Description Fetches the calling user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} User
// @Router /users/self [get]
func (e *UserController) getUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		c.JSON(200, toUserResponse(user))
	}
}

// @id GetUser
// @Description Fetches a user by id
// @Tags user
// @Produce json
// @Param user_id path int true "User Id"
// @Success 200 {object} NonSensitiveUser
// @Router /users/{user_id} [get]
func (e *UserController) getUserByIdHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserById(userId)
		if err != nil {
			c.JSON(404, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, toNonSensitiveUserResponse(user))
	}
}

// @id ChangePermissions
// @Description Changes a user's permissions
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user_id path int true "User Id"
// @Param body body PermissionsUpdate true "Permissions to set"
// @Success 200 {object} User
// @Router /users/{user_id}/permissions [patch]
func (e *UserController) changePermissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var update PermissionsUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		actor, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		user, err := e.userService.ChangePermissions(actor, userId, update.Permissions)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toUserResponse(user))
	}
}

// @id ResetPoints
// @Description Resets all point balances to zero
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 204
// @Router /users/reset-points [post]
func (e *UserController) resetPointsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		if err := e.userService.ResetPoints(actor); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

type PermissionsUpdate struct {
	Permissions []repository.Permission `json:"permissions" binding:"required"`
}

type User struct {
	Id            int      `json:"id" binding:"required"`
	Email         string   `json:"email" binding:"required"`
	DisplayName   string   `json:"display_name" binding:"required"`
	PointsBalance int      `json:"points_balance"`
	Permissions   []string `json:"permissions" binding:"required"`
}

type NonSensitiveUser struct {
	Id            int    `json:"id" binding:"required"`
	DisplayName   string `json:"display_name" binding:"required"`
	PointsBalance int    `json:"points_balance"`
}

func toUserResponse(user *repository.User) *User {
	return &User{
		Id:            user.Id,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		PointsBalance: user.PointsBalance,
		Permissions:   user.Permissions,
	}
}

func toNonSensitiveUserResponse(user *repository.User) *NonSensitiveUser {
	if user == nil {
		return nil
	}
	return &NonSensitiveUser{
		Id:            user.Id,
		DisplayName:   user.DisplayName,
		PointsBalance: user.PointsBalance,
	}
}
