package controller

import (
	"questboard/auth"
	"questboard/repository"
	"questboard/utils"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RouteInfo struct {
	Method              string
	Path                string
	HandlerFunc         gin.HandlerFunc
	Authenticated       bool
	RequiredPermissions []repository.Permission
}

func SetRoutes(r *gin.Engine, db *gorm.DB, cacheStore persistence.CacheStore) {
	authorizer := auth.NewPermissionPolicy()
	leaderboardController := NewLeaderboardController(db, cacheStore)

	routes := make([]RouteInfo, 0)
	routes = append(routes, setupTaskController(db, authorizer)...)
	routes = append(routes, setupSubmissionController(db, authorizer, leaderboardController)...)
	routes = append(routes, setupLeaderboardController(leaderboardController)...)
	routes = append(routes, setupPromoCodeController(db, authorizer)...)
	routes = append(routes, setupCategoryController(db, authorizer)...)
	routes = append(routes, setupUserController(db, authorizer)...)
	routes = append(routes, setupOauthController(db, authorizer)...)
	for _, route := range routes {
		handlerfuncs := make([]gin.HandlerFunc, 0)
		if route.Authenticated || len(route.RequiredPermissions) > 0 {
			handlerfuncs = append(handlerfuncs, AuthMiddleware(route.RequiredPermissions))
		}
		handlerfuncs = append(handlerfuncs, route.HandlerFunc)
		r.Handle(route.Method, "/api"+route.Path, handlerfuncs...)
	}
}

func tokenFromRequest(c *gin.Context) (string, bool) {
	if cookie, err := c.Cookie("auth"); err == nil && cookie != "" {
		return cookie, true
	}
	authHeader := c.Request.Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:], true
	}
	return "", false
}

// AuthMiddleware rejects unauthenticated requests and requests whose token
// claims lack all of the required permissions. Services still re-check the
// moderation gate against the stored user before mutating anything.
func AuthMiddleware(permissions []repository.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := tokenFromRequest(c)
		if !ok {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			c.Abort()
			return
		}
		token, err := auth.ParseToken(tokenString)
		if err != nil || !token.Valid {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			c.Abort()
			return
		}
		claims := &auth.Claims{}
		claims.FromJWTClaims(token.Claims)
		if err := claims.Valid(); err != nil {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			c.Abort()
			return
		}
		if len(permissions) == 0 {
			c.Next()
			return
		}
		for _, required := range permissions {
			if utils.Contains(claims.Permissions, required) {
				c.Next()
				return
			}
		}
		c.JSON(403, gin.H{"error": "Unauthorized"})
		c.Abort()
	}
}
