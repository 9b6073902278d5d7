package controller

import (
	"questboard/auth"
	"questboard/config"
	"questboard/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OauthController struct {
	oauthService *service.OauthService
}

func NewOauthController(db *gorm.DB, authorizer auth.Authorizer) *OauthController {
	return &OauthController{
		oauthService: service.NewOauthService(db, authorizer),
	}
}

func setupOauthController(db *gorm.DB, authorizer auth.Authorizer) []RouteInfo {
	e := NewOauthController(db, authorizer)
	baseUrl := "/oauth"
	routes := []RouteInfo{
		{Method: "GET", Path: "/discord", HandlerFunc: e.discordLoginHandler()},
		{Method: "GET", Path: "/discord/redirect", HandlerFunc: e.discordCallbackHandler()},
	}
	for i, route := range routes {
		routes[i].Path = baseUrl + route.Path
	}
	return routes
}

// @id DiscordLogin
// @Description Redirects to the discord oauth consent screen
// @Tags oauth
// @Param redirect query string false "Frontend path to return to after login"
// @Success 302
// @Router /oauth/discord [get]
func (e *OauthController) discordLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		redirect := c.Query("redirect")
		c.Redirect(302, e.oauthService.GetRedirectUrl(redirect))
	}
}

// @id DiscordCallback
// @Description Finishes the discord login flow and sets the session cookie
// @Tags oauth
// @Param state query string true "Oauth state"
// @Param code query string true "Oauth code"
// @Success 302
// @Router /oauth/discord/redirect [get]
func (e *OauthController) discordCallbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, redirect, err := e.oauthService.HandleCallback(c.Request.Context(), c.Query("state"), c.Query("code"))
		if err != nil {
			c.JSON(401, gin.H{"error": err.Error()})
			return
		}
		secure := config.IsProduction()
		c.SetCookie("auth", token, 60*60*24*21, "/", "", secure, true)
		if redirect == "" {
			redirect = "/"
		}
		c.Redirect(302, redirect)
	}
}
