package service

import (
	"fmt"

	"questboard/app_error"
	"questboard/auth"
	"questboard/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type UserService struct {
	userRepository *repository.UserRepository
	authorizer     auth.Authorizer
}

func NewUserService(db *gorm.DB, authorizer auth.Authorizer) *UserService {
	return &UserService{
		userRepository: repository.NewUserRepository(db),
		authorizer:     authorizer,
	}
}

func (s *UserService) GetUserById(id int) (*repository.User, error) {
	return s.userRepository.GetUserById(id)
}

func (s *UserService) GetAllUsers() ([]*repository.User, error) {
	return s.userRepository.GetAllUsers()
}

func (s *UserService) SaveUser(user *repository.User) (*repository.User, error) {
	return s.userRepository.SaveUser(user)
}

func (s *UserService) GetOrCreateUserByDiscord(discordId string, email string, displayName string) (*repository.User, error) {
	user, err := s.userRepository.GetUserByDiscordId(discordId)
	if err == nil {
		return user, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}
	return s.userRepository.SaveUser(&repository.User{
		Email:       email,
		DisplayName: displayName,
		DiscordId:   discordId,
	})
}

func (s *UserService) GetUserFromAuthHeader(c *gin.Context) (*repository.User, error) {
	authHeader := c.Request.Header.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		authCookie, err := c.Cookie("auth")
		if err != nil {
			return nil, fmt.Errorf("authorization header is invalid")
		}
		return s.GetUserFromToken(authCookie)
	}
	return s.GetUserFromToken(authHeader[7:])
}

func (s *UserService) GetUserFromToken(tokenString string) (*repository.User, error) {
	token, err := auth.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims := &auth.Claims{}
	if token.Valid {
		claims.FromJWTClaims(token.Claims)
		if err := claims.Valid(); err != nil {
			return nil, err
		}
		return s.GetUserById(claims.UserId)
	}
	return nil, jwt.ErrInvalidKey
}

// ChangePermissions is gated, only moderators may change roles.
func (s *UserService) ChangePermissions(actor *repository.User, userId int, permissions []repository.Permission) (*repository.User, error) {
	if !s.authorizer.CanModerate(actor) {
		return nil, app_error.ErrUnauthorized
	}
	user, err := s.GetUserById(userId)
	if err != nil {
		return nil, err
	}
	user.Permissions = permissions
	return s.userRepository.SaveUser(user)
}

// ResetPoints zeroes all balances. Gated by the moderation policy.
func (s *UserService) ResetPoints(actor *repository.User) error {
	if !s.authorizer.CanModerate(actor) {
		return app_error.ErrUnauthorized
	}
	return s.userRepository.ResetPoints()
}
