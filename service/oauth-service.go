package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"questboard/auth"
	"questboard/config"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const discordUserURL = "https://discord.com/api/users/@me"

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

type OauthState struct {
	Timeout  int64
	Redirect string
}

type OauthService struct {
	oauthConfig *oauth2.Config
	stateMap    map[string]OauthState
	mu          sync.Mutex
	userService *UserService
}

type DiscordUserResponse struct {
	Id         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
}

func NewOauthService(db *gorm.DB, authorizer auth.Authorizer) *OauthService {
	cfg := config.Env()
	return &OauthService{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint:     discordEndpoint,
		},
		stateMap:    make(map[string]OauthState),
		userService: NewUserService(db, authorizer),
	}
}

const stateChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomState() string {
	state := make([]byte, 32)
	for i := range state {
		state[i] = stateChars[rand.Intn(len(stateChars))]
	}
	return string(state)
}

// GetRedirectUrl starts a login flow and returns the provider authorize url.
func (s *OauthService) GetRedirectUrl(redirect string) string {
	state := randomState()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range s.stateMap {
		if value.Timeout < time.Now().Unix() {
			delete(s.stateMap, key)
		}
	}
	s.stateMap[state] = OauthState{
		Timeout:  time.Now().Add(5 * time.Minute).Unix(),
		Redirect: redirect,
	}
	return s.oauthConfig.AuthCodeURL(state)
}

// HandleCallback finishes the login flow, creating the user on first login and
// returning a signed token for the session cookie.
func (s *OauthService) HandleCallback(ctx context.Context, state string, code string) (token string, redirect string, err error) {
	s.mu.Lock()
	oauthState, ok := s.stateMap[state]
	delete(s.stateMap, state)
	s.mu.Unlock()
	if !ok || oauthState.Timeout < time.Now().Unix() {
		return "", "", fmt.Errorf("invalid or expired oauth state")
	}

	oauthToken, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", "", err
	}
	discordUser, err := s.fetchDiscordUser(ctx, oauthToken)
	if err != nil {
		return "", "", err
	}
	displayName := discordUser.GlobalName
	if displayName == "" {
		displayName = discordUser.Username
	}
	user, err := s.userService.GetOrCreateUserByDiscord(discordUser.Id, discordUser.Email, displayName)
	if err != nil {
		return "", "", err
	}
	token, err = auth.CreateToken(user)
	if err != nil {
		return "", "", err
	}
	return token, oauthState.Redirect, nil
}

func (s *OauthService) fetchDiscordUser(ctx context.Context, token *oauth2.Token) (*DiscordUserResponse, error) {
	httpClient := s.oauthConfig.Client(ctx, token)
	resp, err := httpClient.Get(discordUserURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord identity request failed with status %d", resp.StatusCode)
	}
	discordUser := &DiscordUserResponse{}
	if err := json.NewDecoder(resp.Body).Decode(discordUser); err != nil {
		return nil, err
	}
	return discordUser, nil
}
