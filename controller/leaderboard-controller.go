package controller

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"questboard/service"
	"questboard/utils"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

const leaderboardCacheKey = "leaderboard"
const leaderboardCacheTTL = 60 * time.Second

type LeaderboardController struct {
	leaderboardService *service.LeaderboardService
	cacheStore         persistence.CacheStore
	mu                 sync.Mutex
	connections        map[*websocket.Conn]bool
}

func NewLeaderboardController(db *gorm.DB, cacheStore persistence.CacheStore) *LeaderboardController {
	return &LeaderboardController{
		leaderboardService: service.NewLeaderboardService(db),
		cacheStore:         cacheStore,
		connections:        make(map[*websocket.Conn]bool),
	}
}

func setupLeaderboardController(e *LeaderboardController) []RouteInfo {
	baseUrl := "/leaderboard"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getLeaderboardHandler()},
		{Method: "GET", Path: "/ws", HandlerFunc: e.webSocketHandler},
	}
	for i, route := range routes {
		routes[i].Path = baseUrl + route.Path
	}
	return routes
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// allow any host origin to connect to the websocket
		return true
	},
}

// @id GetLeaderboard
// @Description Fetches the current leaderboard, ordered by points descending
// @Tags leaderboard
// @Produce json
// @Success 200 {array} LeaderboardEntry
// @Router /leaderboard [get]
func (e *LeaderboardController) getLeaderboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var cached []*LeaderboardEntry
		if err := e.cacheStore.Get(leaderboardCacheKey, &cached); err == nil {
			c.JSON(200, cached)
			return
		}
		entries, err := e.getCurrentLeaderboard()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, entries)
	}
}

// @id LeaderboardWebSocket
// @Description Websocket for leaderboard updates. Clients receive the current
// @Description leaderboard on connect and a fresh one after every approval.
// @Tags leaderboard
// @Success 200 {array} LeaderboardEntry
// @Router /leaderboard/ws [get]
func (e *LeaderboardController) webSocketHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		http.NotFound(c.Writer, c.Request)
		return
	}
	defer conn.Close()

	entries, err := e.getCurrentLeaderboard()
	if err != nil {
		return
	}
	serialized, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, serialized); err != nil {
		return
	}

	e.mu.Lock()
	e.connections[conn] = true
	e.mu.Unlock()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			e.mu.Lock()
			delete(e.connections, conn)
			e.mu.Unlock()
			return
		}
	}
}

// Refresh drops the cached leaderboard and pushes the recomputed one to all
// websocket subscribers. Called after every successful approval, so a read
// that follows an approval never sees a stale cache.
func (e *LeaderboardController) Refresh() {
	if err := e.cacheStore.Delete(leaderboardCacheKey); err != nil && err != persistence.ErrCacheMiss {
		log.Printf("failed to invalidate leaderboard cache: %v", err)
	}
	entries, err := e.getCurrentLeaderboard()
	if err != nil {
		log.Printf("failed to recompute leaderboard: %v", err)
		return
	}
	serialized, err := json.Marshal(entries)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for conn := range e.connections {
		if err := conn.WriteMessage(websocket.TextMessage, serialized); err != nil {
			delete(e.connections, conn)
			conn.Close()
		}
	}
}

func (e *LeaderboardController) getCurrentLeaderboard() ([]*LeaderboardEntry, error) {
	serviceEntries, err := e.leaderboardService.GetLeaderboard()
	if err != nil {
		return nil, err
	}
	entries := utils.Map(serviceEntries, toLeaderboardEntryResponse)
	if err := e.cacheStore.Set(leaderboardCacheKey, entries, leaderboardCacheTTL); err != nil {
		log.Printf("failed to cache leaderboard: %v", err)
	}
	return entries, nil
}

type LeaderboardEntry struct {
	Rank          int    `json:"rank" binding:"required"`
	UserId        int    `json:"user_id" binding:"required"`
	DisplayName   string `json:"display_name" binding:"required"`
	PointsBalance int    `json:"points_balance" binding:"required"`
}

func toLeaderboardEntryResponse(entry *service.LeaderboardEntry) *LeaderboardEntry {
	return &LeaderboardEntry{
		Rank:          entry.Rank,
		UserId:        entry.UserId,
		DisplayName:   entry.DisplayName,
		PointsBalance: entry.PointsBalance,
	}
}
