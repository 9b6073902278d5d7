package service

import (
	"questboard/repository"

	"gorm.io/gorm"
)

type LeaderboardService struct {
	userRepository *repository.UserRepository
}

type LeaderboardEntry struct {
	Rank          int
	UserId        int
	DisplayName   string
	PointsBalance int
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{
		userRepository: repository.NewUserRepository(db),
	}
}

// GetLeaderboard recomputes the ranking from current balances on every call.
// Administrator accounts are excluded. Ties share the same balance but are
// ordered by user id, so the projection is deterministic.
func (s *LeaderboardService) GetLeaderboard() ([]*LeaderboardEntry, error) {
	users, err := s.userRepository.GetRankedUsers()
	if err != nil {
		return nil, err
	}
	entries := make([]*LeaderboardEntry, 0, len(users))
	rank := 0
	previousBalance := -1
	for i, user := range users {
		// users on the same balance share a rank
		if user.PointsBalance != previousBalance {
			rank = i + 1
			previousBalance = user.PointsBalance
		}
		entries = append(entries, &LeaderboardEntry{
			Rank:          rank,
			UserId:        user.Id,
			DisplayName:   user.DisplayName,
			PointsBalance: user.PointsBalance,
		})
	}
	return entries, nil
}
