package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type Permission = string

const (
	PermissionAdmin Permission = "admin"
)

type User struct {
	Id            int            `gorm:"primaryKey"`
	Email         string         `gorm:"uniqueIndex;not null"`
	DisplayName   string         `gorm:"not null"`
	DiscordId     string         `gorm:"null"`
	PointsBalance int            `gorm:"not null;default:0"`
	Permissions   pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt     time.Time      `gorm:"not null"`
}

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) GetUserById(userId int) (*User, error) {
	var user User
	result := r.DB.First(&user, userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with id %d not found", userId)
		}
		return nil, result.Error
	}
	return &user, nil
}

func (r *UserRepository) GetUserByDiscordId(discordId string) (*User, error) {
	var user User
	result := r.DB.First(&user, "discord_id = ?", discordId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *UserRepository) GetAllUsers() ([]*User, error) {
	var users []*User
	result := r.DB.Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}

func (r *UserRepository) SaveUser(user *User) (*User, error) {
	result := r.DB.Save(user)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save user: %v", result.Error)
	}
	return user, nil
}

// GetRankedUsers returns all users without the admin permission, ordered by
// balance descending with user id as the deterministic tie break.
func (r *UserRepository) GetRankedUsers() ([]*User, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("GetRankedUsers"))
	defer timer.ObserveDuration()
	var users []*User
	result := r.DB.
		Where("NOT ? = ANY(permissions)", PermissionAdmin).
		Order("points_balance DESC, id ASC").
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}

// ResetPoints zeroes every balance. Admin-only maintenance operation.
func (r *UserRepository) ResetPoints() error {
	return r.DB.Model(&User{}).Where("1 = 1").Update("points_balance", 0).Error
}
