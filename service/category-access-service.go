package service

import (
	"time"

	"questboard/app_error"
	"questboard/auth"
	"questboard/repository"

	"gorm.io/gorm"
)

type CategoryAccessService struct {
	categoryRepository *repository.CategoryRepository
	authorizer         auth.Authorizer
}

func NewCategoryAccessService(db *gorm.DB, authorizer auth.Authorizer) *CategoryAccessService {
	return &CategoryAccessService{
		categoryRepository: repository.NewCategoryRepository(db),
		authorizer:         authorizer,
	}
}

func (s *CategoryAccessService) GetCategoryById(id int) (*repository.Category, error) {
	category, err := s.categoryRepository.GetCategoryById(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, app_error.ErrNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *CategoryAccessService) GetAllCategories() ([]*repository.Category, error) {
	return s.categoryRepository.GetAllCategories()
}

func (s *CategoryAccessService) SaveCategory(category *repository.Category, actor *repository.User) (*repository.Category, error) {
	if !s.authorizer.CanModerate(actor) {
		return nil, app_error.ErrUnauthorized
	}
	return s.categoryRepository.SaveCategory(category)
}

func (s *CategoryAccessService) DeleteCategory(categoryId int, actor *repository.User) error {
	if !s.authorizer.CanModerate(actor) {
		return app_error.ErrUnauthorized
	}
	if _, err := s.GetCategoryById(categoryId); err != nil {
		return err
	}
	return s.categoryRepository.DeleteCategory(categoryId)
}

// GrantAccess is an idempotent upsert. A second grant for the same pair
// succeeds without creating a duplicate or moving the original grant time.
func (s *CategoryAccessService) GrantAccess(userId int, categoryId int) error {
	if _, err := s.GetCategoryById(categoryId); err != nil {
		return err
	}
	return s.categoryRepository.UpsertAccess(&repository.CategoryAccess{
		UserId:          userId,
		CategoryId:      categoryId,
		AccessGranted:   true,
		AccessGrantedAt: time.Now(),
	})
}

// CheckAccess returns true iff an effective grant exists. A missing row and a
// row with access_granted = false are equivalent from the caller's view.
func (s *CategoryAccessService) CheckAccess(userId int, categoryId int) (bool, error) {
	access, err := s.categoryRepository.GetAccess(userId, categoryId)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return access.AccessGranted, nil
}

// BulkCheckAccess resolves access for several categories at once. Every
// requested category id gets an entry, absent grants report false.
func (s *CategoryAccessService) BulkCheckAccess(userId int, categoryIds []int) (map[int]bool, error) {
	accesses, err := s.categoryRepository.GetAccessForUser(userId)
	if err != nil {
		return nil, err
	}
	granted := make(map[int]bool, len(accesses))
	for _, access := range accesses {
		granted[access.CategoryId] = access.AccessGranted
	}
	result := make(map[int]bool, len(categoryIds))
	for _, categoryId := range categoryIds {
		result[categoryId] = granted[categoryId]
	}
	return result, nil
}
