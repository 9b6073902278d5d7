package service

import (
	"fmt"

	"questboard/app_error"
	"questboard/auth"
	"questboard/repository"

	"gorm.io/gorm"
)

type TaskService struct {
	taskRepository *repository.TaskRepository
	authorizer     auth.Authorizer
}

func NewTaskService(db *gorm.DB, authorizer auth.Authorizer) *TaskService {
	return &TaskService{
		taskRepository: repository.NewTaskRepository(db),
		authorizer:     authorizer,
	}
}

func (s *TaskService) GetTaskById(id int) (*repository.Task, error) {
	task, err := s.taskRepository.GetTaskById(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, app_error.ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

// GetPublishedTasks lists the tasks open for submissions.
func (s *TaskService) GetPublishedTasks() ([]*repository.Task, error) {
	return s.taskRepository.GetTasks(repository.TaskPublished)
}

func (s *TaskService) GetAllTasks() ([]*repository.Task, error) {
	return s.taskRepository.GetTasks()
}

// SaveTask creates or updates a task. The point value of a task that already
// has submissions is frozen, there is no revaluation path for awarded points.
func (s *TaskService) SaveTask(task *repository.Task, actor *repository.User) (*repository.Task, error) {
	if !s.authorizer.CanModerate(actor) {
		return nil, app_error.ErrUnauthorized
	}
	if task.PointValue < 0 {
		return nil, fmt.Errorf("point value must not be negative")
	}
	if task.Id != 0 {
		existing, err := s.taskRepository.GetTaskById(task.Id)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, app_error.ErrNotFound
			}
			return nil, err
		}
		if existing.PointValue != task.PointValue {
			hasSubmissions, err := s.taskRepository.HasSubmissions(task.Id)
			if err != nil {
				return nil, err
			}
			if hasSubmissions {
				return nil, fmt.Errorf("point value cannot change once the task has submissions")
			}
		}
		task.CreatedAt = existing.CreatedAt
	}
	return s.taskRepository.SaveTask(task)
}

// DeleteTask cascades to the task's submissions. Already awarded points stay,
// the catalog is not a ledger and deleting it does not rewrite history.
func (s *TaskService) DeleteTask(taskId int, actor *repository.User) error {
	if !s.authorizer.CanModerate(actor) {
		return app_error.ErrUnauthorized
	}
	if _, err := s.GetTaskById(taskId); err != nil {
		return err
	}
	return s.taskRepository.DeleteTask(taskId)
}

// DeleteSubmissionsForTask clears all submissions of a task without deleting
// the task itself.
func (s *TaskService) DeleteSubmissionsForTask(taskId int, actor *repository.User) error {
	if !s.authorizer.CanModerate(actor) {
		return app_error.ErrUnauthorized
	}
	if _, err := s.GetTaskById(taskId); err != nil {
		return err
	}
	return repository.NewSubmissionRepository(s.taskRepository.DB).DeleteSubmissionsForTask(taskId)
}
