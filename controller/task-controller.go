package controller

import (
	"strconv"
	"time"

	"questboard/auth"
	"questboard/app_error"
	"questboard/repository"
	"questboard/service"
	"questboard/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskController struct {
	taskService *service.TaskService
	userService *service.UserService
}

func NewTaskController(db *gorm.DB, authorizer auth.Authorizer) *TaskController {
	return &TaskController{
		taskService: service.NewTaskService(db, authorizer),
		userService: service.NewUserService(db, authorizer),
	}
}

func setupTaskController(db *gorm.DB, authorizer auth.Authorizer) []RouteInfo {
	e := NewTaskController(db, authorizer)
	baseUrl := "/tasks"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getTasksHandler()},
		{Method: "GET", Path: "/all", HandlerFunc: e.getAllTasksHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
		{Method: "GET", Path: "/:task_id", HandlerFunc: e.getTaskHandler()},
		{Method: "PUT", Path: "", HandlerFunc: e.saveTaskHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
		{Method: "DELETE", Path: "/:task_id", HandlerFunc: e.deleteTaskHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
		{Method: "DELETE", Path: "/:task_id/submissions", HandlerFunc: e.deleteTaskSubmissionsHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
	}
	for i, route := range routes {
		routes[i].Path = baseUrl + route.Path
	}
	return routes
}

// @id GetTasks
// @Description Fetches all published tasks
// @Tags task
// @Produce json
// @Success 200 {array} Task
// @Router /tasks [get]
func (e *TaskController) getTasksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := e.taskService.GetPublishedTasks()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(tasks, toTaskResponse))
	}
}

// @id GetAllTasks
// @Description Fetches all tasks including drafts
// @Tags task
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Task
// @Router /tasks/all [get]
func (e *TaskController) getAllTasksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := e.taskService.GetAllTasks()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(tasks, toTaskResponse))
	}
}

// @id GetTask
// @Description Fetches a task by id
// @Tags task
// @Produce json
// @Param task_id path int true "Task Id"
// @Success 200 {object} Task
// @Router /tasks/{task_id} [get]
func (e *TaskController) getTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskId, err := strconv.Atoi(c.Param("task_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		task, err := e.taskService.GetTaskById(taskId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toTaskResponse(task))
	}
}

// @id SaveTask
// @Description Creates or updates a task
// @Tags task
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TaskCreate true "Task to create"
// @Success 201 {object} Task
// @Router /tasks [put]
func (e *TaskController) saveTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var taskCreate TaskCreate
		if err := c.BindJSON(&taskCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		task, err := e.taskService.SaveTask(taskCreate.toModel(), user)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toTaskResponse(task))
	}
}

// @id DeleteTask
// @Description Deletes a task and all its submissions. Points already awarded are kept.
// @Tags task
// @Produce json
// @Security BearerAuth
// @Param task_id path int true "Task Id"
// @Success 204
// @Router /tasks/{task_id} [delete]
func (e *TaskController) deleteTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskId, err := strconv.Atoi(c.Param("task_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		if err := e.taskService.DeleteTask(taskId, user); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

// @id DeleteTaskSubmissions
// @Description Deletes all submissions for a task
// @Tags task
// @Produce json
// @Security BearerAuth
// @Param task_id path int true "Task Id"
// @Success 204
// @Router /tasks/{task_id}/submissions [delete]
func (e *TaskController) deleteTaskSubmissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskId, err := strconv.Atoi(c.Param("task_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		if err := e.taskService.DeleteSubmissionsForTask(taskId, user); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

type TaskCreate struct {
	Id          *int                  `json:"id"`
	Title       string                `json:"title" binding:"required"`
	Description string                `json:"description"`
	PointValue  int                   `json:"point_value" binding:"gte=0"`
	Status      repository.TaskStatus `json:"status" binding:"required,oneof=DRAFT PUBLISHED"`
}

func (t *TaskCreate) toModel() *repository.Task {
	task := &repository.Task{
		Title:       t.Title,
		Description: t.Description,
		PointValue:  t.PointValue,
		Status:      t.Status,
	}
	if t.Id != nil {
		task.Id = *t.Id
	}
	return task
}

type Task struct {
	Id          int                   `json:"id" binding:"required"`
	Title       string                `json:"title" binding:"required"`
	Description string                `json:"description"`
	PointValue  int                   `json:"point_value" binding:"required"`
	Status      repository.TaskStatus `json:"status" binding:"required"`
	CreatedAt   time.Time             `json:"created_at"`
}

func toTaskResponse(task *repository.Task) *Task {
	if task == nil {
		return nil
	}
	return &Task{
		Id:          task.Id,
		Title:       task.Title,
		Description: task.Description,
		PointValue:  task.PointValue,
		Status:      task.Status,
		CreatedAt:   task.CreatedAt,
	}
}
