package api

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

type TaskHandler struct {
	taskService     service.TaskService
	identityService service.IdentityService
	validate        *validator.Validate
}

func NewTaskHandler(taskService service.TaskService, identityService service.IdentityService) *TaskHandler {
	return &TaskHandler{
		taskService:     taskService,
		identityService: identityService,
		validate:        validator.New(),
	}
}

type CreateTaskRequest struct {
	Title       string         `json:"title" validate:"required,max=100"`
	Description *string        `json:"description,omitempty" validate:"omitempty,max=500"`
	Priority    model.Priority `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     *time.Time     `json:"dueDate,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string         `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=500"`
	Completed   *bool           `json:"completed,omitempty"`
	Priority    *model.Priority `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
}

// currentUser resolves the authenticated clerk id to the owning users row,
// going through the identity projection cache.
func (h *TaskHandler) currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	clerkID, err := GetClerkIDFromClaims(c)
	if err != nil {
		return uuid.Nil, err
	}

	user, err := h.identityService.CurrentUser(c.Context(), clerkID)
	if err != nil {
		return uuid.Nil, err
	}

	return user.ID, nil
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var request CreateTaskRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	task, err := h.taskService.CreateTask(c.Context(), userID, service.CreateTaskDTO{
		Title:       request.Title,
		Description: request.Description,
		Priority:    request.Priority,
		DueDate:     request.DueDate,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not create task"})
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	tasks, err := h.taskService.ListTasks(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not list tasks"})
	}

	return c.Status(fiber.StatusOK).JSON(tasks)
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID format"})
	}

	task, err := h.taskService.GetTask(c.Context(), taskID, userID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch task"})
	}

	return c.Status(fiber.StatusOK).JSON(task)
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID format"})
	}

	var request UpdateTaskRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	task, err := h.taskService.UpdateTask(c.Context(), taskID, userID, repository.TaskUpdate{
		Title:       request.Title,
		Description: request.Description,
		Completed:   request.Completed,
		Priority:    request.Priority,
		DueDate:     request.DueDate,
	})
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update task"})
	}

	return c.Status(fiber.StatusOK).JSON(task)
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID format"})
	}

	if err := h.taskService.DeleteTask(c.Context(), taskID, userID); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not delete task"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Task deleted"})
}
