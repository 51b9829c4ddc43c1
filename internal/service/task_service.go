package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/events"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

var ErrTaskNotFound = errors.New("task not found")

type CreateTaskDTO struct {
	Title       string
	Description *string
	Priority    model.Priority
	DueDate     *time.Time
}

type TaskService interface {
	CreateTask(ctx context.Context, userID uuid.UUID, dto CreateTaskDTO) (*model.Task, error)
	GetTask(ctx context.Context, id, userID uuid.UUID) (*model.Task, error)
	ListTasks(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	UpdateTask(ctx context.Context, id, userID uuid.UUID, update repository.TaskUpdate) (*model.Task, error)
	DeleteTask(ctx context.Context, id, userID uuid.UUID) error
}

type taskService struct {
	taskRepo  repository.TaskRepository
	publisher events.EventPublisher
}

func NewTaskService(taskRepo repository.TaskRepository, publisher events.EventPublisher) TaskService {
	return &taskService{taskRepo: taskRepo, publisher: publisher}
}

func (s *taskService) CreateTask(ctx context.Context, userID uuid.UUID, dto CreateTaskDTO) (*model.Task, error) {
	priority := dto.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	task := &model.Task{
		Title:       dto.Title,
		Description: dto.Description,
		Priority:    priority,
		DueDate:     dto.DueDate,
		UserID:      userID,
	}

	return s.taskRepo.Create(ctx, task)
}

func (s *taskService) GetTask(ctx context.Context, id, userID uuid.UUID) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}

		return nil, err
	}

	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	return s.taskRepo.ListByUser(ctx, userID)
}

func (s *taskService) UpdateTask(ctx context.Context, id, userID uuid.UUID, update repository.TaskUpdate) (*model.Task, error) {
	before, err := s.GetTask(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, id, userID, update); err != nil {
		return nil, err
	}

	after, err := s.taskRepo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if !before.Completed && after.Completed {
		if err := s.publisher.PublishTaskCompleted(after); err != nil {
			log.Printf("Failed to publish task.completed for task %s: %v", after.ID, err)
		}
	}

	return after, nil
}

func (s *taskService) DeleteTask(ctx context.Context, id, userID uuid.UUID) error {
	deleted, err := s.taskRepo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrTaskNotFound
	}

	return nil
}
