package services

import (
	"context"
	"time"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/messaging"
)

// TaskService 发货任务服务
type TaskService struct {
	repo      repositories.TaskRepository
	publisher messaging.Publisher
	log       logger.Logger
	now       func() time.Time
}

// NewTaskService 创建任务服务
func NewTaskService(repo repositories.TaskRepository, publisher messaging.Publisher, log logger.Logger) *TaskService {
	return &TaskService{repo: repo, publisher: publisher, log: log, now: entities.Now}
}

// List 获取全部任务
func (s *TaskService) List(ctx context.Context) ([]entities.Task, error) {
	return s.repo.List(ctx)
}

// Get 获取单个任务
func (s *TaskService) Get(ctx context.Context, id string) (entities.Task, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 创建任务
func (s *TaskService) Create(ctx context.Context, dto entities.CreateTaskDTO) (entities.Task, error) {
	task := entities.Task{TaskFields: dto.Fields()}
	if dto.CompletedAt != nil {
		completed := dto.CompletedAt.UTC()
		task.CompletedAt = &completed
	}

	task, err := s.repo.Create(ctx, task)
	if err != nil {
		return entities.Task{}, err
	}

	s.log.InfoContext(ctx, "创建任务: id=%s, number=%s", task.ID, task.TaskNumber)
	return task, nil
}

// Update 更新任务
func (s *TaskService) Update(ctx context.Context, id string, dto entities.UpdateTaskDTO) (entities.Task, error) {
	return s.repo.Update(ctx, id, dto)
}

// Ship 按明细扣减库存并标记任务为已发货
func (s *TaskService) Ship(ctx context.Context, id string, status string) (entities.Task, error) {
	if status == "" {
		status = entities.TaskStatusShipped
	}

	task, err := s.repo.Ship(ctx, id, status)
	if err != nil {
		return entities.Task{}, err
	}

	s.log.InfoContext(ctx, "任务已发货: id=%s, status=%s", task.ID, task.Status)
	s.publish(ctx, messaging.EventTypeTaskShipped, task.ID, task)
	return task, nil
}

// Archive 将任务移入历史记录
func (s *TaskService) Archive(ctx context.Context, id string) (entities.History, error) {
	history, err := s.repo.Archive(ctx, id, s.now())
	if err != nil {
		return entities.History{}, err
	}

	s.log.InfoContext(ctx, "任务已归档: id=%s", history.ID)
	s.publish(ctx, messaging.EventTypeTaskArchived, history.ID, history)
	return history, nil
}

func (s *TaskService) publish(ctx context.Context, eventType, key string, payload interface{}) {
	if err := s.publisher.Publish(ctx, eventType, key, payload); err != nil {
		s.log.WithError(err).WarnContext(ctx, "发送事件失败: type=%s, key=%s", eventType, key)
	}
}
