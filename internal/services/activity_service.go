package services

import (
	"context"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/messaging"
)

// ActivityService 操作日志服务
type ActivityService struct {
	repo      repositories.ActivityRepository
	publisher messaging.Publisher
	log       logger.Logger
}

// NewActivityService 创建操作日志服务
func NewActivityService(repo repositories.ActivityRepository, publisher messaging.Publisher, log logger.Logger) *ActivityService {
	return &ActivityService{repo: repo, publisher: publisher, log: log}
}

// List 获取全部操作日志
func (s *ActivityService) List(ctx context.Context) ([]entities.Activity, error) {
	return s.repo.List(ctx)
}

// Create 记录一条操作日志，未指定操作人时使用当前登录用户
func (s *ActivityService) Create(ctx context.Context, dto entities.CreateActivityDTO, actor string) (entities.Activity, error) {
	if dto.Actor != "" {
		actor = dto.Actor
	}

	activity, err := s.repo.Create(ctx, entities.Activity{
		Time:    dto.Time,
		Type:    dto.Type,
		Details: dto.Details,
		Actor:   actor,
	})
	if err != nil {
		return entities.Activity{}, err
	}

	if err := s.publisher.Publish(ctx, messaging.EventTypeActivityCreated, activity.ID, activity); err != nil {
		s.log.WithError(err).WarnContext(ctx, "发送事件失败: type=%s", messaging.EventTypeActivityCreated)
	}
	return activity, nil
}
