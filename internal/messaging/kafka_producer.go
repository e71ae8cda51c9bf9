package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fulfillment-service/internal/config"
	"fulfillment-service/internal/logger"

	"github.com/IBM/sarama"
)

// 事件类型常量
const (
	EventTypeActivityCreated = "activity.created"
	EventTypeTaskShipped     = "task.shipped"
	EventTypeTaskArchived    = "task.archived"
)

// MessageEvent Kafka消息事件结构
type MessageEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Publisher 领域事件发布接口
type Publisher interface {
	// Publish 发送事件，key通常是实体ID
	Publish(ctx context.Context, eventType, key string, payload interface{}) error
	Close() error
}

// KafkaProducer Kafka生产者
type KafkaProducer struct {
	topic    string
	producer sarama.SyncProducer
	log      logger.Logger
}

// NewKafkaProducer 连接Kafka并创建同步生产者
func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) (*KafkaProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_8_1_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("创建Kafka生产者失败: %w", err)
	}
	return NewKafkaProducerWith(producer, cfg.Topic, log), nil
}

// NewKafkaProducerWith 基于已有的生产者创建
func NewKafkaProducerWith(producer sarama.SyncProducer, topic string, log logger.Logger) *KafkaProducer {
	return &KafkaProducer{topic: topic, producer: producer, log: log}
}

// Publish 发送事件
func (k *KafkaProducer) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	event := MessageEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("发送事件失败: %w", err)
	}

	k.log.DebugContext(ctx, "消息发送成功: 主题=%s, 分区=%d, 偏移量=%d, 类型=%s", k.topic, partition, offset, eventType)
	return nil
}

// Close 关闭生产者
func (k *KafkaProducer) Close() error {
	return k.producer.Close()
}

// NopPublisher 未启用Kafka时使用
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	return nil
}

func (NopPublisher) Close() error { return nil }

// NewPublisher 按配置创建发布者，未启用时返回NopPublisher
func NewPublisher(cfg config.KafkaConfig, log logger.Logger) (Publisher, error) {
	if !cfg.Enabled {
		return NopPublisher{}, nil
	}
	return NewKafkaProducer(cfg, log)
}
