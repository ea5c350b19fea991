package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelAnalysisProgress = "analysis_progress"

	TypeJobProgress = "job_progress"
)

// ProgressMessage 分析任务进度消息
type ProgressMessage struct {
	Type       string `json:"type"`
	MemberID   int64  `json:"member_id"`
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message,omitempty"`
}

// StatusMessage 根据三位状态码生成提示文案
func StatusMessage(status string) string {
	code, err := strconv.Atoi(status)
	if err != nil || len(status) != 3 {
		return ""
	}
	switch {
	case code == 0:
		return "等待分析"
	case code < 200:
		return "正在分析"
	case code == 200:
		return "分析完成"
	default:
		return "分析失败，请重新发起分析"
	}
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishProgress 发布进度消息
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	msg.Type = TypeJobProgress
	if msg.Message == "" {
		msg.Message = StatusMessage(msg.Status)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	return p.client.Publish(ctx, ChannelAnalysisProgress, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅进度消息，阻塞直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ProgressMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelAnalysisProgress)
	defer pubsub.Close()

	// 等待订阅确认，避免之后发布的消息丢失
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var progressMsg ProgressMessage
			if err := json.Unmarshal([]byte(msg.Payload), &progressMsg); err != nil {
				continue // 忽略解析错误
			}

			handler(&progressMsg)
		}
	}
}
