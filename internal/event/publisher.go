package event

import (
	"aims_backend/internal/grading"
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisPublisher 通过 Redis pub/sub 发布引擎事件。
// 订阅方（通知服务、分析管道）自行消费，本服务不关心投递结果。
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(evt grading.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

// NopPublisher 空实现，测试和无 Redis 的部署模式使用
type NopPublisher struct{}

func (NopPublisher) Publish(grading.Event) error { return nil }
