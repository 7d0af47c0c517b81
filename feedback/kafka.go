package feedback

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/logging"
)

// producer 是 *kgo.Client 的子集，便于测试替换。
type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// KafkaConfig Kafka 采集器配置
type KafkaConfig struct {
	Brokers []string
	Topic   string

	BatchSize     int           // 缓冲达到该数量立即发送，默认 100
	FlushInterval time.Duration // 定时发送间隔，默认 1s
	ClientID      string
}

// KafkaCollector 缓冲曝光事件，批量异步写入 Kafka。
// 同一用户的事件使用 user_id 作为 Key，保证分区内有序。
type KafkaCollector struct {
	client        producer
	topic         string
	batchSize     int
	flushInterval time.Duration

	mu        sync.Mutex
	buffer    []*Event
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
	stopCh    chan struct{}
}

// NewKafkaCollector 创建 Kafka 采集器并启动后台刷新协程。
func NewKafkaCollector(cfg KafkaConfig) (*KafkaCollector, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "recblend-feedback"
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.LeaderAck()),
		kgo.DisableIdempotentWrite(),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	return newKafkaCollector(client, cfg), nil
}

func newKafkaCollector(client producer, cfg KafkaConfig) *KafkaCollector {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	c := &KafkaCollector{
		client:        client,
		topic:         cfg.Topic,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		stopCh:        make(chan struct{}),
	}
	c.wg.Add(1)
	go c.flushLoop()
	return c
}

func (c *KafkaCollector) RecordImpression(_ context.Context, rctx *core.RecommendContext, items []*core.Item) {
	if rctx == nil || len(items) == 0 {
		return
	}
	events := impressions(rctx, items, time.Now())

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.buffer = append(c.buffer, events...)
	full := len(c.buffer) >= c.batchSize
	if full {
		// 在锁内登记，保证 Close 的 wg.Wait 能等到这次发送
		c.wg.Add(1)
	}
	c.mu.Unlock()

	if full {
		go func() {
			defer c.wg.Done()
			c.flush()
		}()
	}
}

func (c *KafkaCollector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.stopCh:
			return
		}
	}
}

// flush 取出缓冲并异步发送
func (c *KafkaCollector) flush() {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	events := c.buffer
	c.buffer = nil
	c.mu.Unlock()

	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			logging.WithComponent("feedback").Warn().Err(err).Msg("marshal feedback event")
			continue
		}
		c.client.Produce(context.Background(), &kgo.Record{
			Topic: c.topic,
			Key:   eventKey(ev),
			Value: data,
		}, func(_ *kgo.Record, err error) {
			if err != nil {
				logging.WithComponent("feedback").Warn().Err(err).Msg("produce feedback event")
			}
		})
	}
}

// Close 停止刷新协程，发送剩余缓冲并关闭客户端。
func (c *KafkaCollector) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		close(c.stopCh)
		c.wg.Wait()
		c.flush()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = c.client.Flush(ctx)
		c.client.Close()
	})
	return err
}
