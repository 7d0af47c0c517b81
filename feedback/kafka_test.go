package feedback

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/pkg/utils"
)

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	closed  bool
	// afterClose 统计 Close 之后才到达的 Produce 调用
	afterClose int
	delay      time.Duration
}

func (p *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	if p.closed {
		p.afterClose++
	}
	p.records = append(p.records, r)
	p.mu.Unlock()
	if promise != nil {
		promise(r, nil)
	}
}

func (p *fakeProducer) Flush(context.Context) error { return nil }

func (p *fakeProducer) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakeProducer) snapshot() []*kgo.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*kgo.Record(nil), p.records...)
}

func TestKafkaCollector_CloseFlushesBuffer(t *testing.T) {
	p := &fakeProducer{}
	c := newKafkaCollector(p, KafkaConfig{Topic: "impressions", BatchSize: 1000, FlushInterval: time.Hour})

	rctx := core.NewRecommendContext(42, 10, "blend")
	a := core.NewItem(7)
	a.PutLabel(utils.LabelRecallSource, utils.Label{Value: utils.SourceOnline, Source: "recall"})
	b := core.NewItem(9)
	c.RecordImpression(context.Background(), rctx, []*core.Item{a, b})

	require.NoError(t, c.Close())
	assert.True(t, p.closed)

	records := p.snapshot()
	require.Len(t, records, 2)
	assert.Equal(t, "impressions", records[0].Topic)
	assert.Equal(t, []byte("42"), records[0].Key)

	var ev Event
	require.NoError(t, json.Unmarshal(records[0].Value, &ev))
	assert.Equal(t, int64(42), ev.UserID)
	assert.Equal(t, int64(7), ev.ItemID)
	assert.Equal(t, 0, ev.Position)
	assert.Equal(t, TypeImpression, ev.Type)
	assert.Equal(t, utils.SourceOnline, ev.Labels[utils.LabelRecallSource])

	require.NoError(t, json.Unmarshal(records[1].Value, &ev))
	assert.Equal(t, int64(9), ev.ItemID)
	assert.Equal(t, 1, ev.Position)
}

func TestKafkaCollector_IgnoresAfterClose(t *testing.T) {
	p := &fakeProducer{}
	c := newKafkaCollector(p, KafkaConfig{Topic: "impressions", FlushInterval: time.Hour})
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	c.RecordImpression(context.Background(), core.NewRecommendContext(1, 1, ""), []*core.Item{core.NewItem(1)})
	assert.Empty(t, p.snapshot())
}

func TestKafkaCollector_BatchSizeTriggersFlush(t *testing.T) {
	p := &fakeProducer{}
	c := newKafkaCollector(p, KafkaConfig{Topic: "impressions", BatchSize: 2, FlushInterval: time.Hour})
	defer c.Close()

	c.RecordImpression(context.Background(), core.NewRecommendContext(1, 5, ""),
		[]*core.Item{core.NewItem(1), core.NewItem(2)})

	assert.Eventually(t, func() bool { return len(p.snapshot()) == 2 }, time.Second, 10*time.Millisecond)
}

func TestKafkaCollector_CloseWaitsForBatchFlush(t *testing.T) {
	p := &fakeProducer{delay: 20 * time.Millisecond}
	c := newKafkaCollector(p, KafkaConfig{Topic: "impressions", BatchSize: 2, FlushInterval: time.Hour})

	c.RecordImpression(context.Background(), core.NewRecommendContext(1, 5, ""),
		[]*core.Item{core.NewItem(1), core.NewItem(2), core.NewItem(3)})
	require.NoError(t, c.Close())

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.True(t, p.closed)
	assert.Len(t, p.records, 3)
	assert.Zero(t, p.afterClose)
}
