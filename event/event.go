// Package event 提供最近交互事件的读取客户端（core.EventStore 实现）。
package event

import (
	"time"

	"github.com/rushteam/recblend/metrics"
)

// 上游调用结果
const (
	outcomeOK        = "ok"
	outcomeError     = "error"
	outcomeMalformed = "malformed"
)

func record(outcome string, start time.Time) {
	metrics.RecordUpstream(metrics.UpstreamEvents, outcome, time.Since(start))
}
