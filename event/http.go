package event

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/logging"
)

// HTTPStore 通过事件服务的 HTTP 接口读取最近事件。
//
// 协议：POST {base}/get?user_id=<uid>&k=<k>，响应 {"events": [item_id, ...]}，
// 事件按新到旧排列。
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore 创建事件服务客户端，timeout 为 0 时使用 10s。
//
// 用法：
//
//	events := event.NewHTTPStore("http://127.0.0.1:8020", 2*time.Second)
//	ids, err := events.RecentEvents(ctx, 42, 3)
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return NewHTTPStoreWithClient(baseURL, &http.Client{Timeout: timeout})
}

// NewHTTPStoreWithClient 使用自定义 HTTP 客户端
func NewHTTPStoreWithClient(baseURL string, client *http.Client) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

var _ core.EventStore = (*HTTPStore)(nil)

type eventsResponse struct {
	Events *[]int64 `json:"events"`
}

func (s *HTTPStore) RecentEvents(ctx context.Context, userID int64, k int) ([]int64, error) {
	start := time.Now()

	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))
	q.Set("k", strconv.Itoa(k))
	endpoint := s.baseURL + "/get?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		record(outcomeError, start)
		return nil, core.NewUnavailableError(core.ModuleEvents, "build events request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		record(outcomeError, start)
		return nil, core.NewUnavailableError(core.ModuleEvents, "events request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		record(outcomeError, start)
		return nil, core.NewUnavailableError(core.ModuleEvents,
			fmt.Sprintf("events service status=%d body=%s", resp.StatusCode, string(body)), nil)
	}

	var out eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		record(outcomeMalformed, start)
		return nil, core.NewMalformedError(core.ModuleEvents, "decode events response", err)
	}
	if out.Events == nil {
		record(outcomeMalformed, start)
		return nil, core.NewMalformedError(core.ModuleEvents, `events response has no "events" key`, nil)
	}

	events := *out.Events
	if k > 0 && len(events) > k {
		events = events[:k]
	}

	record(outcomeOK, start)
	logging.Ctx(ctx).Debug().
		Int64("user_id", userID).
		Int("events", len(events)).
		Int("received", len(*out.Events)).
		Msg("recent events fetched")
	return events, nil
}
