package feature

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
)

// HTTPSimilarityStore 通过特征服务的 HTTP 接口读取相似 item。
//
// 协议：POST {base}/similar_items?item_id=<id>&k=<k>，
// 响应 {"item_id_2": [...], "score": [...]}，按响应顺序返回。
type HTTPSimilarityStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSimilarityStore 创建相似度服务客户端，timeout 为 0 时使用 10s。
func NewHTTPSimilarityStore(baseURL string, timeout time.Duration) *HTTPSimilarityStore {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return NewHTTPSimilarityStoreWithClient(baseURL, &http.Client{Timeout: timeout})
}

// NewHTTPSimilarityStoreWithClient 使用自定义 HTTP 客户端
func NewHTTPSimilarityStoreWithClient(baseURL string, client *http.Client) *HTTPSimilarityStore {
	return &HTTPSimilarityStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

var _ core.SimilarityStore = (*HTTPSimilarityStore)(nil)

type similarResponse struct {
	ItemIDs *[]int64   `json:"item_id_2"`
	Scores  *[]float64 `json:"score"`
}

func (s *HTTPSimilarityStore) SimilarItems(ctx context.Context, itemID int64, k int) ([]core.SimilarItem, error) {
	start := time.Now()

	q := url.Values{}
	q.Set("item_id", strconv.FormatInt(itemID, 10))
	q.Set("k", strconv.Itoa(k))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/similar_items?"+q.Encode(), nil)
	if err != nil {
		record(outcomeError, start)
		return nil, core.NewUnavailableError(core.ModuleSimilarity, "build similar items request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		record(outcomeError, start)
		return nil, core.NewUnavailableError(core.ModuleSimilarity, "similar items request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		record(outcomeError, start)
		return nil, core.NewUnavailableError(core.ModuleSimilarity,
			fmt.Sprintf("similarity service status=%d body=%s", resp.StatusCode, string(body)), nil)
	}

	var out similarResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		record(outcomeMalformed, start)
		return nil, core.NewMalformedError(core.ModuleSimilarity, "decode similar items response", err)
	}
	if out.ItemIDs == nil || out.Scores == nil {
		record(outcomeMalformed, start)
		return nil, core.NewMalformedError(core.ModuleSimilarity, `similar items response needs "item_id_2" and "score"`, nil)
	}

	items, err := zipSimilar(*out.ItemIDs, *out.Scores, 0)
	if err != nil {
		record(outcomeMalformed, start)
		return nil, err
	}
	record(outcomeOK, start)
	return items, nil
}
