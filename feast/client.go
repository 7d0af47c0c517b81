// Package feast 封装 Feast Feature Store 的在线特征读取。
//
// 服务只用到在线特征（item 相似度列表），因此 Client 只保留 GetOnlineFeatures。
// 参考：https://github.com/feast-dev/feast
package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征客户端接口。
type Client interface {
	// GetOnlineFeatures 获取在线特征
	//
	// 参数：
	//   - features: 特征引用列表，例如 ["item_similarity:item_id_2", "item_similarity:score"]
	//   - entityRows: 实体行，例如 [{"item_id": 1001}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	Features   []string
	EntityRows []map[string]any
	// Project 为空时使用客户端默认项目
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应，FeatureVectors 与 EntityRows 一一对应。
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// FeatureVector 是一个实体行的特征值。
//
// Values 的取值类型：int64, float64, string, bool, []byte,
// []int64, []float64, []string；缺失的特征不出现在 map 中。
type FeatureVector struct {
	Values    map[string]any
	EntityRow map[string]any
}

// ClientOption Feast 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig Feast 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
	Auth     *AuthConfig
}

// AuthConfig 认证配置，目前只支持 static（gRPC 静态 Token）。
type AuthConfig struct {
	Type      string
	Token     string
	EnableTLS bool
}

// WithTimeout 设置单次调用超时
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAuth 设置认证信息
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = auth
	}
}
