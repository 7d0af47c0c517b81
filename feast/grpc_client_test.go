package feast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

// 需要连接真实的 Feast Serving
func TestGrpcClient_GetOnlineFeatures(t *testing.T) {
	t.Skip("需要连接真实的 Feast 服务器才能运行")

	client, err := NewGrpcClient("localhost", 6565, "recs")
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.GetOnlineFeatures(context.Background(), &GetOnlineFeaturesRequest{
		Features:   []string{"item_similarity:item_id_2", "item_similarity:score"},
		EntityRows: []map[string]any{{"item_id": int64(1001)}},
	})
	require.NoError(t, err)
	assert.Len(t, resp.FeatureVectors, 1)
}

func TestConvertToSDKValue(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"string", "test"},
		{"int", 100},
		{"int64", int64(100)},
		{"float64", 3.14},
		{"bool", true},
		{"[]byte", []byte("test")},
		{"struct", struct{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, convertToSDKValue(tt.input))
		})
	}
}

func TestConvertFromSDKValue(t *testing.T) {
	tests := []struct {
		name  string
		input *types.Value
		want  any
	}{
		{"nil", nil, nil},
		{"unset", &types.Value{}, nil},
		{"int64", feastsdk.Int64Val(7), int64(7)},
		{"double", feastsdk.DoubleVal(0.5), 0.5},
		{"string", feastsdk.StrVal("x"), "x"},
		{"int64 list", &types.Value{Val: &types.Value_Int64ListVal{Int64ListVal: &types.Int64List{Val: []int64{1, 2}}}}, []int64{1, 2}},
		{"double list", &types.Value{Val: &types.Value_DoubleListVal{DoubleListVal: &types.DoubleList{Val: []float64{0.9, 0.1}}}}, []float64{0.9, 0.1}},
		{"float list", &types.Value{Val: &types.Value_FloatListVal{FloatListVal: &types.FloatList{Val: []float32{0.5}}}}, []float64{0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertFromSDKValue(tt.input))
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	host, port, err := parseEndpoint("grpc://feast:6566")
	require.NoError(t, err)
	assert.Equal(t, "feast", host)
	assert.Equal(t, 6566, port)

	host, port, err = parseEndpoint("feast")
	require.NoError(t, err)
	assert.Equal(t, "feast", host)
	assert.Equal(t, 0, port)

	_, _, err = parseEndpoint("feast:abc")
	assert.Error(t, err)

	_, _, err = parseEndpoint("")
	assert.Error(t, err)
}
