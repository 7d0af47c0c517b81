package builders

import (
	"fmt"

	"github.com/rushteam/recblend/config"
	"github.com/rushteam/recblend/filter"
	"github.com/rushteam/recblend/pipeline"
	"github.com/rushteam/recblend/pkg/conv"
	"github.com/rushteam/recblend/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "blacklist":
			filters = append(filters, filter.NewBlacklistFilter(conv.SliceAnyToInt64(filterMap["item_ids"])))
		case "expr":
			expr := conv.ConfigGet(filterMap, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("expr filter: expr is required")
			}
			f, err := filter.NewExprFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("expr filter: %w", err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}
