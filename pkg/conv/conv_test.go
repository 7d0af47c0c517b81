package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{1, 1, true},
		{int64(2), 2, true},
		{3.0, 3, true},
		{3.5, 0, false},
		{"42", 42, true},
		{"x", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := ToInt64(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestConfigGet(t *testing.T) {
	m := map[string]any{"type": "expr", "n": 5, "f": 2.0, "ids": []any{1, "2", 3.5, 4.0}}

	assert.Equal(t, "expr", ConfigGet(m, "type", ""))
	assert.Equal(t, "", ConfigGet(m, "n", ""))
	assert.Equal(t, int64(5), ConfigGetInt64(m, "n", 0))
	assert.Equal(t, int64(2), ConfigGetInt64(m, "f", 0))
	assert.Equal(t, int64(9), ConfigGetInt64(nil, "n", 9))
	assert.Equal(t, []int64{1, 2, 4}, SliceAnyToInt64(m["ids"]))
	assert.Nil(t, SliceAnyToInt64("nope"))
}
