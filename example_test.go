package recblend_test

import (
	"fmt"

	"github.com/rushteam/recblend"
)

func ExampleBlend() {
	online := []int64{1, 2, 3}
	offline := []int64{24, 2, 25}

	fmt.Println(recblend.Blend(online, offline, 10))
	fmt.Println(recblend.Blend(online, offline, 3))
	fmt.Println(recblend.Blend(nil, offline, 2))
	// Output:
	// [1 24 2 3 25]
	// [1 24 2]
	// [24 2]
}
