// Package safe provides overflow-checked int64 arithmetic for ledger code.
// Every function panics instead of silently wrapping.
package safe

import (
	"fmt"
	"math"
)

// SafeAdd returns a+b. Panics on overflow.
func SafeAdd(a, b int64) int64 {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		panic(fmt.Sprintf("SAFE_ADD_OVERFLOW: %d + %d", a, b))
	}
	return a + b
}

// SafeSub returns a-b. Panics on overflow.
func SafeSub(a, b int64) int64 {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		panic(fmt.Sprintf("SAFE_SUB_OVERFLOW: %d - %d", a, b))
	}
	return a - b
}

// SafeMul returns a*b. Panics on overflow.
func SafeMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		panic(fmt.Sprintf("SAFE_MUL_OVERFLOW: %d * %d", a, b))
	}
	return c
}

// SafeDiv returns a/b truncated toward zero. Panics on division by zero.
func SafeDiv(a, b int64) int64 {
	if b == 0 {
		panic(fmt.Sprintf("SAFE_DIV_BY_ZERO: %d / 0", a))
	}
	if a == math.MinInt64 && b == -1 {
		panic(fmt.Sprintf("SAFE_DIV_OVERFLOW: %d / %d", a, b))
	}
	return a / b
}
