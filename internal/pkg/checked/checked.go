// Package checked implements fixed-width arithmetic that reports overflow
// instead of wrapping.
package checked

import (
	"math"
	"math/bits"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/fault"
)

var (
	ErrOverflow  = fault.New(fault.KindArithmetic, "ArithmeticOverflow", "arithmetic overflow")
	ErrUnderflow = fault.New(fault.KindArithmetic, "ArithmeticUnderflow", "arithmetic underflow")
	ErrDivision  = fault.New(fault.KindArithmetic, "DivisionError", "division by zero")
)

func AddU32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

func SubU32(a, b uint32) (uint32, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

func AddU64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

func MulU64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

func DivU64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivision
	}
	return a / b, nil
}
