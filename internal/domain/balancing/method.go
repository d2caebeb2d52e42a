package balancing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownMethod     = errors.New("unknown balancing method")
	ErrMethodDisabled    = errors.New("balancing method disabled for this team shape")
	ErrInvalidWeights    = errors.New("invalid balance weights")
	ErrInvalidRequest    = errors.New("invalid balance request")
	ErrSearchFailed      = errors.New("balance search found no valid split")
	ErrNoPerformanceData = errors.New("no performance data in pool")
)

// Method selects one of the interchangeable balancing strategies.
type Method string

const (
	MethodAbility     Method = "ability"
	MethodPerformance Method = "performance"
	MethodRandom      Method = "random"
)

func ParseMethod(raw string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(raw))) {
	case MethodAbility:
		return MethodAbility, nil
	case MethodPerformance:
		return MethodPerformance, nil
	case MethodRandom:
		return MethodRandom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, raw)
	}
}

// Sizes is the number of players on each side. A never has fewer players than B.
type Sizes struct {
	A int
	B int
}

// SplitSizes gives the extra player of an odd pool to team A.
func SplitSizes(poolSize int) Sizes {
	if poolSize < 0 {
		poolSize = 0
	}
	return Sizes{A: (poolSize + 1) / 2, B: poolSize / 2}
}

func (s Sizes) Even() bool {
	return s.A == s.B
}

func (s Sizes) Total() int {
	return s.A + s.B
}
