package protocols

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"www.velocidex.com/golang/tabular/types"
)

func TestLt(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Hour)

	testCases := []struct {
		a, b     types.Any
		expected bool
	}{
		{1, 2, true},
		{2, 1, false},
		{2, 2, false},
		{int64(1), float64(1.5), true},
		{float64(0.5), 1, true},
		{uint8(3), int64(10), true},
		{"abc", "abd", true},
		{"b", "a", false},
		{false, true, true},
		{true, false, false},
		{now, later, true},
		{later, now, false},

		// Null sorts before everything.
		{types.Null{}, 0, true},
		{types.Null{}, "", true},
		{0, types.Null{}, false},
		{types.Null{}, types.Null{}, false},
		{nil, 1, true},

		// Incomparable types are never less than each other.
		{"a", 1, false},
		{1, "a", false},

		// Compound keys compare element wise.
		{types.Row{"a", 1}, types.Row{"a", 2}, true},
		{types.Row{"a", 2}, types.Row{"b", 1}, true},
		{types.Row{"b", 1}, types.Row{"a", 2}, false},
		{types.Row{"a"}, types.Row{"a", 1}, true},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.expected, Lt(testCase.a, testCase.b),
			"Lt(%v, %v)", testCase.a, testCase.b)
	}
}

func TestEq(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		a, b     types.Any
		expected bool
	}{
		{1, 1, true},
		{1, 2, false},
		{int64(2), 2, true},
		{2, float64(2.0), true},
		{float64(2.5), 2, false},
		{"a", "a", true},
		{"a", "b", false},
		{"1", 1, false},
		{true, true, true},
		{true, false, false},
		{now, now, true},

		{types.Null{}, types.Null{}, true},
		{types.Null{}, nil, true},
		{nil, types.Null{}, true},
		{types.Null{}, 0, false},
		{types.Null{}, "", false},

		{types.Row{"a", 1}, types.Row{"a", 1}, true},
		{types.Row{"a", 1}, types.Row{"a", int64(1)}, true},
		{types.Row{"a", 1}, types.Row{"a", 2}, false},
		{types.Row{"a"}, types.Row{"a", 1}, false},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.expected, Eq(testCase.a, testCase.b),
			"Eq(%v, %v)", testCase.a, testCase.b)
	}
}
