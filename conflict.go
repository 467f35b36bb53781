package tabular

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"www.velocidex.com/golang/tabular/protocols"
	"www.velocidex.com/golang/tabular/types"
)

// A Conflict is the set of distinct non-missing values found for one
// field within one group during a merge. It is immutable and
// unordered: two Conflicts are equal when they hold the same member
// set, whatever order the members were discovered in. The engine only
// ever constructs Conflicts with at least two members - a single
// distinct value collapses to that value instead.
type Conflict struct {
	values []types.Any
}

// NewConflict collects the distinct members of values. Duplicates
// (by value equality, so int(2) and float64(2.0) coincide) are
// dropped.
func NewConflict(values ...types.Any) Conflict {
	self := Conflict{}
	for _, value := range values {
		if !self.Has(value) {
			self.values = append(self.values, value)
		}
	}
	return self
}

func (self Conflict) Len() int {
	return len(self.values)
}

func (self Conflict) Has(value types.Any) bool {
	for _, member := range self.values {
		if protocols.Eq(member, value) {
			return true
		}
	}
	return false
}

// Values returns a copy of the member set in discovery order.
func (self Conflict) Values() []types.Any {
	result := make([]types.Any, len(self.values))
	copy(result, self.values)
	return result
}

// Equal is set equality: same members regardless of order.
func (self Conflict) Equal(other Conflict) bool {
	if len(self.values) != len(other.values) {
		return false
	}
	for _, member := range self.values {
		if !other.Has(member) {
			return false
		}
	}
	return true
}

// sortedText renders the members in a stable, order-independent way
// for display and serialization.
func (self Conflict) sortedText() []string {
	parts := make([]string, 0, len(self.values))
	for _, member := range self.values {
		parts = append(parts, fmt.Sprintf("%v", member))
	}
	sort.Strings(parts)
	return parts
}

func (self Conflict) String() string {
	return "Conflict{" + strings.Join(self.sortedText(), ", ") + "}"
}

func (self Conflict) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"conflict": self.sortedText(),
	})
}

// IsConflict lets callers branch on merge conflicts in a cell.
func IsConflict(value types.Any) bool {
	_, ok := value.(Conflict)
	return ok
}
