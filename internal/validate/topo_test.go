package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskalign/scheduler-core/internal/domain"
)

func comp(id string, dueDay int, prereqs ...string) domain.Component {
	return domain.Component{
		ID: id, MoldID: "mold-a", Color: "red", CycleTimeSec: 30,
		Quantity: 1, DueDay: dueDay, Prerequisites: prereqs,
	}
}

func TestTopologicalOrder_PrerequisitesComeFirst(t *testing.T) {
	components := []domain.Component{
		comp("c", 10, "a", "b"),
		comp("a", 5),
		comp("b", 8),
	}
	byID := map[string]domain.Component{"a": components[1], "b": components[2], "c": components[0]}

	order, err := topologicalOrder(components, byID)
	require.NoError(t, err)

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["a"], pos["c"])
	assert.Less(t, pos["b"], pos["c"])
}

func TestTopologicalOrder_TiesBrokenByDueDayThenID(t *testing.T) {
	components := []domain.Component{
		comp("z", 1),
		comp("a", 1),
		comp("m", 2),
	}
	byID := map[string]domain.Component{"z": components[0], "a": components[1], "m": components[2]}

	order, err := topologicalOrder(components, byID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "z", "m"}, order)
}

func TestDetectCycle_NoCycle(t *testing.T) {
	components := []domain.Component{comp("a", 1), comp("b", 2, "a")}
	assert.NoError(t, detectCycle(components))
}

func TestDetectCycle_DirectCycle(t *testing.T) {
	components := []domain.Component{comp("a", 1, "b"), comp("b", 2, "a")}
	assert.Error(t, detectCycle(components))
}

func TestDetectCycle_IndirectCycle(t *testing.T) {
	components := []domain.Component{
		comp("a", 1, "c"),
		comp("b", 2, "a"),
		comp("c", 3, "b"),
	}
	assert.Error(t, detectCycle(components))
}
