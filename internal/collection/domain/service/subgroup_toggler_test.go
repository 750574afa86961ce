package service

import (
	"testing"

	"collection-tracker/internal/collection/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestToggleSubgroup_AppendsThenReplaces(t *testing.T) {
	subgroups := ToggleSubgroup(nil, "showcase", true, 5)
	assert.Equal(t, []model.SubgroupFlag{{SubgroupID: "showcase", Collecting: true, Count: 5}}, subgroups)

	subgroups = ToggleSubgroup(subgroups, "borderless", false, 0)
	subgroups = ToggleSubgroup(subgroups, "showcase", false, 2)
	assert.Equal(t, []model.SubgroupFlag{
		{SubgroupID: "showcase", Collecting: false, Count: 2},
		{SubgroupID: "borderless", Collecting: false, Count: 0},
	}, subgroups)
}

func TestToggleSubgroup_Idempotent(t *testing.T) {
	agg := model.NewSetAggregate("u1", "s1")
	once := ToggleSubgroup(agg.CollectingSubgroups, "showcase", true, 5)
	twice := ToggleSubgroup(once, "showcase", true, 5)
	assert.Equal(t, once, twice)
}

func TestToggleSubgroup_DoesNotMutateInput(t *testing.T) {
	input := []model.SubgroupFlag{{SubgroupID: "showcase", Collecting: false}}
	_ = ToggleSubgroup(input, "showcase", true, 1)
	assert.False(t, input[0].Collecting)
}

func TestApplySubgroupToggle(t *testing.T) {
	agg := model.NewSetAggregate("u1", "s1")
	assert.Empty(t, ApplySubgroupToggle(agg, nil).CollectingSubgroups)

	next := ApplySubgroupToggle(agg, &model.SubgroupToggle{SubgroupID: "extended-art", Collecting: true, Count: 3})
	assert.Len(t, next.CollectingSubgroups, 1)
	assert.Empty(t, agg.CollectingSubgroups)
}
