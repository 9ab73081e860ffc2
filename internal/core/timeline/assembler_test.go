package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfnplot/cfnplot/internal/core/event"
	"github.com/cfnplot/cfnplot/internal/core/interval"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return base.Add(time.Duration(sec) * time.Second)
}

func closed(stackID, logicalID string, startSec, endSec int) (event.ResourceKey, []interval.Interval) {
	key := event.ResourceKey{StackID: stackID, LogicalID: logicalID}
	end := at(endSec)
	return key, []interval.Interval{{
		Key:     key,
		Start:   at(startSec),
		End:     &end,
		Outcome: interval.OutcomeSucceeded,
	}}
}

func open(stackID, logicalID string, startSec int) (event.ResourceKey, []interval.Interval) {
	key := event.ResourceKey{StackID: stackID, LogicalID: logicalID}
	return key, []interval.Interval{{
		Key:     key,
		Start:   at(startSec),
		Outcome: interval.OutcomeUnresolved,
	}}
}

func intervalMap(pairs ...func() (event.ResourceKey, []interval.Interval)) map[event.ResourceKey][]interval.Interval {
	out := make(map[event.ResourceKey][]interval.Interval)
	for _, pair := range pairs {
		key, ivs := pair()
		out[key] = ivs
	}
	return out
}

func TestAssembleOrdersByStartTime(t *testing.T) {
	byResource := intervalMap(
		func() (event.ResourceKey, []interval.Interval) { return closed("s1", "B", 5, 8) },
		func() (event.ResourceKey, []interval.Interval) { return closed("s1", "A", 0, 10) },
	)

	tl, err := Assemble(byResource, Options{})
	require.NoError(t, err)
	require.Len(t, tl.Rows, 2)

	assert.Equal(t, "A", tl.Rows[0].Label)
	assert.Equal(t, "B", tl.Rows[1].Label)
	assert.Equal(t, 0, tl.Rows[0].Index)
	assert.Equal(t, 1, tl.Rows[1].Index)
	assert.Equal(t, at(0), tl.Origin)
	assert.Equal(t, at(10), tl.Extent)
}

func TestAssembleLexicographicTieBreak(t *testing.T) {
	// Same start instant: lexicographic key order, regardless of input order.
	byResource := intervalMap(
		func() (event.ResourceKey, []interval.Interval) { return closed("s1", "Zebra", 0, 5) },
		func() (event.ResourceKey, []interval.Interval) { return closed("s1", "Alpha", 0, 7) },
	)

	tl, err := Assemble(byResource, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", tl.Rows[0].Label)
	assert.Equal(t, "Zebra", tl.Rows[1].Label)
}

func TestAssembleOriginAndExtentBounds(t *testing.T) {
	byResource := intervalMap(
		func() (event.ResourceKey, []interval.Interval) { return closed("s1", "A", 2, 9) },
		func() (event.ResourceKey, []interval.Interval) { return closed("s1", "B", 4, 30) },
		func() (event.ResourceKey, []interval.Interval) { return closed("s1", "C", 7, 12) },
	)

	tl, err := Assemble(byResource, Options{})
	require.NoError(t, err)
	for _, row := range tl.Rows {
		assert.False(t, row.Start.Before(tl.Origin))
		require.NotNil(t, row.End)
		assert.False(t, row.End.After(tl.Extent))
	}
}

func TestAssembleOpenRowFallsBackToKnownEnds(t *testing.T) {
	byResource := intervalMap(
		func() (event.ResourceKey, []interval.Interval) { return closed("s1", "A", 0, 20) },
		func() (event.ResourceKey, []interval.Interval) { return open("s1", "B", 5) },
	)

	tl, err := Assemble(byResource, Options{})
	require.NoError(t, err)
	assert.Equal(t, at(20), tl.Extent)

	// The open row is present, not dropped.
	require.Len(t, tl.Rows, 2)
	assert.Nil(t, tl.Rows[1].End)
}

func TestAssembleCutoffExtendsExtent(t *testing.T) {
	cutoff := at(60)
	byResource := intervalMap(
		func() (event.ResourceKey, []interval.Interval) { return closed("s1", "A", 0, 20) },
		func() (event.ResourceKey, []interval.Interval) { return open("s1", "B", 5) },
	)

	tl, err := Assemble(byResource, Options{Cutoff: &cutoff})
	require.NoError(t, err)
	assert.Equal(t, cutoff, tl.Extent)
}

func TestAssembleCutoffIgnoredWhenAllClosed(t *testing.T) {
	cutoff := at(60)
	byResource := intervalMap(
		func() (event.ResourceKey, []interval.Interval) { return closed("s1", "A", 0, 20) },
	)

	tl, err := Assemble(byResource, Options{Cutoff: &cutoff})
	require.NoError(t, err)
	assert.Equal(t, at(20), tl.Extent)
}

func TestAssembleSoleOpenRowWithoutCutoffFails(t *testing.T) {
	byResource := intervalMap(
		func() (event.ResourceKey, []interval.Interval) { return open("s1", "B", 5) },
	)

	_, err := Assemble(byResource, Options{})
	require.Error(t, err)
	var empty *EmptyTimelineError
	assert.ErrorAs(t, err, &empty)
}

func TestAssembleSoleOpenRowWithCutoff(t *testing.T) {
	cutoff := at(99)
	byResource := intervalMap(
		func() (event.ResourceKey, []interval.Interval) { return open("s1", "B", 5) },
	)

	tl, err := Assemble(byResource, Options{Cutoff: &cutoff})
	require.NoError(t, err)
	assert.Equal(t, at(5), tl.Origin)
	assert.Equal(t, cutoff, tl.Extent)
}

func TestAssembleEmptyInput(t *testing.T) {
	_, err := Assemble(nil, Options{})
	require.Error(t, err)
	var empty *EmptyTimelineError
	assert.ErrorAs(t, err, &empty)
}

func TestAssembleNestedStackIndentation(t *testing.T) {
	parentKey := event.ResourceKey{StackID: "parent", LogicalID: "ChildStack"}
	parentEnd := at(40)
	byResource := map[event.ResourceKey][]interval.Interval{
		parentKey: {{
			Key:          parentKey,
			Start:        at(0),
			End:          &parentEnd,
			Outcome:      interval.OutcomeSucceeded,
			ResourceType: event.NestedStackResourceType,
			PhysicalID:   "child",
		}},
	}
	for key, ivs := range intervalMap(
		func() (event.ResourceKey, []interval.Interval) { return closed("parent", "Queue", 1, 6) },
		func() (event.ResourceKey, []interval.Interval) { return closed("child", "Role", 5, 15) },
		func() (event.ResourceKey, []interval.Interval) { return closed("child", "Bucket", 3, 20) },
	) {
		byResource[key] = ivs
	}

	tl, err := Assemble(byResource, Options{})
	require.NoError(t, err)
	require.Len(t, tl.Rows, 4)

	// Placeholder first, its children directly after, indented, then the
	// parent's later sibling.
	assert.Equal(t, "ChildStack", tl.Rows[0].Label)
	assert.Equal(t, 0, tl.Rows[0].Depth)
	assert.Equal(t, "Bucket", tl.Rows[1].Label)
	assert.Equal(t, 1, tl.Rows[1].Depth)
	assert.Equal(t, "Role", tl.Rows[2].Label)
	assert.Equal(t, 1, tl.Rows[2].Depth)
	assert.Equal(t, "Queue", tl.Rows[3].Label)
	assert.Equal(t, 0, tl.Rows[3].Depth)

	assert.Equal(t, []string{"parent", "child"}, tl.Stacks)
}

func TestAssembleMultiAttemptLabels(t *testing.T) {
	key := event.ResourceKey{StackID: "s1", LogicalID: "Fn"}
	end1, end2 := at(5), at(20)
	byResource := map[event.ResourceKey][]interval.Interval{
		key: {
			{Key: key, Start: at(0), End: &end1, Outcome: interval.OutcomeSucceeded, Attempt: 0},
			{Key: key, Start: at(10), End: &end2, Outcome: interval.OutcomeRolledBack, Attempt: 1},
		},
	}

	tl, err := Assemble(byResource, Options{})
	require.NoError(t, err)
	require.Len(t, tl.Rows, 2)
	assert.Equal(t, "Fn #1", tl.Rows[0].Label)
	assert.Equal(t, "Fn #2", tl.Rows[1].Label)
}
