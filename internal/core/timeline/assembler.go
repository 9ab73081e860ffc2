package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/cfnplot/cfnplot/internal/core/event"
	"github.com/cfnplot/cfnplot/internal/core/interval"
)

// Row maps one resource attempt to a vertical chart slot.
type Row struct {
	interval.Interval
	Label string
	Depth int
	Index int
}

// Timeline is the full ordered waterfall: rows top to bottom, plus the global
// time origin and extent. Immutable once assembled.
type Timeline struct {
	Rows   []Row
	Origin time.Time
	Extent time.Time
	// Stacks lists stack ids in render order, roots first.
	Stacks []string
}

// Options configures assembly. Cutoff is the observation-cutoff instant used
// as the extent when open intervals exist; it is always caller-supplied, the
// assembler never reads the wall clock.
type Options struct {
	Cutoff *time.Time
}

// EmptyTimelineError means there is nothing to lay out: either the batch had
// no resources, or no end instant is known and no cutoff was supplied.
type EmptyTimelineError struct {
	Reason string
}

func (e *EmptyTimelineError) Error() string {
	return "empty timeline: " + e.Reason
}

// resourceBlock groups one resource's attempts for ordering inside its stack.
type resourceBlock struct {
	key       event.ResourceKey
	intervals []interval.Interval
}

func (b resourceBlock) start() time.Time {
	return b.intervals[0].Start
}

// Assemble orders resources into rows and computes the global time axis.
//
// Within a stack, blocks sort by (start ascending, resource key
// lexicographic); the key tie-break keeps simultaneous starts deterministic
// regardless of input order. A nested stack's rows follow its placeholder
// resource directly, indented one depth level, recursively. The parent-child
// relation is an explicit link from the placeholder's physical id to the
// child stack id, never string-prefix matching.
func Assemble(byResource map[event.ResourceKey][]interval.Interval, opts Options) (*Timeline, error) {
	if len(byResource) == 0 {
		return nil, &EmptyTimelineError{Reason: "no resources"}
	}

	// Group resources per stack.
	blocks := make(map[string][]resourceBlock)
	for key, ivs := range byResource {
		if len(ivs) == 0 {
			continue
		}
		blocks[key.StackID] = append(blocks[key.StackID], resourceBlock{key: key, intervals: ivs})
	}
	if len(blocks) == 0 {
		return nil, &EmptyTimelineError{Reason: "no resources"}
	}
	for _, bs := range blocks {
		sort.Slice(bs, func(i, j int) bool {
			si, sj := bs[i].start(), bs[j].start()
			if !si.Equal(sj) {
				return si.Before(sj)
			}
			return bs[i].key.Less(bs[j].key)
		})
	}

	// Link each child stack to its placeholder resource.
	childOf := make(map[event.ResourceKey]string)
	hasParent := make(map[string]bool)
	for stackID, bs := range blocks {
		for _, b := range bs {
			phys := b.intervals[0].PhysicalID
			if b.intervals[0].ResourceType != event.NestedStackResourceType || phys == "" {
				continue
			}
			if phys == stackID {
				continue
			}
			if _, ok := blocks[phys]; ok {
				childOf[b.key] = phys
				hasParent[phys] = true
			}
		}
	}

	// Roots: stacks no placeholder points at, ordered by earliest start
	// then stack id.
	var roots []string
	for stackID := range blocks {
		if !hasParent[stackID] {
			roots = append(roots, stackID)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		si, sj := blocks[roots[i]][0].start(), blocks[roots[j]][0].start()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return roots[i] < roots[j]
	})

	tl := &Timeline{}
	visited := make(map[string]bool)
	var emit func(stackID string, depth int)
	emit = func(stackID string, depth int) {
		if visited[stackID] {
			return
		}
		visited[stackID] = true
		tl.Stacks = append(tl.Stacks, stackID)
		for _, b := range blocks[stackID] {
			for _, iv := range b.intervals {
				label := b.key.LogicalID
				if len(b.intervals) > 1 {
					label = fmt.Sprintf("%s #%d", b.key.LogicalID, iv.Attempt+1)
				}
				tl.Rows = append(tl.Rows, Row{
					Interval: iv,
					Label:    label,
					Depth:    depth,
					Index:    len(tl.Rows),
				})
			}
			if child, ok := childOf[b.key]; ok {
				emit(child, depth+1)
			}
		}
	}
	for _, root := range roots {
		emit(root, 0)
	}
	// A parent cycle in the link table would orphan its stacks; keep them
	// as top-level blocks rather than losing rows.
	var orphans []string
	for stackID := range blocks {
		if !visited[stackID] {
			orphans = append(orphans, stackID)
		}
	}
	sort.Strings(orphans)
	for _, stackID := range orphans {
		emit(stackID, 0)
	}

	origin, extent, err := timeAxis(tl.Rows, opts.Cutoff)
	if err != nil {
		return nil, err
	}
	tl.Origin = origin
	tl.Extent = extent
	return tl, nil
}

// timeAxis computes the global origin and extent. The extent never comes from
// an ambient clock: it is the latest known end, raised to the cutoff when open
// rows exist and a cutoff was supplied.
func timeAxis(rows []Row, cutoff *time.Time) (time.Time, time.Time, error) {
	var (
		origin  time.Time
		extent  time.Time
		anyEnd  bool
		anyOpen bool
	)
	for _, r := range rows {
		if origin.IsZero() || r.Start.Before(origin) {
			origin = r.Start
		}
		if r.End != nil {
			if !anyEnd || r.End.After(extent) {
				extent = *r.End
			}
			anyEnd = true
		} else {
			anyOpen = true
		}
	}
	if anyOpen && cutoff != nil && (!anyEnd || cutoff.After(extent)) {
		extent = *cutoff
		anyEnd = true
	}
	if !anyEnd {
		return time.Time{}, time.Time{}, &EmptyTimelineError{
			Reason: "no resolved intervals and no observation cutoff",
		}
	}
	return origin, extent, nil
}
