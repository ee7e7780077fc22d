package models

import "sort"

type CapacityKind string

const (
	// CapacityExclusive admits at most one occupant at a time.
	CapacityExclusive CapacityKind = "exclusive"
	// CapacityPooled admits up to Units interchangeable occupants.
	CapacityPooled CapacityKind = "pooled"
)

// CapacityPolicy decides whether a proposed interval can be admitted given
// the intervals already occupying the office.
type CapacityPolicy struct {
	Kind  CapacityKind `yaml:"kind" json:"kind"`
	Units int64        `yaml:"units,omitempty" json:"units,omitempty"`
}

// UnitCount returns the number of bookable units, at least 1.
func (p CapacityPolicy) UnitCount() int64 {
	if p.Kind == CapacityExclusive {
		return 1
	}
	if p.Units < 1 {
		return 1
	}
	return p.Units
}

// CanAdmit reports whether the proposed interval fits alongside the
// existing ones.
//
// The exclusive variant uses the strict pairwise Overlaps predicate. The
// pooled variant runs a sweep line over start/end events; at equal instants
// start events are ordered before end events, so an interval ending exactly
// when another begins counts as simultaneous occupancy there.
func (p CapacityPolicy) CanAdmit(proposed TimeInterval, existing []TimeInterval) bool {
	switch p.Kind {
	case CapacityExclusive:
		for _, iv := range existing {
			if iv.Overlaps(proposed) {
				return false
			}
		}
		return true
	case CapacityPooled:
		return p.sweepAdmit(proposed, existing)
	default:
		return false
	}
}

type occupancyEvent struct {
	at    int64
	delta int64
}

func (p CapacityPolicy) sweepAdmit(proposed TimeInterval, existing []TimeInterval) bool {
	units := p.UnitCount()

	events := make([]occupancyEvent, 0, 2*(len(existing)+1))
	push := func(iv TimeInterval) {
		events = append(events,
			occupancyEvent{at: iv.Start.Unix(), delta: 1},
			occupancyEvent{at: iv.End.Unix(), delta: -1},
		)
	}
	push(proposed)
	for _, iv := range existing {
		push(iv)
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].at == events[j].at {
			return events[i].delta > events[j].delta
		}
		return events[i].at < events[j].at
	})

	var occupied int64
	for _, ev := range events {
		occupied += ev.delta
		if occupied > units {
			return false
		}
	}
	return true
}
