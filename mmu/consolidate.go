package mmu

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// OutputRange is a maximal address interval over which Source wins every overlap.
type OutputRange struct {
	Start  uint64
	Size   uint64
	Source *Descriptor
}

// End is the last address of the range, inclusive.
func (r OutputRange) End() uint64 {
	return r.Start + r.Size - 1
}

func (r OutputRange) RWX(privileged bool) string {
	return r.Source.RWX(privileged)
}

// Name is the region name used when registering the range in a memory map.
func (r OutputRange) Name() string {
	return fmt.Sprintf("MMU%d_%08x", r.Source.Priority, r.Start)
}

func (r OutputRange) String() string {
	return fmt.Sprintf("<AddressRange [%08x, %08x] mmu=%v>", r.Start, r.Start+r.Size, r.Source)
}

type event struct {
	addr     int64
	entry    *Descriptor
	priority int
	end      bool
}

// Consolidate flattens possibly overlapping entries into ascending,
// non-overlapping ranges. Where entries overlap the one with the highest
// Priority wins, regardless of size. Addresses covered by no entry are
// left out.
//
// Events are ordered by address with starts before ends, so an entry that
// begins on the last address of another is active there together with it.
func Consolidate(entries []*Descriptor) []OutputRange {
	events := make([]event, 0, 2*len(entries))
	for _, e := range entries {
		if e.Size() == 0 {
			log.WithFields(log.Fields{"slot": e.Priority, "virt": hex(e.VirtStart())}).Warn("Skipping empty MMU entry")
			continue
		}
		events = append(events,
			event{addr: int64(e.VirtStart()), entry: e, priority: e.Priority},
			event{addr: int64(e.VirtEnd()), entry: e, priority: e.Priority, end: true},
		)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].addr != events[j].addr {
			return events[i].addr < events[j].addr
		}
		return !events[i].end && events[j].end
	})

	var res []OutputRange
	active := make(map[int]*Descriptor)
	for i := 0; i+1 < len(events); i++ {
		cur, next := events[i], events[i+1]
		if cur.end {
			delete(active, cur.priority)
		} else {
			active[cur.priority] = cur.entry
		}

		from, to := cur.addr, next.addr
		if cur.end {
			from++
		}
		if !next.end {
			to--
		}
		if from > to || len(active) == 0 {
			continue
		}

		winner := active[lo.Max(lo.Keys(active))]
		res = appendRange(res, OutputRange{Start: uint64(from), Size: uint64(to - from + 1), Source: winner})
	}
	return res
}

// appendRange merges r into the last range when both come from the same
// entry and touch.
func appendRange(ranges []OutputRange, r OutputRange) []OutputRange {
	if n := len(ranges); n > 0 {
		last := &ranges[n-1]
		if last.Source == r.Source && last.Start+last.Size == r.Start {
			last.Size += r.Size
			return ranges
		}
	}
	log.WithFields(log.Fields{"start": hex(r.Start), "size": hex(r.Size), "slot": r.Source.Priority}).Debug("Emit MMU range")
	return append(ranges, r)
}
