// Package memmap turns consolidated MMU ranges into named memory regions
// and registers them with an emulator.
package memmap

import (
	"fmt"
	"sort"

	ds "github.com/ranmrdrakono/mmutable/data_structures"
	"github.com/ranmrdrakono/mmutable/mmu"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Builder collects the regions of one firmware image's address space.
type Builder struct {
	// Privileged selects the privileged permissions of each MMU range
	// instead of the unprivileged ones.
	Privileged bool

	regions []*ds.MappedRegion
}

func NewBuilder(privileged bool) *Builder {
	return &Builder{Privileged: privileged}
}

// AddMMURanges registers one region per range, named MMU<slot>_<start>.
func (b *Builder) AddMMURanges(ranges []mmu.OutputRange) {
	for _, r := range ranges {
		flags := r.Source.PageFlags(b.Privileged)
		b.Add(ds.NewMappedRegion(r.Name(), nil, flags, ds.NewRange(r.Start, r.End())))
	}
}

func (b *Builder) Add(region *ds.MappedRegion) {
	log.WithFields(log.Fields{
		"name":  region.Name,
		"start": hex(region.Range.From),
		"size":  hex(region.Range.Length()),
		"perm":  region.Flags.String(),
	}).Info("Add memory range")
	b.regions = append(b.regions, region)
}

// Regions returns the registered regions ordered by start address.
func (b *Builder) Regions() []*ds.MappedRegion {
	res := append([]*ds.MappedRegion(nil), b.regions...)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Range.From < res[j].Range.From
	})
	return res
}

// Overlaps returns the pairs of registered regions sharing an address.
func (b *Builder) Overlaps() [][2]*ds.MappedRegion {
	var res [][2]*ds.MappedRegion
	regions := b.Regions()
	for i, r := range regions {
		for _, o := range regions[i+1:] {
			if o.Range.From > r.Range.To {
				break
			}
			if r.Range.IntersectsRange(o.Range) {
				res = append(res, [2]*ds.MappedRegion{r, o})
			}
		}
	}
	return res
}

// Names lists region names in address order.
func (b *Builder) Names() []string {
	return lo.Map(b.Regions(), func(r *ds.MappedRegion, _ int) string {
		return r.Name
	})
}

func hex(val uint64) string {
	return fmt.Sprintf("0x%x", val)
}
