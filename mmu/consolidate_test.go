package mmu

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(t *testing.T, priority int, virt, size, flags uint32) *Descriptor {
	t.Helper()
	d, err := NewDescriptor(priority, virt, virt, virt+size, flags)
	require.NoError(t, err)
	return d
}

type span struct {
	start, end uint64
	slot       int
	perm       string
}

func spans(ranges []OutputRange) []span {
	res := make([]span, 0, len(ranges))
	for _, r := range ranges {
		res = append(res, span{r.Start, r.End(), r.Source.Priority, r.RWX(true)})
	}
	return res
}

func TestConsolidateEmpty(t *testing.T) {
	assert.Empty(t, Consolidate(nil))
	assert.Empty(t, Consolidate([]*Descriptor{}))
}

func TestConsolidateSingle(t *testing.T) {
	a := entry(t, 3, 0x40000000, 0x100000, flagsRX)
	ranges := Consolidate([]*Descriptor{a})
	require.Len(t, ranges, 1)
	assert.Equal(t, uint64(0x40000000), ranges[0].Start)
	assert.Equal(t, uint64(0x100000), ranges[0].Size)
	assert.Same(t, a, ranges[0].Source)
	assert.Equal(t, "r-x", ranges[0].RWX(true))
	assert.Equal(t, "MMU3_40000000", ranges[0].Name())
	assert.Equal(t, uint64(0x400fffff), ranges[0].End())
	assert.Equal(t, "<AddressRange [40000000, 40100000] mmu=<MMUEntry [40000000, 400fffff] phys_base=40000000 priv_perm=r-x>>", ranges[0].String())
}

func TestConsolidateLaterSlotWins(t *testing.T) {
	a := entry(t, 0, 0x1000, 0x1000, flagsRWX)
	b := entry(t, 1, 0x1800, 0x1000, flagsRX)

	assert.Equal(t, []span{
		{0x1000, 0x17ff, 0, "rwx"},
		{0x1800, 0x27ff, 1, "r-x"},
	}, spans(Consolidate([]*Descriptor{a, b})))
}

func TestConsolidateIndependentOfOrderAndLength(t *testing.T) {
	big := entry(t, 2, 0x0, 0x10000, flagsRX)
	small := entry(t, 1, 0x4000, 0x1000, flagsRWX)

	// the small entry is hidden by the later, larger one
	assert.Equal(t, []span{{0x0, 0xffff, 2, "r-x"}}, spans(Consolidate([]*Descriptor{small, big})))
	assert.Equal(t, []span{{0x0, 0xffff, 2, "r-x"}}, spans(Consolidate([]*Descriptor{big, small})))

	// a later small entry punches a hole
	big = entry(t, 0, 0x0, 0x10000, flagsRX)
	small = entry(t, 5, 0x4000, 0x1000, flagsRWX)
	assert.Equal(t, []span{
		{0x0, 0x3fff, 0, "r-x"},
		{0x4000, 0x4fff, 5, "rwx"},
		{0x5000, 0xffff, 0, "r-x"},
	}, spans(Consolidate([]*Descriptor{small, big})))
}

func TestConsolidateGap(t *testing.T) {
	a := entry(t, 0, 0x1000, 0x1000, flagsRWX)
	b := entry(t, 1, 0x8000, 0x1000, flagsRW)
	assert.Equal(t, []span{
		{0x1000, 0x1fff, 0, "rwx"},
		{0x8000, 0x8fff, 1, "rw-"},
	}, spans(Consolidate([]*Descriptor{a, b})))
}

func TestConsolidateAdjacent(t *testing.T) {
	a := entry(t, 1, 0x1000, 0x1000, flagsRWX)
	b := entry(t, 0, 0x2000, 0x1000, flagsRX)
	assert.Equal(t, []span{
		{0x1000, 0x1fff, 1, "rwx"},
		{0x2000, 0x2fff, 0, "r-x"},
	}, spans(Consolidate([]*Descriptor{a, b})))
}

// An entry starting on the last address of another is active there together
// with it, so that single address goes to the higher slot.
func TestConsolidateStartOnLastAddress(t *testing.T) {
	a := entry(t, 0, 0x1000, 0x1000, flagsRWX)
	b := entry(t, 1, 0x1fff, 0x1001, flagsRX)
	assert.Equal(t, []span{
		{0x1000, 0x1ffe, 0, "rwx"},
		{0x1fff, 0x2fff, 1, "r-x"},
	}, spans(Consolidate([]*Descriptor{a, b})))

	a = entry(t, 1, 0x1000, 0x1000, flagsRWX)
	b = entry(t, 0, 0x1fff, 0x1001, flagsRX)
	assert.Equal(t, []span{
		{0x1000, 0x1fff, 1, "rwx"},
		{0x2000, 0x2fff, 0, "r-x"},
	}, spans(Consolidate([]*Descriptor{a, b})))
}

func TestConsolidateIdenticalExtents(t *testing.T) {
	a := entry(t, 0, 0x1000, 0x1000, flagsRWX)
	b := entry(t, 1, 0x1000, 0x1000, flagsRW)
	assert.Equal(t, []span{{0x1000, 0x1fff, 1, "rw-"}}, spans(Consolidate([]*Descriptor{a, b})))
}

func TestConsolidateSingleAddress(t *testing.T) {
	a := entry(t, 0, 0x1000, 1, flagsRWX)
	assert.Equal(t, []span{{0x1000, 0x1000, 0, "rwx"}}, spans(Consolidate([]*Descriptor{a})))
}

func TestConsolidateSkipsEmpty(t *testing.T) {
	a := entry(t, 0, 0x1000, 0x1000, flagsRWX)
	empty := entry(t, 1, 0x1800, 0, flagsRX)
	assert.Equal(t, []span{{0x1000, 0x1fff, 0, "rwx"}}, spans(Consolidate([]*Descriptor{a, empty})))
}

func TestConsolidateTopOfAddressSpace(t *testing.T) {
	a, err := NewDescriptor(0, 0xfff00000, 0x00f00000, 0x01000000, flagsRWX)
	require.NoError(t, err)
	b := entry(t, 1, 0x0, 0x100000, flagsRX)
	assert.Equal(t, []span{
		{0x0, 0xfffff, 1, "r-x"},
		{0xfff00000, 0xffffffff, 0, "rwx"},
	}, spans(Consolidate([]*Descriptor{a, b})))
}

// Checks coverage, ordering and priority address by address against random
// tables in a small address space.
func TestConsolidateProperties(t *testing.T) {
	const space = 0x400
	flags := []uint32{flagsRWX, flagsRX, flagsRW, flagsRORO, flagsNone}
	rnd := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		n := rnd.Intn(8)
		entries := make([]*Descriptor, 0, n)
		for slot := 0; slot < n; slot++ {
			start := uint32(rnd.Intn(space - 1))
			size := uint32(1 + rnd.Intn(space-int(start)))
			entries = append(entries, entry(t, slot, start, size, flags[rnd.Intn(len(flags))]))
		}
		rnd.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })

		want := make([]*Descriptor, space)
		for _, e := range entries {
			for addr := e.VirtStart(); addr <= e.VirtEnd(); addr++ {
				if want[addr] == nil || want[addr].Priority < e.Priority {
					want[addr] = e
				}
			}
		}

		got := make([]*Descriptor, space)
		ranges := Consolidate(entries)
		for i, r := range ranges {
			require.NotZero(t, r.Size)
			if i > 0 {
				prev := ranges[i-1]
				require.Less(t, prev.End(), r.Start, "iteration %d: ranges overlap or are unsorted", iter)
				if prev.End()+1 == r.Start {
					require.NotSame(t, prev.Source, r.Source, "iteration %d: range not maximal", iter)
				}
			}
			for addr := r.Start; addr <= r.End(); addr++ {
				got[addr] = r.Source
			}
		}

		for addr := range want {
			require.Same(t, want[addr], got[addr], "iteration %d: address 0x%x", iter, addr)
		}
	}
}
