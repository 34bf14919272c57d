package memmap

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
	ds "github.com/ranmrdrakono/mmutable/data_structures"
)

const (
	initialSalt = uint64(0xbbed475f4c2c4c03)
	regionSalt  = uint64(0x6e53469168745d93)
)

func fastHash(salt, val uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	return xxhash.Checksum64S(buf[:], salt)
}

// Fingerprint identifies a memory layout: the same regions with the same
// permissions hash equally regardless of names or content.
func Fingerprint(regions []*ds.MappedRegion) uint64 {
	h := initialSalt
	for _, r := range regions {
		h = fastHash(h^regionSalt, r.Range.From)
		h = fastHash(h, r.Range.To)
		h = fastHash(h, uint64(r.Flags))
	}
	return h
}
