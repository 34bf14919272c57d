package memmap

import (
	"github.com/go-errors/errors"
	"github.com/ranmrdrakono/mmutable/arch"
	ds "github.com/ranmrdrakono/mmutable/data_structures"
	log "github.com/sirupsen/logrus"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"
)

const pagesize = 4096

func wrap(err error) error {
	if err != nil {
		return errors.Wrap(err, 1)
	}
	return nil
}

func toUnicornProt(flags ds.PageFlags) int {
	prot := uc.PROT_NONE
	if flags&ds.R != 0 {
		prot |= uc.PROT_READ
	}
	if flags&ds.W != 0 {
		prot |= uc.PROT_WRITE
	}
	if flags&ds.X != 0 {
		prot |= uc.PROT_EXEC
	}
	return prot
}

func NewUnicorn(a arch.Arch) (uc.Unicorn, error) {
	mu, err := uc.NewUnicorn(a.ToUnicornArchDescription(), a.ToUnicornModeDescription())
	if err != nil {
		return nil, wrap(err)
	}
	return mu, nil
}

// MapUnicorn maps every region into mu with its permissions and writes the
// region content. Regions must be page aligned.
func MapUnicorn(mu uc.Unicorn, regions []*ds.MappedRegion) error {
	for _, r := range regions {
		size := r.Range.Length()
		if r.Range.From%pagesize != 0 || size%pagesize != 0 {
			return errors.Errorf("region %s [0x%x, 0x%x] is not page aligned", r.Name, r.Range.From, r.Range.To)
		}
		if uint64(len(r.Data)) > size {
			return errors.Errorf("region %s content of 0x%x bytes exceeds its size 0x%x", r.Name, len(r.Data), size)
		}
		log.WithFields(log.Fields{"name": r.Name, "addr": hex(r.Range.From), "length": size, "perm": r.Flags.String()}).Debug("Map Memory")
		if err := mu.MemMapProt(r.Range.From, size, toUnicornProt(r.Flags)); err != nil {
			return errors.WrapPrefix(err, r.Name, 0)
		}
		if len(r.Data) == 0 {
			continue
		}
		log.WithFields(log.Fields{"addr": hex(r.Range.From), "length": len(r.Data)}).Debug("Write Memory Content")
		if err := mu.MemWrite(r.Range.From, r.Data); err != nil {
			return wrap(err)
		}
	}
	return nil
}
