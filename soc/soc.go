// Package soc identifies the modem SoC a firmware image was built for.
package soc

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-errors/errors"
	log "github.com/sirupsen/logrus"
)

// SoC describes the fixed addresses of one modem SoC.
type SoC struct {
	Name         string
	ChipID       uint32
	SIPCBase     uint32
	SHMBase      uint32
	SOCBase      uint32
	SOCClkBase   uint32
	TimerBase    uint32
	EntryAddress uint32
}

func (s *SoC) String() string {
	return fmt.Sprintf("<ShannonSOC %s chip_id=0x%08x entry=0x%08x>", s.Name, s.ChipID, s.EntryAddress)
}

// S5123AP is the modem of the Samsung S24.
var S5123AP = &SoC{
	Name:         "S5123AP",
	ChipID:       0x03350000,
	SIPCBase:     0x8F170000,
	SHMBase:      0x48000000,
	SOCBase:      0x82020000,
	SOCClkBase:   0x88500000,
	TimerBase:    0x82020000 + 0xC000,
	EntryAddress: 0x40010000,
}

var (
	mu       sync.RWMutex
	registry = map[string]*SoC{}
)

func init() {
	Register(S5123AP)
}

func Register(s *SoC) {
	mu.Lock()
	defer mu.Unlock()
	registry[s.Name] = s
}

func Lookup(name string) (*SoC, error) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("SoC %q is not supported", name)
	}
	return s, nil
}

// Names lists the registered SoCs.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	res := make([]string, 0, len(registry))
	for name := range registry {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Identify guesses the SoC from the MAIN image and looks it up.
func Identify(main []byte) (*SoC, Version, error) {
	v, err := Guess(main)
	if err != nil {
		return nil, v, err
	}
	s, err := Lookup(v.Name)
	if err != nil {
		log.WithFields(log.Fields{"soc": v.Name, "known": Names()}).Error("Guessed SoC is not supported")
		return nil, v, err
	}
	log.WithFields(log.Fields{"soc": s.Name, "date": v.Date}).Info("SoC (automatic)")
	return s, v, nil
}
