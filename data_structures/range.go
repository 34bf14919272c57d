package data_structures

import (
	log "github.com/sirupsen/logrus"
)

// Range is an inclusive address interval [From, To].
type Range struct {
	From, To uint64
}

func (s *Range) Intersects(from, to uint64) bool {
	return max(s.From, from) <= min(s.To, to)
}

func (s *Range) IntersectsRange(other Range) bool {
	return s.Intersects(other.From, other.To)
}

// Length is the number of addresses covered.
func (s *Range) Length() uint64 {
	return s.To - s.From + 1
}

func NewRange(from, to uint64) Range {
	if from > to {
		log.WithFields(log.Fields{"from": from, "to": to}).Warning("Range with swaped bounds")
		from, to = to, from
	}
	return Range{From: from, To: to}
}
