// covWig: a tool for computing fixed-step coverage tracks from SAM/BAM files.
// Copyright (c) 2026 the covWig authors.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License along with this program. If not, see
// <https://github.com/pickettbd/covwig/blob/master/LICENSE.txt>.

package coverage

import (
	"fmt"
	"log"

	"github.com/pickettbd/covwig/sam"
	"github.com/willf/bitset"
)

// A Tracker consumes mapped alignments in coordinate order and emits
// one coverage track per reference sequence of the header. Unmapped
// alignments are skipped without effect. Every reference sequence of
// the header produces a track: references the input never touches
// are emitted as all-zero tracks in @SQ order.
type Tracker struct {
	table     *RefTable
	sink      Sink
	acc       *accumulator
	visited   *bitset.BitSet
	current   int // @SQ index of the active reference, -1 if none
	lastStart int32
}

// NewTracker returns a Tracker that reports counts of alignments per
// window of the given size to the given sink. The window size must be
// positive.
func NewTracker(table *RefTable, windowSize int32, sink Sink) *Tracker {
	if windowSize < 1 {
		log.Panicf("invalid window size %v in NewTracker", windowSize)
	}
	return &Tracker{
		table:   table,
		sink:    sink,
		acc:     newAccumulator(windowSize, sink),
		visited: bitset.New(uint(table.Len())),
		current: -1,
	}
}

// emitZeroTrack emits the step declaration and all-zero counts for
// the reference sequence at the given @SQ index.
func (t *Tracker) emitZeroTrack(index int) {
	ref := t.table.Ref(index)
	t.visited.Set(uint(index))
	t.sink.Step(ref.Name, t.acc.windowSize)
	for start := int32(1); start <= ref.Length; start += t.acc.windowSize {
		t.sink.Count(0)
	}
}

// transition finishes the active reference sequence and activates the
// one with the given name: the previous reference is flushed to its
// full length, header references skipped over by the input are
// emitted as all-zero tracks, and the window buffer restarts at
// position 1.
func (t *Tracker) transition(aln *sam.Alignment) error {
	name := aln.RNAME
	next, found := t.table.Lookup(name)
	if !found {
		return ReferenceNotFoundError{name}
	}
	if t.visited.Test(uint(next)) {
		return RecordOrderError{QNAME: aln.QNAME, Reference: name, Position: aln.POS}
	}
	if t.current >= 0 {
		t.acc.flushRemaining(t.table.Ref(t.current).Length)
	}
	for index := t.current + 1; index < next; index++ {
		t.emitZeroTrack(index)
	}
	t.visited.Set(uint(next))
	t.current = next
	t.lastStart = 0
	t.acc.reset()
	t.sink.Step(name, t.acc.windowSize)
	return nil
}

// Add feeds one alignment to the tracker. Alignments with the
// unmapped FLAG or the CIGAR sentinel "*" are skipped. Add must be
// called in input order.
func (t *Tracker) Add(aln *sam.Alignment) error {
	if aln.IsUnmapped() || aln.CIGAR == "*" {
		return nil
	}
	if t.current < 0 || t.table.Ref(t.current).Name != aln.RNAME {
		if err := t.transition(aln); err != nil {
			return err
		}
	} else if aln.POS < t.lastStart {
		return RecordOrderError{QNAME: aln.QNAME, Reference: aln.RNAME, Position: aln.POS}
	}
	t.lastStart = aln.POS
	cigars, err := sam.ScanCigarString(aln.CIGAR)
	if err != nil {
		return fmt.Errorf("%v in SAM alignment %v", err, aln.QNAME)
	}
	span := sam.ReferenceSpan(cigars)
	if span == 0 {
		return MalformedAlignmentError{QNAME: aln.QNAME, CIGAR: aln.CIGAR}
	}
	t.acc.advanceTo(aln.POS)
	t.acc.incrementSpan(aln.POS, aln.POS+span-1)
	return nil
}

// Finish flushes the active reference sequence and emits all-zero
// tracks for every header reference the input never touched. It must
// be called exactly once, after the last alignment.
func (t *Tracker) Finish() {
	if t.current >= 0 {
		t.acc.flushRemaining(t.table.Ref(t.current).Length)
		t.current = -1
	}
	for index, n := 0, t.table.Len(); index < n; index++ {
		if !t.visited.Test(uint(index)) {
			t.emitZeroTrack(index)
		}
	}
}
