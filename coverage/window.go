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

// A Sink receives the finalized output events of a coverage run, in
// emission order. Textual rendering is up to the implementation; see
// the wig package.
type Sink interface {
	// TrackHeader is called once, before any other event.
	TrackHeader(name string)
	// Step is called once per reference sequence, before its counts.
	Step(chrom string, step int32)
	// Count is called once per finalized window, in genomic order.
	Count(count int32)
}

// accumulator is the sliding buffer of per-window alignment counts
// for the reference sequence currently being processed.
//
// counts[head+i] is the count of the window starting at reference
// position windowStart + i*windowSize. The buffer only ever holds the
// windows from windowStart up to the farthest window touched by an
// alignment seen so far; windows are emitted from the front as soon
// as no later alignment of a coordinate-sorted input can still touch
// them. All positions are 1-based and windows are fully closed
// intervals of windowSize reference positions.
type accumulator struct {
	windowSize  int32
	sink        Sink
	counts      []int32
	head        int
	windowStart int32
}

func newAccumulator(windowSize int32, sink Sink) *accumulator {
	return &accumulator{
		windowSize:  windowSize,
		sink:        sink,
		windowStart: 1,
	}
}

func (acc *accumulator) reset() {
	acc.counts = acc.counts[:0]
	acc.head = 0
	acc.windowStart = 1
}

// buffered returns the number of windows currently held.
func (acc *accumulator) buffered() int {
	return len(acc.counts) - acc.head
}

// advanceTo emits and pops front windows until the window containing
// targetStart is at the front of the buffer. Windows that were never
// touched by an alignment are emitted as 0; this is what produces
// the zeros of a coverage gap.
func (acc *accumulator) advanceTo(targetStart int32) {
	for targetStart > acc.windowStart+acc.windowSize-1 {
		var count int32
		if acc.head < len(acc.counts) {
			count = acc.counts[acc.head]
			acc.head++
		}
		acc.sink.Count(count)
		acc.windowStart += acc.windowSize
	}
	// Reclaim the emitted prefix so that the backing array stays
	// proportional to the buffered window range.
	if acc.head > 0 && 2*acc.head >= len(acc.counts) {
		n := copy(acc.counts, acc.counts[acc.head:])
		acc.counts = acc.counts[:n]
		acc.head = 0
	}
}

// incrementSpan adds 1 to the count of every window touched by the
// closed reference interval [targetStart, targetEnd]. The caller must
// have called advanceTo(targetStart) first, so that targetStart falls
// inside the front window, and targetEnd must not precede
// targetStart.
func (acc *accumulator) incrementSpan(targetStart, targetEnd int32) {
	covered := int((targetEnd + 1 - acc.windowStart + acc.windowSize - 1) / acc.windowSize)
	for acc.buffered() < covered {
		acc.counts = append(acc.counts, 0)
	}
	windows := acc.counts[acc.head:]
	for i := 0; i < covered; i++ {
		windows[i]++
	}
}

// flushRemaining emits all buffered windows, then zeros for every
// remaining window up to the end of a reference sequence of the
// given length, and empties the buffer.
func (acc *accumulator) flushRemaining(referenceLength int32) {
	for _, count := range acc.counts[acc.head:] {
		acc.sink.Count(count)
		acc.windowStart += acc.windowSize
	}
	acc.counts = acc.counts[:0]
	acc.head = 0
	for ; acc.windowStart <= referenceLength; acc.windowStart += acc.windowSize {
		acc.sink.Count(0)
	}
}
