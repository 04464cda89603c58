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
	"strconv"
	"testing"

	"github.com/pickettbd/covwig/sam"
	"github.com/pickettbd/covwig/utils"
)

// recordingSink records output events as strings: "track <name>",
// "step <chrom>", and one decimal string per count.
type recordingSink struct {
	events []string
}

func (s *recordingSink) TrackHeader(name string) {
	s.events = append(s.events, "track "+name)
}

func (s *recordingSink) Step(chrom string, step int32) {
	s.events = append(s.events, "step "+chrom+" "+strconv.FormatInt(int64(step), 10))
}

func (s *recordingSink) Count(count int32) {
	s.events = append(s.events, strconv.FormatInt(int64(count), 10))
}

func (s *recordingSink) check(t *testing.T, expected ...string) {
	t.Helper()
	if len(s.events) != len(expected) {
		t.Fatalf("wrong number of output events: got %v, want %v", s.events, expected)
	}
	for i, event := range s.events {
		if event != expected[i] {
			t.Fatalf("wrong output events: got %v, want %v", s.events, expected)
		}
	}
}

func testTable(t *testing.T, refs ...Ref) *RefTable {
	t.Helper()
	hdr := sam.NewHeader()
	for _, ref := range refs {
		hdr.SQ = append(hdr.SQ, utils.StringMap{
			"SN": ref.Name,
			"LN": strconv.FormatInt(int64(ref.Length), 10),
		})
	}
	table, err := NewRefTable(hdr)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func mapped(rname string, pos int32, cigar string) *sam.Alignment {
	return &sam.Alignment{QNAME: "read", FLAG: 0, RNAME: rname, POS: pos, MAPQ: 60, CIGAR: cigar}
}

func addAll(t *testing.T, tracker *Tracker, alns ...*sam.Alignment) {
	t.Helper()
	for _, aln := range alns {
		if err := tracker.Add(aln); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAlignmentSpanningWholeReference(t *testing.T) {
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 10}), 5, sink)
	addAll(t, tracker, mapped("chr1", 1, "10M"))
	tracker.Finish()
	sink.check(t, "step chr1 5", "1", "1")
}

func TestAlignmentInLaterWindow(t *testing.T) {
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 10}), 5, sink)
	addAll(t, tracker, mapped("chr1", 7, "2M"))
	tracker.Finish()
	sink.check(t, "step chr1 5", "0", "1")
}

func TestAdjacentAlignments(t *testing.T) {
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 10}), 5, sink)
	addAll(t, tracker, mapped("chr1", 1, "5M"), mapped("chr1", 6, "5M"))
	tracker.Finish()
	sink.check(t, "step chr1 5", "1", "1")
}

func TestUntouchedReferencePrecedingAlignments(t *testing.T) {
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 5}, Ref{"chr2", 5}), 5, sink)
	addAll(t, tracker, mapped("chr2", 1, "5M"))
	tracker.Finish()
	sink.check(t, "step chr1 5", "0", "step chr2 5", "1")
}

func TestUntouchedReferenceTrailingAlignments(t *testing.T) {
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 5}, Ref{"chr2", 12}), 5, sink)
	addAll(t, tracker, mapped("chr1", 2, "3M"))
	tracker.Finish()
	sink.check(t, "step chr1 5", "1", "step chr2 5", "0", "0", "0")
}

func TestEmptyInput(t *testing.T) {
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 12}), 5, sink)
	tracker.Finish()
	sink.check(t, "step chr1 5", "0", "0", "0")
}

func TestCoverageGap(t *testing.T) {
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 20}), 5, sink)
	addAll(t, tracker, mapped("chr1", 1, "5M"), mapped("chr1", 16, "5M"))
	tracker.Finish()
	sink.check(t, "step chr1 5", "1", "0", "0", "1")
}

func TestWindowCountConservation(t *testing.T) {
	// an alignment at position 3 of span 10 touches windows
	// [1,4], [5,8], and [9,12], and no others
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 20}), 4, sink)
	addAll(t, tracker, mapped("chr1", 3, "10M"))
	tracker.Finish()
	sink.check(t, "step chr1 4", "1", "1", "1", "0", "0")
}

func TestOverlappingAlignmentsCountOncePerWindow(t *testing.T) {
	// each alignment adds at most 1 per window it touches,
	// regardless of how many bases fall inside the window
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 10}), 5, sink)
	addAll(t, tracker,
		mapped("chr1", 1, "4M"),
		mapped("chr1", 2, "2M1D4M"),
		mapped("chr1", 4, "5M"))
	tracker.Finish()
	sink.check(t, "step chr1 5", "3", "2")
}

func TestDeletionsAndSkipsInSpan(t *testing.T) {
	// 2M2D2M spans reference positions 1 through 6; 2M4N2M at
	// position 3 spans positions 3 through 6, because the skip does
	// not count toward the span
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 10}), 5, sink)
	addAll(t, tracker, mapped("chr1", 1, "2M2D2M"), mapped("chr1", 3, "2M4N2M"))
	tracker.Finish()
	sink.check(t, "step chr1 5", "2", "2")
}

func TestUnmappedRecordsAreSkipped(t *testing.T) {
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 10}), 5, sink)
	unmappedFlag := mapped("chr1", 3, "5M")
	unmappedFlag.FLAG = sam.Unmapped
	addAll(t, tracker,
		&sam.Alignment{QNAME: "u1", FLAG: sam.Unmapped, RNAME: "*", POS: 0, CIGAR: "*"},
		unmappedFlag,
		&sam.Alignment{QNAME: "u2", RNAME: "chr1", POS: 8, CIGAR: "*"},
		&sam.Alignment{QNAME: "u3", FLAG: sam.Unmapped, RNAME: "chrUnknown", POS: 99, CIGAR: "*"})
	tracker.Finish()
	sink.check(t, "step chr1 5", "0", "0")
}

func TestReferenceNotFound(t *testing.T) {
	tracker := NewTracker(testTable(t, Ref{"chr1", 10}), 5, new(recordingSink))
	err := tracker.Add(mapped("chrX", 1, "5M"))
	if _, ok := err.(ReferenceNotFoundError); !ok {
		t.Error("missing reference must raise ReferenceNotFoundError, got ", err)
	}
}

func TestMalformedAlignment(t *testing.T) {
	tracker := NewTracker(testTable(t, Ref{"chr1", 10}), 5, new(recordingSink))
	err := tracker.Add(mapped("chr1", 1, "5S"))
	if _, ok := err.(MalformedAlignmentError); !ok {
		t.Error("zero-span mapped alignment must raise MalformedAlignmentError, got ", err)
	}
	if err := tracker.Add(mapped("chr1", 1, "bogus")); err == nil {
		t.Error("invalid CIGAR string must raise an error")
	}
}

func TestRecordOrderViolations(t *testing.T) {
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 10}, Ref{"chr2", 10}), 5, sink)
	addAll(t, tracker, mapped("chr1", 6, "2M"))
	err := tracker.Add(mapped("chr1", 2, "2M"))
	if _, ok := err.(RecordOrderError); !ok {
		t.Error("decreasing position must raise RecordOrderError, got ", err)
	}

	sink = new(recordingSink)
	tracker = NewTracker(testTable(t, Ref{"chr1", 10}, Ref{"chr2", 10}), 5, sink)
	addAll(t, tracker, mapped("chr2", 1, "2M"))
	err = tracker.Add(mapped("chr1", 1, "2M"))
	if _, ok := err.(RecordOrderError); !ok {
		t.Error("revisiting a finished reference must raise RecordOrderError, got ", err)
	}
}

func TestRefTableErrors(t *testing.T) {
	check := func(sq utils.StringMap) {
		t.Helper()
		hdr := sam.NewHeader()
		hdr.SQ = append(hdr.SQ, sq)
		if _, err := NewRefTable(hdr); err == nil {
			t.Error("NewRefTable must reject @SQ record ", sq)
		} else if _, ok := err.(HeaderFormatError); !ok {
			t.Error("NewRefTable must raise HeaderFormatError, got ", err)
		}
	}
	check(utils.StringMap{"LN": "1000"})
	check(utils.StringMap{"SN": "chr1"})
	check(utils.StringMap{"SN": "chr1", "LN": "x"})
	check(utils.StringMap{"SN": "chr1", "LN": "0"})
	check(utils.StringMap{"SN": "chr1", "LN": "-5"})

	hdr := sam.NewHeader()
	hdr.SQ = append(hdr.SQ,
		utils.StringMap{"SN": "chr1", "LN": "1000"},
		utils.StringMap{"SN": "chr1", "LN": "500"})
	if _, err := NewRefTable(hdr); err == nil {
		t.Error("NewRefTable must reject duplicate @SQ records")
	}
}

func TestLongReferenceBufferBehavior(t *testing.T) {
	// continuous coverage over many windows keeps the buffer short
	// and the emitted counts correct
	sink := new(recordingSink)
	tracker := NewTracker(testTable(t, Ref{"chr1", 1000}), 10, sink)
	alns := make([]*sam.Alignment, 0, 100)
	for pos := int32(1); pos <= 991; pos += 10 {
		alns = append(alns, mapped("chr1", pos, "10M"))
	}
	addAll(t, tracker, alns...)
	tracker.Finish()
	if len(sink.events) != 101 {
		t.Fatal("wrong number of output events: ", len(sink.events))
	}
	for _, event := range sink.events[1:] {
		if event != "1" {
			t.Fatal("wrong count in continuous coverage: ", event)
		}
	}
	if tracker.acc.buffered() != 0 {
		t.Error("buffer must be empty after Finish")
	}
}
