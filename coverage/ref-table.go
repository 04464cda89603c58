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

	"github.com/pickettbd/covwig/sam"
)

// Ref is one reference sequence from the @SQ header records.
type Ref struct {
	Name   string
	Length int32
}

// A RefTable holds the reference sequences of a SAM header in @SQ
// order. It is built once per run and read-only thereafter.
type RefTable struct {
	refs  []Ref
	index map[string]int
}

// NewRefTable validates the @SQ records of the given header and
// builds the reference sequence table. Every record must have an SN
// field and a positive integer LN field.
func NewRefTable(hdr *sam.Header) (*RefTable, error) {
	table := &RefTable{index: make(map[string]int, len(hdr.SQ))}
	for _, sq := range hdr.SQ {
		name, err := sam.SQSN(sq)
		if err != nil {
			return nil, HeaderFormatError{err.Error()}
		}
		length, err := sam.SQLN(sq)
		if err != nil {
			return nil, HeaderFormatError{fmt.Sprintf("%v in the @SQ header record for %v", err, name)}
		}
		if length < 1 {
			return nil, HeaderFormatError{fmt.Sprintf("non-positive LN entry %v in the @SQ header record for %v", length, name)}
		}
		if _, found := table.index[name]; found {
			return nil, HeaderFormatError{fmt.Sprintf("duplicate @SQ header record for %v", name)}
		}
		table.index[name] = len(table.refs)
		table.refs = append(table.refs, Ref{Name: name, Length: length})
	}
	return table, nil
}

// Len returns the number of reference sequences in the table.
func (table *RefTable) Len() int {
	return len(table.refs)
}

// Ref returns the reference sequence at the given @SQ index.
func (table *RefTable) Ref(index int) Ref {
	return table.refs[index]
}

// Lookup returns the @SQ index of the reference sequence with the
// given name.
func (table *RefTable) Lookup(name string) (int, bool) {
	index, found := table.index[name]
	return index, found
}
