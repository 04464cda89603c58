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

import "fmt"

// All inconsistencies detected during a run are fatal; silently wrong
// coverage numbers are worse than stopping. None of these errors are
// retried or downgraded to warnings.

// HeaderFormatError reports an @SQ header record that is missing or
// carries an unusable SN or LN field. It aborts the run before any
// alignment is processed.
type HeaderFormatError struct {
	Message string
}

func (e HeaderFormatError) Error() string {
	return e.Message
}

// ReferenceNotFoundError reports an alignment whose RNAME is not
// present in the @SQ header records.
type ReferenceNotFoundError struct {
	Name string
}

func (e ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("SAM alignment has RNAME %v, which is not present in the @SQ header records", e.Name)
}

// MalformedAlignmentError reports a mapped alignment whose CIGAR
// consumes zero reference bases.
type MalformedAlignmentError struct {
	QNAME string
	CIGAR string
}

func (e MalformedAlignmentError) Error() string {
	return fmt.Sprintf("mapped SAM alignment %v has CIGAR %v that consumes no reference bases", e.QNAME, e.CIGAR)
}

// RecordOrderError reports input that is not coordinate sorted: an
// alignment on a reference sequence that was already finished, or a
// start position that decreases within the current reference.
type RecordOrderError struct {
	QNAME     string
	Reference string
	Position  int32
}

func (e RecordOrderError) Error() string {
	return fmt.Sprintf("SAM alignment %v at %v:%v violates coordinate order; the input must be coordinate sorted", e.QNAME, e.Reference, e.Position)
}
