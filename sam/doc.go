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

// Package sam reads SAM and BAM files for coverage computation.
//
// Only the fields that coverage computation needs are retained per
// alignment: QNAME, FLAG, RNAME, POS, MAPQ, and CIGAR. Optional fields
// and the remaining mandatory fields are skipped during parsing.
//
// Coordinates follow the SAM convention: 1-based, fully closed
// intervals.
package sam
