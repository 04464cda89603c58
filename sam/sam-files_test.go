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

package sam

import (
	"bufio"
	"strings"
	"testing"
)

func TestParseHeader(t *testing.T) {
	text := "@HD\tVN:1.6\tSO:coordinate\n" +
		"@SQ\tSN:chr1\tLN:1000\n" +
		"@SQ\tSN:chr2\tLN:500\n" +
		"@RG\tID:rg1\n" +
		"@PG\tID:covwig\n" +
		"@CO\ta comment\n" +
		"read1\t0\tchr1\t1\t60\t10M\t*\t0\t0\t*\t*\n"
	reader := bufio.NewReader(strings.NewReader(text))
	hdr, err := ParseHeader(reader)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.HD["SO"] != "coordinate" {
		t.Error("ParseHeader @HD failed")
	}
	if len(hdr.SQ) != 2 {
		t.Fatal("ParseHeader @SQ count failed")
	}
	if sn, _ := SQSN(hdr.SQ[0]); sn != "chr1" {
		t.Error("ParseHeader SN failed")
	}
	if ln, err := SQLN(hdr.SQ[1]); err != nil || ln != 500 {
		t.Error("ParseHeader LN failed")
	}
	if len(hdr.RG) != 1 || len(hdr.PG) != 1 || len(hdr.CO) != 1 {
		t.Error("ParseHeader record counts failed")
	}
	// the alignment section must be left untouched
	if line, err := reader.ReadString('\n'); err != nil || !strings.HasPrefix(line, "read1") {
		t.Error("ParseHeader consumed the alignment section")
	}
}

func TestParseHeaderErrors(t *testing.T) {
	misplacedHD := "@SQ\tSN:chr1\tLN:1000\n@HD\tVN:1.6\n"
	if _, err := ParseHeader(bufio.NewReader(strings.NewReader(misplacedHD))); err == nil {
		t.Error("ParseHeader must reject a misplaced @HD line")
	}
	unknownCode := "@XY\tSN:chr1\n"
	if _, err := ParseHeader(bufio.NewReader(strings.NewReader(unknownCode))); err == nil {
		t.Error("ParseHeader must reject unknown record type codes")
	}
	duplicateTag := "@SQ\tSN:chr1\tSN:chr2\tLN:1000\n"
	if _, err := ParseHeader(bufio.NewReader(strings.NewReader(duplicateTag))); err == nil {
		t.Error("ParseHeader must reject duplicate field tags")
	}
}

func TestParseAlignment(t *testing.T) {
	var sc StringScanner
	sc.Reset("read1\t16\tchr2\t271\t60\t6M14N5M\t=\t1000\t750\tACGTACGTACG\t*\tNM:i:0")
	aln := sc.ParseAlignment()
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	if aln.QNAME != "read1" ||
		aln.FLAG != 16 ||
		aln.RNAME != "chr2" ||
		aln.POS != 271 ||
		aln.MAPQ != 60 ||
		aln.CIGAR != "6M14N5M" {
		t.Error("ParseAlignment failed")
	}
	if !aln.IsReversed() || aln.IsUnmapped() {
		t.Error("ParseAlignment flags failed")
	}

	sc.Reset("read2\t4\t*\t0\t0\t*\t*\t0\t0\t*\t*")
	aln = sc.ParseAlignment()
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	if !aln.IsUnmapped() || aln.CIGAR != "*" || aln.POS != 0 {
		t.Error("ParseAlignment of an unmapped record failed")
	}

	sc.Reset("read3\tnot-a-flag\tchr1\t1\t60\t10M\t*\t0\t0\t*\t*")
	sc.ParseAlignment()
	if sc.Err() == nil {
		t.Error("ParseAlignment must report malformed fields")
	}
}
