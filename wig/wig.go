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

// Package wig formats fixed-step wiggle (WIG) tracks.
//
// WIG uses the same coordinate system as SAM: 1-based, fully closed
// intervals. This is different from BED and PAF, which are 0-based
// and half open.
package wig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// A Writer formats a fixed-step wiggle track. Write errors are
// latched by the underlying bufio.Writer and surface on Flush.
type Writer struct {
	out *bufio.Writer
}

// NewWriter returns a Writer that emits wiggle text to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(w)}
}

// TrackHeader writes the track definition line with the given track
// name.
func (w *Writer) TrackHeader(name string) {
	fmt.Fprintf(w.out, "track type=%q name=%q\n", "wiggle_0", name)
}

// Step writes a fixedStep declaration line for the given reference
// sequence. Both the step and span variables are set to step, and
// start is always 1.
func (w *Writer) Step(chrom string, step int32) {
	fmt.Fprintf(w.out, "fixedStep chrom=%s start=1 step=%d span=%d\n", chrom, step, step)
}

// Count writes a single window count line.
func (w *Writer) Count(count int32) {
	w.out.WriteString(strconv.FormatInt(int64(count), 10))
	w.out.WriteByte('\n')
}

// Flush writes buffered output to the underlying writer and returns
// any write error encountered so far.
func (w *Writer) Flush() error {
	return w.out.Flush()
}

// OutputFile represents a wiggle file for output.
type OutputFile struct {
	wc io.WriteCloser
	*Writer
}

// Create a wiggle file for output.
//
// If the name is "/dev/stdout" or "-", the output is written to
// os.Stdout.
func Create(name string) (*OutputFile, error) {
	if name == "/dev/stdout" || name == "-" {
		return &OutputFile{wc: os.Stdout, Writer: NewWriter(os.Stdout)}, nil
	}
	file, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	return &OutputFile{wc: file, Writer: NewWriter(file)}, nil
}

// Close flushes buffered output and closes the underlying file.
func (f *OutputFile) Close() error {
	err := f.Flush()
	if f.wc != os.Stdout {
		if nerr := f.wc.Close(); err == nil {
			err = nerr
		}
	}
	return err
}
