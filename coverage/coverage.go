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

// Package coverage computes per-window alignment coverage counts from
// a single pass over a coordinate-sorted alignment stream.
//
// A window's count is the number of alignments that overlap at least
// one of its reference positions, not summed per-base depth. The
// input must be coordinate sorted, with the reference sequences in
// @SQ order; violations are detected and fatal.
package coverage

import (
	"github.com/exascience/pargo/pipeline"
	"github.com/pickettbd/covwig/sam"
)

const (
	minBatchSize = 4096
	maxBatchSize = 262144
)

// Run streams the alignments of the given input file through a
// Tracker, emitting the track header, step declarations, and window
// counts for the given window size to the sink. The header must
// already have been read from the input file, and its @SQ records
// passed in as the reference table.
//
// Records are read and parsed in batches, but fed to the tracker in
// strict input order.
func Run(input *sam.InputFile, table *RefTable, windowSize int32, trackName string, sink Sink) error {
	sink.TrackHeader(trackName)
	tracker := NewTracker(table, windowSize, sink)
	var p pipeline.Pipeline
	p.Source(input)
	p.SetVariableBatchSize(minBatchSize, maxBatchSize)
	p.Add(
		pipeline.LimitedPar(0, sam.BatchToAlignment()),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			alns := data.([]*sam.Alignment)
			for _, aln := range alns {
				if err := tracker.Add(aln); err != nil {
					p.SetErr(err)
					break
				}
			}
			return alns
		})),
	)
	p.Run()
	if err := p.Err(); err != nil {
		return err
	}
	tracker.Finish()
	return nil
}
