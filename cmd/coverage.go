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

package cmd

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pickettbd/covwig/coverage"
	"github.com/pickettbd/covwig/sam"
	"github.com/pickettbd/covwig/wig"
)

// CoverageHelp is the help string for this command.
const CoverageHelp = "\ncoverage parameters:\n" +
	"covwig coverage sam-file\n" +
	"[--name track-name]\n" +
	"[--window size]\n" +
	"[--output wig-file]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// Coverage implements the covwig coverage command. It computes the
// number of alignments overlapping each fixed-size window of every
// reference sequence, and writes the counts as a fixed-step wiggle
// track.
//
// The input must be coordinate sorted; use samtools sort first if it
// is not. No filtering is performed: pipe through samtools view if
// secondary alignments, duplicates, etc. should be excluded.
func Coverage() error {
	var (
		trackName  string
		windowSize int
		output     string
		timed      bool
		profile    string
		logPath    string
	)

	var flags flag.FlagSet

	flags.StringVar(&trackName, "name", "Coverage", "name of the wiggle track on the track definition line")
	flags.IntVar(&windowSize, "window", 1024, "window size for the coverage counts and the step declarations")
	flags.StringVar(&output, "output", "/dev/stdout", "the output .wig file")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 3, CoverageHelp)

	input := getFilename(os.Args[2], CoverageHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}

	if windowSize < 1 {
		sanityChecksFailed = true
		log.Println("Error: Invalid window size: ", windowSize)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, CoverageHelp)
		os.Exit(1)
	}

	log.Println("Executing command:\n", os.Args[0], "coverage", input,
		"--name", trackName, "--window", windowSize, "--output", output)

	in, err := sam.Open(input)
	if err != nil {
		return err
	}
	hdr, err := in.ParseHeader()
	if err != nil {
		_ = in.Close()
		return err
	}
	table, err := coverage.NewRefTable(hdr)
	if err != nil {
		_ = in.Close()
		return err
	}
	out, err := wig.Create(output)
	if err != nil {
		_ = in.Close()
		return err
	}

	var runErr error
	timedRun(timed, profile, "Computing windowed coverage.", func() {
		runErr = coverage.Run(in, table, int32(windowSize), trackName, out)
	})

	if err := in.Close(); runErr == nil {
		runErr = err
	}
	if err := out.Close(); runErr == nil {
		runErr = err
	}
	return runErr
}
