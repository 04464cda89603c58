package sam

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/biogo/hts/bam"
	biosam "github.com/biogo/hts/sam"
	"github.com/brentp/xopen"
	"github.com/exascience/pargo/pipeline"

	"github.com/pickettbd/covwig/utils"
)

func (sc *StringScanner) parseHeaderField() (tag, value string) {
	if sc.err != nil {
		return
	}
	tag, ok := sc.readUntil(':')
	if !ok || (len(tag) != 2) {
		if sc.err == nil {
			sc.err = fmt.Errorf("invalid field tag %v", tag)
		}
		return "", ""
	}
	value, _ = sc.readUntil('\t')
	return tag, value
}

func (sc *StringScanner) parseHeaderLine() utils.StringMap {
	if sc.err != nil {
		return nil
	}
	record := make(utils.StringMap)
	for sc.Len() > 0 {
		tag, value := sc.parseHeaderField()
		if !record.SetUniqueEntry(tag, value) {
			if sc.err == nil {
				sc.err = fmt.Errorf("duplicate field tag %v in a SAM header line", tag)
			}
			break
		}
	}
	return record
}

// ParseHeader parses the header section of a SAM file from the given
// reader, consuming all lines that start with '@'.
func ParseHeader(reader *bufio.Reader) (hdr *Header, err error) {
	hdr = NewHeader()
	var sc StringScanner
	for first := true; ; first = false {
		switch data, err := reader.Peek(1); {
		case err == io.EOF:
			return hdr, sc.Err()
		case err != nil:
			return hdr, err
		case data[0] != '@':
			return hdr, sc.Err()
		}
		bytes, err := reader.ReadBytes('\n')
		length := len(bytes)
		switch {
		case err == nil:
			length--
		case err != io.EOF:
			return hdr, err
		}
		if length < 4 {
			return hdr, fmt.Errorf("truncated SAM header line %v", string(bytes[:length]))
		}
		line := string(bytes[4:length])
		sc.Reset(line)
		switch string(bytes[0:4]) {
		case "@HD\t":
			if !first {
				return hdr, fmt.Errorf("@HD line not in first line when parsing a SAM header")
			}
			hdr.HD = sc.parseHeaderLine()
		case "@SQ\t":
			hdr.SQ = append(hdr.SQ, sc.parseHeaderLine())
		case "@RG\t":
			hdr.RG = append(hdr.RG, sc.parseHeaderLine())
		case "@PG\t":
			hdr.PG = append(hdr.PG, sc.parseHeaderLine())
		case "@CO\t":
			hdr.CO = append(hdr.CO, line)
		default:
			return hdr, fmt.Errorf("unknown SAM record type code %v", string(bytes[0:3]))
		}
	}
}

// ParseAlignment parses the mandatory fields of a SAM alignment line
// up to and including CIGAR; the remaining fields are skipped.
func (sc *StringScanner) ParseAlignment() *Alignment {
	aln := new(Alignment)

	aln.QNAME = sc.doString()
	aln.FLAG = uint16(sc.doUint(16))
	aln.RNAME = sc.doString()
	aln.POS = sc.doInt32()
	aln.MAPQ = byte(sc.doUint(8))
	aln.CIGAR, _ = sc.readUntil('\t')

	return aln
}

type (
	// alignmentReader is a common interface for reading both SAM and
	// BAM files.
	alignmentReader interface {
		ParseHeader() (*Header, error)
		pipeline.Source
		io.Closer
	}

	// InputFile represents a SAM or BAM file for input.
	InputFile struct {
		reader alignmentReader
	}
)

// Close closes the SAM/BAM input file.
func (f *InputFile) Close() error {
	return f.reader.Close()
}

// ParseHeader fetches the header from a SAM or BAM file. It must be
// called before the file is used as a pipeline source.
func (f *InputFile) ParseHeader() (*Header, error) {
	return f.reader.ParseHeader()
}

// Err implements the method of the pipeline.Source interface.
func (f *InputFile) Err() error {
	return f.reader.Err()
}

// Prepare implements the method of the pipeline.Source interface.
func (f *InputFile) Prepare(ctx context.Context) int {
	return f.reader.Prepare(ctx)
}

// Fetch implements the method of the pipeline.Source interface.
func (f *InputFile) Fetch(size int) int {
	return f.reader.Fetch(size)
}

// Data implements the method of the pipeline.Source interface.
func (f *InputFile) Data() interface{} {
	return f.reader.Data()
}

// samReader reads the alignment section of a SAM text file as batches
// of raw lines.
type samReader struct {
	rc   io.Closer
	buf  *bufio.Reader
	data [][]byte
	err  error
}

func (sr *samReader) ParseHeader() (*Header, error) {
	return ParseHeader(sr.buf)
}

// Err implements the corresponding method of pipeline.Source
func (sr *samReader) Err() error {
	if sr.err == io.EOF {
		return nil
	}
	return sr.err
}

// Prepare implements the corresponding method of pipeline.Source
func (sr *samReader) Prepare(_ context.Context) int {
	return -1
}

// Fetch implements the corresponding method of pipeline.Source
func (sr *samReader) Fetch(size int) (fetched int) {
	if sr.err != nil {
		sr.data = nil
		return 0
	}
	data := make([][]byte, 0, size)
	for fetched < size {
		line, err := sr.buf.ReadBytes('\n')
		if n := len(line); n > 0 && line[n-1] == '\n' {
			line = line[:n-1]
		}
		if len(line) > 0 {
			data = append(data, line)
			fetched++
		}
		if err != nil {
			sr.err = err
			break
		}
	}
	sr.data = data
	return fetched
}

// Data implements the corresponding method of pipeline.Source
func (sr *samReader) Data() interface{} {
	return sr.data
}

func (sr *samReader) Close() error {
	return sr.rc.Close()
}

// bamReader reads a BAM file natively and converts its records to
// batches of Alignment values.
type bamReader struct {
	rc   io.Closer
	bam  *bam.Reader
	data []*Alignment
	err  error
}

func (br *bamReader) ParseHeader() (*Header, error) {
	hdr := NewHeader()
	for _, ref := range br.bam.Header().Refs() {
		hdr.SQ = append(hdr.SQ, utils.StringMap{
			"SN": ref.Name(),
			"LN": strconv.Itoa(ref.Len()),
		})
	}
	return hdr, nil
}

func alignmentFromRecord(rec *biosam.Record) *Alignment {
	aln := &Alignment{
		QNAME: rec.Name,
		FLAG:  uint16(rec.Flags),
		RNAME: "*",
		MAPQ:  rec.MapQ,
		CIGAR: rec.Cigar.String(),
	}
	if rec.Ref != nil {
		aln.RNAME = rec.Ref.Name()
	}
	if rec.Pos >= 0 {
		aln.POS = int32(rec.Pos) + 1
	}
	return aln
}

// Err implements the corresponding method of pipeline.Source
func (br *bamReader) Err() error {
	if br.err == io.EOF {
		return nil
	}
	return br.err
}

// Prepare implements the corresponding method of pipeline.Source
func (br *bamReader) Prepare(_ context.Context) int {
	return -1
}

// Fetch implements the corresponding method of pipeline.Source
func (br *bamReader) Fetch(size int) (fetched int) {
	if br.err != nil {
		br.data = nil
		return 0
	}
	data := make([]*Alignment, 0, size)
	for fetched < size {
		rec, err := br.bam.Read()
		if err != nil {
			br.err = err
			break
		}
		data = append(data, alignmentFromRecord(rec))
		fetched++
	}
	br.data = data
	return fetched
}

// Data implements the corresponding method of pipeline.Source
func (br *bamReader) Data() interface{} {
	return br.data
}

func (br *bamReader) Close() error {
	err := br.bam.Close()
	if nerr := br.rc.Close(); err == nil {
		err = nerr
	}
	return err
}

// SAM file extensions.
const (
	SamExt  = ".sam"
	BamExt  = ".bam"
	cramExt = ".cram"
)

// Open a SAM or BAM file for input.
//
// Filenames ending in .bam are read natively as BAM. Everything else
// is treated as SAM text; "-" and "/dev/stdin" read from standard
// input, and gzip-compressed SAM text is decompressed transparently.
func Open(name string) (*InputFile, error) {
	switch filepath.Ext(name) {
	case BamExt:
		// xopen would transparently inflate the BGZF container, so
		// open the file directly and let the bam reader handle it.
		file, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		reader, err := bam.NewReader(file, 0)
		if err != nil {
			_ = file.Close()
			return nil, err
		}
		return &InputFile{reader: &bamReader{rc: file, bam: reader}}, nil
	case cramExt:
		return nil, fmt.Errorf("CRAM format not supported when opening %v (convert with samtools view first)", name)
	default:
		if name == "/dev/stdin" {
			name = "-"
		}
		file, err := xopen.Ropen(name)
		if err != nil {
			return nil, err
		}
		return &InputFile{reader: &samReader{rc: file, buf: file.Reader}}, nil
	}
}

// BatchToAlignment returns a pargo pipeline.Filter that turns the
// batches produced by an InputFile into slices of Alignment pointers.
// SAM text batches are parsed; BAM batches already arrive converted.
func BatchToAlignment() pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			switch batch := data.(type) {
			case []*Alignment:
				return batch
			case [][]byte:
				var sc StringScanner
				alns := make([]*Alignment, 0, len(batch))
				for _, record := range batch {
					sc.Reset(string(record))
					aln := sc.ParseAlignment()
					if err := sc.Err(); err != nil {
						p.SetErr(fmt.Errorf("%v, while parsing SAM alignment %v", err, string(record)))
						return alns
					}
					alns = append(alns, aln)
				}
				return alns
			default:
				p.SetErr(fmt.Errorf("unexpected batch type %T in BatchToAlignment", data))
				return []*Alignment(nil)
			}
		}
		return
	}
}
