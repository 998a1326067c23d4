package flatfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	readings "renewable-monitor/internal/readings/domain"
)

const (
	noDataMarker = "NO DATA"
	headerRow    = "timestamp,output,location,status"
)

var (
	// ErrFormat is returned for unsupported extensions and malformed content.
	ErrFormat = errors.New("flatfile: format error")
	// ErrFile is returned when the file cannot be read or written.
	ErrFile = errors.New("flatfile: file error")
)

var allowedExtensions = map[string]bool{
	".txt": true,
	".dat": true,
}

// CheckPath verifies the extension of path.
func CheckPath(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: unsupported extension %q (use .txt or .dat)", ErrFormat, ext)
	}
	return nil
}

// Save writes readings to path, one section per source.
func Save(rs []readings.Reading, path string) error {
	if err := CheckPath(path); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, rs); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".readings-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	return nil
}

// Load reads readings written by Save. Missing sections are allowed.
func Load(path string) ([]readings.Reading, error) {
	if err := CheckPath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFile, err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes the sectioned layout. Sections appear in source order and
// empty ones carry the NO DATA marker.
func Encode(w io.Writer, rs []readings.Reading) error {
	groups := readings.GroupBySource(rs)
	bw := bufio.NewWriter(w)
	for i, source := range readings.AllSources() {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "[%s]\n", source)
		group := groups[source]
		if len(group) == 0 {
			fmt.Fprintln(bw, noDataMarker)
			continue
		}
		fmt.Fprintln(bw, headerRow)
		cw := csv.NewWriter(bw)
		for _, r := range group {
			record := []string{
				r.Timestamp.Format(time.RFC3339Nano),
				strconv.FormatFloat(r.Output, 'f', -1, 64),
				r.Location,
				string(r.Status),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("%w: %v", ErrFile, err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("%w: %v", ErrFile, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	return nil
}

// Decode parses the sectioned layout. Statuses are restored as recorded.
// A single csv.Reader spans the whole input so quoted fields may contain
// line breaks; section names, the marker and the header are one-field or
// header records within that stream.
func Decode(r io.Reader) ([]readings.Reading, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var (
		out        []readings.Reading
		current    readings.Source
		inSection  bool
		headerSeen bool
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("%w: %v", ErrFormat, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrFile, err)
		}
		lineNo, _ := cr.FieldPos(0)
		if len(record) == 1 {
			line := strings.TrimSpace(record[0])
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
				source, err := readings.ParseSource(line[1 : len(line)-1])
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: unknown section %s", ErrFormat, lineNo, line)
				}
				current, inSection, headerSeen = source, true, false
				continue
			}
			if !inSection {
				return nil, fmt.Errorf("%w: line %d: data outside a section", ErrFormat, lineNo)
			}
			if line == noDataMarker {
				if headerSeen {
					return nil, fmt.Errorf("%w: line %d: marker after header", ErrFormat, lineNo)
				}
				continue
			}
		}
		if !inSection {
			return nil, fmt.Errorf("%w: line %d: data outside a section", ErrFormat, lineNo)
		}
		if !headerSeen {
			if !strings.EqualFold(strings.TrimSpace(strings.Join(record, ",")), headerRow) {
				return nil, fmt.Errorf("%w: line %d: expected header %q", ErrFormat, lineNo, headerRow)
			}
			headerSeen = true
			continue
		}
		reading, err := parseRecord(record, current)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, lineNo, err)
		}
		out = append(out, reading)
	}
	return out, nil
}

func parseRecord(record []string, source readings.Source) (readings.Reading, error) {
	if len(record) != 4 {
		return readings.Reading{}, fmt.Errorf("expected 4 fields, got %d", len(record))
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(record[0]))
	if err != nil {
		return readings.Reading{}, err
	}
	output, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return readings.Reading{}, err
	}
	status, err := readings.ParseStatus(strings.TrimSpace(record[3]))
	if err != nil {
		return readings.Reading{}, err
	}
	return readings.RestoreReading(ts, source, output, record[2], status)
}

// Store binds the flat-file format to a default path.
type Store struct {
	path string
}

// NewStore constructs a Store; the default path must have an accepted extension.
func NewStore(path string) (*Store, error) {
	if err := CheckPath(path); err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// Path returns the default path.
func (s *Store) Path() string { return s.path }

// Save writes to path, or to the default path when path is empty.
func (s *Store) Save(rs []readings.Reading, path string) error {
	return Save(rs, s.resolve(path))
}

// Load reads from path, or from the default path when path is empty.
func (s *Store) Load(path string) ([]readings.Reading, error) {
	return Load(s.resolve(path))
}

func (s *Store) resolve(path string) string {
	if path == "" {
		return s.path
	}
	return path
}
