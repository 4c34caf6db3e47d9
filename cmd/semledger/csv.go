package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// rowSource streams one CSV extract as row maps keyed by the header
// columns. Empty cells are omitted so extraction treats them as absent.
type rowSource struct {
	file    *os.File
	reader  *csv.Reader
	header  []string
	maxRows int
	rows    int
}

func openRowSource(path, delimiter string, maxRows int) (*rowSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	r := csv.NewReader(bufio.NewReaderSize(f, 1<<20))
	if delimiter != "" {
		r.Comma = rune(delimiter[0])
	}
	r.ReuseRecord = true

	record, err := r.Read()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}

	header := make([]string, len(record))
	copy(header, record)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	return &rowSource{
		file:    f,
		reader:  r,
		header:  header,
		maxRows: maxRows,
	}, nil
}

// Next returns the next row, io.EOF at the end of the file or the row
// cap, or a *csv.ParseError the caller may choose to skip.
func (s *rowSource) Next() (map[string]any, error) {
	if s.maxRows > 0 && s.rows >= s.maxRows {
		return nil, io.EOF
	}

	record, err := s.reader.Read()
	if err != nil {
		return nil, err
	}
	s.rows++

	row := make(map[string]any, len(s.header))
	for i, name := range s.header {
		if i >= len(record) {
			break
		}
		if record[i] == "" {
			continue
		}
		row[name] = record[i]
	}
	return row, nil
}

// Rows reports how many data rows Next has returned.
func (s *rowSource) Rows() int {
	return s.rows
}

func (s *rowSource) Close() error {
	return s.file.Close()
}
