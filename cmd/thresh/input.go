package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

var errNoScores = errors.New("no scores in input")

// openInput opens path, or stdin for "" and "-".
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}

// readScores accepts a JSON array or numbers separated by commas or
// whitespace.
func readScores(r io.Reader) ([]float64, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errNoScores
	}

	if raw[0] == '[' {
		var scores []float64
		if err := sonic.Unmarshal(raw, &scores); err != nil {
			return nil, fmt.Errorf("failed to parse JSON scores: %w", err)
		}
		return scores, nil
	}
	return parseFields(string(raw))
}

// readMatrix accepts a JSON array of rows or one row per line, one column
// per detector.
func readMatrix(r io.Reader) (*mat.Dense, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errNoScores
	}

	var rows [][]float64
	if raw[0] == '[' {
		if err := sonic.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse JSON matrix: %w", err)
		}
	} else {
		sc := bufio.NewScanner(bytes.NewReader(raw))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			row, err := parseFields(line)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	}
	return scoring.FromRows(rows)
}

func parseFields(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) == 0 {
		return nil, errNoScores
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid score %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	out, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
