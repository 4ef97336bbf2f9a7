// Package importer loads vocabulary decks from Excel or CSV files.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
)

var ErrEmptyField = errors.New("required field is empty")

// Column order of a deck file: source, target, emoji, level, transcription.
const (
	colSource = iota
	colTarget
	colEmoji
	colLevel
	colTranscription
)

type WordStore interface {
	Upsert(ctx context.Context, w *entities.Word) (int64, error)
}

// Config defines the import source.
type Config struct {
	FilePath   string
	SheetName  string // xlsx only, first sheet when empty
	SkipHeader bool
}

// Result holds the outcome of an import.
type Result struct {
	Processed int
	Imported  int
	Errors    []string
}

// Import reads the deck and upserts every valid row by source text.
// Invalid rows are reported in Result.Errors and do not stop the import.
func Import(ctx context.Context, store WordStore, cfg Config) (*Result, error) {
	rows, err := ReadRows(cfg)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for i, row := range rows {
		if cfg.SkipHeader && i == 0 {
			continue
		}
		if blank(row) {
			continue
		}
		res.Processed++

		w, err := ParseRow(row)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}

		if _, err := store.Upsert(ctx, &w); err != nil {
			return res, fmt.Errorf("row %d: %w", i+1, err)
		}
		res.Imported++
	}

	return res, nil
}

// ReadRows returns all rows of an .xlsx or .csv file.
func ReadRows(cfg Config) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(cfg.FilePath), ".csv") {
		return readCSV(cfg.FilePath)
	}
	return readExcel(cfg.FilePath, cfg.SheetName)
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows of %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer func() { _ = file.Close() }()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// ParseRow converts one deck row to a word. Level defaults to 1.
func ParseRow(row []string) (entities.Word, error) {
	w := entities.Word{
		Source:        cell(row, colSource),
		Target:        cell(row, colTarget),
		Emoji:         cell(row, colEmoji),
		Level:         1,
		Transcription: cell(row, colTranscription),
	}
	if w.Source == "" {
		return w, fmt.Errorf("source: %w", ErrEmptyField)
	}
	if w.Target == "" {
		return w, fmt.Errorf("target: %w", ErrEmptyField)
	}

	if s := cell(row, colLevel); s != "" {
		level, err := strconv.Atoi(s)
		if err != nil || level < 1 {
			return w, fmt.Errorf("invalid level %q", s)
		}
		w.Level = level
	}

	return w, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
