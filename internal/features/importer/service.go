package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"kademe-kys/internal/features/qualitycost"

	"github.com/xuri/excelize/v2"
)

// ImportResult summarizes a bulk cost import.
type ImportResult struct {
	TotalRows int      `json:"total_rows"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// ImportPreview shows what a sheet parses to before committing it.
type ImportPreview struct {
	Headers    []string                 `json:"headers"`
	SampleData []map[string]interface{} `json:"sample_data"`
	TotalRows  int                      `json:"total_rows"`
}

type ImportService interface {
	PreviewCostSheet(ctx context.Context, file io.Reader) (*ImportPreview, error)
	ImportCostSheet(ctx context.Context, file io.Reader) (*ImportResult, error)
}

type ImportServiceImpl struct {
	CostService qualitycost.CostService
}

func NewImportService(costService qualitycost.CostService) ImportService {
	return &ImportServiceImpl{CostService: costService}
}

// expected column order: type, amount, unit, part_code, description, date.
// Headers are matched by name, not position.
var costColumns = []string{"type", "amount", "unit", "part_code", "description", "date"}

func (s *ImportServiceImpl) PreviewCostSheet(ctx context.Context, file io.Reader) (*ImportPreview, error) {
	headers, rows, err := parseSheet(file)
	if err != nil {
		return nil, err
	}

	sample := make([]map[string]interface{}, 0, 5)
	for i, row := range rows {
		if i >= 5 {
			break
		}
		m := make(map[string]interface{})
		for j, cell := range row {
			if j < len(headers) {
				m[headers[j]] = cell
			}
		}
		sample = append(sample, m)
	}

	return &ImportPreview{
		Headers:    headers,
		SampleData: sample,
		TotalRows:  len(rows),
	}, nil
}

func (s *ImportServiceImpl) ImportCostSheet(ctx context.Context, file io.Reader) (*ImportResult, error) {
	headers, rows, err := parseSheet(file)
	if err != nil {
		return nil, err
	}

	colIndex := make(map[string]int)
	for i, h := range headers {
		colIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"type", "amount", "unit"} {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	result := &ImportResult{TotalRows: len(rows)}
	entries := make([]qualitycost.CostEntry, 0, len(rows))

	for i, row := range rows {
		cell := func(name string) string {
			idx, ok := colIndex[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		amount, err := strconv.ParseFloat(cell("amount"), 64)
		if err != nil || amount <= 0 {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid amount %q", i+2, cell("amount")))
			continue
		}

		entry := qualitycost.CostEntry{
			Type:        qualitycost.CostType(strings.ToLower(cell("type"))),
			Amount:      amount,
			Unit:        cell("unit"),
			PartCode:    cell("part_code"),
			Description: cell("description"),
		}
		if raw := cell("date"); raw != "" {
			if t, err := parseDate(raw); err == nil {
				entry.IncurredAt = t
			}
		}
		entries = append(entries, entry)
	}

	inserted, err := s.CostService.CreateEntries(ctx, entries)
	if err != nil {
		return nil, err
	}

	result.Imported = inserted
	result.Skipped = result.TotalRows - inserted
	return result, nil
}

func parseSheet(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("Excel file is empty")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return headers, rows[1:], nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02.01.2006", "01/02/2006", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
