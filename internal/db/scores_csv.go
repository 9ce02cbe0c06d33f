package db

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// WriteScoresCSV writes rows in the export format: a bare header line,
// CRLF between lines, every text cell quoted with embedded quotes doubled
// and numeric cells left unquoted. encoding/csv only quotes when needed,
// so cells are quoted by hand here.
func WriteScoresCSV(w io.Writer, rows []Score) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Columns, ",")); err != nil {
		return err
	}
	for _, row := range rows {
		cells := []string{
			strconv.FormatUint(uint64(row.ID), 10),
			quoteCell(row.Name),
			quoteCell(row.Classe),
			quoteCell(row.StudentNumber),
			strconv.Itoa(row.TimeSeconds),
			strconv.Itoa(row.Errors),
			quoteCell(row.GameType),
			timestampCell(row.CreatedAt),
		}
		if _, err := bw.WriteString("\r\n" + strings.Join(cells, ",")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func quoteCell(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func timestampCell(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return quoteCell(FormatTimestamp(value))
}

// FormatTimestamp renders t the way SQLite stores CURRENT_TIMESTAMP.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ReadScoresCSV parses a file produced by WriteScoresCSV. Columns are
// matched by header name, so older exports without the newer text columns
// still load.
func ReadScoresCSV(r io.Reader) ([]Score, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return parseScoreRecords(rows)
}

// parseScoreRecords turns a header row plus data rows into scores. It backs
// both the CSV and the spreadsheet readers.
func parseScoreRecords(rows [][]string) ([]Score, error) {
	var err error
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"name", "time_seconds", "errors"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var scores []Score
	for line, row := range rows[1:] {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		score := Score{
			Name:          cell(row, "name"),
			Classe:        cell(row, "classe"),
			StudentNumber: cell(row, "student_number"),
			GameType:      cell(row, "game_type"),
		}
		if score.Name == "" {
			return nil, fmt.Errorf("line %d: name is required", line+2)
		}
		if score.TimeSeconds, err = strconv.Atoi(cell(row, "time_seconds")); err != nil {
			return nil, fmt.Errorf("line %d: time_seconds: %w", line+2, err)
		}
		if score.Errors, err = strconv.Atoi(cell(row, "errors")); err != nil {
			return nil, fmt.Errorf("line %d: errors: %w", line+2, err)
		}
		if raw := cell(row, "id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: id: %w", line+2, err)
			}
			score.ID = uint(id)
		}
		if raw := cell(row, "created_at"); raw != "" {
			created, err := time.ParseInLocation(TimestampLayout, raw, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("line %d: created_at: %w", line+2, err)
			}
			score.CreatedAt = created
		}
		scores = append(scores, score)
	}
	return scores, nil
}
