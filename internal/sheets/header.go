// Package sheets maps form submissions onto spreadsheet rows.
package sheets

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhanavadh/eldercare-backend/internal/models"
)

const TimestampColumn = "Timestamp"

var ErrInvalidURL = errors.New("invalid Google Sheet URL")

var sheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SpreadsheetID extracts the document id from a Google Sheets URL.
func SpreadsheetID(sheetURL string) (string, error) {
	m := sheetURLPattern.FindStringSubmatch(sheetURL)
	if len(m) < 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, sheetURL)
	}
	return m[1], nil
}

// MergeHeader returns the header to use for a row carrying names. Existing
// columns keep their positions, Timestamp is put first when missing and new
// names are appended in the order given. changed reports whether the sheet
// needs a header write.
func MergeHeader(existing, names []string) (header []string, changed bool) {
	seen := make(map[string]bool, len(existing)+len(names))

	if len(existing) == 0 {
		header = append(header, TimestampColumn)
		seen[TimestampColumn] = true
		for _, n := range names {
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			header = append(header, n)
		}
		return header, true
	}

	hasTimestamp := false
	for _, h := range existing {
		if h == TimestampColumn {
			hasTimestamp = true
			break
		}
	}
	if !hasTimestamp {
		header = append(header, TimestampColumn)
		seen[TimestampColumn] = true
		changed = true
	}
	for _, h := range existing {
		header = append(header, h)
		seen[h] = true
	}
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		header = append(header, n)
		changed = true
	}
	return header, changed
}

// FieldNames lists text field names followed by file field names not already
// present, both in encounter order.
func FieldNames(fields *models.FieldValues, files *models.FileFields) []string {
	out := fields.Keys()
	seen := make(map[string]bool, len(out))
	for _, n := range out {
		seen[n] = true
	}
	for _, n := range files.Keys() {
		if !seen[n] {
			out = append(out, n)
			seen[n] = true
		}
	}
	return out
}

// BuildRow aligns one submission to header. Text values win over file URLs;
// anything missing is an empty cell. The Timestamp column always holds
// timestamp, so callers must not submit a field with that name.
func BuildRow(header []string, fields *models.FieldValues, fileURLs map[string]string, timestamp string) []string {
	row := make([]string, len(header))
	for i, col := range header {
		if col == TimestampColumn {
			row[i] = timestamp
			continue
		}
		if v, ok := fields.Get(col); ok {
			row[i] = FormatValue(v)
			continue
		}
		if u, ok := fileURLs[col]; ok {
			row[i] = u
			continue
		}
		row[i] = ""
	}
	return row
}

// FormatValue renders a submitted value as a cell. Booleans become Yes/No.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
