// Package importer turns CSV exports into operation create payloads.
package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode"

	encunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/model"
)

const DefaultTitle = "Sans titre"

// dateHeaders are the accepted send-date column names, in priority order.
var dateHeaders = []string{"dateenvoi", "date_envoi", "senddate", "send_date", "date"}

var columnSynonyms = map[string][]string{
	"title":     {"titre", "title"},
	"theme":     {"thematique", "theme"},
	"language":  {"langue", "language"},
	"brief":     {"brief"},
	"placement": {"position", "placement", "position_slider"},
}

// Row is one importable CSV line.
type Row struct {
	Line      int
	SendDate  model.Date
	Title     string
	Theme     string
	Language  string
	Brief     string
	Placement string
}

type Result struct {
	Rows    []Row
	Skipped int
}

// NormalizeHeader lowercases h, strips whitespace and folds accented Latin letters to ASCII.
func NormalizeHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimPrefix(h, "\ufeff"))
	if err != nil {
		folded = h
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse reads a header row and data rows. Rows whose send date is missing or
// unparseable are counted in Skipped. It fails with *appErrors.ImportAbortedError
// when the file is empty, has no date column, has malformed quoting or yields
// no valid row.
func Parse(r io.Reader) (*Result, error) {
	// a leading BOM would make a quoted first header a bare quote
	cr := csv.NewReader(transform.NewReader(r, encunicode.BOMOverride(transform.Nop)))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &appErrors.ImportAbortedError{Reason: "file is empty"}
	}
	if err != nil {
		return nil, &appErrors.ImportAbortedError{Reason: "unreadable header: " + err.Error()}
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	dateCol, ok := findDateColumn(cols)
	if !ok {
		return nil, &appErrors.ImportAbortedError{Reason: "missing date column"}
	}
	index := map[string]int{}
	for field, names := range columnSynonyms {
		for _, n := range names {
			if i, ok := cols[n]; ok {
				index[field] = i
				break
			}
		}
	}

	res := &Result{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &appErrors.ImportAbortedError{Reason: "unparseable file: " + err.Error()}
		}
		line, _ := cr.FieldPos(0)
		if blank(record) {
			continue
		}

		get := func(i int) string {
			if i < 0 || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok {
				return ""
			}
			return get(i)
		}

		raw := get(dateCol)
		if raw == "" {
			res.Skipped++
			continue
		}
		date, err := model.ParseDate(raw)
		if err != nil {
			res.Skipped++
			continue
		}

		row := Row{
			Line:      line,
			SendDate:  date,
			Title:     field("title"),
			Theme:     field("theme"),
			Language:  strings.ToUpper(field("language")),
			Brief:     field("brief"),
			Placement: field("placement"),
		}
		if row.Title == "" {
			row.Title = DefaultTitle
		}
		if row.Language == "" {
			row.Language = string(model.DefaultLanguage)
		}
		if row.Placement == "" {
			row.Placement = model.DefaultPlacement
		}
		res.Rows = append(res.Rows, row)
	}

	if len(res.Rows) == 0 {
		return nil, &appErrors.ImportAbortedError{Reason: "no valid operation in file"}
	}
	return res, nil
}

func findDateColumn(cols map[string]int) (int, bool) {
	for _, name := range dateHeaders {
		if i, ok := cols[name]; ok {
			return i, true
		}
	}
	// any other header mentioning a date, leftmost first
	best := -1
	for name, i := range cols {
		if strings.Contains(name, "date") && (best < 0 || i < best) {
			best = i
		}
	}
	return best, best >= 0
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
