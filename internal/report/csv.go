// Package report exports and summarizes the responses of a form.
package report

import (
	"io"
	"regexp"
	"strings"
	"time"

	"formcraft/internal/model"
)

const dateHeader = "Submission Date"

var whitespace = regexp.MustCompile(`\s+`)

// WriteCSV writes one row per response under a header of the field labels.
// Answers are always quoted; list answers are joined with ", " and absent
// or falsy answers are written as empty strings.
func WriteCSV(w io.Writer, form model.Form, responses []model.FormResponse) error {
	var sb strings.Builder

	header := make([]string, 0, len(form.Fields)+1)
	header = append(header, escape(dateHeader))
	for _, field := range form.Fields {
		header = append(header, escape(field.Label))
	}
	sb.WriteString(strings.Join(header, ","))

	for _, resp := range responses {
		row := make([]string, 0, len(form.Fields)+1)
		row = append(row, resp.SubmittedAt.UTC().Format(time.RFC3339))
		for _, field := range form.Fields {
			row = append(row, quote(cell(resp.Data[field.ID])))
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(row, ","))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Filename returns the download name of a form's CSV export
func Filename(form model.Form) string {
	return whitespace.ReplaceAllString(form.Title, "_") + "_responses.csv"
}

func cell(v model.Value) string {
	if v.Kind == model.KindList {
		return strings.Join(v.List, ", ")
	}
	if !v.Truthy() {
		return ""
	}
	return v.Text()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// escape quotes a header cell only when it holds a separator, quote or
// line break
func escape(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}
