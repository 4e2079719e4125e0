// package formatter renders festivals, jobs, reviews and applications as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
)

// Format is an output format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists the accepted format names.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat accepts a format name, including the md and text aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text", "":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: format %q (want json, csv, markdown or txt)", shared.ErrInvalidFlag, s)
	}
}

// Ext is the file extension used when writing the format to disk.
func (f Format) Ext() string {
	if f == Markdown {
		return ".md"
	}
	return "." + string(f)
}

// Table is the tabular view of a list. Data is what the JSON format encodes.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Data    any
}

// Render writes t in format f.
func Render(w io.Writer, f Format, t Table) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case JSON:
		data, err = shared.MarshalJSON(t.Data, true)
		data = append(data, '\n')
	case CSV:
		data, err = ToCSV(t)
	case Markdown:
		data = ToMarkdown(t)
	default:
		data = ToText(t)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteFile renders t into path, creating parent directories. It returns the path written.
func WriteFile(path string, f Format, t Table) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := Render(&buf, f, t); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// ToCSV converts t to CSV with a header row
func ToCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(t.Headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ToMarkdown converts t to a Markdown document with a pipe table
func ToMarkdown(t Table) []byte {
	var buf bytes.Buffer

	if t.Title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", t.Title)
	}
	fmt.Fprintf(&buf, "**Total**: %d\n\n", len(t.Rows))

	if len(t.Rows) == 0 {
		return buf.Bytes()
	}

	cell := func(s string) string {
		return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
	}
	writeRow := func(cols []string) {
		buf.WriteString("|")
		for _, c := range cols {
			buf.WriteString(" " + cell(c) + " |")
		}
		buf.WriteString("\n")
	}

	writeRow(t.Headers)
	sep := make([]string, len(t.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, row := range t.Rows {
		writeRow(row)
	}
	return buf.Bytes()
}

// ToText converts t to a bordered plain text table
func ToText(t Table) []byte {
	var buf bytes.Buffer
	if t.Title != "" {
		fmt.Fprintf(&buf, "%s (%d)\n", t.Title, len(t.Rows))
	}
	if len(t.Rows) == 0 {
		buf.WriteString("No results.\n")
		return buf.Bytes()
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Headers...).
		Rows(t.Rows...)
	buf.WriteString(tbl.String())
	buf.WriteString("\n")
	return buf.Bytes()
}

// FestivalTable lays out festivals.
func FestivalTable(fs []models.Festival) Table {
	t := Table{
		Title:   "Festivals",
		Headers: []string{"ID", "Name", "Dates", "Place", "Likes"},
		Rows:    make([][]string, 0, len(fs)),
		Data:    fs,
	}
	for _, f := range fs {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(f.ID, 10),
			shared.Truncate(f.Name, 40),
			shared.FormatDateRange(f.StartDate, f.EndDate),
			shared.Truncate(f.HoldPlace, 30),
			strconv.Itoa(f.LikeCount),
		})
	}
	return t
}

// FestivalDetail lays out one festival as field/value pairs.
func FestivalDetail(f *models.Festival) Table {
	rows := [][]string{
		{"ID", strconv.FormatInt(f.ID, 10)},
		{"Name", f.Name},
		{"Dates", shared.FormatDateRange(f.StartDate, f.EndDate)},
		{"Place", f.HoldPlace},
		{"Address", f.Address()},
		{"Host", f.HostInstitution},
		{"Organizer", f.OperatorInstitution},
		{"Tel", f.Tel},
		{"Homepage", f.HomepageURL},
		{"Categories", strings.Join(f.Category, ", ")},
		{"Likes", strconv.Itoa(f.LikeCount)},
	}
	if f.RawContent != "" {
		rows = append(rows, []string{"About", shared.Truncate(f.RawContent, 200)})
	}
	return Table{Title: f.Name, Headers: []string{"Field", "Value"}, Rows: rows, Data: f}
}

// RecentTable lays out recently viewed festivals.
func RecentTable(fs []models.FestivalSummary) Table {
	t := Table{
		Title:   "Recently viewed",
		Headers: []string{"ID", "Name", "Region", "Viewed"},
		Rows:    make([][]string, 0, len(fs)),
		Data:    fs,
	}
	for _, f := range fs {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(f.ID, 10),
			f.Name,
			f.Region,
			f.ViewedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return t
}

// JobTable lays out job postings.
func JobTable(jobs []models.Job) Table {
	t := Table{
		Title:   "Jobs",
		Headers: []string{"ID", "Festival", "Title", "Pay", "Deadline", "Applicants", "Status"},
		Rows:    make([][]string, 0, len(jobs)),
		Data:    jobs,
	}
	for _, j := range jobs {
		pay := "-"
		if j.HourlyPay != nil {
			pay = strconv.Itoa(*j.HourlyPay)
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(j.JobID, 10),
			strconv.FormatInt(j.FestivalID, 10),
			shared.Truncate(j.Title, 40),
			pay,
			models.Deref(j.Deadline),
			strconv.Itoa(j.ApplicantCount),
			string(j.Status),
		})
	}
	return t
}

// ApplicationTable lays out applications to a job.
func ApplicationTable(apps []models.Application) Table {
	t := Table{
		Title:   "Applicants",
		Headers: []string{"Apply ID", "Name", "Status", "Introduction"},
		Rows:    make([][]string, 0, len(apps)),
		Data:    apps,
	}
	for _, a := range apps {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(a.ApplyID, 10),
			models.Deref(a.Name),
			string(a.Status),
			shared.Truncate(models.Deref(a.Introduction), 50),
		})
	}
	return t
}

// ReviewTable lays out reviews.
func ReviewTable(reviews []models.Review) Table {
	t := Table{
		Title:   "Reviews",
		Headers: []string{"ID", "Festival", "Type", "Rating", "Author", "Content", "Likes", "Comments"},
		Rows:    make([][]string, 0, len(reviews)),
		Data:    reviews,
	}
	for _, r := range reviews {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(r.ID, 10),
			shared.Truncate(r.FestivalName, 30),
			string(r.Type),
			strings.Repeat("★", r.Rating),
			r.UserName,
			shared.Truncate(r.Content, 50),
			strconv.Itoa(r.LikeCount),
			strconv.Itoa(len(r.Comments)),
		})
	}
	return t
}

// CommentTable lays out the comments of a review.
func CommentTable(comments []models.Comment) Table {
	t := Table{
		Title:   "Comments",
		Headers: []string{"ID", "Author", "Content", "Created"},
		Rows:    make([][]string, 0, len(comments)),
		Data:    comments,
	}
	for _, c := range comments {
		t.Rows = append(t.Rows, []string{strconv.FormatInt(c.CommentID, 10), c.UserName, c.Content, c.CreatedAt})
	}
	return t
}
