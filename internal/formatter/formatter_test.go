package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
	th "github.com/desertthunder/festa/internal/testing"
)

func ptr[T any](v T) *T { return &v }

func festivals() []models.Festival {
	return []models.Festival{
		{ID: 1, Name: "Lantern Festival", StartDate: "2025-05-01", EndDate: "2025-05-03", HoldPlace: "Jinju", LikeCount: 12},
		{ID: 2, Name: "Mud | Festival", StartDate: "2025-07-18", EndDate: "2025-07-18", HoldPlace: "Boryeong"},
	}
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{"json", JSON},
		{"CSV", CSV},
		{"md", Markdown},
		{"markdown", Markdown},
		{"text", Text},
		{"", Text},
	}
	for _, c := range tc {
		got, err := ParseFormat(c.in)
		if err != nil || got != c.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
	}

	t.Run("rejects unknown formats", func(t *testing.T) {
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("extensions", func(t *testing.T) {
		if Markdown.Ext() != ".md" || CSV.Ext() != ".csv" || Text.Ext() != ".txt" {
			t.Errorf("unexpected extensions %q %q %q", Markdown.Ext(), CSV.Ext(), Text.Ext())
		}
	})
}

func TestRender(t *testing.T) {
	tbl := FestivalTable(festivals())

	t.Run("JSON encodes the underlying data", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, JSON, tbl); err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		var got []models.Festival
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(got) != 2 || got[0].Name != "Lantern Festival" {
			t.Errorf("unexpected decoded festivals: %+v", got)
		}
	})

	t.Run("CSV", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, CSV, tbl); err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		output := buf.String()
		if !strings.HasPrefix(output, "ID,Name,Dates,Place,Likes\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,Lantern Festival,2025-05-01 ~ 2025-05-03,Jinju,12") {
			t.Errorf("CSV missing first row, got: %s", output)
		}
		if !strings.Contains(output, "2025-07-18,Boryeong") {
			t.Errorf("single day range should collapse, got: %s", output)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, Markdown, tbl); err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# Festivals", "**Total**: 2", "| ID | Name |", "| --- |", `Mud \| Festival`} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, Text, tbl); err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Festivals (2)") {
			t.Errorf("Text missing title, got: %s", output)
		}
		if !strings.Contains(output, "Lantern Festival") || !strings.Contains(output, "Boryeong") {
			t.Errorf("Text missing rows, got: %s", output)
		}
	})

	t.Run("empty tables", func(t *testing.T) {
		var buf bytes.Buffer
		Render(&buf, Text, JobTable(nil))
		if !strings.Contains(buf.String(), "No results.") {
			t.Errorf("expected empty marker, got: %s", buf.String())
		}

		buf.Reset()
		Render(&buf, Markdown, JobTable(nil))
		if strings.Contains(buf.String(), "| ID |") {
			t.Errorf("empty markdown should have no table, got: %s", buf.String())
		}
	})

	t.Run("write errors", func(t *testing.T) {
		if err := Render(&th.FWriter{}, CSV, tbl); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestTables(t *testing.T) {
	t.Run("jobs", func(t *testing.T) {
		tbl := JobTable([]models.Job{
			{JobID: 7, FestivalID: 1, Title: "Stage crew", HourlyPay: ptr(12000), Deadline: ptr("2025-04-30"), Status: models.StatusApplied},
			{JobID: 8, FestivalID: 1, Title: "Ticket booth"},
		})

		if len(tbl.Rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
		}
		if got := tbl.Rows[0]; got[3] != "12000" || got[4] != "2025-04-30" || got[6] != "APPLIED" {
			t.Errorf("unexpected row %v", got)
		}
		if got := tbl.Rows[1]; got[3] != "-" || got[4] != "" {
			t.Errorf("nil fields should render as placeholders, got %v", got)
		}
	})

	t.Run("reviews count comments", func(t *testing.T) {
		tbl := ReviewTable([]models.Review{{
			ID: 3, FestivalName: "Lantern Festival", Type: models.ReviewTypeTip, Rating: 4,
			UserName: "alice", Content: "Arrive early", Comments: []models.Comment{{CommentID: 1}, {CommentID: 2}},
		}})

		row := tbl.Rows[0]
		if row[3] != "★★★★" || row[7] != "2" {
			t.Errorf("unexpected row %v", row)
		}
	})

	t.Run("applications", func(t *testing.T) {
		tbl := ApplicationTable([]models.Application{{ApplyID: 5, Name: ptr("bob"), Status: models.StatusAccepted}})
		if row := tbl.Rows[0]; row[0] != "5" || row[1] != "bob" || row[2] != "ACCEPTED" {
			t.Errorf("unexpected row %v", row)
		}
	})

	t.Run("festival detail", func(t *testing.T) {
		f := festivals()[0]
		f.RoadAddress = "1 Nam-gang Rd"
		f.Category = []string{"culture", "night"}

		tbl := FestivalDetail(&f)
		values := map[string]string{}
		for _, row := range tbl.Rows {
			values[row[0]] = row[1]
		}
		if values["Address"] != "1 Nam-gang Rd" || values["Categories"] != "culture, night" {
			t.Errorf("unexpected detail values %v", values)
		}
		if _, ok := values["About"]; ok {
			t.Error("About row should be omitted without content")
		}
	})
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "festivals.csv")

	got, err := WriteFile(path, CSV, FestivalTable(festivals()))
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if got != path {
		t.Errorf("expected %s, got %s", path, got)
	}

	th.AssertFileExists(t, path)
	if content := th.MustReadFile(t, path); !strings.Contains(content, "Lantern Festival") {
		t.Errorf("file missing content: %s", content)
	}
}
