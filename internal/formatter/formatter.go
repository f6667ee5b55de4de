// package formatter renders watchlist and library titles to export formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ParseFormat normalises a user-supplied format name. Blank input selects JSON.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for format.
func Extension(format string) string {
	switch format {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	default:
		return ".json"
	}
}

// FormatRating renders a vote average with one decimal, or "-" when unrated.
func FormatRating(v float64) string {
	if v <= 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatYear extracts the year from a YYYY-MM-DD date, or "" for unknown dates.
func FormatYear(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}

// MarshalJSON encodes v, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// ExportToCSV converts titles to CSV with columns: ID, Kind, Title, Release Date, Rating, Note
func ExportToCSV(titles []models.Title) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Kind", "Title", "Release Date", "Rating", "Note"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, t := range titles {
		record := []string{
			strconv.Itoa(t.ID),
			string(t.Kind),
			t.DisplayName,
			t.ReleaseDate,
			FormatRating(t.VoteAverage),
			t.PersonalNote,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts titles to a Markdown list headed by name. Notes are rendered as quotes.
func ExportToMarkdown(name string, titles []models.Title) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", name))
	buf.WriteString(fmt.Sprintf("**Titles**: %d\n\n", len(titles)))

	for i, t := range titles {
		line := fmt.Sprintf("%d. %s", i+1, t.DisplayName)
		if year := FormatYear(t.ReleaseDate); year != "" {
			line += fmt.Sprintf(" (%s)", year)
		}
		line += fmt.Sprintf(" · %s · ★ %s\n", t.Kind.Label(), FormatRating(t.VoteAverage))
		buf.WriteString(line)

		if t.PersonalNote != "" {
			for _, l := range strings.Split(t.PersonalNote, "\n") {
				buf.WriteString(fmt.Sprintf("   > %s\n", l))
			}
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts titles to plain text
func ExportToText(name string, titles []models.Title) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", name))
	buf.WriteString(fmt.Sprintf("Titles: %d\n\n", len(titles)))

	for i, t := range titles {
		year := FormatYear(t.ReleaseDate)
		if year == "" {
			year = "----"
		}
		buf.WriteString(fmt.Sprintf("%d. [%s] %s (%s) %s\n", i+1, t.Kind.Label(), t.DisplayName, year, FormatRating(t.VoteAverage)))
		if t.PersonalNote != "" {
			buf.WriteString(fmt.Sprintf("   note: %s\n", t.PersonalNote))
		}
	}

	return buf.Bytes(), nil
}

// Render converts titles into format.
func Render(format, name string, titles []models.Title) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(titles)
	case FormatMarkdown:
		return ExportToMarkdown(name, titles)
	case FormatText:
		return ExportToText(name, titles)
	default:
		if titles == nil {
			titles = []models.Title{}
		}
		return MarshalJSON(titles, true)
	}
}

// WriteExport renders titles and writes them to {base}{ext}. It returns the written path.
func WriteExport(format, name string, titles []models.Title, base string) (string, error) {
	data, err := Render(format, name, titles)
	if err != nil {
		return "", fmt.Errorf("failed to render %s export: %w", format, err)
	}

	path := base + Extension(format)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// ManifestEntry describes one exported collection.
type ManifestEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	File  string `json:"file"`
}

// ExportManifest summarises an export run.
type ExportManifest struct {
	Format      string          `json:"format"`
	ExportedAt  time.Time       `json:"exported_at"`
	OutputDir   string          `json:"output_dir"`
	Collections []ManifestEntry `json:"collections"`
	Stats       models.Stats    `json:"stats"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m ExportManifest, path string) error {
	data, err := MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ManifestPath returns the manifest location inside dir.
func ManifestPath(dir string) string {
	return filepath.Join(dir, "export_manifest.json")
}
