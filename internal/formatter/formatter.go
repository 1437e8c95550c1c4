// package formatter exports favorite courses to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// ParseFormat accepts the format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: export format %q", shared.ErrInvalidFlag, s)
	}
}

// Export is a snapshot of a user's favorites.
type Export struct {
	Owner     string
	Courses   []models.Course
	CoversURL string // base URL of the covers API
	CreatedAt time.Time
}

func (e *Export) coverURL(c models.Course) string {
	return c.CoverURL(e.CoversURL, models.CoverMedium)
}

// ExportToCSV converts an Export to CSV format with columns: Key, Title, Authors, Year, Cover
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Key", "Title", "Authors", "Year", "Cover"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, course := range export.Courses {
		year := ""
		if course.FirstPublishYear != 0 {
			year = strconv.Itoa(course.FirstPublishYear)
		}
		cover := ""
		if course.CoverID > 0 {
			cover = export.coverURL(course)
		}
		record := []string{
			course.Key,
			course.Title,
			strings.Join(course.AuthorName, "; "),
			year,
			cover,
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

// ExportToMarkdown converts an Export to Markdown. covers maps course keys to image paths to embed.
func ExportToMarkdown(export *Export, covers map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Favorite Courses\n\n")
	if export.Owner != "" {
		fmt.Fprintf(&buf, "**Owner**: %s\n", export.Owner)
	}
	fmt.Fprintf(&buf, "**Courses**: %d\n", len(export.Courses))
	if !export.CreatedAt.IsZero() {
		fmt.Fprintf(&buf, "**Exported**: %s\n", export.CreatedAt.Format(time.DateOnly))
	}
	buf.WriteString("\n")

	if len(export.Courses) == 0 {
		buf.WriteString("_No favorites yet._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("## Courses\n\n")
	for i, course := range export.Courses {
		fmt.Fprintf(&buf, "%d. **%s** by %s (%s)\n", i+1, course.Title, course.Authors(), course.Year())
		if img, ok := covers[course.Key]; ok && img != "" {
			fmt.Fprintf(&buf, "   ![Cover](%s)\n", img)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text format
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	if export.Owner != "" {
		fmt.Fprintf(&buf, "Favorites of %s\n", export.Owner)
	}
	fmt.Fprintf(&buf, "Courses: %d\n\n", len(export.Courses))

	for i, course := range export.Courses {
		fmt.Fprintf(&buf, "%d. %s - %s (%s)\n", i+1, course.Title, course.PrimaryAuthor(), course.Year())
	}

	return buf.Bytes(), nil
}

// ExportToJSON writes the courses using the same encoding as the persisted favorites.
func ExportToJSON(export *Export) ([]byte, error) {
	courses := export.Courses
	if courses == nil {
		courses = []models.Course{}
	}
	return shared.MarshalJSON(courses, true)
}

// Render produces export in format.
func Render(export *Export, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, nil)
	case FormatText:
		return ExportToText(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: export format %q", shared.ErrInvalidFlag, format)
	}
}

// Write renders export to w.
func Write(w io.Writer, export *Export, format Format) error {
	data, err := Render(export, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteFileExport writes export in format to path.
//
// Defaults to favorites.{format} as the filename.
func WriteFileExport(export *Export, format Format, path string) (string, error) {
	if path == "" {
		path = "favorites." + string(format)
	}

	data, err := Render(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Covers    int
}

// MarkdownOptions controls WriteMarkdownExport.
type MarkdownOptions struct {
	DownloadCovers bool
	HTTPClient     *http.Client
	Warn           func(msg string, keyvals ...any)
}

// WriteMarkdownExport exports favorites to Markdown in a dedicated directory.
//
// Creates {dir}/README.md and, when covers are requested, {dir}/covers/{cover_i}.jpg.
// A cover that cannot be downloaded is skipped.
func WriteMarkdownExport(ctx context.Context, export *Export, outputDir string, opts MarkdownOptions) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "favorites"
	}
	if opts.Warn == nil {
		opts.Warn = func(string, ...any) {}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}
	covers := map[string]string{}

	if opts.DownloadCovers {
		coverDir := filepath.Join(outputDir, "covers")
		if err := os.MkdirAll(coverDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create covers directory: %w", err)
		}

		for _, course := range export.Courses {
			if course.CoverID <= 0 {
				continue
			}
			imageData, err := DownloadImage(ctx, opts.HTTPClient, export.coverURL(course))
			if err != nil {
				opts.Warn("failed to download cover", "key", course.Key, "error", err)
				continue
			}

			name := fmt.Sprintf("%d.jpg", course.CoverID)
			path := filepath.Join(coverDir, name)
			if err := os.WriteFile(path, imageData, 0644); err != nil {
				opts.Warn("failed to save cover", "path", path, "error", err)
				continue
			}
			covers[course.Key] = "covers/" + name
			result.Files = append(result.Files, path)
			result.Covers++
		}
	}

	mdData, err := ExportToMarkdown(export, covers)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}
