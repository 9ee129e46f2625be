// package formatter provides functions to export saved scenes to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kmdeck/sceneset/internal/models"
	"github.com/kmdeck/sceneset/internal/shared"
)

// ExportToCSV converts a list of scenes to CSV format with columns: ID, Name, Playlist, Device, Volume, Created
func ExportToCSV(scenes []*models.Scene) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Playlist", "Device", "Volume", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, scene := range scenes {
		record := []string{
			scene.ID,
			scene.Name,
			scene.Playlist.Name,
			scene.Device.Name,
			strconv.Itoa(scene.Volume),
			scene.CreatedAt.Format(time.RFC3339),
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

// ExportToMarkdown converts a list of scenes to Markdown format.
//
// The covers map (scene ID -> local filename) substitutes downloaded cover
// files for the remote image URLs; pass nil to embed the URLs directly.
func ExportToMarkdown(scenes []*models.Scene, covers map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Scenes\n\n")
	buf.WriteString(fmt.Sprintf("**Count**: %d\n\n", len(scenes)))

	for i, scene := range scenes {
		buf.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, scene.Name))
		if cover, ok := covers[scene.ID]; ok {
			buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", cover))
		} else if scene.Playlist.ImageURL != "" {
			buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", scene.Playlist.ImageURL))
		}
		buf.WriteString(fmt.Sprintf("- **Playlist**: %s (`%s`)\n", scene.Playlist.Name, scene.Playlist.URI))
		buf.WriteString(fmt.Sprintf("- **Device**: %s (%s)\n", scene.Device.Name, scene.Device.Type))
		buf.WriteString(fmt.Sprintf("- **Volume**: %d\n\n", scene.Volume))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a list of scenes to plain text format
func ExportToText(scenes []*models.Scene) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Scenes: %d\n\n", len(scenes)))

	for i, scene := range scenes {
		buf.WriteString(fmt.Sprintf("%d. %s: %s on %s at %d%%\n", i+1, scene.Name, scene.Playlist.Name, scene.Device.Name, scene.Volume))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
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

// ToJSON generates a pretty-printed JSON representation of the scenes
func ToJSON(scenes []*models.Scene) ([]byte, error) {
	return shared.MarshalJSON(scenes, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ScenesFile   string
	MetadataFile string
}

// WriteCSVExport exports scenes to CSV format with an accompanying JSON file.
//
// Defaults to "scenes" as the base filename & creates {base}.csv and {base}.json
func WriteCSVExport(scenes []*models.Scene, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "scenes"
	}

	csvData, err := ExportToCSV(scenes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	scenesFile := baseFilepath + ".csv"
	if err := os.WriteFile(scenesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	jsonData, err := ToJSON(scenes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JSON: %w", err)
	}

	metadataFile := baseFilepath + ".json"
	if err := os.WriteFile(metadataFile, jsonData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write JSON file: %w", err)
	}

	return &CSVExportResult{
		ScenesFile:   scenesFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	MarkdownFile string
	CoverImages  []string
}

// WriteMarkdownExport exports scenes to a Markdown file.
//
// Defaults to scenes.md as the filename. Cover images are downloaded next to
// the Markdown file, best-effort; a scene whose cover cannot be downloaded
// falls back to embedding the remote URL.
func WriteMarkdownExport(scenes []*models.Scene, path string) (*MarkdownExportResult, error) {
	if path == "" {
		path = "scenes.md"
	}

	result := &MarkdownExportResult{MarkdownFile: path}

	covers := make(map[string]string)
	dir := filepath.Dir(path)
	for i, scene := range scenes {
		if scene.Playlist.ImageURL == "" {
			continue
		}

		imageData, err := DownloadImage(scene.Playlist.ImageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
			continue
		}

		coverFile := fmt.Sprintf("cover_%d.jpg", i+1)
		coverPath := filepath.Join(dir, coverFile)
		if err := os.WriteFile(coverPath, imageData, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
			continue
		}

		covers[scene.ID] = coverFile
		result.CoverImages = append(result.CoverImages, coverPath)
	}

	mdData, err := ExportToMarkdown(scenes, covers)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(path, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return result, nil
}

// WriteTextExport exports scenes to plain text format.
//
// Defaults to scenes.txt as the filename.
func WriteTextExport(scenes []*models.Scene, path string) (string, error) {
	if path == "" {
		path = "scenes.txt"
	}

	textData, err := ExportToText(scenes)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
