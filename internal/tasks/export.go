package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/watchwave/internal/collection"
	"github.com/desertthunder/watchwave/internal/formatter"
	"github.com/desertthunder/watchwave/internal/models"
)

// ExportOpts contains configuration for library exports.
type ExportOpts struct {
	Format    string // Export format: json, csv, markdown, txt
	OutputDir string // Output directory (default: watchwave_export_{epoch})
}

// ExportResult lists the files written by [ExportLibrary].
type ExportResult struct {
	OutputDirectory string   `json:"output_directory"`
	Files           []string `json:"files"`
	ManifestPath    string   `json:"manifest_path"`
}

// ExportLibrary writes the watchlist and the library to opts.OutputDir in opts.Format, followed by a manifest.
func ExportLibrary(prog chan<- ProgressUpdate, store *collection.Store, opts ExportOpts) (*ExportResult, error) {
	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("watchwave_export_%d", time.Now().Unix())
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	collections := []struct {
		file   string
		title  string
		titles []models.Title
	}{
		{"watchlist", "Watchlist", store.Watchlist()},
		{"library", "Library", store.Watched()},
	}

	result := &ExportResult{OutputDirectory: opts.OutputDir, Files: []string{}}
	manifest := formatter.ExportManifest{
		Format:     format,
		ExportedAt: time.Now().UTC(),
		OutputDir:  opts.OutputDir,
		Stats:      store.Stats(),
	}

	for i, c := range collections {
		sendProgress(prog, exportingUpdate(i+1, len(collections), c.title))

		path, err := formatter.WriteExport(format, c.title, c.titles, filepath.Join(opts.OutputDir, c.file))
		if err != nil {
			return result, fmt.Errorf("%s export failed: %w", c.file, err)
		}

		result.Files = append(result.Files, path)
		manifest.Collections = append(manifest.Collections, formatter.ManifestEntry{
			Name:  c.file,
			Count: len(c.titles),
			File:  filepath.Base(path),
		})
	}

	manifestPath := formatter.ManifestPath(opts.OutputDir)
	if err := formatter.WriteManifest(manifest, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))

	return result, nil
}
