package fyne

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"github.com/auraplay/auraplay/internal/ports"
)

// FileDialog opens a single audio file and hands it to the callback as a
// file selection. Unsupported files are filtered later by the ingestor.
type FileDialog struct {
	window   fyne.Window
	callback func([]ports.FileSelection)
	logger   *slog.Logger
}

// NewFileDialog creates a new file open dialog.
func NewFileDialog(window fyne.Window, callback func([]ports.FileSelection), logger *slog.Logger) *FileDialog {
	return &FileDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		defer func() {
			_ = reader.Close()
		}()

		data, err := io.ReadAll(reader)
		if err != nil {
			d.logger.Error("failed to read file",
				slog.String("file", reader.URI().Name()),
				slog.Any("error", err))
			return
		}

		if d.callback != nil {
			d.callback([]ports.FileSelection{{
				Name:     reader.URI().Name(),
				Data:     data,
				MIMEType: reader.URI().MimeType(),
			}})
		}
	}, d.window)
}

// FolderDialog opens a folder and hands every regular file in it to the
// callback. Subdirectories are not descended into.
type FolderDialog struct {
	window   fyne.Window
	callback func([]ports.FileSelection)
	logger   *slog.Logger
}

// NewFolderDialog creates a new folder open dialog.
func NewFolderDialog(window fyne.Window, callback func([]ports.FileSelection), logger *slog.Logger) *FolderDialog {
	return &FolderDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the folder dialog.
func (d *FolderDialog) Show() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			d.logger.Error("folder dialog error", slog.Any("error", err))
			return
		}
		if uri == nil {
			return // User cancelled
		}

		selections := d.readFolder(uri.Path())
		if d.callback != nil && len(selections) > 0 {
			d.callback(selections)
		}
	}, d.window)
}

// readFolder loads every regular file in the folder into memory.
func (d *FolderDialog) readFolder(folderPath string) []ports.FileSelection {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		d.logger.Error("failed to read folder",
			slog.String("folder", folderPath),
			slog.Any("error", err))
		return nil
	}

	var selections []ports.FileSelection
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(folderPath, entry.Name()))
		if err != nil {
			d.logger.Warn("skipping unreadable file",
				slog.String("file", entry.Name()),
				slog.Any("error", err))
			continue
		}

		selections = append(selections, ports.FileSelection{
			Name: entry.Name(),
			Data: data,
		})
	}
	return selections
}
