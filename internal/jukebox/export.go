package jukebox

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// DefaultExportPath is where ExportPlayed writes when given an empty path.
const DefaultExportPath = "played_playlist.json"

const artistSeparator = " - "

// ErrNothingToExport is returned by ExportPlayed when the played history is empty.
var ErrNothingToExport = errors.New("no played entries to export")

// BuildExport converts played entries into export records. Titles are split
// on the first " - " into artist and song; a title without the separator is
// attributed to UnknownArtist.
func BuildExport(played []Entry) []ExportRecord {
	out := make([]ExportRecord, 0, len(played))
	for _, e := range played {
		rec := ExportRecord{Song: e.Title, Artist: UnknownArtist, URL: e.URL}
		if artist, song, ok := strings.Cut(e.Title, artistSeparator); ok {
			rec.Artist = strings.TrimSpace(artist)
			rec.Song = strings.TrimSpace(song)
		}
		out = append(out, rec)
	}
	return out
}

// ExportPlayed writes the played history to path as indented JSON and returns
// the number of records written. Repository state is never modified.
func (s *Service) ExportPlayed(path string) (int, error) {
	if path == "" {
		path = DefaultExportPath
	}
	played := s.repo.Snapshot().Played
	if len(played) == 0 {
		return 0, ErrNothingToExport
	}

	records := BuildExport(played)
	if err := writeExport(path, records); err != nil {
		s.log.Error("export failed", slog.String("path", path), slog.String("error", err.Error()))
		return 0, err
	}
	s.log.Info("played history exported", slog.String("path", path), slog.Int("records", len(records)))
	return len(records), nil
}

func writeExport(path string, records []ExportRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}
