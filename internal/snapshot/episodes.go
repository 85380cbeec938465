package snapshot

import (
	"encoding/json"
	"fmt"
	"time"
)

// Chapter marks where one theme's discussion begins in the track.
type Chapter struct {
	Title  string  `json:"title"`
	Offset float64 `json:"offset_seconds"`
}

// Episode is one published episode, kept so the feed can be regenerated
// from history.
type Episode struct {
	GUID        string
	Title       string
	FileName    string
	SizeBytes   int64
	DurationS   float64
	PubDate     time.Time
	Description string
	Chapters    []Chapter
}

// AddEpisode records a published episode. Re-publishing the same GUID
// replaces the record, which keeps a re-run of the same day idempotent.
func (s *Store) AddEpisode(ep Episode) error {
	chapters, err := json.Marshal(ep.Chapters)
	if err != nil {
		return fmt.Errorf("encoding chapters: %w", err)
	}

	_, err = s.writeDB.Exec(`
		INSERT INTO episodes (guid, title, file_name, size_bytes, duration_s, pub_date, description, chapters)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guid) DO UPDATE SET
			title = excluded.title,
			file_name = excluded.file_name,
			size_bytes = excluded.size_bytes,
			duration_s = excluded.duration_s,
			description = excluded.description,
			chapters = excluded.chapters
	`, ep.GUID, ep.Title, ep.FileName, ep.SizeBytes, ep.DurationS, ep.PubDate, ep.Description, string(chapters))
	if err != nil {
		return fmt.Errorf("recording episode %s: %w", ep.GUID, err)
	}
	return nil
}

// Episodes returns all recorded episodes, newest first.
func (s *Store) Episodes() ([]Episode, error) {
	rows, err := s.readDB.Query(`
		SELECT guid, title, file_name, size_bytes, duration_s, pub_date, description, chapters
		FROM episodes ORDER BY pub_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var ep Episode
		var chapters string
		if err := rows.Scan(&ep.GUID, &ep.Title, &ep.FileName, &ep.SizeBytes, &ep.DurationS, &ep.PubDate, &ep.Description, &chapters); err != nil {
			return nil, fmt.Errorf("scanning episode: %w", err)
		}
		if err := json.Unmarshal([]byte(chapters), &ep.Chapters); err != nil {
			return nil, fmt.Errorf("decoding chapters for %s: %w", ep.GUID, err)
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}
