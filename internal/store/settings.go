package store

import (
	"fmt"
	"strconv"
)

const (
	SettingThumbnailWindow   = "thumbnail_window"
	SettingAutoExpandFlagged = "auto_expand_flagged"
	SettingDownloadDir       = "download_dir"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// ViewerSettings reads the viewer preferences. Unparseable values fall back
// to their defaults.
func (s *Store) ViewerSettings() (ViewerSettings, error) {
	all, err := s.GetAllSettings()
	if err != nil {
		return ViewerSettings{}, err
	}
	vs := ViewerSettings{ThumbnailWindow: 3, AutoExpandFlagged: true}
	for _, kv := range all {
		switch kv.Key {
		case SettingThumbnailWindow:
			if n, err := strconv.Atoi(kv.Value); err == nil && n > 0 {
				vs.ThumbnailWindow = n
			}
		case SettingAutoExpandFlagged:
			if b, err := strconv.ParseBool(kv.Value); err == nil {
				vs.AutoExpandFlagged = b
			}
		case SettingDownloadDir:
			vs.DownloadDir = kv.Value
		}
	}
	return vs, nil
}

func (s *Store) SaveViewerSettings(vs ViewerSettings) error {
	if vs.ThumbnailWindow < 1 {
		return fmt.Errorf("thumbnail window must be at least 1, got %d", vs.ThumbnailWindow)
	}
	pairs := []Setting{
		{SettingThumbnailWindow, strconv.Itoa(vs.ThumbnailWindow)},
		{SettingAutoExpandFlagged, strconv.FormatBool(vs.AutoExpandFlagged)},
		{SettingDownloadDir, vs.DownloadDir},
	}
	for _, p := range pairs {
		if err := s.SetSetting(p.Key, p.Value); err != nil {
			return fmt.Errorf("save setting %q: %w", p.Key, err)
		}
	}
	return nil
}
