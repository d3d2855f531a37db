package domain

import "example.com/ridedash/internal/record"

// FindPlaylist returns the song titles of the first music set whose created_at
// equals key exactly. Keys are compared as strings and never parsed.
func FindPlaylist(sets []record.Record, key string) ([]string, error) {
	for _, rec := range sets {
		createdAt, ok := rec.Text(FieldCreatedAt)
		if !ok || createdAt != key {
			continue
		}
		songs, _ := rec.Strings(FieldSetList)
		if songs == nil {
			songs = []string{}
		}
		return songs, nil
	}
	return nil, ErrPlaylistNotFound
}
