// Package tag defines recipe tags
package tag

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNameRequired = errors.New("tag name is required")
	ErrNameTooLong  = errors.New("tag name must not exceed 255 characters")
)

// Tag labels recipes. Names are stored lower-cased and are unique
type Tag struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTag creates a tag with a normalized name
func NewTag(name string) (*Tag, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Tag{Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// Rename changes the tag name
func (t *Tag) Rename(name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	t.Name = name
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// NormalizeName trims and lower-cases a tag name
func NormalizeName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", ErrNameRequired
	}
	if len(name) > 255 {
		return "", ErrNameTooLong
	}
	return name, nil
}

// NormalizeNames normalizes a tag filter, dropping blanks and duplicates
func NormalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n, err := NormalizeName(n)
		if err != nil {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
