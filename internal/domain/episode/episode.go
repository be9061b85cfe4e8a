// Package episode provides the Episode domain entity.
package episode

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Episode represents a podcast episode.
// Immutable once fetched from the episode API.
type Episode struct {
	ID               string    `validate:"required"`      // Slug used as the detail route key
	Title            string    `validate:"required"`      // Episode title
	Members          string    // Hosts and guests
	PublishedAt      time.Time // Publication time
	PublishedAtLabel string    // PublishedAt formatted for display
	ThumbnailURL     string    `validate:"omitempty,url"` // Cover image URL
	Description      string    // HTML description
	MediaURL         string    `validate:"required,url"`  // Audio file URL
	MediaType        string    // Audio MIME type
	MediaSize        int64     `validate:"gte=0"`         // Audio file size in bytes
	DurationSeconds  int       `validate:"gte=0"`         // Audio duration
	DurationLabel    string    // DurationSeconds formatted as MM:SS
}

// RawFile is the file section of an API episode record.
type RawFile struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Duration int    `json:"duration"`
	Size     int64  `json:"size"`
}

// Raw is an episode record as returned by the episode API.
type Raw struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Members     string  `json:"members"`
	PublishedAt string  `json:"published_at"`
	Thumbnail   string  `json:"thumbnail"`
	Description string  `json:"description"`
	File        RawFile `json:"file"`
}

// DateLayout is the display layout for publication dates.
const DateLayout = "2 Jan 06"

// publishedAtLayouts are the layouts accepted for published_at.
var publishedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var validate = validator.New()

// FromRaw converts an API record into an Episode.
func FromRaw(r Raw) (Episode, error) {
	publishedAt, err := ParsePublishedAt(r.PublishedAt)
	if err != nil {
		return Episode{}, errors.Wrapf(err, "episode %q", r.ID)
	}

	e := Episode{
		ID:               r.ID,
		Title:            r.Title,
		Members:          r.Members,
		PublishedAt:      publishedAt,
		PublishedAtLabel: FormatDate(publishedAt),
		ThumbnailURL:     r.Thumbnail,
		Description:      r.Description,
		MediaURL:         r.File.URL,
		MediaType:        r.File.Type,
		MediaSize:        r.File.Size,
		DurationSeconds:  r.File.Duration,
		DurationLabel:    FormatDuration(r.File.Duration),
	}
	if err := e.Validate(); err != nil {
		return Episode{}, errors.Wrapf(err, "episode %q", r.ID)
	}
	return e, nil
}

// Validate checks the required fields of the episode.
func (e *Episode) Validate() error {
	if err := validate.Struct(e); err != nil {
		return errors.Wrap(err, "invalid episode")
	}
	return nil
}

// Duration returns the audio duration.
func (e *Episode) Duration() time.Duration {
	return time.Duration(e.DurationSeconds) * time.Second
}

// ParsePublishedAt parses a published_at value.
// An empty value yields the zero time.
func ParsePublishedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Newf("unrecognized published_at %q", s)
}

// FormatDate formats a publication time for display.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatDuration formats seconds as MM:SS.
// Minutes are not wrapped into hours.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// SameIDs reports whether both lists hold the same episodes in the same order.
func SameIDs(a, b []Episode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
