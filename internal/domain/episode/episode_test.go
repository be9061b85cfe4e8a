package episode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int
		expected string
	}{
		{name: "zero", seconds: 0, expected: "00:00"},
		{name: "under a minute", seconds: 7, expected: "00:07"},
		{name: "exact minute", seconds: 60, expected: "01:00"},
		{name: "typical episode", seconds: 3981, expected: "66:21"},
		{name: "negative clamps to zero", seconds: -5, expected: "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.seconds))
		})
	}
}

func TestParsePublishedAt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "api format",
			input: "2021-01-22 19:16:00",
			want:  time.Date(2021, 1, 22, 19, 16, 0, 0, time.UTC),
		},
		{
			name:  "RFC3339",
			input: "2021-01-22T19:16:00Z",
			want:  time.Date(2021, 1, 22, 19, 16, 0, 0, time.UTC),
		},
		{
			name:  "date only",
			input: "2021-01-22",
			want:  time.Date(2021, 1, 22, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "empty",
			input: "",
			want:  time.Time{},
		},
		{
			name:    "garbage",
			input:   "yesterday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePublishedAt(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "22 Jan 21", FormatDate(time.Date(2021, 1, 22, 19, 16, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestFromRaw(t *testing.T) {
	raw := Raw{
		ID:          "a-importancia-da-contribuicao-em-open-source",
		Title:       "Faladev #30 | A importância da contribuição em Open Source",
		Members:     "Diego Fernandes, João Pedro, Diego Haz e Bruno Lemos",
		PublishedAt: "2021-01-22 19:16:00",
		Thumbnail:   "https://storage.googleapis.com/golden-wind/nextlevelweek/05-podcastr/opensource.jpg",
		File: RawFile{
			URL:      "https://storage.googleapis.com/golden-wind/nextlevelweek/05-podcastr/opensource.m4a",
			Type:     "audio/x-m4a",
			Duration: 3981,
		},
	}

	e, err := FromRaw(raw)
	require.NoError(t, err)

	assert.Equal(t, raw.ID, e.ID)
	assert.Equal(t, raw.File.URL, e.MediaURL)
	assert.Equal(t, "22 Jan 21", e.PublishedAtLabel)
	assert.Equal(t, "66:21", e.DurationLabel)
	assert.Equal(t, 3981*time.Second, e.Duration())
}

func TestFromRaw_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
	}{
		{
			name: "missing id",
			raw:  Raw{Title: "t", File: RawFile{URL: "https://example.com/a.mp3"}},
		},
		{
			name: "missing media url",
			raw:  Raw{ID: "ep", Title: "t"},
		},
		{
			name: "media url is not a url",
			raw:  Raw{ID: "ep", Title: "t", File: RawFile{URL: "not a url"}},
		},
		{
			name: "negative duration",
			raw:  Raw{ID: "ep", Title: "t", File: RawFile{URL: "https://example.com/a.mp3", Duration: -1}},
		},
		{
			name: "bad date",
			raw:  Raw{ID: "ep", Title: "t", PublishedAt: "soon", File: RawFile{URL: "https://example.com/a.mp3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRaw(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestSameIDs(t *testing.T) {
	a := []Episode{{ID: "1"}, {ID: "2"}}

	assert.True(t, SameIDs(a, []Episode{{ID: "1", Title: "changed"}, {ID: "2"}}))
	assert.False(t, SameIDs(a, []Episode{{ID: "2"}, {ID: "1"}}))
	assert.False(t, SameIDs(a, a[:1]))
	assert.True(t, SameIDs(nil, []Episode{}))
}
