package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apiconnect "github.com/osa030/podcastr/internal/api/connect"
)

func TestRenderProgress(t *testing.T) {
	tests := []struct {
		name       string
		elapsed    int
		total      int
		wantFilled int
	}{
		{name: "empty", elapsed: 0, total: 100, wantFilled: 0},
		{name: "half", elapsed: 50, total: 100, wantFilled: 10},
		{name: "complete", elapsed: 100, total: 100, wantFilled: 20},
		{name: "past the end", elapsed: 150, total: 100, wantFilled: 20},
		{name: "unknown duration", elapsed: 30, total: 0, wantFilled: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderProgress(tt.elapsed, tt.total, 20)
			assert.Equal(t, tt.wantFilled, strings.Count(bar, "█"))
			assert.Equal(t, 20-tt.wantFilled, strings.Count(bar, "░"))
		})
	}
}

func TestRenderPlayer(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		out := renderPlayer(apiconnect.Status{Mode: "idle", Elapsed: "00:00", Duration: "00:00"})
		assert.Contains(t, out, "Nothing playing")
		assert.Contains(t, out, "00:00 / 00:00")
	})

	t.Run("playing", func(t *testing.T) {
		out := renderPlayer(apiconnect.Status{
			Mode: "playing",
			Episode: &apiconnect.Episode{
				Title:            "Episode 7",
				Members:          "hosts",
				PublishedAtLabel: "1 Mar 24",
				DurationSeconds:  90,
			},
			Elapsed:  "00:45",
			Duration: "01:30",
			Controls: apiconnect.Controls{PlayPause: true, Next: true},
			Error:    "network error",
		})
		assert.Contains(t, out, "Episode 7")
		assert.Contains(t, out, "hosts")
		assert.Contains(t, out, "1 Mar 24")
		assert.Contains(t, out, "00:45 / 01:30")
		assert.Contains(t, out, "[⏸]")
		assert.Contains(t, out, "[⏭]")
		assert.NotContains(t, out, "[⏮]")
		assert.Contains(t, out, "network error")
	})
}

func TestRenderEpisodeList(t *testing.T) {
	assert.Equal(t, "No episodes", renderEpisodeList(apiconnect.EpisodeList{}))

	out := renderEpisodeList(apiconnect.EpisodeList{
		Episodes: []apiconnect.Episode{
			{ID: "3", Title: "Third"},
			{ID: "2", Title: "Second"},
			{ID: "1", Title: "First"},
		},
		LatestCount: 2,
	})
	assert.Contains(t, out, "Latest")
	assert.Contains(t, out, "All episodes")
	assert.Less(t, strings.Index(out, "Third"), strings.Index(out, "All episodes"))
	assert.Greater(t, strings.Index(out, "First"), strings.Index(out, "All episodes"))
}
