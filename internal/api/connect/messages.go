package connect

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/podcastr/internal/app/notification"
	"github.com/osa030/podcastr/internal/app/player"
	"github.com/osa030/podcastr/internal/domain/catalog"
	"github.com/osa030/podcastr/internal/domain/episode"
)

// Messages travel as google.protobuf.Struct. The types below describe their
// fields and are decoded with mapstructure.

// GetEpisodeRequest is the GetEpisode request.
type GetEpisodeRequest struct {
	ID string `mapstructure:"id"`
}

// PlayRequest is the Play request. An empty list means the full catalog.
type PlayRequest struct {
	EpisodeID string `mapstructure:"episode_id"`
	List      string `mapstructure:"list"`
}

// Episode is an episode as sent to clients.
type Episode struct {
	ID               string  `mapstructure:"id"`
	Title            string  `mapstructure:"title"`
	Members          string  `mapstructure:"members"`
	PublishedAt      string  `mapstructure:"published_at"`
	PublishedAtLabel string  `mapstructure:"published_at_label"`
	ThumbnailURL     string  `mapstructure:"thumbnail_url"`
	Description      string  `mapstructure:"description"`
	MediaURL         string  `mapstructure:"media_url"`
	MediaType        string  `mapstructure:"media_type"`
	MediaSize        float64 `mapstructure:"media_size"`
	DurationSeconds  int     `mapstructure:"duration_seconds"`
	Duration         string  `mapstructure:"duration"`
}

// EpisodeList is the ListEpisodes response.
type EpisodeList struct {
	Episodes    []Episode `mapstructure:"episodes"`
	LatestCount int       `mapstructure:"latest_count"`
	FetchedAt   string    `mapstructure:"fetched_at"`
}

// Latest returns the episodes of the latest list.
func (l EpisodeList) Latest() []Episode {
	n := l.LatestCount
	if n > len(l.Episodes) {
		n = len(l.Episodes)
	}
	if n < 0 {
		n = 0
	}
	return l.Episodes[:n]
}

// Controls is the enabled state of the transport buttons.
type Controls struct {
	Shuffle   bool `mapstructure:"shuffle"`
	Previous  bool `mapstructure:"previous"`
	PlayPause bool `mapstructure:"play_pause"`
	Next      bool `mapstructure:"next"`
	Repeat    bool `mapstructure:"repeat"`
}

// Status is the player view as sent to clients.
type Status struct {
	Mode           string   `mapstructure:"mode"`
	Episode        *Episode `mapstructure:"episode"`
	ElapsedSeconds int      `mapstructure:"elapsed_seconds"`
	Elapsed        string   `mapstructure:"elapsed"`
	Duration       string   `mapstructure:"duration"`
	Controls       Controls `mapstructure:"controls"`
	Error          string   `mapstructure:"error"`
	Version        uint64   `mapstructure:"version"`
}

// Playing reports whether the player is playing.
func (s Status) Playing() bool {
	return s.Mode == "playing"
}

// Notification is one message of the Subscribe stream.
type Notification struct {
	Type       string `mapstructure:"type"`
	SequenceNo uint64 `mapstructure:"sequence_no"`
	Status     Status `mapstructure:"status"`
}

// decode decodes a Struct message into out.
func decode(msg *structpb.Struct, out any) error {
	if msg == nil {
		return nil
	}
	if err := mapstructure.Decode(msg.AsMap(), out); err != nil {
		return errors.Wrap(err, "failed to decode message")
	}
	return nil
}

// encode converts a field map into a Struct message.
func encode(fields map[string]any) (*structpb.Struct, error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode message")
	}
	return msg, nil
}

func episodeFields(ep episode.Episode) map[string]any {
	publishedAt := ""
	if !ep.PublishedAt.IsZero() {
		publishedAt = ep.PublishedAt.Format(time.RFC3339)
	}
	return map[string]any{
		"id":                 ep.ID,
		"title":              ep.Title,
		"members":            ep.Members,
		"published_at":       publishedAt,
		"published_at_label": ep.PublishedAtLabel,
		"thumbnail_url":      ep.ThumbnailURL,
		"description":        ep.Description,
		"media_url":          ep.MediaURL,
		"media_type":         ep.MediaType,
		"media_size":         float64(ep.MediaSize),
		"duration_seconds":   ep.DurationSeconds,
		"duration":           ep.DurationLabel,
	}
}

func catalogFields(c catalog.Catalog) map[string]any {
	episodes := make([]any, 0, c.Len())
	for _, ep := range c.Episodes {
		episodes = append(episodes, episodeFields(ep))
	}
	fetchedAt := ""
	if !c.FetchedAt.IsZero() {
		fetchedAt = c.FetchedAt.Format(time.RFC3339)
	}
	return map[string]any{
		"episodes":     episodes,
		"latest_count": len(c.Latest()),
		"fetched_at":   fetchedAt,
	}
}

func viewFields(v player.View) map[string]any {
	fields := map[string]any{
		"mode":            v.Mode.String(),
		"elapsed_seconds": v.ElapsedSeconds,
		"elapsed":         v.Elapsed,
		"duration":        v.Duration,
		"controls": map[string]any{
			"shuffle":    v.Controls.Shuffle,
			"previous":   v.Controls.Previous,
			"play_pause": v.Controls.PlayPause,
			"next":       v.Controls.Next,
			"repeat":     v.Controls.Repeat,
		},
		"error":   v.Error,
		"version": float64(v.Version),
	}
	if v.Episode != nil {
		fields["episode"] = episodeFields(*v.Episode)
	}
	return fields
}

func notificationFields(n notification.Notification) map[string]any {
	return map[string]any{
		"type":        n.Type.String(),
		"sequence_no": float64(n.SequenceNo),
		"status":      viewFields(n.View),
	}
}
