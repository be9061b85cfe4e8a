package filter

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/podcastr/internal/domain/episode"
)

// MediaTypeConfig represents the configuration for MediaTypeFilter.
type MediaTypeConfig struct {
	Allowed []string `mapstructure:"allowed" default:"[\"audio/\"]" validate:"min=1,dive,required"`
}

// MediaTypeFilter drops episodes whose media type matches none of the allowed
// prefixes. Episodes without a media type are accepted.
type MediaTypeFilter struct {
	allowed []string
}

// NewMediaTypeFilter creates a media type filter allowing the given prefixes.
func NewMediaTypeFilter(allowed ...string) *MediaTypeFilter {
	return &MediaTypeFilter{allowed: allowed}
}

func (f *MediaTypeFilter) Name() string {
	return "media_type_filter"
}

func (f *MediaTypeFilter) Description() string {
	return "Drops episodes whose media is not playable audio"
}

func (f *MediaTypeFilter) ReturnCodes() []string {
	return []string{"unsupported_media_type"}
}

func (f *MediaTypeFilter) ValidateConfig(settings map[string]any) error {
	var config MediaTypeConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.allowed = make([]string, len(config.Allowed))
	for i, prefix := range config.Allowed {
		f.allowed[i] = strings.ToLower(prefix)
	}
	return nil
}

func (f *MediaTypeFilter) Check(ctx context.Context, ep episode.Episode, accepted []episode.Episode) Result {
	if ep.MediaType == "" || len(f.allowed) == 0 {
		return Accept()
	}

	mediaType := strings.ToLower(ep.MediaType)
	for _, prefix := range f.allowed {
		if strings.HasPrefix(mediaType, prefix) {
			return Accept()
		}
	}
	return Reject("unsupported_media_type")
}

func init() {
	Register("media_type_filter", func() Filter {
		return NewMediaTypeFilter()
	})
}
