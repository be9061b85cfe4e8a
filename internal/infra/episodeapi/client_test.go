package episodeapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const episodesJSON = `[
	{
		"id": "a-importancia-da-contribuicao-em-open-source",
		"title": "Faladev #30 | A importância da contribuição em Open Source",
		"members": "Diego Fernandes, João Pedro, Diego Haz e Bruno Lemos",
		"published_at": "2021-01-22 19:16:00",
		"thumbnail": "https://storage.googleapis.com/golden-wind/nextlevelweek/05-podcastr/opensource.jpg",
		"description": "<p>Nesse episódio do Faladev...</p>",
		"file": {
			"url": "https://storage.googleapis.com/golden-wind/nextlevelweek/05-podcastr/opensource.m4a",
			"type": "audio/x-m4a",
			"duration": 3981
		}
	},
	{
		"id": "broken",
		"title": "",
		"published_at": "2021-01-20 19:16:00",
		"file": {"url": "", "type": "audio/x-m4a", "duration": 10}
	},
	{
		"id": "como-virar-lider-desenvolvimento",
		"title": "Como se tornar um líder de desenvolvimento",
		"members": "Diego Fernandes e Richard Nixon",
		"published_at": "2021-01-18 18:36:00",
		"thumbnail": "https://storage.googleapis.com/golden-wind/nextlevelweek/05-podcastr/lideranca.jpg",
		"file": {
			"url": "https://storage.googleapis.com/golden-wind/nextlevelweek/05-podcastr/lideranca.m4a",
			"type": "audio/x-m4a",
			"duration": 2410
		}
	}
]`

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "not a url"})
	assert.Error(t, err)

	client, err := New(Config{BaseURL: "http://localhost:3333/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3333", client.baseURL)
}

func TestListEpisodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/episodes", r.URL.Path)
		assert.Equal(t, "12", r.URL.Query().Get("_limit"))
		assert.Equal(t, "published_at", r.URL.Query().Get("_sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("_order"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, episodesJSON)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Limit: 12, Sort: "published_at", Order: "desc"})
	require.NoError(t, err)

	episodes, err := client.ListEpisodes(context.Background())
	require.NoError(t, err)
	require.Len(t, episodes, 2, "invalid record is skipped")

	assert.Equal(t, "a-importancia-da-contribuicao-em-open-source", episodes[0].ID)
	assert.Equal(t, "66:21", episodes[0].DurationLabel)
	assert.Equal(t, "22 Jan 21", episodes[0].PublishedAtLabel)
	assert.Equal(t, time.Date(2021, 1, 22, 19, 16, 0, 0, time.UTC), episodes[0].PublishedAt)
	assert.Equal(t, "como-virar-lider-desenvolvimento", episodes[1].ID)
	assert.Equal(t, "40:10", episodes[1].DurationLabel)
}

func TestListEpisodes_NoQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)

	episodes, err := client.ListEpisodes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, episodes)
}

func TestListEpisodes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{}`, wantMsg: "status 500"},
		{name: "malformed body", status: http.StatusOK, body: `{"not":"a list"`, wantMsg: "failed to parse response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client, err := New(Config{BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.ListEpisodes(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestListEpisodes_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client, err := New(Config{BaseURL: baseURL, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.ListEpisodes(context.Background())
	assert.Error(t, err)
}

func TestGetEpisode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/episodes/como-virar-lider-desenvolvimento" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{}`)
			return
		}
		fmt.Fprint(w, `{
			"id": "como-virar-lider-desenvolvimento",
			"title": "Como se tornar um líder de desenvolvimento",
			"published_at": "2021-01-18 18:36:00",
			"file": {"url": "https://example.com/lideranca.m4a", "duration": 2410}
		}`)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)

	e, err := client.GetEpisode(context.Background(), "como-virar-lider-desenvolvimento")
	require.NoError(t, err)
	assert.Equal(t, "Como se tornar um líder de desenvolvimento", e.Title)

	_, err = client.GetEpisode(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = client.GetEpisode(context.Background(), "")
	assert.Error(t, err)
}
