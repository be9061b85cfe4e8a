// Package connect provides the Connect RPC player service.
package connect

import (
	"context"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/podcastr/internal/app/library"
	"github.com/osa030/podcastr/internal/app/notification"
	"github.com/osa030/podcastr/internal/app/playback"
	"github.com/osa030/podcastr/internal/app/player"
	"github.com/osa030/podcastr/internal/domain/catalog"
	"github.com/osa030/podcastr/internal/domain/episode"
	"github.com/osa030/podcastr/internal/infra/episodeapi"
)

// EpisodeDetails fetches a single episode for the detail view.
type EpisodeDetails interface {
	GetEpisode(ctx context.Context, id string) (episode.Episode, error)
}

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	store   *library.Store
	details EpisodeDetails
	session *playback.Session
	surface *player.Surface
	notif   *notification.Manager

	done     chan struct{}
	doneOnce sync.Once
}

// NewPlayerService creates a new PlayerService.
// details may be nil, in which case episodes are looked up in the catalog only.
func NewPlayerService(
	store *library.Store,
	details EpisodeDetails,
	session *playback.Session,
	surface *player.Surface,
	notif *notification.Manager,
) *PlayerService {
	return &PlayerService{
		store:   store,
		details: details,
		session: session,
		surface: surface,
		notif:   notif,
		done:    make(chan struct{}),
	}
}

// Shutdown ends all open Subscribe streams.
func (s *PlayerService) Shutdown() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// ListEpisodes returns the current catalog.
func (s *PlayerService) ListEpisodes(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return respond(catalogFields(s.store.Catalog()))
}

// GetEpisode returns a single episode.
func (s *PlayerService) GetEpisode(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	var msg GetEpisodeRequest
	if err := decode(req.Msg, &msg); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}

	if s.details != nil {
		ep, err := s.details.GetEpisode(ctx, msg.ID)
		switch {
		case err == nil:
			return respond(episodeFields(ep))
		case errors.Is(err, episodeapi.ErrNotFound):
			return nil, connect.NewError(connect.CodeNotFound, err)
		default:
			return nil, connect.NewError(connect.CodeUnavailable, err)
		}
	}

	c := s.store.Catalog()
	ep, ok := c.Find(msg.ID)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, catalog.ErrEpisodeNotFound)
	}
	return respond(episodeFields(ep))
}

// Play starts an episode with its catalog list as the queue.
func (s *PlayerService) Play(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	var msg PlayRequest
	if err := decode(req.Msg, &msg); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	c := s.store.Catalog()
	queue, index, err := c.Queue(catalog.List(msg.List), msg.EpisodeID)
	switch {
	case errors.Is(err, catalog.ErrEpisodeNotFound):
		return nil, connect.NewError(connect.CodeNotFound, err)
	case err != nil:
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.session.Play(queue, index); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return s.status()
}

// TogglePlay flips between playing and paused.
func (s *PlayerService) TogglePlay(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	s.surface.TogglePlay()
	return s.status()
}

// PlayNext moves to the next episode in the queue.
func (s *PlayerService) PlayNext(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	s.surface.Next()
	return s.status()
}

// PlayPrevious moves to the previous episode in the queue.
func (s *PlayerService) PlayPrevious(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	s.surface.Previous()
	return s.status()
}

// Stop clears the queue and returns the player to idle.
func (s *PlayerService) Stop(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	s.session.Clear()
	return s.status()
}

// GetStatus returns the current player view.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return s.status()
}

// Subscribe streams player views, starting with the current one.
func (s *PlayerService) Subscribe(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
	stream *connect.ServerStream[structpb.Struct],
) error {
	adapter := &notificationStreamAdapter{stream: stream}

	subscriptionID, err := s.notif.SubscribeWithInitial(adapter, s.surface.View)
	if err != nil {
		return err
	}
	defer s.notif.Unsubscribe(subscriptionID)

	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return nil
}

func (s *PlayerService) status() (*connect.Response[structpb.Struct], error) {
	return respond(viewFields(s.surface.View()))
}

func respond(fields map[string]any) (*connect.Response[structpb.Struct], error) {
	msg, err := encode(fields)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[structpb.Struct]
}

func (a *notificationStreamAdapter) Send(n notification.Notification) error {
	msg, err := encode(notificationFields(n))
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(msg)
}
