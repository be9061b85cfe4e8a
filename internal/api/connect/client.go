package connect

import (
	"context"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// PlayerServiceClient is a client for the PlayerService RPC.
type PlayerServiceClient struct {
	listEpisodes *connect.Client[emptypb.Empty, structpb.Struct]
	getEpisode   *connect.Client[structpb.Struct, structpb.Struct]
	play         *connect.Client[structpb.Struct, structpb.Struct]
	togglePlay   *connect.Client[emptypb.Empty, structpb.Struct]
	playNext     *connect.Client[emptypb.Empty, structpb.Struct]
	playPrevious *connect.Client[emptypb.Empty, structpb.Struct]
	stop         *connect.Client[emptypb.Empty, structpb.Struct]
	getStatus    *connect.Client[emptypb.Empty, structpb.Struct]
	subscribe    *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewPlayerServiceClient creates a client for the server at baseURL.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	return &PlayerServiceClient{
		listEpisodes: connect.NewClient[emptypb.Empty, structpb.Struct](
			httpClient, baseURL+PlayerServiceListEpisodesProcedure, opts...),
		getEpisode: connect.NewClient[structpb.Struct, structpb.Struct](
			httpClient, baseURL+PlayerServiceGetEpisodeProcedure, opts...),
		play: connect.NewClient[structpb.Struct, structpb.Struct](
			httpClient, baseURL+PlayerServicePlayProcedure, opts...),
		togglePlay: connect.NewClient[emptypb.Empty, structpb.Struct](
			httpClient, baseURL+PlayerServiceTogglePlayProcedure, opts...),
		playNext: connect.NewClient[emptypb.Empty, structpb.Struct](
			httpClient, baseURL+PlayerServicePlayNextProcedure, opts...),
		playPrevious: connect.NewClient[emptypb.Empty, structpb.Struct](
			httpClient, baseURL+PlayerServicePlayPreviousProcedure, opts...),
		stop: connect.NewClient[emptypb.Empty, structpb.Struct](
			httpClient, baseURL+PlayerServiceStopProcedure, opts...),
		getStatus: connect.NewClient[emptypb.Empty, structpb.Struct](
			httpClient, baseURL+PlayerServiceGetStatusProcedure, opts...),
		subscribe: connect.NewClient[emptypb.Empty, structpb.Struct](
			httpClient, baseURL+PlayerServiceSubscribeProcedure, opts...),
	}
}

// ListEpisodes returns the server's catalog.
func (c *PlayerServiceClient) ListEpisodes(ctx context.Context) (EpisodeList, error) {
	var out EpisodeList
	res, err := c.listEpisodes.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return out, err
	}
	err = decode(res.Msg, &out)
	return out, err
}

// GetEpisode returns a single episode.
func (c *PlayerServiceClient) GetEpisode(ctx context.Context, id string) (Episode, error) {
	var out Episode
	req, err := encode(map[string]any{"id": id})
	if err != nil {
		return out, err
	}
	res, err := c.getEpisode.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return out, err
	}
	err = decode(res.Msg, &out)
	return out, err
}

// Play starts the episode with the given list as the queue.
func (c *PlayerServiceClient) Play(ctx context.Context, episodeID, list string) (Status, error) {
	req, err := encode(map[string]any{"episode_id": episodeID, "list": list})
	if err != nil {
		return Status{}, err
	}
	return callStatus(ctx, c.play, req)
}

// TogglePlay flips between playing and paused.
func (c *PlayerServiceClient) TogglePlay(ctx context.Context) (Status, error) {
	return callStatus(ctx, c.togglePlay, &emptypb.Empty{})
}

// PlayNext moves to the next episode.
func (c *PlayerServiceClient) PlayNext(ctx context.Context) (Status, error) {
	return callStatus(ctx, c.playNext, &emptypb.Empty{})
}

// PlayPrevious moves to the previous episode.
func (c *PlayerServiceClient) PlayPrevious(ctx context.Context) (Status, error) {
	return callStatus(ctx, c.playPrevious, &emptypb.Empty{})
}

// Stop clears the queue.
func (c *PlayerServiceClient) Stop(ctx context.Context) (Status, error) {
	return callStatus(ctx, c.stop, &emptypb.Empty{})
}

// GetStatus returns the current player view.
func (c *PlayerServiceClient) GetStatus(ctx context.Context) (Status, error) {
	return callStatus(ctx, c.getStatus, &emptypb.Empty{})
}

// Subscribe calls fn for every notification until ctx is done, the stream
// ends, or fn returns false.
func (c *PlayerServiceClient) Subscribe(ctx context.Context, fn func(Notification) bool) error {
	stream, err := c.subscribe.CallServerStream(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		var n Notification
		if err := decode(stream.Msg(), &n); err != nil {
			return err
		}
		if !fn(n) {
			return nil
		}
	}
	return stream.Err()
}

func callStatus[Req any](ctx context.Context, client *connect.Client[Req, structpb.Struct], req *Req) (Status, error) {
	var out Status
	res, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return out, err
	}
	err = decode(res.Msg, &out)
	return out, err
}
