package connect

import (
	"net/http"

	"connectrpc.com/connect"
)

// PlayerServiceName is the fully-qualified name of the PlayerService service.
const PlayerServiceName = "podcastr.v1.PlayerService"

// Procedure paths of the PlayerService RPCs.
const (
	PlayerServiceListEpisodesProcedure = "/podcastr.v1.PlayerService/ListEpisodes"
	PlayerServiceGetEpisodeProcedure   = "/podcastr.v1.PlayerService/GetEpisode"
	PlayerServicePlayProcedure         = "/podcastr.v1.PlayerService/Play"
	PlayerServiceTogglePlayProcedure   = "/podcastr.v1.PlayerService/TogglePlay"
	PlayerServicePlayNextProcedure     = "/podcastr.v1.PlayerService/PlayNext"
	PlayerServicePlayPreviousProcedure = "/podcastr.v1.PlayerService/PlayPrevious"
	PlayerServiceStopProcedure         = "/podcastr.v1.PlayerService/Stop"
	PlayerServiceGetStatusProcedure    = "/podcastr.v1.PlayerService/GetStatus"
	PlayerServiceSubscribeProcedure    = "/podcastr.v1.PlayerService/Subscribe"
)

// NewPlayerServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewPlayerServiceHandler(svc *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	handlers := map[string]http.Handler{
		PlayerServiceListEpisodesProcedure: connect.NewUnaryHandler(
			PlayerServiceListEpisodesProcedure, svc.ListEpisodes, opts...),
		PlayerServiceGetEpisodeProcedure: connect.NewUnaryHandler(
			PlayerServiceGetEpisodeProcedure, svc.GetEpisode, opts...),
		PlayerServicePlayProcedure: connect.NewUnaryHandler(
			PlayerServicePlayProcedure, svc.Play, opts...),
		PlayerServiceTogglePlayProcedure: connect.NewUnaryHandler(
			PlayerServiceTogglePlayProcedure, svc.TogglePlay, opts...),
		PlayerServicePlayNextProcedure: connect.NewUnaryHandler(
			PlayerServicePlayNextProcedure, svc.PlayNext, opts...),
		PlayerServicePlayPreviousProcedure: connect.NewUnaryHandler(
			PlayerServicePlayPreviousProcedure, svc.PlayPrevious, opts...),
		PlayerServiceStopProcedure: connect.NewUnaryHandler(
			PlayerServiceStopProcedure, svc.Stop, opts...),
		PlayerServiceGetStatusProcedure: connect.NewUnaryHandler(
			PlayerServiceGetStatusProcedure, svc.GetStatus, opts...),
		PlayerServiceSubscribeProcedure: connect.NewServerStreamHandler(
			PlayerServiceSubscribeProcedure, svc.Subscribe, opts...),
	}

	return "/" + PlayerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
