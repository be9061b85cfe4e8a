// Package main provides the player CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/podcastr/internal/api/connect"
)

var (
	app    = kingpin.New("podcastr-playercli", "podcastr player client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("PODCASTR_SERVER").String()

	// episodes command
	episodesCmd = app.Command("episodes", "List episodes")

	// show command
	showCmd = app.Command("show", "Show episode details")
	showID  = showCmd.Arg("episode-id", "Episode ID").Required().String()

	// play command
	playCmd  = app.Command("play", "Play an episode")
	playID   = playCmd.Arg("episode-id", "Episode ID").Required().String()
	playList = playCmd.Flag("list", "List used as the queue (all, latest)").Default("all").Enum("all", "latest")

	toggleCmd = app.Command("toggle", "Toggle play/pause")
	nextCmd   = app.Command("next", "Play the next episode")
	prevCmd   = app.Command("prev", "Play the previous episode")
	stopCmd   = app.Command("stop", "Stop and clear the queue")
	statusCmd = app.Command("status", "Show the player")

	// watch command
	watchCmd = app.Command("watch", "Watch player changes")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewPlayerServiceClient(http.DefaultClient, *server)
	ctx := context.Background()

	var (
		status apiconnect.Status
		err    error
	)
	switch command {
	case episodesCmd.FullCommand():
		listEpisodes(ctx, client)
		return
	case showCmd.FullCommand():
		showEpisode(ctx, client, *showID)
		return
	case watchCmd.FullCommand():
		watch(ctx, client)
		return
	case playCmd.FullCommand():
		status, err = client.Play(ctx, *playID, *playList)
	case toggleCmd.FullCommand():
		status, err = client.TogglePlay(ctx)
	case nextCmd.FullCommand():
		status, err = client.PlayNext(ctx)
	case prevCmd.FullCommand():
		status, err = client.PlayPrevious(ctx)
	case stopCmd.FullCommand():
		status, err = client.Stop(ctx)
	case statusCmd.FullCommand():
		status, err = client.GetStatus(ctx)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(renderPlayer(status))
}

func listEpisodes(ctx context.Context, client *apiconnect.PlayerServiceClient) {
	list, err := client.ListEpisodes(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(renderEpisodeList(list))
}

func showEpisode(ctx context.Context, client *apiconnect.PlayerServiceClient, id string) {
	ep, err := client.GetEpisode(ctx, id)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(renderEpisode(ep))
}

func watch(ctx context.Context, client *apiconnect.PlayerServiceClient) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		cancel()
	}()

	fmt.Println("Watching the player. Press Ctrl+C to exit.")

	err := client.Subscribe(ctx, func(n apiconnect.Notification) bool {
		fmt.Printf("\n[Sequence: %d] %s\n", n.SequenceNo, n.Type)
		fmt.Println(renderPlayer(n.Status))
		return true
	})
	if err != nil && ctx.Err() == nil {
		fmt.Printf("Stream error: %v\n", err)
		os.Exit(1)
	}
}
