package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apiconnect "github.com/osa030/podcastr/internal/api/connect"
)

const (
	boxWidth      = 56
	progressWidth = 30
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))
	membersStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))
	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
	enabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))
	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
	filledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginTop(1)
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)

// renderPlayer renders the player box.
func renderPlayer(s apiconnect.Status) string {
	var sb strings.Builder

	if s.Episode == nil {
		sb.WriteString(titleStyle.Render("♪ Nothing playing"))
		sb.WriteString("\n\n")
	} else {
		icon := "⏸"
		if s.Playing() {
			icon = "▶"
		}
		sb.WriteString(statusStyle.Render(icon + " "))
		sb.WriteString(titleStyle.Render(s.Episode.Title))
		sb.WriteString("\n")
		if s.Episode.Members != "" {
			sb.WriteString(membersStyle.Render(s.Episode.Members))
			sb.WriteString("\n")
		}
		if s.Episode.PublishedAtLabel != "" {
			sb.WriteString(dateStyle.Render(s.Episode.PublishedAtLabel))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(renderProgress(s.ElapsedSeconds, durationSeconds(s), progressWidth))
	sb.WriteString(fmt.Sprintf(" %s / %s", s.Elapsed, s.Duration))
	sb.WriteString("\n\n")
	sb.WriteString(renderControls(s))

	if s.Error != "" {
		sb.WriteString("\n\n")
		sb.WriteString(errorStyle.Render("! " + s.Error))
	}

	return borderStyle.Width(boxWidth).Render(sb.String())
}

func durationSeconds(s apiconnect.Status) int {
	if s.Episode == nil {
		return 0
	}
	return s.Episode.DurationSeconds
}

// renderProgress renders a bar of the given width.
func renderProgress(elapsed, total, width int) string {
	var percent float64
	if total > 0 {
		percent = float64(elapsed) / float64(total)
	}
	if percent > 1 {
		percent = 1
	}
	if percent < 0 {
		percent = 0
	}

	filled := int(float64(width) * percent)
	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled))
}

// renderControls renders the transport buttons, dimming disabled ones.
func renderControls(s apiconnect.Status) string {
	playPause := "▶"
	if s.Playing() {
		playPause = "⏸"
	}

	buttons := []struct {
		label   string
		enabled bool
	}{
		{"🔀", s.Controls.Shuffle},
		{"⏮", s.Controls.Previous},
		{playPause, s.Controls.PlayPause},
		{"⏭", s.Controls.Next},
		{"🔁", s.Controls.Repeat},
	}

	parts := make([]string, 0, len(buttons))
	for _, b := range buttons {
		if b.enabled {
			parts = append(parts, enabledStyle.Render("["+b.label+"]"))
		} else {
			parts = append(parts, disabledStyle.Render(" "+b.label+" "))
		}
	}
	return strings.Join(parts, " ")
}

// renderEpisodeList renders the latest episodes followed by the rest.
func renderEpisodeList(list apiconnect.EpisodeList) string {
	if len(list.Episodes) == 0 {
		return "No episodes"
	}

	var sb strings.Builder
	latest := list.Latest()

	sb.WriteString(headerStyle.Render("Latest"))
	sb.WriteString("\n")
	for _, ep := range latest {
		sb.WriteString(renderEpisodeLine(ep))
		sb.WriteString("\n")
	}

	if rest := list.Episodes[len(latest):]; len(rest) > 0 {
		sb.WriteString(headerStyle.Render("All episodes"))
		sb.WriteString("\n")
		for _, ep := range rest {
			sb.WriteString(renderEpisodeLine(ep))
			sb.WriteString("\n")
		}
	}

	if list.FetchedAt != "" {
		sb.WriteString(dateStyle.Render("fetched at " + list.FetchedAt))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderEpisodeLine(ep apiconnect.Episode) string {
	return fmt.Sprintf("  %-6s %s  %s  %s",
		ep.ID,
		dateStyle.Render(fmt.Sprintf("%-9s", ep.PublishedAtLabel)),
		ep.Duration,
		titleStyle.Render(ep.Title),
	)
}

// renderEpisode renders the detail view of one episode.
func renderEpisode(ep apiconnect.Episode) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(ep.Title))
	sb.WriteString("\n")
	if ep.Members != "" {
		sb.WriteString(membersStyle.Render(ep.Members))
		sb.WriteString("\n")
	}
	sb.WriteString(dateStyle.Render(fmt.Sprintf("%s  %s", ep.PublishedAtLabel, ep.Duration)))
	sb.WriteString("\n")
	if ep.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(ep.Description)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(disabledStyle.Render(ep.MediaURL))
	return borderStyle.Width(boxWidth).Render(sb.String())
}
