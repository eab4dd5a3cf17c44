// Package tui renders view-model state to a terminal and parses the
// keyboard commands that drive it.
package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/amxcoding/randomquotes-client/internal/app"
)

// Command is a parsed user action.
type Command int

const (
	// CommandUnknown is any input that matches no command.
	CommandUnknown Command = iota

	// CommandFetch requests a new random quote.
	CommandFetch

	// CommandToggleLike flips the like status of the current quote.
	CommandToggleLike

	// CommandQuit exits the program.
	CommandQuit

	// CommandHelp prints the command reference.
	CommandHelp
)

// ParseCommand maps one input line to a Command. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseCommand(line string) Command {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "f", "fetch", "n", "next":
		return CommandFetch
	case "l", "like":
		return CommandToggleLike
	case "q", "quit", "exit":
		return CommandQuit
	case "h", "help", "?":
		return CommandHelp
	default:
		return CommandUnknown
	}
}

// Presenter writes state snapshots to a terminal. Renders are serialized
// with a mutex since snapshots arrive from both the input loop and the
// stream goroutine.
type Presenter struct {
	mu  sync.Mutex
	out io.Writer

	cardStyle   lipgloss.Style
	authorStyle lipgloss.Style
	likesStyle  lipgloss.Style
	errorStyle  lipgloss.Style
	dimStyle    lipgloss.Style
	titleStyle  lipgloss.Style
}

// NewPresenter creates a presenter writing to out. Styling degrades to
// plain text when out is not a color terminal.
func NewPresenter(out io.Writer) *Presenter {
	r := lipgloss.NewRenderer(out)

	return &Presenter{
		out: out,
		cardStyle: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Width(72),
		authorStyle: r.NewStyle().Italic(true).Faint(true),
		likesStyle:  r.NewStyle().Foreground(lipgloss.Color("205")),
		errorStyle:  r.NewStyle().Foreground(lipgloss.Color("196")),
		dimStyle:    r.NewStyle().Faint(true),
		titleStyle:  r.NewStyle().Bold(true),
	}
}

// Render writes one full frame for the snapshot.
func (p *Presenter) Render(st app.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(p.renderQuote(st))
	b.WriteString("\n")

	if st.LikeError != "" {
		fmt.Fprintf(&b, "%s\n", p.errorStyle.Render(st.LikeError))
	}

	if st.StreamError != "" {
		fmt.Fprintf(&b, "%s\n", p.errorStyle.Render(st.StreamError))
	}

	if len(st.LikedQuotes) > 0 {
		b.WriteString("\n")
		b.WriteString(p.titleStyle.Render("Recently liked"))
		b.WriteString("\n")

		for _, lq := range st.LikedQuotes {
			fmt.Fprintf(&b, "  %s %s\n",
				lq.Quote.Text,
				p.authorStyle.Render("— "+lq.Quote.Author))
		}
	}

	fmt.Fprint(p.out, b.String())
}

// RenderHelp writes the command reference.
func (p *Presenter) RenderHelp() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprint(p.out, p.dimStyle.Render(
		"commands: [f]etch new quote, [l]ike toggle, [h]elp, [q]uit")+"\n")
}

func (p *Presenter) renderQuote(st app.State) string {
	switch {
	case st.FetchError != "":
		return p.cardStyle.Render(p.errorStyle.Render(st.FetchError)) + "\n"

	case st.Quote == nil:
		if st.Fetching {
			return p.dimStyle.Render("Fetching a quote...") + "\n"
		}
		return p.dimStyle.Render("No quote loaded.") + "\n"

	default:
		quote := st.Quote

		heart := "♡"
		if st.Liked {
			heart = "♥"
		}

		likes := fmt.Sprintf("%s %d", heart, quote.Likes)
		if st.Liking {
			likes += " ..."
		}

		body := fmt.Sprintf("%q\n%s\n%s",
			quote.Text,
			p.authorStyle.Render("— "+quote.Author),
			p.likesStyle.Render(likes))

		return p.cardStyle.Render(body) + "\n"
	}
}
