package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerRaw string

// Tagline is printed under the banner.
const Tagline = "Type 'help' for commands, 'quit' to exit. Anything else goes to the assistant."

// RenderBanner returns the logo and tagline centred in the terminal.
// Narrow terminals get the tagline alone.
func RenderBanner() string {
	return renderBanner(termWidth())
}

func renderBanner(width int) string {
	art := strings.TrimRight(bannerRaw, "\n")
	tagline := BannerStyle.Render(Tagline)

	if art == "" || lipgloss.Width(art) > width {
		return tagline + "\n"
	}

	block := lipgloss.JoinVertical(lipgloss.Center, BannerStyle.Render(art), "", tagline)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block) + "\n"
}

func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
