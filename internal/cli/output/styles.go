package output

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorGray   = lipgloss.Color("245")
)

// Styles holds the lipgloss styles used by the renderer.
type Styles struct {
	Header        lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	Success       lipgloss.Style
	Error         lipgloss.Style
	Warning       lipgloss.Style
	Info          lipgloss.Style
	Name          lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles creates styles bound to a lipgloss renderer, so colour follows
// that renderer's profile.
func NewStyles(lg *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:        lg.NewStyle().Bold(true).Foreground(colorBlue),
		Bold:          lg.NewStyle().Bold(true),
		Muted:         lg.NewStyle().Foreground(colorGray),
		Success:       lg.NewStyle().Foreground(colorGreen),
		Error:         lg.NewStyle().Bold(true).Foreground(colorRed),
		Warning:       lg.NewStyle().Foreground(colorYellow),
		Info:          lg.NewStyle().Foreground(colorBlue),
		Name:          lg.NewStyle().Bold(true),
		StatusSuccess: lg.NewStyle().Foreground(colorGreen),
		StatusFailed:  lg.NewStyle().Bold(true).Foreground(colorRed),
	}
}
