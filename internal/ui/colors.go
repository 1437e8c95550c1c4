package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/coursefinder/internal/preferences"
)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	theme preferences.Theme

	app       lipgloss.Style
	title     lipgloss.Style
	text      lipgloss.Style
	muted     lipgloss.Style
	accent    lipgloss.Style
	ok        lipgloss.Style
	err       lipgloss.Style
	card      lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
}

// NewPalette derives styles from a theme's hex colors.
func NewPalette(t preferences.Theme) *Palette {
	return &Palette{
		theme:  t,
		app:    NewStyle(t.Text).Background(lipgloss.Color(t.Background)),
		title:  NewBold(t.Primary).MarginBottom(1),
		text:   NewStyle(t.Text),
		muted:  NewEm(t.TextSecondary),
		accent: NewBold(t.Primary),
		ok:     NewBold(t.Success),
		err:    NewBold(t.Danger),
		card: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Card)).
			Foreground(lipgloss.Color(t.Text)).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),
		tab: NewStyle(t.TextSecondary).Padding(0, 2),
		activeTab: NewBold(t.Primary).
			Padding(0, 2).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color(t.Primary)),
	}
}

// delegate returns list item styles in the palette's colors.
func (p *Palette) delegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.NormalTitle = d.Styles.NormalTitle.Foreground(lipgloss.Color(p.theme.Text))
	d.Styles.NormalDesc = d.Styles.NormalDesc.Foreground(lipgloss.Color(p.theme.TextSecondary))
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.
		Foreground(lipgloss.Color(p.theme.Primary)).
		BorderLeftForeground(lipgloss.Color(p.theme.Primary))
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.
		Foreground(lipgloss.Color(p.theme.TextSecondary)).
		BorderLeftForeground(lipgloss.Color(p.theme.Primary))
	return d
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
