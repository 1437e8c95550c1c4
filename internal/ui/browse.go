package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/coursefinder/internal/models"
)

func (m *Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view == CoursesView && m.searchFocused {
		return m.updateSearchInput(msg)
	}
	if m.view == FavoritesView && m.favList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.favList, cmd = m.favList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.themeAny):
		return m, m.toggleThemeCmd()
	case key.Matches(msg, m.keys.next) && m.view != DetailsView:
		return m, m.switchTab(1)
	case key.Matches(msg, m.keys.prev) && m.view != DetailsView:
		return m, m.switchTab(-1)
	}

	switch m.view {
	case CoursesView:
		return m.updateCourses(msg)
	case FavoritesView:
		return m.updateFavorites(msg)
	case ProfileView:
		return m.updateProfile(msg)
	case DetailsView:
		return m.updateDetails(msg)
	}
	return m, nil
}

func (m *Model) switchTab(delta int) tea.Cmd {
	idx := 0
	for i, t := range tabs {
		if t == m.view {
			idx = i
		}
	}
	return m.openTab(tabs[(idx+delta+len(tabs))%len(tabs)])
}

func (m *Model) openTab(v ViewState) tea.Cmd {
	m.view = v
	m.lastTab = v
	m.err = nil

	switch v {
	case FavoritesView:
		m.refreshFavorites()
	case ProfileView:
		if m.profile == nil {
			return m.profileCmd()
		}
	}
	return nil
}

// Courses

func (m *Model) updateSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.searchFocused = false
		m.search.Blur()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		query := strings.TrimSpace(m.search.Value())
		if query == "" {
			return m, nil
		}
		m.searchFocused = false
		m.search.Blur()
		m.searching = true
		m.query = query
		m.err = nil
		return m, m.searchCmd(query)
	case key.Matches(msg, m.keys.next):
		m.searchFocused = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) updateCourses(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.search):
		m.searchFocused = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.enter):
		if c, ok := selectedCourse(m.results); ok {
			return m, m.openDetails(c)
		}
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if c, ok := selectedCourse(m.results); ok {
			return m, m.toggleFavoriteCmd(c)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) searchCmd(query string) tea.Cmd {
	ctx, catalog, limit := m.ctx, m.deps.Catalog, m.deps.SearchLimit
	return func() tea.Msg {
		courses, err := catalog.Search(ctx, query, limit)
		return searchResultMsg{query: query, courses: courses, err: err}
	}
}

func (m *Model) handleSearchResult(msg searchResultMsg) tea.Cmd {
	if msg.query != m.query {
		return nil
	}
	m.searching = false
	if msg.err != nil {
		m.err = msg.err
		m.logger.Warn("search failed", "query", msg.query, "error", msg.err)
		return nil
	}
	m.results.Title = fmt.Sprintf("Results for %q", msg.query)
	m.status = fmt.Sprintf("%d courses", len(msg.courses))
	return m.results.SetItems(courseItems(msg.courses, m.deps.Favorites.Contains))
}

// Favorites

func (m *Model) updateFavorites(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		if c, ok := selectedCourse(m.favList); ok {
			return m, m.openDetails(c)
		}
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if c, ok := selectedCourse(m.favList); ok {
			return m, m.toggleFavoriteCmd(c)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.favList, cmd = m.favList.Update(msg)
	return m, cmd
}

func (m *Model) refreshFavorites() {
	favs := m.deps.Favorites.List()
	m.favList.SetItems(courseItems(favs, func(string) bool { return true }))

	items := m.results.Items()
	for i, it := range items {
		if ci, ok := it.(courseItem); ok {
			ci.favorite = m.deps.Favorites.Contains(ci.course.Key)
			items[i] = ci
		}
	}
	m.results.SetItems(items)
}

func (m *Model) toggleFavoriteCmd(c models.Course) tea.Cmd {
	store := m.deps.Favorites
	return func() tea.Msg {
		return favoriteToggledMsg{course: c, added: store.Toggle(c)}
	}
}

func (m *Model) handleFavoriteToggled(msg favoriteToggledMsg) {
	if msg.added {
		m.status = fmt.Sprintf("Added %q to favorites", msg.course.Title)
	} else {
		m.status = fmt.Sprintf("Removed %q from favorites", msg.course.Title)
	}
	m.refreshFavorites()
}

// Details

func (m *Model) openDetails(c models.Course) tea.Cmd {
	m.selected = c
	m.details = nil
	m.detailsLoading = true
	m.err = nil
	m.view = DetailsView

	ctx, catalog := m.ctx, m.deps.Catalog
	return func() tea.Msg {
		d, err := catalog.Details(ctx, c.Key)
		return detailsMsg{key: c.Key, details: d, err: err}
	}
}

func (m *Model) handleDetails(msg detailsMsg) {
	if msg.key != m.selected.Key {
		return
	}
	m.detailsLoading = false
	m.details = msg.details
	if msg.err != nil {
		m.err = msg.err
		m.logger.Warn("details failed", "key", msg.key, "error", msg.err)
	}
}

func (m *Model) updateDetails(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = m.lastTab
		m.err = nil
		if m.view == FavoritesView {
			m.refreshFavorites()
		}
	case key.Matches(msg, m.keys.favorite):
		return m, m.toggleFavoriteCmd(m.selected)
	}
	return m, nil
}

// Profile

func (m *Model) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.theme):
		return m, m.toggleThemeCmd()
	case key.Matches(msg, m.keys.logout):
		return m, m.logoutCmd()
	}
	return m, nil
}

func (m *Model) profileCmd() tea.Cmd {
	if m.deps.Auth == nil {
		return nil
	}
	ctx, auth := m.ctx, m.deps.Auth
	return func() tea.Msg {
		p, err := auth.Me(ctx)
		return profileMsg{profile: p, err: err}
	}
}

func (m *Model) logoutCmd() tea.Cmd {
	ctx, sessions := m.ctx, m.deps.Sessions
	return func() tea.Msg {
		return logoutMsg{err: sessions.Logout(ctx)}
	}
}

// Rendering

func (m *Model) renderMain() string {
	p := m.palette

	var body, helpView string
	switch m.view {
	case CoursesView:
		body = m.renderCourses()
		if m.searchFocused {
			helpView = m.helpView(m.keys.enter, m.keys.back, m.keys.forceQuit)
		} else {
			helpView = m.helpView(m.keys.search, m.keys.enter, m.keys.favorite, m.keys.next, m.keys.quit)
		}
	case FavoritesView:
		body = m.renderFavorites()
		helpView = m.helpView(m.keys.enter, m.keys.favorite, m.keys.next, m.keys.quit)
	case ProfileView:
		body = m.renderProfile()
		helpView = m.helpView(m.keys.theme, m.keys.logout, m.keys.next, m.keys.quit)
	case DetailsView:
		body = m.renderDetails()
		helpView = m.helpView(m.keys.favorite, m.keys.back, m.keys.quit)
	}

	parts := []string{p.title.Render("Course Finder"), m.renderTabs(), "", body}
	if m.err != nil {
		parts = append(parts, "", p.err.Render("Error: "+m.err.Error()))
	} else if m.status != "" {
		parts = append(parts, "", p.ok.Render(m.status))
	}
	parts = append(parts, "", helpView)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderCourses() string {
	p := m.palette
	header := m.search.View()
	if m.searching {
		header += "\n" + p.muted.Render("Searching…")
	}
	if len(m.results.Items()) == 0 && !m.searching {
		return header + "\n\n" + p.muted.Render("Press / and type a subject to find courses.")
	}
	return header + "\n\n" + m.results.View()
}

func (m *Model) renderFavorites() string {
	if m.deps.Favorites.Len() == 0 {
		return m.palette.muted.Render("No favorites yet. Press f on a course to add it.")
	}
	return m.favList.View()
}

func (m *Model) renderProfile() string {
	p := m.palette

	var rows []string
	switch {
	case m.profile != nil:
		rows = append(rows,
			p.text.Bold(true).Render(m.profile.FullName()),
			p.muted.Render("@"+m.profile.Username),
		)
		if m.profile.Email != "" {
			rows = append(rows, p.text.Render(m.profile.Email))
		}
	case m.err == nil:
		rows = append(rows, p.muted.Render("Loading profile…"))
	default:
		rows = append(rows, p.muted.Render("Profile unavailable"))
	}

	rows = append(rows,
		"",
		fmt.Sprintf("Theme: %s", p.accent.Render(string(p.theme.Mode))),
		fmt.Sprintf("Favorites: %d", m.deps.Favorites.Len()),
	)
	return p.card.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderDetails() string {
	p := m.palette
	c := m.selected

	star := ""
	if m.deps.Favorites.Contains(c.Key) {
		star = p.ok.Render(" ★")
	}

	rows := []string{
		p.text.Bold(true).Render(c.Title) + star,
		p.muted.Render(fmt.Sprintf("%s • %s", c.Authors(), c.Year())),
	}

	switch {
	case m.detailsLoading:
		rows = append(rows, "", p.muted.Render("Loading details…"))
	case m.details != nil:
		cover := c.CoverID
		if cover == 0 {
			cover = m.details.CoverID()
		}
		rows = append(rows, "", p.muted.Render("Cover: "+models.CoverURL(m.deps.CoversURL, cover, models.CoverLarge)))
		if m.details.FirstPublishDate != "" {
			rows = append(rows, p.muted.Render("First published: "+m.details.FirstPublishDate))
		}
		desc := m.details.Description
		if desc == "" {
			desc = "No description available."
		}
		width := 72
		if m.width > 0 && m.width-8 < width {
			width = max(m.width-8, 20)
		}
		rows = append(rows, "", p.text.Width(width).Render(desc))
		if len(m.details.Subjects) > 0 {
			subjects := m.details.Subjects
			if len(subjects) > 6 {
				subjects = subjects[:6]
			}
			rows = append(rows, "", p.muted.Render("Subjects: "+strings.Join(subjects, ", ")))
		}
	}

	return p.card.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
