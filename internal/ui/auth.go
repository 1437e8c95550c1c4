package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/coursefinder/internal/models"
)

func (m *Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.activeForm()
	if f.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.register) && m.view == LoginView:
		m.view = RegisterView
		m.register.err = nil
		return m, m.register.inputs[m.register.focus].Focus()
	case key.Matches(msg, m.keys.back) && m.view == RegisterView:
		m.view = LoginView
		return m, m.login.inputs[m.login.focus].Focus()
	case key.Matches(msg, m.keys.next), msg.Type == tea.KeyDown:
		return m, f.move(1)
	case key.Matches(msg, m.keys.prev), msg.Type == tea.KeyUp:
		return m, f.move(-1)
	case key.Matches(msg, m.keys.enter):
		if !f.last() {
			return m, f.move(1)
		}
		return m, m.submit()
	}

	return m, f.update(msg)
}

// submit sends the active form. Success is not handled here: the stored token moves the gate,
// and the gate moves the model.
func (m *Model) submit() tea.Cmd {
	f := m.activeForm()
	f.err = nil

	if m.view == RegisterView {
		reg := models.Registration{
			FirstName: m.register.value(0),
			LastName:  m.register.value(1),
			Email:     m.register.value(2),
			Username:  m.register.value(3),
			Password:  m.register.raw(4),
		}
		if err := reg.Validate(); err != nil {
			f.err = err
			return nil
		}
		f.busy = true
		return m.registerCmd(reg)
	}

	creds := models.Credentials{Username: m.login.value(0), Password: m.login.raw(1)}
	if err := creds.Validate(); err != nil {
		f.err = err
		return nil
	}
	f.busy = true
	return m.loginCmd(creds)
}

func (m *Model) loginCmd(creds models.Credentials) tea.Cmd {
	ctx, sessions := m.ctx, m.deps.Sessions
	return func() tea.Msg {
		_, err := sessions.Login(ctx, creds)
		return authResultMsg{err: err}
	}
}

func (m *Model) registerCmd(reg models.Registration) tea.Cmd {
	ctx, sessions := m.ctx, m.deps.Sessions
	return func() tea.Msg {
		_, err := sessions.Register(ctx, reg)
		return authResultMsg{err: err}
	}
}

func (m *Model) renderAuth() string {
	p := m.palette
	title := p.title.Render("Course Finder")

	var heading, body, helpView string
	if m.view == RegisterView {
		heading = p.text.Bold(true).Render("Create account")
		body = m.register.view(p)
		helpView = m.helpView(m.keys.next, m.keys.enter, m.keys.back, m.keys.forceQuit)
	} else {
		heading = p.text.Bold(true).Render("Sign in")
		body = m.login.view(p)
		helpView = m.helpView(m.keys.next, m.keys.enter, m.keys.register, m.keys.forceQuit)
	}

	card := p.card.Render(lipgloss.JoinVertical(lipgloss.Left, heading, "", body))
	return lipgloss.JoinVertical(lipgloss.Left, title, card, "", helpView)
}
