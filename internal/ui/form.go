package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// form is a vertical stack of labelled text inputs with one focused field.
type form struct {
	labels []string
	inputs []textinput.Model
	focus  int
	busy   bool
	err    error
}

func newForm(labels []string, secret map[int]bool) form {
	f := form{labels: labels, inputs: make([]textinput.Model, len(labels))}
	for i, label := range labels {
		in := textinput.New()
		in.Placeholder = strings.ToLower(label)
		in.CharLimit = 128
		in.Prompt = "› "
		if secret[i] {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.inputs[i] = in
	}
	f.inputs[0].Focus()
	return f
}

func newLoginForm() form {
	return newForm([]string{"Username", "Password"}, map[int]bool{1: true})
}

func newRegisterForm() form {
	return newForm([]string{"First name", "Last name", "Email", "Username", "Password"}, map[int]bool{4: true})
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *form) raw(i int) string {
	return f.inputs[i].Value()
}

// move shifts focus by delta, wrapping around.
func (f *form) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

// last reports whether the final field is focused.
func (f *form) last() bool {
	return f.focus == len(f.inputs)-1
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) restyle(p *Palette) {
	for i := range f.inputs {
		f.inputs[i].PromptStyle = p.accent
		f.inputs[i].TextStyle = p.text
		f.inputs[i].PlaceholderStyle = p.muted
	}
}

func (f *form) view(p *Palette) string {
	var b strings.Builder
	for i, in := range f.inputs {
		label := p.muted.Render(f.labels[i])
		if i == f.focus {
			label = p.accent.Render(f.labels[i])
		}
		b.WriteString(label + "\n" + in.View() + "\n\n")
	}
	switch {
	case f.busy:
		b.WriteString(p.muted.Render("Please wait…"))
	case f.err != nil:
		b.WriteString(p.err.Render(f.err.Error()))
	}
	return b.String()
}
