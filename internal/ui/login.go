package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// loginForm is the id/password prompt shown when an action needs an account.
type loginForm struct {
	inputs []textinput.Model
	focus  int
	busy   bool
	err    error
}

func newLoginForm() loginForm {
	id := textinput.New()
	id.Placeholder = "id"
	id.Prompt = "ID       "
	id.CharLimit = 64

	pw := textinput.New()
	pw.Placeholder = "password"
	pw.Prompt = "Password "
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.CharLimit = 128

	return loginForm{inputs: []textinput.Model{id, pw}}
}

func (f *loginForm) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.err = nil
	f.busy = false
	f.setFocus(0)
}

func (f *loginForm) setFocus(i int) {
	f.focus = i
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *loginForm) next() { f.setFocus((f.focus + 1) % len(f.inputs)) }
func (f *loginForm) prev() { f.setFocus((f.focus + len(f.inputs) - 1) % len(f.inputs)) }

func (f *loginForm) values() (id, pw string) {
	return strings.TrimSpace(f.inputs[0].Value()), f.inputs[1].Value()
}

func (f *loginForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *loginForm) view(reason string) string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Log in"))
	b.WriteString("\n")
	if reason != "" {
		b.WriteString(styles.warn.Render(reason) + "\n\n")
	}
	for _, in := range f.inputs {
		b.WriteString(in.View() + "\n")
	}
	switch {
	case f.busy:
		b.WriteString("\nLogging in…\n")
	case f.err != nil:
		b.WriteString("\n" + styles.err.Render(fmt.Sprintf("Error: %v", f.err)) + "\n")
	}
	return b.String()
}
