package ui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Prompt is shown in front of the line being edited.
const Prompt = "> "

// Terminal is the interactive front end. Output printed while a line is
// being edited appears above the prompt, and the partial line is redrawn.
type Terminal struct {
	t       *term.Terminal
	fd      int
	restore *term.State
	history []string
}

// NewTerminal puts in into raw mode until Close.
func NewTerminal(in *os.File, out io.Writer) (*Terminal, error) {
	fd := int(in.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	t := newTerminal(struct {
		io.Reader
		io.Writer
	}{in, out})
	t.fd = fd
	t.restore = old
	if w, h, err := term.GetSize(fd); err == nil {
		t.t.SetSize(w, h)
	}
	return t, nil
}

func newTerminal(rw io.ReadWriter) *Terminal {
	t := &Terminal{t: term.NewTerminal(rw, Prompt), fd: -1}
	t.t.AutoCompleteCallback = t.complete
	return t
}

// Tab accepts the history suggestion for the current line.
func (t *Terminal) complete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' {
		return "", 0, false
	}
	s, ok := Suggest(t.history, line)
	if !ok {
		return "", 0, false
	}
	return s, len(s), true
}

// ReadLine returns io.EOF on Ctrl-D at an empty prompt.
func (t *Terminal) ReadLine() (string, error) {
	line, err := t.t.ReadLine()
	if err != nil {
		return "", err
	}
	if line != "" {
		t.history = append(t.history, line)
	}
	return line, nil
}

func (t *Terminal) Print(line string) {
	t.t.Write([]byte(line + "\n"))
}

func (t *Terminal) Close() error {
	if t.restore == nil {
		return nil
	}
	return term.Restore(t.fd, t.restore)
}
