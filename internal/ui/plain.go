package ui

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// Plain is the line-oriented front end used when stdin is not a terminal.
type Plain struct {
	sc *bufio.Scanner
	mu sync.Mutex
	w  io.Writer
}

func NewPlain(r io.Reader, w io.Writer) *Plain {
	return &Plain{sc: bufio.NewScanner(r), w: w}
}

// ReadLine returns io.EOF once the input is exhausted.
func (p *Plain) ReadLine() (string, error) {
	if p.sc.Scan() {
		return p.sc.Text(), nil
	}
	if err := p.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (p *Plain) Print(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, line)
}

func (p *Plain) Close() error { return nil }
