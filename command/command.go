// Package command models the printer command stream. A Command is one of
// Text, Binary or Group and is serialized and written by this package only,
// so the set of variants stays closed.
package command

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// terminator ends every command on the wire
var terminator = []byte{'\n'}

// Command is a unit of the printer command stream
type Command interface {
	command()
}

// Text is a single command line. It is written followed by a newline.
type Text struct {
	Body string
}

// Binary is a command header followed by a raw payload and a newline. The
// header is not newline terminated and any length it declares must match
// the payload.
type Binary struct {
	Header  string
	Payload []byte
}

// Group is an ordered list of commands written one after the other
type Group struct {
	Commands []Command
}

func (Text) command()   {}
func (Binary) command() {}
func (Group) command()  {}

// NewGroup groups commands, dropping nil entries
func NewGroup(commands ...Command) Group {
	out := make([]Command, 0, len(commands))
	for _, c := range commands {
		if c != nil {
			out = append(out, c)
		}
	}
	return Group{Commands: out}
}

// String returns the textual form of a command. Binary commands report
// their header only and groups always serialize to an empty string.
func String(c Command) string {
	switch c := c.(type) {
	case Text:
		return c.Body
	case Binary:
		return c.Header
	case Group:
		return ""
	default:
		panic(fmt.Sprintf("command: unknown command type %T", c))
	}
}

// Lines flattens a command into the textual form of every leaf command in
// write order
func Lines(c Command) []string {
	var out []string
	walk(c, func(leaf Command) {
		out = append(out, String(leaf))
	})
	return out
}

// Dump renders the lines of a command for logs and debugging
func Dump(c Command) string {
	return strings.Join(Lines(c), "\n")
}

// Write sends a command to w. A Text command is one write, a Binary command
// three writes (header, payload, terminator) and a Group writes its children
// in order, stopping at the first failure.
func Write(w io.Writer, c Command) error {
	switch c := c.(type) {
	case Text:
		return writeFull(w, append([]byte(c.Body), terminator...))
	case Binary:
		if err := writeFull(w, []byte(c.Header)); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := writeFull(w, c.Payload); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
		if err := writeFull(w, terminator); err != nil {
			return fmt.Errorf("write terminator: %w", err)
		}
		return nil
	case Group:
		for _, child := range c.Commands {
			if err := Write(w, child); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("command: unknown command type %T", c)
	}
}

// Encode returns the exact bytes Write would send
func Encode(c Command) []byte {
	var buf bytes.Buffer
	// bytes.Buffer never fails short of running out of memory
	_ = Write(&buf, c)
	return buf.Bytes()
}

func writeFull(w io.Writer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.Write(data)
	if err != nil {
		return err
	}
	if n < len(data) {
		return io.ErrShortWrite
	}
	return nil
}

func walk(c Command, visit func(Command)) {
	if g, ok := c.(Group); ok {
		for _, child := range g.Commands {
			walk(child, visit)
		}
		return
	}
	visit(c)
}
