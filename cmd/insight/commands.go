package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const helpText = "commands: /new  /sessions  /switch N  /upload PATH  /export PATH  /clear  /quit"

var errUsage = errors.New("usage")

// command is a parsed slash command.
type command struct {
	name string
	arg  string
}

// parseCommand splits "/name arg" input. ok is false for plain prompts.
func parseCommand(input string) (command, bool) {
	if !strings.HasPrefix(input, "/") {
		return command{}, false
	}
	name, arg, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

func (m chat) runCommand(c command) (chat, tea.Cmd) {
	switch c.name {
	case "quit", "exit":
		m.quitting = true
		return m, tea.Quit

	case "new":
		sess := m.k.NewSession()
		m.notice = "started session " + shortID(sess.ID())

	case "sessions":
		m.notice = m.listSessions()

	case "switch":
		n, err := strconv.Atoi(c.arg)
		ids := m.k.Sessions()
		if err != nil || n < 1 || n > len(ids) {
			m.fail(fmt.Errorf("%w: /switch N (1-%d)", errUsage, len(ids)))
			break
		}
		if err := m.k.Select(ids[n-1]); err != nil {
			m.fail(err)
			break
		}
		m.notice = "switched to session " + shortID(ids[n-1])

	case "upload":
		if c.arg == "" {
			m.fail(fmt.Errorf("%w: /upload PATH", errUsage))
			break
		}
		m.busy = true
		m.notice = "processing " + filepath.Base(c.arg) + "..."
		m.refresh()
		return m, m.upload(c.arg)

	case "export":
		if c.arg == "" {
			m.fail(fmt.Errorf("%w: /export PATH", errUsage))
			break
		}
		data, err := m.k.Export(m.k.Current().ID())
		if err != nil {
			m.fail(err)
			break
		}
		if err := os.WriteFile(c.arg, data, 0o644); err != nil {
			m.fail(err)
			break
		}
		m.notice = "transcript written to " + c.arg

	case "clear":
		if err := m.k.ClearKnowledge(m.k.Current().ID()); err != nil {
			m.fail(err)
			break
		}
		m.notice = "knowledge base cleared"

	case "help":
		m.notice = helpText

	default:
		m.fail(fmt.Errorf("unknown command /%s (%s)", c.name, helpText))
	}

	m.refresh()
	return m, nil
}

func (m chat) listSessions() string {
	current := m.k.Current().ID()
	var b strings.Builder
	for i, id := range m.k.Sessions() {
		sess, err := m.k.Store().Get(id)
		if err != nil {
			continue
		}
		marker := " "
		if id == current {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %d. %s  %s  %d messages\n",
			marker, i+1, shortID(id), sess.CreatedAt().Format("2006-01-02 15:04"), sess.Len())
	}
	return strings.TrimRight(b.String(), "\n")
}

// upload reads and indexes a document off the UI goroutine.
func (m chat) upload(path string) tea.Cmd {
	k, ctx := m.k, m.ctx
	return func() tea.Msg {
		name := filepath.Base(path)
		data, err := os.ReadFile(path)
		if err != nil {
			return uploadMsg{name: name, err: err}
		}
		return uploadMsg{name: name, err: k.Upload(ctx, name, data)}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
