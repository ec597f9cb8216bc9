package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tailored-agentic-units/insight/core/protocol"
	"github.com/tailored-agentic-units/insight/kernel"
)

// fragmentMsg carries one streamed fragment of reply.
type fragmentMsg struct {
	reply *kernel.Reply
	text  string
}

// replyDoneMsg is sent once reply is exhausted.
type replyDoneMsg struct {
	reply *kernel.Reply
}

type uploadMsg struct {
	name string
	err  error
}

// chat is the terminal conversation view over a Kernel.
type chat struct {
	k      *kernel.Kernel
	ctx    context.Context
	input  textinput.Model
	view   viewport.Model
	width  int
	height int

	reply   *kernel.Reply
	cancel  context.CancelFunc
	partial string

	busy     bool
	notice   string
	errText  string
	quitting bool
}

func newChat(ctx context.Context, k *kernel.Kernel) chat {
	in := textinput.New()
	in.Placeholder = "Ask anything, or /help"
	in.CharLimit = 4000
	in.Focus()

	m := chat{
		k:      k,
		ctx:    ctx,
		input:  in,
		view:   viewport.New(120, 24),
		width:  120,
		height: 30,
	}
	m.refresh()
	return m
}

func (m chat) Init() tea.Cmd {
	return textinput.Blink
}

func (m chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = msg.Width
		m.view.Height = max(1, msg.Height-4)
		m.input.Width = max(10, msg.Width-6)
		m.refresh()
		return m, nil

	case fragmentMsg:
		if msg.reply != m.reply {
			return m, nil
		}
		m.partial += msg.text
		m.refresh()
		return m, nextFragment(msg.reply)

	case replyDoneMsg:
		if msg.reply != m.reply {
			return m, nil
		}
		return m.finishReply(), nil

	case uploadMsg:
		m.busy = false
		if msg.err != nil {
			m.fail(msg.err)
		} else {
			m.notice = "indexed " + msg.name
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m chat) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		if m.reply != nil {
			m.cancel()
			m.notice = "interrupted"
			return m, nil
		}
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd

	case "enter":
		if m.reply != nil || m.busy {
			return m, nil
		}
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return m, nil
		}
		m.input.Reset()
		m.notice, m.errText = "", ""

		if c, ok := parseCommand(value); ok {
			return m.runCommand(c)
		}
		return m.send(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chat) send(prompt string) (chat, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.reply = m.k.Send(ctx, prompt)
	m.partial = ""
	m.refresh()
	return m, nextFragment(m.reply)
}

func (m chat) finishReply() chat {
	reply := m.reply
	m.reply = nil
	m.partial = ""
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	if reply.Text() == "" && reply.Err() != nil {
		m.fail(reply.Err())
	}
	if path := reply.Artifact(); path != "" {
		m.notice = "image saved to " + path
	}
	m.refresh()
	return m
}

func nextFragment(reply *kernel.Reply) tea.Cmd {
	return func() tea.Msg {
		if reply.Next() {
			return fragmentMsg{reply: reply, text: reply.Fragment()}
		}
		return replyDoneMsg{reply: reply}
	}
}

func (m *chat) fail(err error) {
	m.errText = err.Error()
}

// refresh re-renders the transcript of the current session into the viewport.
func (m *chat) refresh() {
	m.view.SetContent(m.renderTranscript())
	m.view.GotoBottom()
}

func (m chat) renderTranscript() string {
	wrap := lipgloss.NewStyle().Width(max(20, m.width-2))

	var b strings.Builder
	for _, msg := range m.k.Current().Messages() {
		switch msg.Role {
		case protocol.RoleUser:
			b.WriteString(userRoleStyle.Render(" You ") + "\n")
			b.WriteString(wrap.Render(msg.Content) + "\n")
			if len(msg.Files) > 0 {
				b.WriteString(dimStyle.Render("  attached: "+strings.Join(msg.Files, ", ")) + "\n")
			}
		case protocol.RoleAssistant:
			for _, call := range msg.ToolCalls {
				b.WriteString(toolCallStyle.Render("  -> "+call.Name+" "+call.Arguments) + "\n")
			}
			if msg.Content == "" {
				continue
			}
			b.WriteString(assistantRoleStyle.Render(" InsightBot ") + "\n")
			b.WriteString(wrap.Render(msg.Content) + "\n")
		case protocol.RoleTool:
			if msg.ImagePath != "" {
				b.WriteString(toolCallStyle.Render("  image: "+msg.ImagePath) + "\n")
			}
			continue
		default:
			continue
		}
		b.WriteString("\n")
	}

	if m.reply != nil {
		b.WriteString(assistantRoleStyle.Render(" InsightBot ") + "\n")
		if m.partial == "" {
			b.WriteString(dimStyle.Render("thinking...") + "\n")
		} else {
			b.WriteString(wrap.Render(m.partial) + "\n")
		}
	}
	return b.String()
}

func (m chat) View() string {
	if m.quitting {
		return ""
	}

	sess := m.k.Current()
	title := titleStyle.Render("InsightBot") + dimStyle.Render("session "+shortID(sess.ID()))
	if files := sess.Files(); len(files) > 0 {
		title += dimStyle.Render("  docs: " + strings.Join(files, ", "))
	}

	status := m.notice
	if m.errText != "" {
		status = errorStyle.Render(m.errText)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.view.View(),
		statusBarStyle.Width(m.width).Render(status),
		inputStyle.Render(m.input.View()),
	)
}
