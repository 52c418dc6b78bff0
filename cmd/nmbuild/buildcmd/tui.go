// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package buildcmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/novelmind-foundation/nmbuild/lib/build"
	"github.com/novelmind-foundation/nmbuild/lib/sizereport"
)

// Styles for the build progress display. ANSI 256-color codes for
// broad terminal compatibility.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	succeedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	maxBarWidth  = 60
	stageNamePad = 10
)

// keyMap defines the progress display's key bindings.
type keyMap struct {
	Cancel key.Binding
}

var defaultKeyMap = keyMap{
	Cancel: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("ctrl+c", "cancel build"),
	),
}

// buildEventMsg wraps a pipeline Event for delivery through the
// bubbletea message loop.
type buildEventMsg struct {
	event build.Event
}

// buildModel renders one running build: the stage list, the weighted
// progress bar, the current task, and a warning count. It owns the
// event channel drain for the build; the pipeline blocks on
// non-progress events, so the model must keep listening until the
// channel closes.
type buildModel struct {
	handle *build.Build

	steps    []build.Step
	current  int
	overall  float64
	task     string
	warnings int

	bar        progress.Model
	width      int
	cancelling bool
	done       bool
	result     build.Result
	keys       keyMap
}

func newBuildModel(handle *build.Build) buildModel {
	snapshot := handle.Progress()
	return buildModel{
		handle:  handle,
		steps:   snapshot.Steps,
		current: -1,
		bar:     progress.New(progress.WithDefaultGradient()),
		keys:    defaultKeyMap,
	}
}

// Init implements tea.Model. Starts listening for pipeline events.
func (m buildModel) Init() tea.Cmd {
	return listenForBuildEvent(m.handle.Events())
}

// listenForBuildEvent returns a tea.Cmd that blocks until the next
// pipeline event arrives, then delivers it as a buildEventMsg. A
// closed channel delivers nil, ending the listen loop.
func listenForBuildEvent(channel <-chan build.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-channel
		if !ok {
			return nil
		}
		return buildEventMsg{event: event}
	}
}

// Update implements tea.Model.
func (m buildModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		if key.Matches(message, m.keys.Cancel) && !m.done {
			// Cooperative: the pipeline observes the request at its
			// next checkpoint and still publishes a final result, so
			// keep draining instead of quitting here.
			m.handle.Cancel()
			m.cancelling = true
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.bar.Width = min(message.Width-4, maxBarWidth)
		return m, nil

	case buildEventMsg:
		return m.handleEvent(message.event)
	}
	return m, nil
}

func (m buildModel) handleEvent(event build.Event) (tea.Model, tea.Cmd) {
	switch event.Kind {
	case build.EventLog:
		if event.Level >= slog.LevelWarn {
			m.warnings++
		}

	case build.EventStageStarted:
		for i := range m.steps {
			if m.steps[i].Name == event.Stage {
				m.current = i
				break
			}
		}
		m.task = ""

	case build.EventStageFinished:
		if event.Step != nil {
			for i := range m.steps {
				if m.steps[i].Name == event.Step.Name {
					m.steps[i] = *event.Step
					break
				}
			}
		}

	case build.EventProgress:
		m.overall = event.Overall
		m.task = event.Task

	case build.EventCompleted:
		if event.Result != nil {
			m.result = *event.Result
		}
		m.done = true
		m.overall = 1
		return m, tea.Quit
	}
	return m, listenForBuildEvent(m.handle.Events())
}

// View implements tea.Model.
func (m buildModel) View() string {
	if m.done {
		// The final summary is printed by the command after the
		// program exits; leave the alternate output clean.
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Building " + m.handle.Config().ExecutableName))
	b.WriteString("\n\n")

	for i, step := range m.steps {
		b.WriteString("  ")
		b.WriteString(m.stageLine(i, step))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(m.bar.ViewAs(m.overall))
	b.WriteString("\n")

	if m.task != "" {
		b.WriteString("  " + faintStyle.Render(m.task) + "\n")
	}
	if m.warnings > 0 {
		b.WriteString("  " + warningStyle.Render(fmt.Sprintf("%d warning(s)", m.warnings)) + "\n")
	}

	if m.cancelling {
		b.WriteString("\n  " + warningStyle.Render("Cancelling…") + "\n")
	} else {
		b.WriteString("\n  " + helpStyle.Render("ctrl+c cancel") + "\n")
	}
	return b.String()
}

// stageLine renders one row of the stage list.
func (m buildModel) stageLine(index int, step build.Step) string {
	name := step.Name
	if len(name) < stageNamePad {
		name += strings.Repeat(" ", stageNamePad-len(name))
	}

	switch {
	case step.Completed && step.Success:
		return succeedStyle.Render("✓ "+name) + faintStyle.Render(sizereport.FormatDuration(step.Duration))
	case step.Completed:
		return failStyle.Render("✗ "+name) + failStyle.Render(step.Error)
	case index == m.current:
		return runningStyle.Render("▸ " + name)
	default:
		return pendingStyle.Render("· " + name)
	}
}
