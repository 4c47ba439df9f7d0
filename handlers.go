package main

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m *submissionModel) handleWindowSize(msg tea.WindowSizeMsg) tea.Cmd {
	m.width, m.height = msg.Width, msg.Height
	m.tabs.SetWidth(msg.Width)
	m.pager = ""
	if !m.ready {
		m.viewport = newContentViewport(msg.Width, msg.Height)
		m.ready = true
	}
	return nil
}

// Handle key messages
func (m *submissionModel) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if m.message != "" {
		return m.handleMessageKey(msg)
	}
	if m.mode != modeForm {
		return m.handlePagerKey(msg)
	}

	switch msg.String() {
	case "tab":
		return m.ring.next()
	case "shift+tab":
		return m.ring.prev()
	case "esc":
		m.ring.blur()
		return nil
	case "ctrl+n":
		return m.handleAddTaskRole()
	case "ctrl+w":
		return m.handleDeleteTaskRole()
	case "ctrl+right", "alt+right":
		return m.handleCycleTaskRole(1)
	case "ctrl+left", "alt+left":
		return m.handleCycleTaskRole(-1)
	case "ctrl+a":
		return m.handleAdvancedToggle()
	case "ctrl+p":
		return m.handleShowPage(modePreview)
	case "f1":
		return m.handleShowPage(modeHelp)
	case "ctrl+s":
		return m.submitJob()
	}

	cur := m.ring.current()
	if cur == nil {
		switch msg.String() {
		case "q":
			return tea.Quit
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd
		}
		return nil
	}
	for _, f := range m.jobInfo.fields(m.advanced) {
		if f == cur {
			return m.ring.update(msg)
		}
	}
	return m.tabs.Update(msg)
}

func (m *submissionModel) handleMessageKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "esc", " ":
		m.message = ""
		if m.loggedOut || m.submitted {
			return tea.Quit
		}
	}
	return nil
}

func (m *submissionModel) handlePagerKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeForm
		m.viewport.GotoTop()
		return nil
	case "ctrl+s":
		m.mode = modeForm
		return m.submitJob()
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// Tab operations commit the focused field first so the edit lands on the
// task role it was typed into.

func (m *submissionModel) handleAddTaskRole() tea.Cmd {
	m.ring.blur()
	m.sync()
	m.tabs.RequestAdd()
	return nil
}

func (m *submissionModel) handleDeleteTaskRole() tea.Cmd {
	m.ring.blur()
	m.sync()
	m.tabs.DeleteSelected()
	return nil
}

func (m *submissionModel) handleCycleTaskRole(delta int) tea.Cmd {
	m.ring.blur()
	m.sync()
	m.tabs.Cycle(delta)
	return nil
}

func (m *submissionModel) handleAdvancedToggle() tea.Cmd {
	m.ring.blur()
	m.advanced = !m.advanced
	return nil
}

func (m *submissionModel) handleShowPage(mode string) tea.Cmd {
	m.ring.blur()
	m.sync()
	m.mode = mode
	m.pager = ""
	m.viewport.GotoTop()
	return nil
}

func (m *submissionModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.message != "" || m.mode != modeForm {
		return nil
	}
	if msg.Action != tea.MouseActionPress {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	case tea.MouseButtonLeft:
		if msg.Y != m.stripRow() {
			return nil
		}
		m.ring.blur()
		m.sync()
		m.tabs.Click(msg.X)
	}
	return nil
}
