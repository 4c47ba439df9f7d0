package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// formField is one focusable input of a form section. Fields never own the
// value they show: the section pushes it in with SetValue and the field
// reports edits through its callback when the edit is committed.
type formField interface {
	Label() string
	Focus() tea.Cmd
	// Blur commits whatever the user typed
	Blur()
	Focused() bool
	Update(msg tea.Msg) tea.Cmd
	View() string
}

func renderFieldLabel(label string, focused bool) string {
	if focused {
		return focusedFieldLabelStyle.Render("› " + label)
	}
	return fieldLabelStyle.Render("  " + label)
}

// ============================================================================
// TEXT FIELD
// ============================================================================

// textField commits on blur or enter, like the portal's FormTextField
type textField struct {
	label  string
	input  textinput.Model
	onBlur func(string)
}

func newTextField(label, placeholder string, onBlur func(string)) *textField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 500
	ti.Width = 48
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	return &textField{label: label, input: ti, onBlur: onBlur}
}

func newPasswordField(label, placeholder string, onBlur func(string)) *textField {
	f := newTextField(label, placeholder, onBlur)
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

func (f *textField) Label() string { return f.label }
func (f *textField) Focused() bool { return f.input.Focused() }
func (f *textField) Value() string { return f.input.Value() }

// SetValue is ignored while the user is typing into the field
func (f *textField) SetValue(v string) {
	if f.input.Focused() {
		return
	}
	f.input.SetValue(v)
}

func (f *textField) Focus() tea.Cmd {
	return f.input.Focus()
}

func (f *textField) Blur() {
	if !f.input.Focused() {
		return
	}
	f.input.Blur()
	f.commit()
}

func (f *textField) commit() {
	if f.onBlur != nil {
		f.onBlur(f.input.Value())
	}
}

func (f *textField) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		f.commit()
		return nil
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd
}

func (f *textField) View() string {
	return renderFieldLabel(f.label, f.Focused()) + f.input.View()
}

// ============================================================================
// SPIN FIELD
// ============================================================================

// spinField is a numeric input with a lower bound. Up/down step the value
// and commit immediately; typed values commit on blur or enter.
type spinField struct {
	label    string
	input    textinput.Model
	min      int
	value    int
	onChange func(int)
}

func newSpinField(label string, min int, onChange func(int)) *spinField {
	ti := textinput.New()
	ti.CharLimit = 9
	ti.Width = 10
	ti.Prompt = ""
	ti.Validate = func(s string) error {
		if s == "" || s == "-" {
			return nil
		}
		if _, err := strconv.Atoi(s); err != nil {
			return fmt.Errorf("not a number: %s", s)
		}
		return nil
	}
	f := &spinField{label: label, input: ti, min: min, onChange: onChange}
	f.SetValue(min)
	return f
}

func (f *spinField) Label() string { return f.label }
func (f *spinField) Focused() bool { return f.input.Focused() }

func (f *spinField) SetValue(v int) {
	f.value = v
	if !f.input.Focused() {
		f.input.SetValue(strconv.Itoa(v))
	}
}

func (f *spinField) Focus() tea.Cmd {
	return f.input.Focus()
}

func (f *spinField) Blur() {
	if !f.input.Focused() {
		return
	}
	f.input.Blur()
	f.commitTyped()
}

// commitTyped parses the input; an unparsable value snaps back to the last
// committed one instead of being reported
func (f *spinField) commitTyped() {
	v, err := strconv.Atoi(strings.TrimSpace(f.input.Value()))
	if err != nil {
		f.input.SetValue(strconv.Itoa(f.value))
		return
	}
	f.commit(v)
}

func (f *spinField) commit(v int) {
	if v < f.min {
		v = f.min
	}
	f.value = v
	f.input.SetValue(strconv.Itoa(v))
	if f.onChange != nil {
		f.onChange(v)
	}
}

func (f *spinField) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up":
			f.commit(f.value + 1)
			return nil
		case "down":
			f.commit(f.value - 1)
			return nil
		case "enter":
			f.commitTyped()
			return nil
		}
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd
}

func (f *spinField) View() string {
	return renderFieldLabel(f.label, f.Focused()) + "◂ " + f.input.View() + " ▸"
}

// ============================================================================
// TEXT AREA FIELD
// ============================================================================

// areaField is a multi-line editor for command lists. It commits on blur
// only, enter inserts a newline.
type areaField struct {
	label    string
	area     textarea.Model
	onChange func(string)
}

func newAreaField(label, placeholder string, height int, onChange func(string)) *areaField {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.SetWidth(60)
	ta.SetHeight(height)
	ta.CharLimit = 0
	return &areaField{label: label, area: ta, onChange: onChange}
}

func (f *areaField) Label() string { return f.label }
func (f *areaField) Focused() bool { return f.area.Focused() }

func (f *areaField) SetValue(v string) {
	if f.area.Focused() {
		return
	}
	f.area.SetValue(v)
}

func (f *areaField) Focus() tea.Cmd {
	return f.area.Focus()
}

func (f *areaField) Blur() {
	if !f.area.Focused() {
		return
	}
	f.area.Blur()
	if f.onChange != nil {
		f.onChange(f.area.Value())
	}
}

func (f *areaField) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.area, cmd = f.area.Update(msg)
	return cmd
}

func (f *areaField) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderFieldLabel(f.label, f.Focused()),
		f.area.View(),
	)
}

// ============================================================================
// TOGGLE FIELD
// ============================================================================

type toggleField struct {
	label    string
	value    bool
	focused  bool
	onChange func(bool)
}

func newToggleField(label string, onChange func(bool)) *toggleField {
	return &toggleField{label: label, onChange: onChange}
}

func (f *toggleField) Label() string  { return f.label }
func (f *toggleField) Focused() bool  { return f.focused }
func (f *toggleField) SetValue(v bool) { f.value = v }
func (f *toggleField) Blur()          { f.focused = false }

func (f *toggleField) Focus() tea.Cmd {
	f.focused = true
	return nil
}

func (f *toggleField) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case " ", "enter", "x":
		if f.onChange != nil {
			f.onChange(!f.value)
		}
	}
	return nil
}

func (f *toggleField) View() string {
	box := "[ ]"
	if f.value {
		box = "[x]"
	}
	return renderFieldLabel(f.label, f.focused) + box
}

// ============================================================================
// KEY-VALUE LIST FIELD
// ============================================================================

type keyValueItem struct {
	Key   string
	Value int
}

// keyValueField lists items with a cursor and has an input for new ones in
// "key:value" form. It reports adds and deletes, the list itself comes from
// SetItems.
type keyValueField struct {
	label    string
	items    []keyValueItem
	cursor   int
	input    textinput.Model
	err      string
	onAdd    func(keyValueItem)
	onDelete func(int)
}

func newKeyValueField(label, placeholder string, onAdd func(keyValueItem), onDelete func(int)) *keyValueField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 64
	ti.Width = 24
	ti.Prompt = "+ "
	return &keyValueField{label: label, input: ti, onAdd: onAdd, onDelete: onDelete}
}

func (f *keyValueField) Label() string { return f.label }
func (f *keyValueField) Focused() bool { return f.input.Focused() }

func (f *keyValueField) SetItems(items []keyValueItem) {
	f.items = items
	if f.cursor >= len(items) {
		f.cursor = len(items) - 1
	}
	if f.cursor < 0 {
		f.cursor = 0
	}
}

func (f *keyValueField) Focus() tea.Cmd {
	return f.input.Focus()
}

func (f *keyValueField) Blur() {
	f.input.Blur()
	f.err = ""
}

func (f *keyValueField) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up":
			if f.cursor > 0 {
				f.cursor--
			}
			return nil
		case "down":
			if f.cursor < len(f.items)-1 {
				f.cursor++
			}
			return nil
		case "ctrl+d", "delete":
			if len(f.items) > 0 && f.onDelete != nil {
				f.onDelete(f.cursor)
			}
			return nil
		case "enter":
			item, err := parseKeyValue(f.input.Value())
			if err != nil {
				f.err = err.Error()
				return nil
			}
			f.err = ""
			f.input.SetValue("")
			if f.onAdd != nil {
				f.onAdd(item)
			}
			return nil
		}
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd
}

func parseKeyValue(s string) (keyValueItem, error) {
	key, value, found := strings.Cut(strings.TrimSpace(s), ":")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return keyValueItem{}, fmt.Errorf("expected label:count, got %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return keyValueItem{}, fmt.Errorf("count must be a positive number, got %q", value)
	}
	return keyValueItem{Key: key, Value: n}, nil
}

func (f *keyValueField) View() string {
	var b strings.Builder
	b.WriteString(renderFieldLabel(f.label, f.Focused()))
	b.WriteString("\n")
	for i, item := range f.items {
		line := fmt.Sprintf("    %s: %d", item.Key, item.Value)
		if f.Focused() && i == f.cursor {
			line = cursorRowStyle.Render(fmt.Sprintf("  ➤ %s: %d", item.Key, item.Value))
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("    " + f.input.View())
	if f.err != "" {
		b.WriteString("\n    " + errorStyle.Render(f.err))
	}
	return b.String()
}
