package main

import tea "github.com/charmbracelet/bubbletea"

// focusRing moves keyboard focus through the fields of a form, wrapping at
// both ends. pos is -1 while nothing is focused.
type focusRing struct {
	fields []formField
	pos    int
}

func newFocusRing() *focusRing {
	return &focusRing{pos: -1}
}

// setFields replaces the fields. The focused field keeps focus when it is
// still part of the new set, otherwise focus is dropped.
func (r *focusRing) setFields(fields []formField) {
	cur := r.current()
	r.fields = fields
	r.pos = -1
	if cur == nil {
		return
	}
	for i, f := range fields {
		if f == cur {
			r.pos = i
			return
		}
	}
	cur.Blur()
}

func (r *focusRing) current() formField {
	if r.pos < 0 || r.pos >= len(r.fields) {
		return nil
	}
	return r.fields[r.pos]
}

func (r *focusRing) focusAt(pos int) tea.Cmd {
	if cur := r.current(); cur != nil {
		cur.Blur()
	}
	if pos < 0 || pos >= len(r.fields) {
		r.pos = -1
		return nil
	}
	r.pos = pos
	return r.fields[pos].Focus()
}

func (r *focusRing) next() tea.Cmd {
	if len(r.fields) == 0 {
		return nil
	}
	return r.focusAt((r.pos + 1) % len(r.fields))
}

func (r *focusRing) prev() tea.Cmd {
	if len(r.fields) == 0 {
		return nil
	}
	if r.pos <= 0 {
		return r.focusAt(len(r.fields) - 1)
	}
	return r.focusAt(r.pos - 1)
}

// blur commits and drops focus
func (r *focusRing) blur() {
	if cur := r.current(); cur != nil {
		cur.Blur()
	}
	r.pos = -1
}

func (r *focusRing) update(msg tea.Msg) tea.Cmd {
	if cur := r.current(); cur != nil {
		return cur.Update(msg)
	}
	return nil
}
