// Package tasks derives checklist items from note text and writes them back.
//
// A task line starts with "* [" followed by a marker rune and "] ":
//
//	* [ ] Call mom
//	* [x] Buy milk
//
// Only "x" marks a task as completed. Task ids are positions in the list of
// task lines and are recomputed on every Parse; inserting or reordering lines
// changes them.
package tasks

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Prefix opens every checklist line.
const Prefix = "* ["

const (
	doneMarker = 'x'
	openMarker = ' '
)

// Task is one checklist line.
type Task struct {
	ID        string `json:"id" example:"0"`
	Text      string `json:"text" example:"Buy milk"`
	Completed bool   `json:"completed" example:"false"`
}

// Parse returns the tasks found in text, in line order. Prose lines are skipped.
func Parse(text string) []Task {
	out := []Task{}
	if text == "" {
		return out
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, Prefix) {
			continue
		}
		body, completed := splitMarker(line[len(Prefix):])
		out = append(out, Task{
			ID:        strconv.Itoa(len(out)),
			Text:      body,
			Completed: completed,
		})
	}
	return out
}

// splitMarker consumes "<marker>] " from rest; each piece is optional.
func splitMarker(rest string) (string, bool) {
	if rest == "" {
		return "", false
	}
	marker, size := utf8.DecodeRuneInString(rest)
	rest = rest[size:]
	rest = strings.TrimPrefix(rest, "]")
	rest = strings.TrimPrefix(rest, " ")
	return rest, marker == doneMarker
}

// Serialize renders tasks one per line in slice order. It only emits checklist
// lines: prose that surrounded the tasks in the original text is not kept.
func Serialize(tasks []Task) string {
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = Line(t)
	}
	return strings.Join(lines, "\n")
}

// Line renders a single task.
func Line(t Task) string {
	marker := openMarker
	if t.Completed {
		marker = doneMarker
	}
	return Prefix + string(marker) + "] " + t.Text
}

// Toggle flips the completion flag of the task with id and reports whether it existed.
func Toggle(list []Task, id string) ([]Task, bool) {
	out := make([]Task, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == id {
			out[i].Completed = !out[i].Completed
			return out, true
		}
	}
	return out, false
}
