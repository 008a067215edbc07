// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"todoctl/internal/engine"
	"todoctl/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	// CompletedHeader titles the completed section.
	CompletedHeader = "Completed"

	// DeadlineLayout is how deadlines are shown, in the configured zone.
	DeadlineLayout = "2006-01-02 15:04"
)

// FormatState prints the active tasks, then the completed ones under their
// own header. Completed tasks are numbered c1, c2, ...
// overdue decides the overdue marker; loc is the display zone.
func FormatState(w io.Writer, s engine.State, overdue func(service.Task) bool, loc *time.Location) {
	for i, task := range s.Active {
		FormatTask(w, fmt.Sprint(i+1), task, overdue(task), loc)
	}
	if len(s.Completed) == 0 {
		return
	}
	FormatSectionHeader(w, CompletedHeader)
	for i, task := range s.Completed {
		FormatTask(w, fmt.Sprintf("c%d", i+1), task, overdue(task), loc)
	}
}

// FormatTask formats a task line followed by its sub-tasks.
// Format: "{LABEL:>4}  {TEXT}[  {P}%][  due {DEADLINE}][  OVERDUE]\n"
func FormatTask(w io.Writer, label string, task service.Task, overdue bool, loc *time.Location) {
	var b strings.Builder
	fmt.Fprintf(&b, "%4s  %s", label, normalizeText(task.Text))
	if len(task.SubTasks) > 0 {
		fmt.Fprintf(&b, "  %d%%", service.Progress(task))
	}
	if task.Deadline != nil {
		fmt.Fprintf(&b, "  due %s", FormatDeadline(*task.Deadline, loc))
	}
	if overdue {
		b.WriteString("  OVERDUE")
	}
	fmt.Fprintln(w, b.String())
	FormatSubTasks(w, task)
}

// FormatSubTasks formats the sub-task lines of a task.
// Format: "      {N:>2}. [x] {TEXT}\n"
func FormatSubTasks(w io.Writer, task service.Task) {
	for i, st := range task.SubTasks {
		mark := " "
		if st.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "      %2d. [%s] %s\n", i+1, mark, normalizeText(st.Text))
	}
}

// FormatSectionHeader formats a section header.
func FormatSectionHeader(w io.Writer, title string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, ListSeparator)
}

// FormatDeadline renders t in loc, or in UTC when loc is nil.
func FormatDeadline(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DeadlineLayout)
}

// normalizeText normalizes task text for display.
// - Empty or whitespace-only text becomes "(untitled)"
// - Newlines are replaced with spaces
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if strings.TrimSpace(text) == "" {
		return "(untitled)"
	}
	return text
}
