// Package ledger parses and edits the human-editable task ledger (tasks.md)
// kept in each migration directory. The ledger is the source of truth for
// task state; everything here is a pure function of its text except the
// file helpers at the bottom.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/zulandar/waybill/internal/models"
)

// FileName is the ledger file inside a migration directory.
const FileName = "tasks.md"

// Sentinel errors for task lookups in ledger text.
var (
	ErrTaskNotFound     = errors.New("ledger: task not found")
	ErrAlreadyCompleted = errors.New("ledger: task already completed")
)

var (
	// taskLine matches "- [ ] T001-002 description" and the checked form.
	// Lines that don't match are left alone: the ledger stays a normal
	// markdown document around its task lines.
	taskLine = regexp.MustCompile(`^- \[([ x])\] (T(\d{3})-(\d{3}))\s+(.+)$`)

	// storyTag matches a leading "[story]" grouping label on a description.
	storyTag = regexp.MustCompile(`^\[([\w-]+)\]\s*`)

	// codeSpan matches inline back-tick spans stripped for display.
	codeSpan = regexp.MustCompile("`[^`]*`")

	// bracketTag matches any "[tag]" fragment stripped for display.
	bracketTag = regexp.MustCompile(`\[[\w-]+\]\s*`)

	// bareTaskID matches a bare task id like T001-002.
	bareTaskID = regexp.MustCompile(`^T(\d{3})-(\d{3})$`)
)

// Parse extracts all task lines from ledger text, in file order. Malformed
// task lines are silently skipped; the ledger is hand-edited and a strict
// parse would make every typo fatal.
func Parse(content string) []models.Task {
	var tasks []models.Task
	for _, line := range strings.Split(content, "\n") {
		m := taskLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		seq, _ := strconv.Atoi(m[4])
		desc := strings.TrimSpace(m[5])

		status := models.TaskPending
		if m[1] == "x" {
			status = models.TaskCompleted
		} else if strings.Contains(strings.ToLower(desc), "[blocked]") {
			status = models.TaskBlocked
		}

		story := ""
		if sm := storyTag.FindStringSubmatch(desc); sm != nil && !strings.EqualFold(sm[1], "blocked") {
			story = sm[1]
		}

		tasks = append(tasks, models.Task{
			ID:          m[2],
			MigrationID: m[3],
			Seq:         seq,
			Story:       story,
			Description: desc,
			Status:      status,
		})
	}
	return tasks
}

// Counts tallies tasks by status.
func Counts(tasks []models.Task) (completed, pending, blocked int) {
	for _, t := range tasks {
		switch t.Status {
		case models.TaskCompleted:
			completed++
		case models.TaskBlocked:
			blocked++
		default:
			pending++
		}
	}
	return completed, pending, blocked
}

// DisplayDescription strips bracketed tags and inline code spans from a raw
// description for board cells and summaries. The ledger text itself is
// never rewritten by display cleanup.
func DisplayDescription(desc string) string {
	s := bracketTag.ReplaceAllString(desc, "")
	s = codeSpan.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// TaskID formats a task id for a migration and sequence number.
func TaskID(migrationID string, n int) string {
	return fmt.Sprintf("T%s-%03d", migrationID, n)
}

// ParseTaskID splits a task id into its migration id and sequence number.
func ParseTaskID(id string) (migrationID string, seq int, ok bool) {
	m := bareTaskID.FindStringSubmatch(id)
	if m == nil {
		return "", 0, false
	}
	seq, _ = strconv.Atoi(m[2])
	return m[1], seq, true
}

// NextTaskNumber scans ledger text for the highest sequence number already
// used by the given migration and returns the next one. Numbers are never
// reused, even if a task line was deleted by hand.
func NextTaskNumber(content, migrationID string) int {
	pattern := regexp.MustCompile(`T` + regexp.QuoteMeta(migrationID) + `-(\d{3})`)
	maxNum := 0
	for _, m := range pattern.FindAllStringSubmatch(content, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxNum {
			maxNum = n
		}
	}
	return maxNum + 1
}

// Input describes one task to append.
type Input struct {
	Story       string `json:"story,omitempty"`
	Description string `json:"description"`
}

// Append adds new unchecked task lines for the migration, numbering them
// after the highest existing sequence number. It returns the updated ledger
// text and the ids that were assigned.
func Append(content, migrationID string, inputs []Input) (string, []string) {
	next := NextTaskNumber(content, migrationID)

	var lines []string
	var ids []string
	for _, in := range inputs {
		id := TaskID(migrationID, next)
		story := ""
		if in.Story != "" {
			story = "[" + in.Story + "] "
		}
		lines = append(lines, fmt.Sprintf("- [ ] %s %s%s", id, story, in.Description))
		ids = append(ids, id)
		next++
	}

	// A terminated ledger takes the new lines directly; only an
	// unterminated one needs a separator first.
	sep := ""
	if content != "" && !strings.HasSuffix(content, "\n") {
		sep = "\n\n"
	}
	return content + sep + strings.Join(lines, "\n") + "\n", ids
}

// Complete flips a task's marker from unchecked to checked. It returns
// ErrAlreadyCompleted when the marker is already checked and ErrTaskNotFound
// when no line carries the id.
func Complete(content, taskID string) (string, error) {
	if strings.Contains(content, "[x] "+taskID) {
		return content, ErrAlreadyCompleted
	}
	if !strings.Contains(content, "[ ] "+taskID) {
		return content, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return strings.Replace(content, "- [ ] "+taskID, "- [x] "+taskID, 1), nil
}

// SetChecked forces a task's marker to the given state, used by board moves
// in either direction. Moving an already-matching task is a no-op.
func SetChecked(content, taskID string, checked bool) (string, error) {
	from, to := "- [ ] "+taskID, "- [x] "+taskID
	if !checked {
		from, to = to, from
	}
	if strings.Contains(content, to) {
		return content, nil
	}
	if !strings.Contains(content, from) {
		return content, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return strings.Replace(content, from, to, 1), nil
}

// LoadFile reads a ledger file.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("ledger: read %s: %w", path, err)
	}
	return string(data), nil
}

// SaveFile rewrites a ledger file in full.
func SaveFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("ledger: write %s: %w", path, err)
	}
	return nil
}
