package core

import (
	"fmt"
	"strings"

	"github.com/illarion/ringbearer/internal/storage"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeKind classifies what an import does to one Key
type ChangeKind int

const (
	ChangeAdded     ChangeKind = iota // Key not in the vault, appended
	ChangeUpdated                     // Key exists, at least one field changes
	ChangeUnchanged                   // Key exists, merge is a no-op
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Change is the effect of an import on one Key
type Change struct {
	Kind   ChangeKind
	Key    string
	Before storage.Entry // zero for ChangeAdded
	After  storage.Entry
}

// Changes lists import effects in input order, one per distinct Key
type Changes []Change

func (c Changes) counts() (added, updated int) {
	for _, ch := range c {
		switch ch.Kind {
		case ChangeAdded:
			added++
		case ChangeUpdated:
			updated++
		}
	}
	return added, updated
}

// Summary returns "N added, M updated, K unchanged"
func (c Changes) Summary() string {
	added, updated := c.counts()
	return fmt.Sprintf("%d added, %d updated, %d unchanged", added, updated, len(c)-added-updated)
}

// mergeImport applies imported to a copy of current. Keys repeated within
// imported merge into their first occurrence.
func mergeImport(current, imported []storage.Entry) ([]storage.Entry, Changes) {
	result := storage.CloneEntries(current)
	changes := make(Changes, 0, len(imported))
	seen := make(map[int]int) // index in result -> index in changes

	for _, in := range imported {
		idx := storage.FindEntry(result, in.Key)
		if idx < 0 {
			result = append(result, in.Normalized())
			idx = len(result) - 1
			seen[idx] = len(changes)
			changes = append(changes, Change{Kind: ChangeAdded, Key: in.Key, After: result[idx]})
			continue
		}

		ci, ok := seen[idx]
		if !ok {
			ci = len(changes)
			seen[idx] = ci
			changes = append(changes, Change{Kind: ChangeUnchanged, Key: result[idx].Key, Before: result[idx]})
		}
		if result[idx].Merge(in) && changes[ci].Kind == ChangeUnchanged {
			changes[ci].Kind = ChangeUpdated
		}
		changes[ci].After = result[idx]
	}

	// A repeated key can set a field back to its original value
	for i := range changes {
		if changes[i].Kind == ChangeUpdated && changes[i].Before == changes[i].After {
			changes[i].Kind = ChangeUnchanged
		}
	}

	return result, changes
}

// FormatChanges renders added and updated entries as a line diff.
// Passwords are never printed, only whether they change.
func FormatChanges(changes Changes) string {
	var b strings.Builder
	for _, ch := range changes {
		switch ch.Kind {
		case ChangeAdded:
			fmt.Fprintf(&b, "--- /dev/null\n+++ import/%s\n", ch.Key)
			writeLines(&b, "+", renderEntry(ch.After, maskPassword(ch.After.Password)))
		case ChangeUpdated:
			fmt.Fprintf(&b, "--- vault/%s\n+++ import/%s\n", ch.Key, ch.Key)
			before, after := renderPair(ch.Before, ch.After)
			writeLineDiff(&b, before, after)
		}
	}
	return b.String()
}

// renderPair renders both entries with passwords masked
func renderPair(before, after storage.Entry) (string, string) {
	oldPass, newPass := maskPassword(before.Password), maskPassword(after.Password)
	if before.Password != after.Password && oldPass == newPass {
		newPass += " (changed)"
	}
	return renderEntry(before, oldPass), renderEntry(after, newPass)
}

func renderEntry(e storage.Entry, password string) string {
	return fmt.Sprintf("Key: %s\nUserName: %s\nPassword: %s\nNotes: %s\n", e.Key, e.UserName, password, e.Notes)
}

func maskPassword(p string) string {
	if p == "" {
		return ""
	}
	return "********"
}

// writeLineDiff writes a line-level diff with common lines prefixed by a space
func writeLineDiff(b *strings.Builder, before, after string) {
	dmp := diffmatchpatch.New()

	x, y, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(x, y, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			writeLines(b, " ", d.Text)
		case diffmatchpatch.DiffDelete:
			writeLines(b, "-", d.Text)
		case diffmatchpatch.DiffInsert:
			writeLines(b, "+", d.Text)
		}
	}
}

func writeLines(b *strings.Builder, prefix, text string) {
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			b.WriteByte('\n')
		}
	}
}
