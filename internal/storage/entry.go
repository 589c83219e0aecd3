package storage

import (
	"sort"
	"strings"
)

// ClearSentinel is the input token meaning "blank this field"
const ClearSentinel = "clear"

// Entry is one credential record. Key is its only identifier.
type Entry struct {
	Key      string `json:"Key" validate:"required,nonblank"`
	UserName string `json:"UserName"`
	Password string `json:"Password"`
	Notes    string `json:"Notes"`
}

// Normalized returns a copy with every clear sentinel replaced by ""
func (e Entry) Normalized() Entry {
	e.UserName = clearToEmpty(e.UserName)
	e.Password = clearToEmpty(e.Password)
	e.Notes = clearToEmpty(e.Notes)
	return e
}

// Merge applies the partial-update rule of in to e, field by field:
// the clear sentinel blanks the field, a blank value leaves it alone and
// anything else overwrites it. Key is never touched.
// Reports whether any field changed.
func (e *Entry) Merge(in Entry) bool {
	changed := mergeField(&e.UserName, in.UserName)
	changed = mergeField(&e.Password, in.Password) || changed
	changed = mergeField(&e.Notes, in.Notes) || changed
	return changed
}

// KeyEquals reports a case-insensitive exact match on Key
func (e Entry) KeyEquals(key string) bool {
	return strings.EqualFold(e.Key, key)
}

// KeyContains reports whether Key contains substr, ignoring case
func (e Entry) KeyContains(substr string) bool {
	return containsFold(e.Key, substr)
}

// Matches reports whether keyword occurs in any field, ignoring case
func (e Entry) Matches(keyword string) bool {
	return containsFold(e.Key, keyword) ||
		containsFold(e.UserName, keyword) ||
		containsFold(e.Password, keyword) ||
		containsFold(e.Notes, keyword)
}

func mergeField(dst *string, in string) bool {
	switch {
	case in == ClearSentinel:
		changed := *dst != ""
		*dst = ""
		return changed
	case strings.TrimSpace(in) == "", *dst == in:
		return false
	}
	*dst = in
	return true
}

func clearToEmpty(s string) string {
	if s == ClearSentinel {
		return ""
	}
	return s
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// SortEntries orders entries by Key ascending, ignoring case, with an
// ordinal tie break so the order is total.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].Key), strings.ToLower(entries[j].Key)
		if a != b {
			return a < b
		}
		return entries[i].Key < entries[j].Key
	})
}

// CloneEntries returns an independent copy. The result is never nil.
func CloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// FindEntry returns the index of the entry whose Key equals key
// (case-insensitive), or -1.
func FindEntry(entries []Entry, key string) int {
	for i := range entries {
		if entries[i].KeyEquals(key) {
			return i
		}
	}
	return -1
}
