package storage

import (
	"errors"
	"testing"

	"github.com/illarion/ringbearer/internal/vaulterr"
)

func TestEntryMerge(t *testing.T) {
	base := Entry{Key: "gmail", UserName: "alice", Password: "p1", Notes: "n1"}

	tests := []struct {
		name    string
		in      Entry
		want    Entry
		changed bool
	}{
		{
			name:    "clear sentinel blanks field",
			in:      Entry{Key: "gmail", Password: ClearSentinel},
			want:    Entry{Key: "gmail", UserName: "alice", Password: "", Notes: "n1"},
			changed: true,
		},
		{
			name:    "empty leaves field unchanged",
			in:      Entry{Key: "gmail", Password: ""},
			want:    base,
			changed: false,
		},
		{
			name:    "whitespace leaves field unchanged",
			in:      Entry{Key: "gmail", Notes: "   "},
			want:    base,
			changed: false,
		},
		{
			name:    "new value overwrites",
			in:      Entry{Key: "gmail", Notes: "updated"},
			want:    Entry{Key: "gmail", UserName: "alice", Password: "p1", Notes: "updated"},
			changed: true,
		},
		{
			name:    "same value is a no-op",
			in:      Entry{Key: "gmail", UserName: "alice"},
			want:    base,
			changed: false,
		},
		{
			name:    "key is never changed",
			in:      Entry{Key: "GMAIL", UserName: "bob"},
			want:    Entry{Key: "gmail", UserName: "bob", Password: "p1", Notes: "n1"},
			changed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base
			changed := got.Merge(tt.in)
			if got != tt.want {
				t.Errorf("Merge() result = %+v, want %+v", got, tt.want)
			}
			if changed != tt.changed {
				t.Errorf("Merge() changed = %v, want %v", changed, tt.changed)
			}
		})
	}
}

func TestEntryNormalized(t *testing.T) {
	in := Entry{Key: "k", UserName: ClearSentinel, Password: "pw", Notes: ClearSentinel}
	got := in.Normalized()
	want := Entry{Key: "k", UserName: "", Password: "pw", Notes: ""}
	if got != want {
		t.Errorf("Normalized() = %+v, want %+v", got, want)
	}
	if in.UserName != ClearSentinel {
		t.Error("Normalized must not modify the receiver")
	}
}

func TestEntryMatching(t *testing.T) {
	e := Entry{Key: "Work-Gmail", UserName: "alice", Password: "S3cret", Notes: "recovery codes"}

	if !e.KeyEquals("work-gmail") {
		t.Error("KeyEquals should ignore case")
	}
	if e.KeyEquals("gmail") {
		t.Error("KeyEquals must be exact")
	}
	if !e.KeyContains("GMAIL") {
		t.Error("KeyContains should match a case-insensitive substring")
	}
	for _, kw := range []string{"work", "ALICE", "s3c", "Codes"} {
		if !e.Matches(kw) {
			t.Errorf("Matches(%q) = false, want true", kw)
		}
	}
	if e.Matches("bob") {
		t.Error("Matches(bob) = true, want false")
	}
}

func TestSortEntries(t *testing.T) {
	entries := []Entry{{Key: "zoom"}, {Key: "Bank"}, {Key: "apple"}, {Key: "bank"}}
	SortEntries(entries)

	want := []string{"apple", "Bank", "bank", "zoom"}
	for i, key := range want {
		if entries[i].Key != key {
			t.Errorf("entries[%d].Key = %s, want %s", i, entries[i].Key, key)
		}
	}
}

func TestFindEntry(t *testing.T) {
	entries := []Entry{{Key: "a"}, {Key: "Gmail"}}
	if i := FindEntry(entries, "GMAIL"); i != 1 {
		t.Errorf("FindEntry() = %d, want 1", i)
	}
	if i := FindEntry(entries, "gmai"); i != -1 {
		t.Errorf("FindEntry() = %d, want -1", i)
	}
}

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"valid", Entry{Key: "gmail"}, false},
		{"empty key", Entry{Key: ""}, true},
		{"blank key", Entry{Key: "  \t"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntry(tt.entry)
			if tt.wantErr && !errors.Is(err, vaulterr.Validation) {
				t.Errorf("expected Validation, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
