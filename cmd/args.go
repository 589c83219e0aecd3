package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/illarion/ringbearer/internal/storage"
)

const (
	flagUser  = "-u"
	flagPass  = "-p"
	flagNotes = "-n"
)

var errMissingKey = errors.New("missing key")

// ParseEntryArgs parses "<key> [-u user] [-p pass] [-n notes...]".
// A field flag with an empty or missing value yields the clear sentinel.
// -n takes every following word up to the next -u or -p, so notes may
// contain spaces.
func ParseEntryArgs(args []string) (storage.Entry, error) {
	if len(args) < 1 || strings.TrimSpace(args[0]) == "" || strings.HasPrefix(args[0], "-") {
		return storage.Entry{}, errMissingKey
	}

	entry := storage.Entry{Key: args[0]}
	for i := 1; i < len(args); i++ {
		flag := args[i]
		switch flag {
		case flagUser, flagPass:
			value := ""
			if i+1 < len(args) && !isFieldFlag(args[i+1]) {
				value = args[i+1]
				i++
			}
			if flag == flagUser {
				entry.UserName = orClear(value)
			} else {
				entry.Password = orClear(value)
			}
		case flagNotes:
			var words []string
			for i+1 < len(args) && args[i+1] != flagUser && args[i+1] != flagPass {
				words = append(words, args[i+1])
				i++
			}
			entry.Notes = orClear(strings.Join(words, " "))
		default:
			return storage.Entry{}, fmt.Errorf("unexpected argument %q", flag)
		}
	}
	return entry, nil
}

func isFieldFlag(s string) bool {
	return s == flagUser || s == flagPass || s == flagNotes
}

func orClear(value string) string {
	if value == "" {
		return storage.ClearSentinel
	}
	return value
}
