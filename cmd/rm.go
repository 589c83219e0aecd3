package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/ringbearer/internal/storage"
)

// Delete removes entries by exact key. Several keys are removed together
// or not at all.
func Delete(ctx context.Context, vault string, keys []string, force bool) {
	if len(keys) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ringbearer del [-f] <key> [key...]")
		os.Exit(1)
	}

	app := MustOpenApp(vault)
	defer app.Close()

	session := app.Login(ctx)
	defer session.Close()

	if len(keys) == 1 {
		if err := session.DeleteEntry(ctx, keys[0]); err != nil {
			HandleError(err)
		}
		fmt.Printf("deleted: %s\n", keys[0])
		return
	}

	if !force && !Confirm(fmt.Sprintf("Delete %d entries?", len(keys))) {
		fmt.Println("cancelled")
		return
	}

	selected := make([]storage.Entry, len(keys))
	for i, key := range keys {
		selected[i] = storage.Entry{Key: key}
	}
	if err := session.DeleteSelectedEntries(ctx, selected); err != nil {
		HandleError(err)
	}
	fmt.Printf("deleted: %d entries\n", len(keys))
}
