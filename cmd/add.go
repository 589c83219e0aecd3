package cmd

import (
	"context"
	"fmt"
	"os"
)

// Add creates an entry from "<key> [-u user] [-p pass] [-n notes]"
func Add(ctx context.Context, vault string, args []string) {
	entry, err := ParseEntryArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintln(os.Stderr, "Usage: ringbearer add <key> [-u user] [-p pass] [-n notes]")
		os.Exit(1)
	}

	app := MustOpenApp(vault)
	defer app.Close()

	session := app.Login(ctx)
	defer session.Close()

	if err := session.AddEntry(ctx, entry); err != nil {
		HandleError(err)
	}
	fmt.Printf("added: %s\n", entry.Key)
}

// Update changes the given fields of an entry. A field given without a
// value is cleared; fields not given are kept.
func Update(ctx context.Context, vault string, args []string) {
	entry, err := ParseEntryArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintln(os.Stderr, "Usage: ringbearer upd <key> [-u user] [-p pass] [-n notes]")
		os.Exit(1)
	}

	app := MustOpenApp(vault)
	defer app.Close()

	session := app.Login(ctx)
	defer session.Close()

	if err := session.UpdateEntry(ctx, entry); err != nil {
		HandleError(err)
	}
	fmt.Printf("updated: %s\n", entry.Key)
}
