package cmd

import (
	"context"
	"os"
)

// Ls lists the entries of the vault
func Ls(ctx context.Context, vault string) {
	app := MustOpenApp(vault)
	defer app.Close()

	session := app.Login(ctx)
	defer session.Close()

	PrintEntries(os.Stdout, session.GetEntries())
}

// Find lists the entries with keyword in any field
func Find(ctx context.Context, vault, keyword string) {
	app := MustOpenApp(vault)
	defer app.Close()

	session := app.Login(ctx)
	defer session.Close()

	PrintEntries(os.Stdout, session.FilterEntries(keyword))
}
