package cmd

import (
	"context"
	"fmt"
	"os"
)

// Init creates a new vault at the configured path
func Init(ctx context.Context, vault string) {
	app := MustOpenApp(vault)
	defer app.Close()

	path := app.Config.VaultPath
	if app.Manager.FileExist(path) {
		fmt.Fprintf(os.Stderr, "Error: %s already exists\n", path)
		fmt.Fprintln(os.Stderr, "Use 'ringbearer status' to see current state")
		os.Exit(1)
	}

	session := app.create(ctx, path)
	session.Close()
}
