package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/ringbearer/internal/core"
	"github.com/illarion/ringbearer/internal/crypto"
	"github.com/illarion/ringbearer/internal/exchange"
	"github.com/illarion/ringbearer/internal/git"
)

// Export writes all entries to file, as plain JSON or encrypted under a
// separate export password.
func Export(ctx context.Context, vault, file string, encrypt bool) {
	app := MustOpenApp(vault)
	defer app.Close()

	session := app.Login(ctx)
	defer session.Close()

	opts := exchange.Options{Path: file, Format: exchange.PlainJSON}
	if encrypt {
		password, err := ReadPasswordConfirm("Enter export password: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		defer crypto.ClearBytes(password)
		opts.Format = exchange.EncryptedBinary
		opts.Password = string(password)
	}

	entries := session.GetEntries()
	if err := exchange.NewService(nil).Export(ctx, entries, opts); err != nil {
		HandleError(err)
	}
	fmt.Printf("exported: %d entries to %s\n", len(entries), file)

	if !encrypt {
		status, err := git.CheckExport(file)
		if err == nil {
			fmt.Print(git.FormatWarning(status))
		}
	}
}

// Import merges the entries of file into the vault. With dryRun the
// changes are shown and nothing is saved.
func Import(ctx context.Context, vault, file string, encrypted, dryRun bool) {
	opts := exchange.Options{Path: file, Format: exchange.PlainJSON}
	if encrypted {
		password, err := ReadPassword("Enter export password: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		defer crypto.ClearBytes(password)
		opts.Format = exchange.EncryptedBinary
		opts.Password = string(password)
	}

	imported, err := exchange.NewService(nil).Import(ctx, opts)
	if err != nil {
		HandleError(err)
	}

	app := MustOpenApp(vault)
	defer app.Close()

	session := app.Login(ctx)
	defer session.Close()

	changes, err := session.PreviewImport(imported)
	if err != nil {
		HandleError(err)
	}

	if dryRun {
		fmt.Print(core.FormatChanges(changes))
		fmt.Printf("dry run: %s\n", changes.Summary())
		return
	}

	if err := session.ImportEntries(ctx, imported); err != nil {
		HandleError(err)
	}
	fmt.Printf("imported: %s\n", changes.Summary())
}
