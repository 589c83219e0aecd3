package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
)

// Get shows the first entry whose key contains key. With toClipboard the
// password is copied instead of printed.
func Get(ctx context.Context, vault, key string, toClipboard bool) {
	app := MustOpenApp(vault)
	defer app.Close()

	session := app.Login(ctx)
	defer session.Close()

	entry, err := session.GetEntry(key)
	if err != nil {
		HandleError(err)
	}

	if !toClipboard {
		PrintEntry(os.Stdout, entry)
		return
	}

	fmt.Printf("Key:      %s\nUserName: %s\n", entry.Key, entry.UserName)
	if err := CopyToClipboard(ctx, entry.Password, app.Config.ClipboardTTL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// CopyToClipboard copies secret and, when ttl > 0, waits and clears the
// clipboard unless something else was copied meanwhile.
func CopyToClipboard(ctx context.Context, secret string, ttl time.Duration) error {
	if err := clipboard.WriteAll(secret); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	if ttl <= 0 {
		fmt.Println("password copied to clipboard")
		return nil
	}

	fmt.Printf("password copied to clipboard, clearing in %s\n", ttl)
	select {
	case <-time.After(ttl):
	case <-ctx.Done():
	}

	if current, err := clipboard.ReadAll(); err == nil && current != secret {
		return nil
	}
	if err := clipboard.WriteAll(""); err != nil {
		return fmt.Errorf("failed to clear clipboard: %w", err)
	}
	fmt.Println("clipboard cleared")
	return nil
}
