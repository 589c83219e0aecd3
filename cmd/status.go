package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/illarion/ringbearer/internal/keyring"
	"github.com/illarion/ringbearer/internal/storage"
)

// Status shows what is known about the vault without a master key
func Status(vault string) {
	app := MustOpenApp(vault)
	defer app.Close()

	path := app.Config.VaultPath
	fmt.Printf("Vault: %s\n", path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("File:  not found")
			fmt.Println("Run 'ringbearer init' to create it")
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("File:  %s, mode %s\n", formatSize(info.Size()), info.Mode().Perm())

	if app.Settings == nil {
		return
	}
	record, err := app.Settings.GetVault(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot read vault index: %s\n", err)
		return
	}
	if record == nil {
		fmt.Println("Index: no record (log in once to create it)")
		return
	}
	printRecord(record)
}

func printRecord(r *storage.VaultRecord) {
	fmt.Printf("ID:            %s\n", r.ID)
	fmt.Printf("Entries:       %d\n", r.Entries)
	fmt.Printf("Created:       %s\n", formatTime(r.Created))
	fmt.Printf("Last login:    %s\n", formatTime(r.LastLogin))
	fmt.Printf("Last modified: %s\n", formatTime(r.LastModified))
	if keyring.HasMasterKey(r.ID) {
		fmt.Println("Keyring:       master key stored")
	} else {
		fmt.Println("Keyring:       not stored")
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.RFC3339)
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
