package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/ringbearer/internal/crypto"
	"github.com/illarion/ringbearer/internal/keyring"
)

// Passwd changes the master key of the vault
func Passwd(ctx context.Context, vault string) {
	app := MustOpenApp(vault)
	defer app.Close()

	session := app.Login(ctx)
	defer session.Close()

	newPassword, err := ReadPasswordConfirm("Enter new master key: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(newPassword)

	if err := session.ChangeMasterKey(ctx, newPassword); err != nil {
		HandleError(err)
	}

	// Keep a cached key in sync, a stale one would be dropped at next login anyway
	if vaultID := app.VaultID(); vaultID != "" && keyring.HasMasterKey(vaultID) {
		if err := keyring.SaveMasterKey(vaultID, newPassword); err == nil {
			fmt.Println("Keyring updated with new master key")
		}
	}

	fmt.Println("master key changed successfully")
}
