package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/ringbearer/internal/crypto"
	"github.com/illarion/ringbearer/internal/keyring"
)

// KeyringSave saves the master key to the OS keyring
func KeyringSave(ctx context.Context, vault string) {
	app := MustOpenApp(vault)
	defer app.Close()

	if !app.Manager.FileExist(app.Config.VaultPath) {
		fmt.Fprintf(os.Stderr, "Error: no vault at %s\n", app.Config.VaultPath)
		os.Exit(1)
	}

	// Prompt and verify by logging in
	password, err := ReadPassword("Enter master key: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(password)

	session, err := app.Manager.Login(ctx, password, app.Config.VaultPath)
	if err != nil {
		HandleError(err)
	}
	session.Close()

	vaultID, err := app.EnsureVaultID()
	if err != nil {
		HandleError(err)
	}

	if err := keyring.SaveMasterKey(vaultID, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Master key saved to keyring")
}

// KeyringDelete removes the master key from the OS keyring
func KeyringDelete(vault string) {
	app := MustOpenApp(vault)
	defer app.Close()

	vaultID := app.VaultID()
	if vaultID == "" {
		fmt.Println("No master key stored in keyring")
		return
	}

	if err := keyring.DeleteMasterKey(vaultID); err != nil {
		if !errors.Is(err, keyring.ErrNotStored) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		fmt.Println("No master key stored in keyring")
		return
	}

	fmt.Println("Master key removed from keyring")
}

// KeyringStatus checks if a master key is stored in the keyring
func KeyringStatus(vault string) {
	app := MustOpenApp(vault)
	defer app.Close()

	vaultID := app.VaultID()
	if vaultID != "" && keyring.HasMasterKey(vaultID) {
		fmt.Println("Master key: stored in keyring")
	} else {
		fmt.Println("Master key: not stored")
	}
}
