package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/illarion/ringbearer/internal/crypto"
	"github.com/illarion/ringbearer/internal/keyring"
	"github.com/illarion/ringbearer/internal/storage"
	"github.com/illarion/ringbearer/internal/vaulterr"
)

// PasswordSource tells where a master key came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// MaxPromptAttempts is how often a wrong master key may be re-entered
const MaxPromptAttempts = 3

// GetPasswordWithRetry finds a master key accepted by verify. It tries
// RINGBEARER_PASSWORD, then the keyring entry of vaultID, then prompts.
// A keyring entry that verify rejects is stale and gets removed.
// The caller is responsible for calling crypto.ClearBytes on the result.
func GetPasswordWithRetry(prompt, vaultID string, verify func([]byte) error) ([]byte, PasswordSource, error) {
	if password := GetPasswordFromEnv(); password != nil {
		if err := verify(password); err != nil {
			crypto.ClearBytes(password)
			return nil, SourceEnv, err
		}
		return password, SourceEnv, nil
	}

	if vaultID != "" {
		password, err := keyring.GetMasterKey(vaultID)
		if err == nil {
			err = verify(password)
			if err == nil {
				return password, SourceKeyring, nil
			}
			crypto.ClearBytes(password)
			if !errors.Is(err, vaulterr.InvalidMasterKey) {
				return nil, SourceKeyring, err
			}
			fmt.Fprintln(os.Stderr, "warning: master key in keyring is outdated, removing it")
			_ = keyring.DeleteMasterKey(vaultID)
		}
	}

	for attempt := 1; ; attempt++ {
		password, err := ReadPassword(prompt)
		if err != nil {
			return nil, SourcePrompt, err
		}
		err = verify(password)
		if err == nil {
			return password, SourcePrompt, nil
		}
		crypto.ClearBytes(password)
		if !errors.Is(err, vaulterr.InvalidMasterKey) || attempt >= MaxPromptAttempts {
			return nil, SourcePrompt, err
		}
		fmt.Fprintln(os.Stderr, "invalid master key, try again")
	}
}

// OfferToSavePassword asks to cache the master key in the keyring
func OfferToSavePassword(vaultID string, password []byte) {
	if vaultID == "" || keyring.HasMasterKey(vaultID) {
		return
	}
	if !Confirm("Save master key to the OS keyring?") {
		return
	}
	if err := keyring.SaveMasterKey(vaultID, password); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Println("Master key saved to keyring")
}

// ErrorMessage renders err for the user
func ErrorMessage(err error) string {
	var detail, cause string
	var ve *vaulterr.Error
	if errors.As(err, &ve) {
		detail, cause = ve.Msg, ve.Msg
		if ve.Err != nil {
			cause = ve.Err.Error()
		}
	}

	switch vaulterr.KindOf(err) {
	case vaulterr.InvalidMasterKey:
		return "Error: invalid master key"
	case vaulterr.NotFound:
		if detail != "" {
			return fmt.Sprintf("Error: no entry matches %q", detail)
		}
		return "Error: entry not found"
	case vaulterr.DuplicateEntry:
		return fmt.Sprintf("Error: an entry with key %q already exists\nUse 'upd' to change it", detail)
	case vaulterr.EmptyList:
		return "Error: the vault has no entries\nUse 'add' to create one"
	case vaulterr.LoadFailed:
		return fmt.Sprintf("Error: failed to load vault: %s", cause)
	case vaulterr.SaveFailed:
		return fmt.Sprintf("Error: failed to save vault: %s", cause)
	case vaulterr.UnsupportedFormat:
		return fmt.Sprintf("Error: unsupported format %q", detail)
	case vaulterr.Validation:
		if detail != "" {
			return fmt.Sprintf("Error: %s", detail)
		}
	}
	return fmt.Sprintf("Error: %s", err)
}

// HandleError prints err and exits
func HandleError(err error) {
	fmt.Fprintln(os.Stderr, ErrorMessage(err))
	os.Exit(1)
}

// PrintEntry writes one entry with all fields
func PrintEntry(w io.Writer, e storage.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Key:\t%s\n", e.Key)
	fmt.Fprintf(tw, "UserName:\t%s\n", e.UserName)
	fmt.Fprintf(tw, "Password:\t%s\n", e.Password)
	fmt.Fprintf(tw, "Notes:\t%s\n", e.Notes)
	tw.Flush()
}

// PrintEntries writes a Key/UserName table. Passwords are not shown.
func PrintEntries(w io.Writer, entries []storage.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tUSERNAME\tNOTES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, e.UserName, e.Notes)
	}
	tw.Flush()
}
