package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/illarion/ringbearer/internal/config"
	"github.com/illarion/ringbearer/internal/core"
	"github.com/illarion/ringbearer/internal/crypto"
	"github.com/illarion/ringbearer/internal/storage"
	"github.com/rs/zerolog"
)

// App holds what every command needs: resolved config, the settings
// database (nil when it cannot be opened), a logger and the vault manager.
type App struct {
	Config   config.Config
	Settings *storage.Settings
	Logger   zerolog.Logger
	Manager  *core.Manager
}

// NewLogger builds a console logger writing to w
func NewLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// OpenApp resolves configuration and opens the settings database.
// vault overrides the configured vault path when not empty.
func OpenApp(vault string) (*App, error) {
	home, err := config.Home()
	if err != nil {
		return nil, err
	}
	if err := config.EnsureHome(home); err != nil {
		return nil, err
	}

	app := &App{}

	// Settings are optional: another process may hold the lock
	var source config.Source
	settings, settingsErr := storage.OpenSettings(config.Defaults(home).SettingsPath())
	if settingsErr == nil {
		app.Settings = settings
		source = settings
	}

	cfg, err := config.Load(home, source, nil)
	if err != nil {
		app.Close()
		return nil, err
	}
	if vault != "" {
		cfg.VaultPath = vault
	}
	app.Config = cfg
	app.Logger = NewLogger(os.Stderr, cfg.LogLevel)

	if settingsErr != nil {
		app.Logger.Warn().Err(settingsErr).Msg("settings unavailable, using defaults")
	}

	app.Manager = app.NewManager(app.Logger)

	return app, nil
}

// NewManager builds a vault manager from the resolved config that logs to logger
func (a *App) NewManager(logger zerolog.Logger) *core.Manager {
	opts := []core.Option{
		core.WithLogger(logger),
		core.WithDefaultPath(a.Config.VaultPath),
		core.WithStore(storage.NewVaultFile(storage.WithAtomicWrites(a.Config.AtomicWrites))),
	}
	if a.Settings != nil {
		opts = append(opts, core.WithIndex(a.Settings))
	}
	return core.NewManager(opts...)
}

// MustOpenApp is OpenApp that exits on error
func MustOpenApp(vault string) *App {
	app, err := OpenApp(vault)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return app
}

// Close releases the settings database
func (a *App) Close() {
	if a.Settings != nil {
		a.Settings.Close()
	}
}

// VaultID returns the index ID of the configured vault, or "" if unknown
func (a *App) VaultID() string {
	if a.Settings == nil {
		return ""
	}
	record, err := a.Settings.GetVault(a.Config.VaultPath)
	if err != nil || record == nil {
		return ""
	}
	return record.ID
}

// EnsureVaultID returns the index ID of the configured vault, creating the record
func (a *App) EnsureVaultID() (string, error) {
	if a.Settings == nil {
		return "", fmt.Errorf("settings database unavailable")
	}
	record, err := a.Settings.GetOrCreateVault(a.Config.VaultPath)
	if err != nil {
		return "", err
	}
	return record.ID, nil
}

// Login opens the configured vault, creating it after confirmation of a
// new master key when the file does not exist. Exits on failure.
func (a *App) Login(ctx context.Context) *core.Session {
	path := a.Config.VaultPath
	if !a.Manager.FileExist(path) {
		return a.create(ctx, path)
	}

	var session *core.Session
	password, _, err := GetPasswordWithRetry("Enter master key: ", a.VaultID(), func(pw []byte) error {
		s, err := a.Manager.Login(ctx, pw, path)
		session = s
		return err
	})
	if err != nil {
		HandleError(err)
	}
	crypto.ClearBytes(password)

	return session
}

func (a *App) create(ctx context.Context, path string) *core.Session {
	password := GetPasswordFromEnv()
	source := SourceEnv
	if password == nil {
		fmt.Printf("No vault at %s, creating a new one\n", path)
		var err error
		password, err = ReadPasswordConfirm("Choose master key: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		source = SourcePrompt
	}
	defer crypto.ClearBytes(password)

	session, err := a.Manager.Login(ctx, password, path)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("created vault %s\n", path)

	if source == SourcePrompt {
		if vaultID, err := a.EnsureVaultID(); err == nil {
			OfferToSavePassword(vaultID, password)
		}
	}
	return session
}
