package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/ringbearer/internal/config"
)

// ConfigList prints every setting with its effective value
func ConfigList() {
	app := MustOpenApp("")
	defer app.Close()

	for _, key := range config.Keys() {
		value, _ := app.Config.Get(key)
		fmt.Printf("%s = %s\n", key, value)
	}
	fmt.Printf("\nhome: %s\n", app.Config.Home)
}

// ConfigGet prints one effective setting
func ConfigGet(key string) {
	app := MustOpenApp("")
	defer app.Close()

	value, err := app.Config.Get(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// ConfigSet validates and persists a setting. An empty value removes it.
func ConfigSet(key, value string) {
	app := MustOpenApp("")
	defer app.Close()

	if app.Settings == nil {
		fmt.Fprintln(os.Stderr, "Error: settings database unavailable")
		os.Exit(1)
	}

	if value == "" {
		if _, err := app.Config.Get(key); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		if err := app.Settings.DeleteConfig(key); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s reset to default\n", key)
		return
	}

	cfg := app.Config
	if err := cfg.Set(key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if err := app.Settings.SetConfig(key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s = %s\n", key, value)
}
