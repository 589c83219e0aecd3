package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/illarion/ringbearer/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(ctx, os.Args[2:])
	case "ls":
		runLs(ctx, os.Args[2:])
	case "find":
		runFind(ctx, os.Args[2:])
	case "get":
		runGet(ctx, os.Args[2:])
	case "add":
		runAdd(ctx, os.Args[2:])
	case "upd":
		runUpd(ctx, os.Args[2:])
	case "del":
		runDel(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "export":
		runExport(ctx, os.Args[2:])
	case "import":
		runImport(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "shell":
		runShell(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "config":
		runConfig(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// newFlagSet returns a flag set with the -vault flag every vault command takes
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	vault := fs.String("vault", "", "Vault file (default from config)")
	return fs, vault
}

func parse(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func usageExit(usage string) {
	fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
	os.Exit(1)
}

func runInit(ctx context.Context, args []string) {
	fs, vault := newFlagSet("init")
	parse(fs, args)

	cmd.Init(ctx, *vault)
}

func runLs(ctx context.Context, args []string) {
	fs, vault := newFlagSet("ls")
	parse(fs, args)

	cmd.Ls(ctx, *vault)
}

func runFind(ctx context.Context, args []string) {
	fs, vault := newFlagSet("find")
	parse(fs, args)

	if fs.NArg() == 0 {
		usageExit("ringbearer find <keyword>")
	}
	cmd.Find(ctx, *vault, strings.Join(fs.Args(), " "))
}

func runGet(ctx context.Context, args []string) {
	fs, vault := newFlagSet("get")
	copyToClipboard := fs.Bool("c", false, "Copy password to clipboard instead of printing")
	parse(fs, args)

	if fs.NArg() == 0 {
		usageExit("ringbearer get [-c] <key>")
	}
	cmd.Get(ctx, *vault, strings.Join(fs.Args(), " "), *copyToClipboard)
}

// add and upd leave -u/-p/-n to the entry parser, so -vault must come
// before the key.
func runAdd(ctx context.Context, args []string) {
	fs, vault := newFlagSet("add")
	parse(fs, args)

	cmd.Add(ctx, *vault, fs.Args())
}

func runUpd(ctx context.Context, args []string) {
	fs, vault := newFlagSet("upd")
	parse(fs, args)

	cmd.Update(ctx, *vault, fs.Args())
}

func runDel(ctx context.Context, args []string) {
	fs, vault := newFlagSet("del")
	force := fs.Bool("f", false, "Delete without confirmation")
	parse(fs, args)

	if fs.NArg() == 0 {
		usageExit("ringbearer del [-f] <key> [key...]")
	}
	cmd.Delete(ctx, *vault, fs.Args(), *force)
}

func runPasswd(ctx context.Context, args []string) {
	fs, vault := newFlagSet("passwd")
	parse(fs, args)

	cmd.Passwd(ctx, *vault)
}

func runExport(ctx context.Context, args []string) {
	fs, vault := newFlagSet("export")
	encrypt := fs.Bool("encrypt", false, "Encrypt the export under a separate password")
	parse(fs, args)

	if fs.NArg() != 1 {
		usageExit("ringbearer export [-encrypt] <file>")
	}
	cmd.Export(ctx, *vault, fs.Arg(0), *encrypt)
}

func runImport(ctx context.Context, args []string) {
	fs, vault := newFlagSet("import")
	encrypted := fs.Bool("encrypted", false, "Input was written with export -encrypt")
	dryRun := fs.Bool("dry-run", false, "Show changes without saving")
	parse(fs, args)

	if fs.NArg() != 1 {
		usageExit("ringbearer import [-encrypted] [-dry-run] <file>")
	}
	cmd.Import(ctx, *vault, fs.Arg(0), *encrypted, *dryRun)
}

func runStatus(_ context.Context, args []string) {
	fs, vault := newFlagSet("status")
	parse(fs, args)

	cmd.Status(*vault)
}

func runShell(ctx context.Context, args []string) {
	fs, vault := newFlagSet("shell")
	parse(fs, args)

	cmd.ShellCommand(ctx, *vault)
}

func runKeyring(ctx context.Context, args []string) {
	fs, vault := newFlagSet("keyring")
	parse(fs, args)

	if fs.NArg() != 1 {
		usageExit("ringbearer keyring <save|delete|status>")
	}
	switch fs.Arg(0) {
	case "save":
		cmd.KeyringSave(ctx, *vault)
	case "delete":
		cmd.KeyringDelete(*vault)
	case "status":
		cmd.KeyringStatus(*vault)
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", fs.Arg(0))
		usageExit("ringbearer keyring <save|delete|status>")
	}
}

func runConfig(_ context.Context, args []string) {
	if len(args) == 0 {
		usageExit("ringbearer config <list|get|set> [key] [value]")
	}

	switch args[0] {
	case "list":
		cmd.ConfigList()
	case "get":
		if len(args) != 2 {
			usageExit("ringbearer config get <key>")
		}
		cmd.ConfigGet(args[1])
	case "set":
		if len(args) < 2 || len(args) > 3 {
			usageExit("ringbearer config set <key> [value]")
		}
		var value string
		if len(args) == 3 {
			value = args[2]
		}
		cmd.ConfigSet(args[1], value)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		usageExit("ringbearer config <list|get|set> [key] [value]")
	}
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		usageExit("ringbearer completion <bash|zsh|fish>")
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("ringbearer - Encrypted credential vault for the command line")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ringbearer <command> [-vault file] [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create a new vault")
	fmt.Println("  ls          List entries")
	fmt.Println("  find        List entries with a keyword in any field")
	fmt.Println("  get         Show the first entry whose key contains a text")
	fmt.Println("  add         Add an entry")
	fmt.Println("  upd         Update fields of an entry")
	fmt.Println("  del         Delete entries by exact key")
	fmt.Println("  passwd      Change the master key")
	fmt.Println("  export      Export entries to a JSON or encrypted file")
	fmt.Println("  import      Merge entries from an exported file")
	fmt.Println("  status      Show vault status without unlocking it")
	fmt.Println("  shell       Start an interactive session")
	fmt.Println("  keyring     Manage the master key in the OS keyring")
	fmt.Println("  config      Show or change settings")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ringbearer init                          # Create new vault")
	fmt.Println("  ringbearer add gmail -u alice -p secret  # Add an entry")
	fmt.Println("  ringbearer get -c gmail                  # Copy the gmail password")
	fmt.Println("  ringbearer shell                         # Work interactively")
	fmt.Println()
	fmt.Println("Use 'ringbearer help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("ringbearer init [-vault file]")
		fmt.Println()
		fmt.Println("Creates an empty vault encrypted under a new master key.")
		fmt.Println("The master key is not stored anywhere unless you save it to the keyring.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  ringbearer init                       # Create the default vault")
		fmt.Println("  ringbearer init -vault work.ring      # Create another vault")
	case "ls":
		fmt.Println("ringbearer ls [-vault file]")
		fmt.Println()
		fmt.Println("Lists all entries sorted by key. Passwords are not shown.")
	case "find":
		fmt.Println("ringbearer find [-vault file] <keyword>")
		fmt.Println()
		fmt.Println("Lists entries whose key, user name, password or notes contain the keyword.")
		fmt.Println("Matching ignores case.")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  ringbearer find alice")
	case "get":
		fmt.Println("ringbearer get [-vault file] [-c] <key>")
		fmt.Println()
		fmt.Println("Shows the first entry whose key contains the given text, ignoring case.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -c    Copy the password to the clipboard instead of printing it.")
		fmt.Println("        The clipboard is cleared after clipboard_ttl.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  ringbearer get gmail")
		fmt.Println("  ringbearer get -c gmail")
	case "add":
		fmt.Println("ringbearer add [-vault file] <key> [-u user] [-p pass] [-n notes]")
		fmt.Println()
		fmt.Println("Adds an entry. Keys are unique, ignoring case.")
		fmt.Println("Notes take every word up to the next -u or -p.")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  ringbearer add gmail -u alice -p secret -n recovery phone ends 42")
	case "upd":
		fmt.Println("ringbearer upd [-vault file] <key> [-u user] [-p pass] [-n notes]")
		fmt.Println()
		fmt.Println("Updates the entry whose key equals <key>, ignoring case.")
		fmt.Println("Fields not given are kept. A flag given without a value clears the field.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  ringbearer upd gmail -p newsecret    # Change the password")
		fmt.Println("  ringbearer upd gmail -n              # Clear the notes")
	case "del":
		fmt.Println("ringbearer del [-vault file] [-f] <key> [key...]")
		fmt.Println()
		fmt.Println("Deletes entries by exact key, ignoring case.")
		fmt.Println("With several keys either all are deleted or none.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -f    Delete without confirmation")
	case "passwd":
		fmt.Println("ringbearer passwd [-vault file]")
		fmt.Println()
		fmt.Println("Changes the master key and re-encrypts the vault.")
		fmt.Println("A master key saved in the keyring is updated too.")
	case "export":
		fmt.Println("ringbearer export [-vault file] [-encrypt] <file>")
		fmt.Println()
		fmt.Println("Writes all entries to a file as JSON.")
		fmt.Println("Plain exports contain every password in clear text; a warning is shown")
		fmt.Println("when the file is inside a git repository and not ignored.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -encrypt    Encrypt the export under a separate password")
	case "import":
		fmt.Println("ringbearer import [-vault file] [-encrypted] [-dry-run] <file>")
		fmt.Println()
		fmt.Println("Merges entries from an exported file. New keys are added, existing")
		fmt.Println("keys are updated field by field. Nothing is saved if any entry is invalid.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -encrypted    The file was written with export -encrypt")
		fmt.Println("  -dry-run      Show the changes without saving them")
	case "status":
		fmt.Println("ringbearer status [-vault file]")
		fmt.Println()
		fmt.Println("Shows the vault file, its size and the last login and change times.")
		fmt.Println()
		fmt.Println("Does not require the master key.")
	case "shell":
		fmt.Println("ringbearer shell [-vault file]")
		fmt.Println()
		fmt.Println("Logs in once and runs commands interactively. The session is locked")
		fmt.Println("after idle_timeout without input. Type h inside the shell for commands.")
	case "keyring":
		fmt.Println("ringbearer keyring [-vault file] <save|delete|status>")
		fmt.Println()
		fmt.Println("Manages the master key in the OS keyring. A saved master key is used")
		fmt.Println("instead of prompting.")
	case "config":
		fmt.Println("ringbearer config list")
		fmt.Println("ringbearer config get <key>")
		fmt.Println("ringbearer config set <key> [value]")
		fmt.Println()
		fmt.Println("Shows or changes settings. Setting a key without a value restores its default.")
		fmt.Println()
		fmt.Println("Keys:")
		fmt.Println("  vault_path      Default vault file")
		fmt.Println("  log_level       debug, info, warn or error")
		fmt.Println("  clipboard_ttl   How long a copied password stays in the clipboard")
		fmt.Println("  idle_timeout    Shell inactivity before the session is locked")
		fmt.Println("  atomic_writes   Save through a temporary file and rename (true/false)")
	case "completion":
		fmt.Println("ringbearer completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(ringbearer completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(ringbearer completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  ringbearer completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
