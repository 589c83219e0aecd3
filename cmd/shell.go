package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/illarion/ringbearer/internal/core"
	"github.com/illarion/ringbearer/internal/storage"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

const shellPrompt = "ringbearer> "

// Terminal is the line editor the shell reads from. *term.Terminal
// implements it.
type Terminal interface {
	io.Writer
	ReadLine() (string, error)
	ReadPassword(prompt string) (string, error)
	SetPrompt(prompt string)
}

// Shell runs vault commands over one session until exit. The session is
// closed after an idle period and failed logins are throttled.
type Shell struct {
	term    Terminal
	manager *core.Manager
	path    string
	idle    time.Duration
	limiter *rate.Limiter
	session *core.Session
}

// NewShell creates a shell for the vault at path. idle 0 disables auto-logout.
func NewShell(t Terminal, manager *core.Manager, path string, idle time.Duration) *Shell {
	return &Shell{
		term:    t,
		manager: manager,
		path:    path,
		idle:    idle,
		// Three quick attempts, then one every two seconds
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

type readResult struct {
	line string
	err  error
}

// Run logs in and executes commands until exit, EOF or ctx is done
func (s *Shell) Run(ctx context.Context) error {
	requests := make(chan bool) // true reads a password
	results := make(chan readResult, 1)
	defer close(requests)

	go func() {
		for password := range requests {
			var r readResult
			if password {
				r.line, r.err = s.term.ReadPassword("Enter master key: ")
			} else {
				r.line, r.err = s.term.ReadLine()
			}
			results <- r
		}
	}()

	defer s.logout()

	for {
		if s.session == nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
			requests <- true
			r, _, err := await(ctx, results, 0)
			if err != nil {
				return nil
			}
			if r.err != nil {
				return ignoreEOF(r.err)
			}
			s.login(ctx, r.line)
			continue
		}

		requests <- false
		r, timedOut, err := await(ctx, results, s.idle)
		if err != nil {
			return nil
		}
		if timedOut {
			s.logout()
			fmt.Fprintf(s.term, "\nsession locked after %s of inactivity, press Enter to log in again\n", s.idle)
			if r := <-results; r.err != nil {
				return ignoreEOF(r.err)
			}
			continue
		}
		if r.err != nil {
			return ignoreEOF(r.err)
		}
		if quit := s.Execute(ctx, r.line); quit {
			return nil
		}
	}
}

func await(ctx context.Context, results <-chan readResult, timeout time.Duration) (readResult, bool, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case r := <-results:
		return r, false, nil
	case <-expired:
		return readResult{}, true, nil
	case <-ctx.Done():
		return readResult{}, false, ctx.Err()
	}
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Shell) login(ctx context.Context, password string) {
	session, err := s.manager.Login(ctx, []byte(password), s.path)
	if err != nil {
		fmt.Fprintln(s.term, ErrorMessage(err))
		return
	}
	s.session = session
	s.term.SetPrompt(shellPrompt)
	fmt.Fprintf(s.term, "logged in to %s (%d entries), type h for help\n", session.Path(), len(session.GetEntries()))
}

func (s *Shell) logout() {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
}

// Execute runs one command line against the open session and reports
// whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	if s.session == nil {
		fmt.Fprintln(s.term, "Error: not logged in")
		return false
	}

	command, args := strings.ToLower(fields[0]), fields[1:]
	var err error

	switch command {
	case "h", "help":
		s.printHelp()
	case "ls":
		PrintEntries(s.term, s.session.GetEntries())
	case "get":
		var entry storage.Entry
		if entry, err = s.session.GetEntry(strings.Join(args, " ")); err == nil {
			PrintEntry(s.term, entry)
		}
	case "ftr":
		PrintEntries(s.term, s.session.FilterEntries(strings.Join(args, " ")))
	case "add", "upd":
		var entry storage.Entry
		if entry, err = ParseEntryArgs(args); err != nil {
			fmt.Fprintf(s.term, "Error: %s\nUsage: %s <key> [-u user] [-p pass] [-n notes]\n", err, command)
			return false
		}
		if command == "add" {
			err = s.session.AddEntry(ctx, entry)
		} else {
			err = s.session.UpdateEntry(ctx, entry)
		}
		if err == nil {
			fmt.Fprintf(s.term, "%s: %s\n", pastTense(command), entry.Key)
		}
	case "del":
		err = s.delete(ctx, args)
	case "cmk":
		err = s.changeMasterKey(ctx, args)
	case "lock", "logout":
		s.logout()
		fmt.Fprintln(s.term, "logged out")
	case "exit", "quit":
		return true
	default:
		fmt.Fprintf(s.term, "unknown command %q, type h for help\n", command)
	}

	if err != nil {
		fmt.Fprintln(s.term, ErrorMessage(err))
	}
	return false
}

func pastTense(command string) string {
	if command == "add" {
		return "added"
	}
	return "updated"
}

func (s *Shell) delete(ctx context.Context, keys []string) error {
	switch len(keys) {
	case 0:
		fmt.Fprintln(s.term, "Usage: del <key> [key...]")
		return nil
	case 1:
		if err := s.session.DeleteEntry(ctx, keys[0]); err != nil {
			return err
		}
	default:
		selected := make([]storage.Entry, len(keys))
		for i, key := range keys {
			selected[i] = storage.Entry{Key: key}
		}
		if err := s.session.DeleteSelectedEntries(ctx, selected); err != nil {
			return err
		}
	}
	fmt.Fprintf(s.term, "deleted: %s\n", strings.Join(keys, ", "))
	return nil
}

func (s *Shell) changeMasterKey(ctx context.Context, args []string) error {
	var newKey string
	if len(args) > 0 {
		newKey = strings.Join(args, " ")
	} else {
		first, err := s.term.ReadPassword("Enter new master key: ")
		if err != nil {
			return err
		}
		second, err := s.term.ReadPassword("Confirm: ")
		if err != nil {
			return err
		}
		if first != second {
			fmt.Fprintln(s.term, "Error: master keys do not match")
			return nil
		}
		newKey = first
	}

	if err := s.session.ChangeMasterKey(ctx, []byte(newKey)); err != nil {
		return err
	}
	fmt.Fprintln(s.term, "master key changed")
	return nil
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.term, "Commands:")
	fmt.Fprintln(s.term, "  ls                                    List entries")
	fmt.Fprintln(s.term, "  get <key>                             Show the first entry whose key contains <key>")
	fmt.Fprintln(s.term, "  ftr <word>                            List entries with <word> in any field")
	fmt.Fprintln(s.term, "  add <key> [-u user] [-p pass] [-n notes]")
	fmt.Fprintln(s.term, "                                        Add an entry")
	fmt.Fprintln(s.term, "  upd <key> [-u user] [-p pass] [-n notes]")
	fmt.Fprintln(s.term, "                                        Update an entry; a flag without value clears the field")
	fmt.Fprintln(s.term, "  del <key> [key...]                    Delete entries by exact key")
	fmt.Fprintln(s.term, "  cmk [new key]                         Change the master key")
	fmt.Fprintln(s.term, "  lock                                  Log out and ask for the master key again")
	fmt.Fprintln(s.term, "  h                                     Show this help")
	fmt.Fprintln(s.term, "  exit                                  Leave the shell")
}

// ShellCommand starts the interactive shell on the controlling terminal
func ShellCommand(ctx context.Context, vault string) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		fmt.Fprintln(os.Stderr, "Error: shell requires a terminal")
		os.Exit(1)
	}

	app := MustOpenApp(vault)
	defer app.Close()

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, shellPrompt)

	// Raw mode needs \r\n; the terminal writer translates
	manager := app.NewManager(NewLogger(t, app.Logger.GetLevel()))
	shell := NewShell(t, manager, app.Config.VaultPath, app.Config.IdleTimeout)

	if err := shell.Run(ctx); err != nil {
		fmt.Fprintf(t, "Error: %s\n", err)
	}
}
