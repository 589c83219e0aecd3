package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_ringbearer() {
    local cur prev words cword
    _init_completion || return

    local commands="init ls find get add upd del passwd export import status shell keyring config help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    if [[ "$prev" == "-vault" ]]; then
        _filedir
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        get)
            COMPREPLY=($(compgen -W "-vault -c" -- "$cur"))
            ;;
        add|upd)
            COMPREPLY=($(compgen -W "-vault -u -p -n" -- "$cur"))
            ;;
        del)
            COMPREPLY=($(compgen -W "-vault -f" -- "$cur"))
            ;;
        export)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-vault -encrypt" -- "$cur"))
            else
                _filedir
            fi
            ;;
        import)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-vault -encrypted -dry-run" -- "$cur"))
            else
                _filedir
            fi
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        config)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "list get set" -- "$cur"))
            elif [[ $cword -eq 3 ]]; then
                COMPREPLY=($(compgen -W "vault_path log_level clipboard_ttl idle_timeout atomic_writes" -- "$cur"))
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
        *)
            COMPREPLY=($(compgen -W "-vault" -- "$cur"))
            ;;
    esac
}

complete -F _ringbearer ringbearer
`

const zshCompletion = `#compdef ringbearer

_ringbearer() {
    local -a commands
    commands=(
        'init:Create a new vault'
        'ls:List entries'
        'find:List entries with a keyword in any field'
        'get:Show an entry'
        'add:Add an entry'
        'upd:Update an entry'
        'del:Delete entries'
        'passwd:Change the master key'
        'export:Export entries to a file'
        'import:Import entries from a file'
        'status:Show vault status'
        'shell:Start an interactive session'
        'keyring:Manage master key in OS keyring'
        'config:Show or change settings'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'ringbearer commands' commands
            ;;
        args)
            case "${words[2]}" in
                get)
                    _arguments \
                        '-vault[Vault file]:file:_files' \
                        '-c[Copy password to clipboard]'
                    ;;
                del)
                    _arguments \
                        '-vault[Vault file]:file:_files' \
                        '-f[Delete without confirmation]'
                    ;;
                export)
                    _arguments \
                        '-vault[Vault file]:file:_files' \
                        '-encrypt[Encrypt the export]' \
                        '*:file:_files'
                    ;;
                import)
                    _arguments \
                        '-vault[Vault file]:file:_files' \
                        '-encrypted[Input is encrypted]' \
                        '-dry-run[Show changes without saving]' \
                        '*:file:_files'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                config)
                    _values 'subcommand' list get set
                    ;;
                help)
                    _describe -t commands 'ringbearer commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
                *)
                    _arguments '-vault[Vault file]:file:_files'
                    ;;
            esac
            ;;
    esac
}

_ringbearer "$@"
`

const fishCompletion = `# ringbearer fish completions

set -l commands init ls find get add upd del passwd export import status shell keyring config help completion

complete -c ringbearer -f

# Commands
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a new vault'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List entries'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a find -d 'Search entries'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a get -d 'Show an entry'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a add -d 'Add an entry'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a upd -d 'Update an entry'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a del -d 'Delete entries'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change the master key'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a export -d 'Export entries'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a import -d 'Import entries'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show vault status'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a shell -d 'Interactive session'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage master key in OS keyring'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a config -d 'Show or change settings'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c ringbearer -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# Common flag
complete -c ringbearer -n "__fish_seen_subcommand_from $commands" -o vault -r -F -d 'Vault file'

complete -c ringbearer -n "__fish_seen_subcommand_from get" -s c -d 'Copy password to clipboard'
complete -c ringbearer -n "__fish_seen_subcommand_from del" -s f -d 'Delete without confirmation'
complete -c ringbearer -n "__fish_seen_subcommand_from export" -o encrypt -d 'Encrypt the export'
complete -c ringbearer -n "__fish_seen_subcommand_from export import" -F
complete -c ringbearer -n "__fish_seen_subcommand_from import" -o encrypted -d 'Input is encrypted'
complete -c ringbearer -n "__fish_seen_subcommand_from import" -o dry-run -d 'Show changes only'

complete -c ringbearer -n "__fish_seen_subcommand_from keyring" -a "save delete status"
complete -c ringbearer -n "__fish_seen_subcommand_from config" -a "list get set"
complete -c ringbearer -n "__fish_seen_subcommand_from help" -a "$commands"
complete -c ringbearer -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
