// Package main is the answerdesk CLI entry point.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hyperjump/answerdesk/internal/config"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/answerdesk/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// errUsage marks a command line the user has to fix; the command already printed its usage.
var errUsage = errors.New("usage")

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}
	command, rest := args[0], args[1:]
	var err error
	switch command {
	case "server":
		err = runServer(rest)
	case "search":
		err = runSearch(rest, stdout)
	case "messages":
		err = runMessages(rest, stdout)
	case "import":
		err = runImport(rest, stdout)
	case "remove":
		err = runRemove(rest, stdout)
	case "delete":
		err = runDelete(rest, stdout)
	case "status":
		err = runStatus(rest, stdout)
	case "watch":
		err = runWatch(rest, stdout)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "answerdesk version %s\n", version)
	case "help", "--help", "-h":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 1
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		fmt.Fprintf(stderr, "%s: %v\n", command, err)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `answerdesk - knowledge-base answer search and message templates

Usage:
  answerdesk server [flags]               Start the HTTP server (and bundle watcher)
  answerdesk search [flags] <query>       Search answers by title, then by content
  answerdesk messages [flags]             List stored messages with placeholders filled
  answerdesk import [flags] <path>        Import a bundle file or a directory of bundles
  answerdesk remove [flags] <file>        Remove everything imported from a bundle file
  answerdesk delete [flags] <answer-id>   Delete one answer
  answerdesk status [flags]               Show row counts and disk usage
  answerdesk watch <add|remove|list>      Manage watched bundle directories
  answerdesk version                      Show version
  answerdesk help                         Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/answerdesk/config.yaml,
                     or ./config.yaml when present)
  --server string    Server URL for search, messages and status (default: http://localhost:8080).
                     Use --server "" to open storage directly when the server is not running.
  --output string    Output format: text, compact or json (default: text)

Server Flags:
  --debug            Enable debug logging

Examples:
  answerdesk server
  answerdesk import ./corpus
  answerdesk search star trek
  answerdesk search --output json "warp drive"
  answerdesk messages --server ""
  answerdesk watch add /srv/corpus`)
}
