// Package cli implements the recollect command-line interface.
package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	History  *HistoryCommand
	Chats    *ChatsCommand
	Messages *MessagesCommand
	Fetch    *FetchCommand
	Search   *SearchCommand
	Ingest   *IngestCommand
	Recall   *RecallCommand
	Status   *StatusCommand
	Prune    *PruneCommand
	Purge    *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "recollect"
	parser.LongDescription = "Privacy-first local connectors for browser history, messages, and safe web fetching."

	cmds := &commands{
		History:  &HistoryCommand{globals: &globals, version: version},
		Chats:    &ChatsCommand{globals: &globals, version: version},
		Messages: &MessagesCommand{globals: &globals, version: version},
		Fetch:    &FetchCommand{globals: &globals, version: version},
		Search:   &SearchCommand{globals: &globals, version: version},
		Ingest:   &IngestCommand{globals: &globals, version: version},
		Recall:   &RecallCommand{globals: &globals, version: version},
		Status:   &StatusCommand{globals: &globals, version: version},
		Prune:    &PruneCommand{globals: &globals, version: version},
		Purge:    &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("history", "Show recent browser history", "Read recent visits from the local Safari and Chrome history databases.", cmds.History)
	parser.AddCommand("chats", "List recent conversations", "List recent conversations from iMessage or WhatsApp.", cmds.Chats)
	parser.AddCommand("messages", "Read messages from a chat", "Read recent messages, optionally restricted to one chat.", cmds.Messages)
	parser.AddCommand("fetch", "Fetch a web page safely", "Fetch a URL with SSRF protection, redirect validation, and size limits.", cmds.Fetch)
	parser.AddCommand("search", "Search the web", "Query the Brave Search API.", cmds.Search)
	parser.AddCommand("ingest", "Pull sources into the archive", "Pull recent records from all enabled sources into the local archive.", cmds.Ingest)
	parser.AddCommand("recall", "Search the local archive", "Search archived records by keyword, with optional filters.", cmds.Recall)
	parser.AddCommand("status", "Show archive health and statistics", "Show archive health, database statistics, and configuration summary.", cmds.Status)
	parser.AddCommand("prune", "Apply retention pruning", "Apply retention pruning to remove old archive records.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL archive data", "Delete ALL archive data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the recollect CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("recollect %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
