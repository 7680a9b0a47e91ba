package cli

import "database/sql"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// HistoryCommand — read recent browser history from Safari and Chrome.
type HistoryCommand struct {
	Days   int    `long:"days" description:"Lookback window in days (1-30)" default:"7"`
	Limit  int    `long:"limit" description:"Maximum results" default:"50"`
	Source string `long:"source" description:"Restrict to one source: safari | chrome" choice:"safari" choice:"chrome"`

	globals *GlobalFlags
	version string
}

// ChatsCommand — list recent conversations from iMessage or WhatsApp.
type ChatsCommand struct {
	Source string `long:"source" description:"Message source" choice:"imessage" choice:"whatsapp" default:"imessage"`
	Days   int    `long:"days" description:"Lookback window in days (1-30)" default:"7"`
	Limit  int    `long:"limit" description:"Maximum results" default:"50"`

	globals *GlobalFlags
	version string
}

// MessagesCommand — read messages from one chat.
type MessagesCommand struct {
	Source  string `long:"source" description:"Message source" choice:"imessage" choice:"whatsapp" default:"imessage"`
	Chat    string `long:"chat" description:"Chat GUID (imessage) or contact JID (whatsapp)"`
	Account string `long:"account" description:"WhatsApp account name" default:"primary"`
	Days    int    `long:"days" description:"Lookback window in days (1-30)" default:"7"`
	Limit   int    `long:"limit" description:"Maximum results" default:"100"`

	globals *GlobalFlags
	version string
}

// FetchCommand — fetch a web page with SSRF protection.
type FetchCommand struct {
	URL       string `long:"url" description:"URL to fetch (required)"`
	Mode      string `long:"mode" description:"Extraction mode" choice:"text" choice:"raw" choice:"links" default:"text"`
	MaxLength int    `long:"max-length" description:"Truncate extracted content to N characters" default:"5000"`
	Save      bool   `long:"save" description:"Store the fetched page in the archive"`

	globals *GlobalFlags
	version string
}

// SearchCommand — query the web via the Brave Search API.
type SearchCommand struct {
	Count int `long:"count" description:"Number of results" default:"5"`

	globals *GlobalFlags
	version string
}

// IngestCommand — pull recent records from all enabled sources into the archive.
type IngestCommand struct {
	Days  int `long:"days" description:"Lookback window in days (1-30)" default:"7"`
	Limit int `long:"limit" description:"Maximum records per source" default:"500"`

	globals *GlobalFlags
	version string
}

// RecallCommand — search the local archive by keyword with filters.
type RecallCommand struct {
	Since  string `long:"since" description:"Only records newer than duration (e.g., 7d, 24h)" default:"30d"`
	Until  string `long:"until" description:"Only records older than duration"`
	Source string `long:"source" description:"Filter by source (safari, chrome, imessage, whatsapp, web)"`
	Kind   string `long:"kind" description:"Filter by kind (visit, message, page, search)"`
	Domain string `long:"domain" description:"Filter by domain"`
	Limit  int    `long:"limit" description:"Maximum results" default:"10"`
	Offset int    `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	version string
}

// StatusCommand — show archive health, database stats, config summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// PruneCommand — apply retention pruning to remove old archive records.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
}

// PurgeCommand — delete ALL archive data with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	db      *sql.DB // injectable for testing; nil means open default DB
}
