package archive

import "time"

// Record is a single normalized item pulled from any connector: a browser
// visit, a message, a fetched page, or a search result.
type Record struct {
	UID       string
	Kind      string // "visit", "message", "conversation", "page", "search"
	Source    string // "safari", "chrome", "imessage", "whatsapp", "web"
	Account   string
	URL       string
	Title     string
	Text      string
	Domain    string
	Sender    string
	Timestamp time.Time
}

// SearchQuery defines filters for searching records.
type SearchQuery struct {
	Query  string
	Source string
	Kind   string
	Domain string
	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// Stats holds aggregate statistics about the archive database.
type Stats struct {
	TotalRecords int64
	OldestRecord time.Time
	NewestRecord time.Time
	BySource     []SourceCount
	TopDomains   []DomainCount
}

// SourceCount pairs a source with its record count.
type SourceCount struct {
	Source string
	Count  int64
}

// DomainCount pairs a domain with its record count.
type DomainCount struct {
	Domain string
	Count  int64
}
