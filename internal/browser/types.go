package browser

import (
	"fmt"
	"time"
)

// Visit is a normalized browser history entry. Two reads of the same
// underlying row produce equal Visits, including the UID.
type Visit struct {
	UID           string    `json:"uid"`
	SourceType    string    `json:"source_type"` // "safari" or "chrome"
	Profile       string    `json:"profile"`
	SourceVisitID string    `json:"source_visit_id"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	Domain        string    `json:"domain"`
	VisitCount    int       `json:"visit_count"`
	Transition    string    `json:"transition"`
	VisitedAt     time.Time `json:"visited_at"`
}

// visitUID builds the deterministic composite identifier. The profile
// segment disambiguates identical native row IDs across Chrome profiles.
func visitUID(sourceType, profile, sourceVisitID string) string {
	return fmt.Sprintf("%s:%s:%s", sourceType, profile, sourceVisitID)
}
