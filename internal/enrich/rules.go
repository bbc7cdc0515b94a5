package enrich

import (
	"fmt"
	"strings"

	"github.com/garyjia/books-report/internal/books"
	"github.com/garyjia/books-report/internal/models"
)

// ProjectRule decides which project a line item belongs to
type ProjectRule int

const (
	// ProjectFromParent uses the record's own project_id for every item
	ProjectFromParent ProjectRule = iota
	// ProjectFromItem uses the item's project_id and falls back to the record's
	ProjectFromItem
)

// DefaultRules mirror the upstream schemas: expenses carry the project on
// the record, bills and invoices carry it per line item
func DefaultRules() map[models.RecordType]ProjectRule {
	return map[models.RecordType]ProjectRule{
		models.RecordTypeExpense: ProjectFromParent,
		models.RecordTypeBill:    ProjectFromItem,
		models.RecordTypeInvoice: ProjectFromItem,
	}
}

// EffectiveProject returns the project id the item counts towards
func (r ProjectRule) EffectiveProject(rec *books.Record, li books.LineItem) string {
	if r == ProjectFromItem && li.ProjectID != "" {
		return li.ProjectID
	}
	return rec.ProjectID
}

func (r ProjectRule) String() string {
	switch r {
	case ProjectFromParent:
		return "parent"
	case ProjectFromItem:
		return "item"
	}
	return fmt.Sprintf("ProjectRule(%d)", int(r))
}

// ParseProjectRule parses "parent" or "item"
func ParseProjectRule(s string) (ProjectRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "parent":
		return ProjectFromParent, nil
	case "item":
		return ProjectFromItem, nil
	}
	return 0, fmt.Errorf("unknown project rule %q", s)
}
