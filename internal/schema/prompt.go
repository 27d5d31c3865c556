package schema

import (
	"fmt"
	"strings"
)

// Columns is the fixed column set of every price-history table.
var Columns = []string{"SNo", "Name", "Symbol", "Date", "High", "Low", "Open", "Close", "Volume", "Marketcap"}

// DateSuffix is appended to every stored Date value.
const DateSuffix = "23:59:59"

// PromptSchema describes the attached databases for NL->SQL prompting.
//
// Keep it in sync with the ATTACH statements the executor issues.
func (r *Registry) PromptSchema() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d attached SQLite tables:\n\n", len(r.entries))
	for _, e := range r.entries {
		fmt.Fprintf(&b, "  ATTACH DATABASE '%s' AS %s;  -- table %s.%s\n", DataFile(e.Alias), e.Alias, e.Alias, e.Table)
	}
	fmt.Fprintf(&b, "\nEach table has columns: %s.\n", strings.Join(Columns, ", "))
	return b.String()
}
