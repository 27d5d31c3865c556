package ai

import (
	"fmt"

	"github.com/aman-zulfiqar/coinquery/internal/schema"
)

// BuildPrompt returns the fixed instructions sent ahead of every question.
//
// The schema part comes from the registry so it stays in sync with the
// databases the executor attaches.
func BuildPrompt(reg *schema.Registry) string {
	return fmt.Sprintf(`
You are an expert in converting English questions to SQLite SQL queries.
%s
You may query any single table or UNION ALL across multiple tables.
Prefix each SELECT with a literal 'Source' column naming the coin.

Do NOT wrap your answer in backticks or include the word "SQL".
Return a single statement with no explanation.

Example:
  SELECT 'Bitcoin'  AS Source, Date, Close
    FROM coin_bitcoin.BITCOIN
   WHERE Symbol='BTC'
  UNION ALL
  SELECT 'Ethereum' AS Source, Date, Close
    FROM coin_ethereum.ETHEREUM
   WHERE Symbol='ETH';

Every Date value is stored as text with the time %s appended,
e.g. '2021-01-01 %s'. Account for it when filtering by date.

The result will also be charted. Include Date and any other column that
would make the chart more useful.
`, reg.PromptSchema(), schema.DateSuffix, schema.DateSuffix)
}
