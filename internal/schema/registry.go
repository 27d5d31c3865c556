package schema

import (
	"fmt"
	"strings"
)

// aliasPrefix is stripped from an alias to get its data file name.
const aliasPrefix = "coin_"

// Entry maps a logical alias used in generated SQL to the table inside the
// attached database file.
type Entry struct {
	Alias string
	Table string
}

// Registry is the fixed set of attachable price-history sources.
// It is immutable once built.
type Registry struct {
	entries []Entry
	byAlias map[string]Entry
}

// Default returns the four-coin registry the generator prompt is written for.
func Default() *Registry {
	r, _ := New(
		Entry{Alias: "coin_bitcoin", Table: "BITCOIN"},
		Entry{Alias: "coin_chainlink", Table: "CHAINLINK"},
		Entry{Alias: "coin_ethereum", Table: "ETHEREUM"},
		Entry{Alias: "coin_usdcoin", Table: "USDCOIN"},
	)
	return r
}

// New builds a registry from entries, keeping their order.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byAlias: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		alias := strings.TrimSpace(e.Alias)
		table := strings.TrimSpace(e.Table)
		if alias == "" || table == "" {
			return nil, fmt.Errorf("registry entry needs alias and table, got %q/%q", e.Alias, e.Table)
		}
		key := strings.ToLower(alias)
		if _, dup := r.byAlias[key]; dup {
			return nil, fmt.Errorf("duplicate alias %q", alias)
		}
		e = Entry{Alias: alias, Table: table}
		r.entries = append(r.entries, e)
		r.byAlias[key] = e
	}
	return r, nil
}

// Resolve returns the physical table for alias. Matching ignores case.
func (r *Registry) Resolve(alias string) (string, bool) {
	e, ok := r.byAlias[strings.ToLower(strings.TrimSpace(alias))]
	if !ok {
		return "", false
	}
	return e.Table, true
}

// Entries returns a copy of the registered entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// DataFile returns the conventional database file name for alias,
// e.g. "coin_bitcoin" -> "bitcoin.db".
func DataFile(alias string) string {
	name := strings.ToLower(strings.TrimSpace(alias))
	name = strings.TrimPrefix(name, aliasPrefix)
	return name + ".db"
}

// AliasForCoin returns the alias a coin name is registered under,
// e.g. "Bitcoin" -> "coin_bitcoin".
func AliasForCoin(coin string) string {
	return aliasPrefix + strings.ToLower(strings.TrimSpace(coin))
}
