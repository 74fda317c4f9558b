package types

import "time"

// Bang is a `!trigger` shortcut that rewrites a query, switches category,
// or redirects to an external site. UserID is empty for built-in bangs.
type Bang struct {
	ID          int64
	UserID      string
	Trigger     string // lowercase, unique per user
	Name        string
	URLTemplate string // contains "{query}"; empty for internal bangs
	Category    string // internal category/mode switch; empty for external
	IsExternal  bool
	CreatedAt   time.Time
}
