package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ExecScript runs each statement of a SQL script in order
func ExecScript(ctx context.Context, db *sql.DB, script string) error {
	for _, stmt := range SplitStatements(script) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: when executing > %s", err, stmt)
		}
	}
	return nil
}

// SplitStatements strips "--" comments and splits on semicolons, ignoring both inside quotes
func SplitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
		quote      rune
		comment    bool
	)

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case comment:
			if r == '\n' {
				comment = false
				current.WriteRune(' ')
			}
			continue
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			comment = true
			continue
		case r == ';':
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}
