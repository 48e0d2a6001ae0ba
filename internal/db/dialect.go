package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect identifies the SQL flavour spoken by a connection.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

func dialectForScheme(scheme string) (Dialect, error) {
	switch scheme {
	case "mysql":
		return DialectMySQL, nil
	case "postgres", "postgresql":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// DefaultPort is the conventional server port for the dialect.
func (d Dialect) DefaultPort() int {
	if d == DialectPostgres {
		return 5432
	}
	return 3306
}

// Placeholder returns the bind parameter marker for the 1-based position n.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// QuoteIdent quotes a table or column name, part by part for qualified
// names like schema.table. MySQL reserves "key", so every identifier is
// quoted.
func (d Dialect) QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		if d == DialectPostgres {
			parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
		} else {
			parts[i] = "`" + strings.ReplaceAll(part, "`", "``") + "`"
		}
	}
	return strings.Join(parts, ".")
}
