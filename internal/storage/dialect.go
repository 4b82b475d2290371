package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported engines.
type Dialect struct {
	Name             string
	sqlite           bool
	numbered         bool   // $1, $2, ... instead of ?
	rowIDColumn      string // surrogate key DDL
	tableExistsQuery string
}

var (
	sqliteDialect = Dialect{
		Name:             "sqlite",
		sqlite:           true,
		rowIDColumn:      "row_id INTEGER PRIMARY KEY AUTOINCREMENT",
		tableExistsQuery: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	}
	postgresDialect = Dialect{
		Name:        "postgres",
		numbered:    true,
		rowIDColumn: "row_id BIGSERIAL PRIMARY KEY",
		tableExistsQuery: `SELECT COUNT(*) FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = ?`,
	}
)

func dialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		return sqliteDialect, nil
	case DriverPostgres:
		return postgresDialect, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// Rebind replaces each ? outside single-quoted literals with the dialect's
// placeholder.
func (d Dialect) Rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// InsertStatement builds a parameterized insert of columns into table.
func (d Dialect) InsertStatement(table string, columns []string) string {
	if len(columns) == 0 {
		return "INSERT INTO " + table + " DEFAULT VALUES"
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return d.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), marks))
}
