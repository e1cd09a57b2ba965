package sqlstore

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect selects driver name, placeholder style and DDL.
type Dialect string

const (
	// DialectPostgres uses github.com/jackc/pgx/v5/stdlib.
	DialectPostgres Dialect = "postgres"
	// DialectSQLite uses modernc.org/sqlite.
	DialectSQLite Dialect = "sqlite"
)

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// rebind rewrites '?' placeholders to $n for postgres. Queries in this
// package never contain a literal '?'.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// timeArg converts t into the value written to a timestamp column.
// SQLite has no native timestamp type, so it gets a sortable RFC 3339 string.
func (d Dialect) timeArg(t time.Time) any {
	if d == DialectSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// sqliteTimeLayout is fixed-width so lexical order matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// timeScanner reads timestamps whichever representation the driver returns.
type timeScanner struct {
	t *time.Time
}

func (s timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*s.t = v.UTC()
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	case nil:
		*s.t = time.Time{}
		return nil
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (s timeScanner) parse(v string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			*s.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", v)
}

// jsonArg turns an encoded JSON document into a column value; empty means NULL.
func jsonArg(b []byte) driver.Value {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
