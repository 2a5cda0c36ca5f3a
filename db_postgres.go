package main

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type postgresDialect struct{}

// rebind turns ? placeholders into $1, $2 ... Queries carry no literal question marks.
func (postgresDialect) rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) isUniqueViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && string(pe.Code) == pqUniqueViolation
}

func (postgresDialect) isForeignKeyViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && string(pe.Code) == pqForeignKeyViolation
}

// NewPostgresStore connects to dsn. The schema is owned by migrations/, not by this adapter.
func NewPostgresStore(ctx context.Context, dsn string) (Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &sqlStore{db: db, dialect: postgresDialect{}}, nil
}
