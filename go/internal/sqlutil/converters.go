package sqlutil

import (
	"database/sql"
	"time"
)

// FromSqlTime converts sql.NullTime to a Go time pointer, in UTC.
func FromSqlTime(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	t := val.Time.UTC()
	return &t
}
