package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorDump is the loggable breakdown of a failure: the coded top-level
// error, the unwrap chain, and postgres driver detail when one is involved.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// Dump flattens err for structured logging.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.attachPG(err)
	return d
}

// attachPG lifts driver detail into the dump. Database access goes through
// gorm's pgx-backed driver, so pgconn is the only error shape to unwrap.
func (d *ErrorDump) attachPG(err error) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return
	}
	d.PGCode = pgErr.Code
	d.PGConstraint = pgErr.ConstraintName
	d.PGTable = pgErr.TableName
	d.PGColumn = pgErr.ColumnName
	d.PGDetail = pgErr.Detail
	d.PGMessage = pgErr.Message
}
