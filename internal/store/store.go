// Package store persists inventory data to Postgres via pgx.
//
// The schema mirrors the collections the browser app works with: general
// assets (activos), EPI assets (activos_epi), lookup categories
// (categorias) and the audit log (registro_auditoria). All write
// operations are single-row inserts or updates; the import pipeline
// relies on that for its per-row error handling.
package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Category is a name-keyed lookup value.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

// AssetParams are the columns written when inserting or updating an asset.
// Optional columns use pgtype values so absent CSV fields become NULLs.
type AssetParams struct {
	Name          string
	Code          pgtype.Text
	Category      pgtype.Text
	Brand         pgtype.Text
	Model         pgtype.Text
	Serial        pgtype.Text
	Location      pgtype.Text
	Status        string
	AssignedTo    pgtype.Text
	Supplier      pgtype.Text
	Quantity      int
	PrecioCompra  pgtype.Numeric
	FechaCompra   pgtype.Date
	FechaGarantia pgtype.Date
	MaintFreq     pgtype.Int4
	Description   pgtype.Text
	Notes         pgtype.Text
	ImageURL      pgtype.Text
}

// EPIAssetParams are the columns for the personal-protective-equipment
// collection. Code is always populated; the importer generates one when
// the source row carries none.
type EPIAssetParams struct {
	Asset AssetParams
	Code  string
}

// Asset is a persisted asset row.
type Asset struct {
	ID            string
	Name          string
	Code          pgtype.Text
	Category      pgtype.Text
	Brand         pgtype.Text
	Model         pgtype.Text
	Serial        pgtype.Text
	Location      pgtype.Text
	Status        string
	AssignedTo    pgtype.Text
	Supplier      pgtype.Text
	Quantity      int
	PrecioCompra  pgtype.Numeric
	FechaCompra   pgtype.Date
	FechaGarantia pgtype.Date
	MaintFreq     pgtype.Int4
	Description   pgtype.Text
	Notes         pgtype.Text
	ImageURL      pgtype.Text
	CreatedAt     time.Time
}

// AuditEntryParams describe one audit log entry.
type AuditEntryParams struct {
	Action       string
	UserEmail    string
	Details      []byte // JSON payload, may be nil
	RowsAffected int
}

// Conversion helpers between Go values and pgtype columns.

// TextOrNull returns a pgtype.Text that is NULL for empty or
// whitespace-only input.
func TextOrNull(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// DateValue wraps a calendar date; the zero time becomes NULL.
func DateValue(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// NumericFromFloat converts a float into a pgtype.Numeric.
func NumericFromFloat(f float64) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(strconv.FormatFloat(f, 'f', -1, 64)); err != nil {
		return pgtype.Numeric{}
	}
	return n
}

// Int4OrNull returns a pgtype.Int4 that is NULL for zero input.
func Int4OrNull(i int) pgtype.Int4 {
	if i == 0 {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(i), Valid: true}
}

// UUIDString converts a pgtype.UUID to its string form, or "" if NULL.
func UUIDString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
