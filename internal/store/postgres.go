package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Postgres implements persistence against a pgx connection or pool.
type Postgres struct {
	db DBTX
}

// New creates a Postgres store on top of the given connection source.
func New(db DBTX) *Postgres {
	return &Postgres{db: db}
}

const assetColumns = `nombre, codigo, categoria, marca, modelo, numero_serie, ubicacion, estado,
	asignado_a, proveedor, cantidad, precio_compra, fecha_compra, fecha_garantia,
	frecuencia_mantenimiento, descripcion, observaciones, imagen_url`

func assetArgs(a AssetParams) []any {
	return []any{
		a.Name, a.Code, a.Category, a.Brand, a.Model, a.Serial, a.Location, a.Status,
		a.AssignedTo, a.Supplier, a.Quantity, a.PrecioCompra, a.FechaCompra, a.FechaGarantia,
		a.MaintFreq, a.Description, a.Notes, a.ImageURL,
	}
}

// InsertAsset inserts one row into the general assets collection and
// returns the generated id.
func (p *Postgres) InsertAsset(ctx context.Context, a AssetParams) (string, error) {
	q := `INSERT INTO activos (` + assetColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id`

	var id pgtype.UUID
	if err := p.db.QueryRow(ctx, q, assetArgs(a)...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert asset: %w", err)
	}
	return UUIDString(id), nil
}

// InsertEPIAsset inserts one row into the EPI collection.
func (p *Postgres) InsertEPIAsset(ctx context.Context, e EPIAssetParams) (string, error) {
	q := `INSERT INTO activos_epi (codigo_epi, ` + assetColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING id`

	args := append([]any{e.Code}, assetArgs(e.Asset)...)
	var id pgtype.UUID
	if err := p.db.QueryRow(ctx, q, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert epi asset: %w", err)
	}
	return UUIDString(id), nil
}

// ListCategories returns every category ordered by name.
func (p *Postgres) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := p.db.Query(ctx, `SELECT id, nombre FROM categorias ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var id pgtype.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, Category{ID: UUIDString(id), Name: name})
	}
	return cats, rows.Err()
}

// CreateCategory inserts a category preserving the given casing.
// Case-insensitive duplicate avoidance is the caller's responsibility
// (the import pipeline checks its cache before calling this).
func (p *Postgres) CreateCategory(ctx context.Context, name string) (Category, error) {
	var id pgtype.UUID
	err := p.db.QueryRow(ctx,
		`INSERT INTO categorias (nombre) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return Category{}, fmt.Errorf("create category %q: %w", name, err)
	}
	return Category{ID: UUIDString(id), Name: name}, nil
}

// InsertAuditEntry records one audit log row.
func (p *Postgres) InsertAuditEntry(ctx context.Context, e AuditEntryParams) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO registro_auditoria (accion, usuario, detalles, filas_afectadas)
		 VALUES ($1,$2,$3,$4)`,
		e.Action, TextOrNull(e.UserEmail), e.Details, e.RowsAffected)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// FilterOperator is a comparison operator for asset list filters.
type FilterOperator string

const (
	OpEquals    FilterOperator = "eq"
	OpGreaterEq FilterOperator = "gte"
	OpLessEq    FilterOperator = "lte"
	OpMatches   FilterOperator = "like" // case-insensitive substring match
)

// Filter is one predicate on an asset column. Filters combine with AND.
type Filter struct {
	Column string
	Op     FilterOperator
	Value  string
}

// ListQuery shapes an asset listing: predicates, ordering and paging.
type ListQuery struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
	Offset     int
}

// listableColumns whitelists filterable/sortable columns to their SQL names.
var listableColumns = map[string]string{
	"nombre":        "nombre",
	"codigo":        "codigo",
	"categoria":     "categoria",
	"marca":         "marca",
	"modelo":        "modelo",
	"ubicacion":     "ubicacion",
	"estado":        "estado",
	"asignado_a":    "asignado_a",
	"proveedor":     "proveedor",
	"cantidad":      "cantidad",
	"precio_compra": "precio_compra",
	"fecha_compra":  "fecha_compra",
	"created_at":    "created_at",
}

// buildWhere renders the WHERE clause for a filter set.
// Column names go through the whitelist; values are always bind parameters.
func buildWhere(filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	var conds []string
	var args []any
	for _, f := range filters {
		col, ok := listableColumns[f.Column]
		if !ok {
			return "", nil, fmt.Errorf("unknown filter column %q", f.Column)
		}
		args = append(args, f.Value)
		n := len(args)
		switch f.Op {
		case OpEquals:
			conds = append(conds, fmt.Sprintf("%s = $%d", col, n))
		case OpGreaterEq:
			conds = append(conds, fmt.Sprintf("%s >= $%d", col, n))
		case OpLessEq:
			conds = append(conds, fmt.Sprintf("%s <= $%d", col, n))
		case OpMatches:
			args[n-1] = "%" + f.Value + "%"
			conds = append(conds, fmt.Sprintf("%s ILIKE $%d", col, n))
		default:
			return "", nil, fmt.Errorf("unknown filter operator %q", f.Op)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

const assetSelect = `SELECT id, ` + assetColumns + `, created_at FROM activos`

// ListAssets returns assets matching the query.
func (p *Postgres) ListAssets(ctx context.Context, q ListQuery) ([]Asset, error) {
	where, args, err := buildWhere(q.Filters)
	if err != nil {
		return nil, err
	}

	sql := assetSelect + where

	order := "created_at"
	if q.OrderBy != "" {
		col, ok := listableColumns[q.OrderBy]
		if !ok {
			return nil, fmt.Errorf("unknown order column %q", q.OrderBy)
		}
		order = col
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}
	sql += fmt.Sprintf(" ORDER BY %s %s", order, dir)

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// CountAssets returns how many assets match the filters.
func (p *Postgres) CountAssets(ctx context.Context, filters []Filter) (int64, error) {
	where, args, err := buildWhere(filters)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := p.db.QueryRow(ctx, `SELECT count(*) FROM activos`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}
	return count, nil
}

// GetAsset fetches one asset by id.
func (p *Postgres) GetAsset(ctx context.Context, id string) (Asset, error) {
	rows, err := p.db.Query(ctx, assetSelect+` WHERE id = $1`, id)
	if err != nil {
		return Asset{}, fmt.Errorf("get asset: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Asset{}, fmt.Errorf("get asset: %w", err)
		}
		return Asset{}, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return scanAsset(rows)
}

// UpdateAsset replaces every column of an existing asset.
func (p *Postgres) UpdateAsset(ctx context.Context, id string, a AssetParams) error {
	q := `UPDATE activos SET
		nombre=$1, codigo=$2, categoria=$3, marca=$4, modelo=$5, numero_serie=$6,
		ubicacion=$7, estado=$8, asignado_a=$9, proveedor=$10, cantidad=$11,
		precio_compra=$12, fecha_compra=$13, fecha_garantia=$14,
		frecuencia_mantenimiento=$15, descripcion=$16, observaciones=$17, imagen_url=$18
		WHERE id=$19`

	tag, err := p.db.Exec(ctx, q, append(assetArgs(a), id)...)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteAsset removes one asset by id.
func (p *Postgres) DeleteAsset(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM activos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (Asset, error) {
	var a Asset
	var id pgtype.UUID
	err := row.Scan(&id, &a.Name, &a.Code, &a.Category, &a.Brand, &a.Model, &a.Serial,
		&a.Location, &a.Status, &a.AssignedTo, &a.Supplier, &a.Quantity, &a.PrecioCompra,
		&a.FechaCompra, &a.FechaGarantia, &a.MaintFreq, &a.Description, &a.Notes,
		&a.ImageURL, &a.CreatedAt)
	if err != nil {
		return Asset{}, fmt.Errorf("scan asset: %w", err)
	}
	a.ID = UUIDString(id)
	return a, nil
}
