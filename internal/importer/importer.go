package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invenlab/activos/internal/logging"
	"github.com/invenlab/activos/internal/store"
)

// Store is the persistence surface the importer needs. *store.Postgres
// satisfies it; tests substitute a recording fake.
type Store interface {
	InsertAsset(ctx context.Context, a store.AssetParams) (string, error)
	InsertEPIAsset(ctx context.Context, e store.EPIAssetParams) (string, error)
	CreateCategory(ctx context.Context, name string) (store.Category, error)
	ListCategories(ctx context.Context) ([]store.Category, error)
	InsertAuditEntry(ctx context.Context, e store.AuditEntryParams) error
}

const (
	// DefaultBatchSize is the number of rows per batch. Batching is a
	// chunking convention only: rows are still persisted one at a time,
	// with no batch-level atomicity or rollback.
	DefaultBatchSize = 50

	// DefaultStatus is assigned when a row maps no status value.
	DefaultStatus = "Activo"

	epiCategory   = "epi"
	epiCodePrefix = "EPI-"
)

// ImportedRow records one successfully persisted row.
type ImportedRow struct {
	Line       int    `json:"fila"`
	ID         string `json:"id"`
	Collection string `json:"coleccion"`
}

// FailedRow records one row whose persistence call failed.
type FailedRow struct {
	Line   int    `json:"fila"`
	Reason string `json:"error"`
}

// Result aggregates an import run. It is built incrementally during the
// run and immutable once Run returns.
type Result struct {
	RunID      string        `json:"runId"`
	Total      int           `json:"total"`
	Imported   []ImportedRow `json:"importados"`
	Failed     []FailedRow   `json:"fallidos"`
	Status     string        `json:"estado"` // "success" or "partial"
	DurationMS int64         `json:"duracionMs"`
}

// Importer persists validated rows in fixed-size batches.
type Importer struct {
	store     Store
	batchSize int
}

// New creates an Importer. batchSize <= 0 selects DefaultBatchSize.
func New(st Store, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{store: st, batchSize: batchSize}
}

// NewRunCache fetches the current category list and builds the per-run
// cache the validator and Run consume.
func (imp *Importer) NewRunCache(ctx context.Context) (*CategoryCache, error) {
	cats, err := imp.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return NewCategoryCache(cats), nil
}

// Run persists every validated row and returns the aggregated result.
//
// Rows are processed strictly in order, one insert at a time; one row's
// failure is recorded and never aborts the batch or the run. Categories
// referenced by a row but missing from the cache are created before the
// row is inserted, and the cache is updated so later rows in the same
// run do not re-create them. A final audit entry summarizes the run; a
// failure to write it is logged and otherwise ignored.
func (imp *Importer) Run(ctx context.Context, rows []ValidatedRow, mapping FieldMapping, cats *CategoryCache, userEmail string) Result {
	start := time.Now()
	res := Result{RunID: uuid.NewString(), Total: len(rows)}
	log := logging.WithFields(ctx, "run_id", res.RunID, "rows", len(rows))

	for begin := 0; begin < len(rows); begin += imp.batchSize {
		end := min(begin+imp.batchSize, len(rows))
		for _, row := range rows[begin:end] {
			imported, err := imp.importRow(ctx, row, mapping, cats)
			if err != nil {
				res.Failed = append(res.Failed, FailedRow{Line: row.Line, Reason: err.Error()})
				continue
			}
			res.Imported = append(res.Imported, imported)
		}
	}

	res.Status = "success"
	if len(res.Failed) > 0 {
		res.Status = "partial"
	}
	res.DurationMS = time.Since(start).Milliseconds()

	imp.writeAudit(ctx, res, userEmail)

	log.Info("import run finished",
		"status", res.Status,
		"imported", len(res.Imported),
		"failed", len(res.Failed),
		"duration_ms", res.DurationMS,
	)
	return res
}

func (imp *Importer) importRow(ctx context.Context, row ValidatedRow, mapping FieldMapping, cats *CategoryCache) (ImportedRow, error) {
	rec := buildRecord(row, mapping)

	if rec.Category.Valid {
		if err := imp.ensureCategory(ctx, cats, rec.Category.String); err != nil {
			return ImportedRow{}, err
		}
	}

	if rec.Category.Valid && strings.EqualFold(rec.Category.String, epiCategory) {
		code := rec.Code.String
		if code == "" {
			code = generateEPICode()
		}
		id, err := imp.store.InsertEPIAsset(ctx, store.EPIAssetParams{Asset: rec, Code: code})
		if err != nil {
			return ImportedRow{}, err
		}
		return ImportedRow{Line: row.Line, ID: id, Collection: "activos_epi"}, nil
	}

	id, err := imp.store.InsertAsset(ctx, rec)
	if err != nil {
		return ImportedRow{}, err
	}
	return ImportedRow{Line: row.Line, ID: id, Collection: "activos"}, nil
}

// ensureCategory creates the category when the cache does not know it,
// then refreshes the cache so the rest of the run sees it.
func (imp *Importer) ensureCategory(ctx context.Context, cats *CategoryCache, name string) error {
	if cats.Contains(name) {
		return nil
	}
	cat, err := imp.store.CreateCategory(ctx, name)
	if err != nil {
		return fmt.Errorf("crear categoría %q: %w", name, err)
	}
	cats.Add(cat)
	return nil
}

// buildRecord applies the mapping to one validated row, producing the
// typed insert parameters. Only fields with a non-empty mapped value are
// set; the validator has already rejected unparsable values, so a parse
// miss here silently coerces to NULL.
func buildRecord(row ValidatedRow, mapping FieldMapping) store.AssetParams {
	var rec store.AssetParams

	for _, f := range catalog {
		header := mapping.Header(f.Name)
		if header == "" {
			continue
		}
		v := strings.TrimSpace(row.Values[header])
		if v == "" {
			continue
		}

		switch f.Name {
		case "name":
			rec.Name = v
		case "codigo":
			rec.Code = store.TextOrNull(v)
		case "category":
			rec.Category = store.TextOrNull(v)
		case "brand":
			rec.Brand = store.TextOrNull(v)
		case "model":
			rec.Model = store.TextOrNull(v)
		case "serial":
			rec.Serial = store.TextOrNull(v)
		case "location":
			rec.Location = store.TextOrNull(v)
		case "status":
			rec.Status = v
		case "assigned_to":
			rec.AssignedTo = store.TextOrNull(v)
		case "supplier":
			rec.Supplier = store.TextOrNull(v)
		case "quantity":
			if n, ok := ParseInt(v); ok {
				rec.Quantity = n
			}
		case "precio_compra":
			if d, ok := ParseDecimal(v); ok {
				rec.PrecioCompra = store.NumericFromFloat(d)
			}
		case "fecha_compra":
			if t, ok := ParseDate(v); ok {
				rec.FechaCompra = store.DateValue(t)
			}
		case "fecha_garantia":
			if t, ok := ParseDate(v); ok {
				rec.FechaGarantia = store.DateValue(t)
			}
		case "maintenance_frequency":
			if n, ok := ParseInt(v); ok {
				rec.MaintFreq = store.Int4OrNull(n)
			}
		case "description":
			rec.Description = store.TextOrNull(v)
		case "notes":
			rec.Notes = store.TextOrNull(v)
		}
	}

	if rec.Status == "" {
		rec.Status = DefaultStatus
	}
	if rec.Quantity == 0 {
		rec.Quantity = 1
	}
	return rec
}

// generateEPICode produces a unique code for EPI rows imported without one.
func generateEPICode() string {
	return epiCodePrefix + strings.ToUpper(uuid.NewString()[:8])
}

func (imp *Importer) writeAudit(ctx context.Context, res Result, userEmail string) {
	details, err := json.Marshal(map[string]any{
		"runId":      res.RunID,
		"importados": len(res.Imported),
		"fallidos":   len(res.Failed),
	})
	if err != nil {
		details = nil
	}

	err = imp.store.InsertAuditEntry(ctx, store.AuditEntryParams{
		Action:       "import_csv",
		UserEmail:    userEmail,
		Details:      details,
		RowsAffected: len(res.Imported),
	})
	if err != nil {
		// The import outcome never depends on the audit trail.
		logging.FromContext(ctx).Debug("audit entry write failed", "error", err)
	}
}
