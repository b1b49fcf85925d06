package store

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name     string
		filters  []Filter
		wantSQL  string
		wantArgs []any
		wantErr  bool
	}{
		{
			name: "no filters",
		},
		{
			name:     "equality",
			filters:  []Filter{{Column: "estado", Op: OpEquals, Value: "Activo"}},
			wantSQL:  " WHERE estado = $1",
			wantArgs: []any{"Activo"},
		},
		{
			name: "combined with AND in order",
			filters: []Filter{
				{Column: "categoria", Op: OpEquals, Value: "Informática"},
				{Column: "precio_compra", Op: OpGreaterEq, Value: "100"},
				{Column: "precio_compra", Op: OpLessEq, Value: "500"},
			},
			wantSQL:  " WHERE categoria = $1 AND precio_compra >= $2 AND precio_compra <= $3",
			wantArgs: []any{"Informática", "100", "500"},
		},
		{
			name:     "substring match wraps value",
			filters:  []Filter{{Column: "nombre", Op: OpMatches, Value: "taladro"}},
			wantSQL:  " WHERE nombre ILIKE $1",
			wantArgs: []any{"%taladro%"},
		},
		{
			name:    "unknown column rejected",
			filters: []Filter{{Column: "id; DROP TABLE activos", Op: OpEquals, Value: "x"}},
			wantErr: true,
		},
		{
			name:    "unknown operator rejected",
			filters: []Filter{{Column: "estado", Op: "neq", Value: "x"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildWhere(tt.filters)
			if tt.wantErr {
				if err == nil {
					t.Fatal("buildWhere() = nil error, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildWhere() error = %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("sql = %q, want %q", sql, tt.wantSQL)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestListableColumnsAreWhitelisted(t *testing.T) {
	for key, col := range listableColumns {
		if strings.ContainsAny(col, " ;'\"") {
			t.Errorf("column %q maps to unsafe SQL name %q", key, col)
		}
	}
}

func TestTextOrNull(t *testing.T) {
	if v := TextOrNull("  "); v.Valid {
		t.Errorf("TextOrNull(blank) = %+v, want NULL", v)
	}
	if v := TextOrNull(" Bosch "); !v.Valid || v.String != "Bosch" {
		t.Errorf("TextOrNull = %+v, want trimmed valid", v)
	}
}

func TestDateValue(t *testing.T) {
	if v := DateValue(time.Time{}); v.Valid {
		t.Errorf("DateValue(zero) = %+v, want NULL", v)
	}
	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if v := DateValue(d); !v.Valid || !v.Time.Equal(d) {
		t.Errorf("DateValue = %+v", v)
	}
}

func TestNumericFromFloat(t *testing.T) {
	n := NumericFromFloat(12.5)
	if !n.Valid {
		t.Fatal("NumericFromFloat(12.5) invalid")
	}
	f, err := n.Float64Value()
	if err != nil || f.Float64 != 12.5 {
		t.Errorf("round trip = %v, %v", f, err)
	}
}

func TestInt4OrNull(t *testing.T) {
	if v := Int4OrNull(0); v.Valid {
		t.Errorf("Int4OrNull(0) = %+v, want NULL", v)
	}
	if v := Int4OrNull(90); !v.Valid || v.Int32 != 90 {
		t.Errorf("Int4OrNull(90) = %+v", v)
	}
}

func TestUUIDString(t *testing.T) {
	if got := UUIDString(pgtype.UUID{}); got != "" {
		t.Errorf("UUIDString(NULL) = %q, want empty", got)
	}

	u := pgtype.UUID{Valid: true}
	copy(u.Bytes[:], []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 0x00})
	if got := UUIDString(u); got != "11223344-5566-7788-99aa-bbccddeeff00" {
		t.Errorf("UUIDString = %q", got)
	}
}
