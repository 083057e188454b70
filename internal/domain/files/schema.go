package files

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// maxTextLen coincide con VARCHAR(255) en schema.sql.
const maxTextLen = 255

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldCount
	FieldGender
)

// Field describe un campo propio de la categoría.
// Name es la key JSON; Column la columna en Postgres.
type Field struct {
	Name   string
	Column string
	Kind   FieldKind
}

const (
	ColumnID               = "id"
	ColumnRegistrationDate = "registrationdate"
	ColumnExpiryDate       = "expirydate"

	KeyRegistrationDate = "registrationDate"
	KeyExpiryDate       = "expiryDate"
)

// Schema parametriza el store genérico: tabla, prefijo de id, horizonte de
// vencimiento por defecto y campos.
type Schema struct {
	Category     Category
	Table        string
	Prefix       string
	HorizonYears int
	Fields       []Field
}

var (
	PersonalSchema = Schema{
		Category:     CategoryPersonal,
		Table:        "personal_files",
		Prefix:       "SJMC",
		HorizonYears: 1,
		Fields: []Field{
			{Name: "name", Column: "name", Kind: FieldText},
			{Name: "age", Column: "age", Kind: FieldCount},
			{Name: "gender", Column: "gender", Kind: FieldGender},
		},
	}

	FamilySchema = Schema{
		Category:     CategoryFamily,
		Table:        "family_files",
		Prefix:       "FAM",
		HorizonYears: 2,
		Fields: []Field{
			{Name: "headName", Column: "headname", Kind: FieldText},
			{Name: "memberCount", Column: "membercount", Kind: FieldCount},
		},
	}

	ReferralSchema = Schema{
		Category:     CategoryReferral,
		Table:        "referral_files",
		Prefix:       "REF",
		HorizonYears: 5,
		Fields: []Field{
			{Name: "referralName", Column: "referralname", Kind: FieldText},
			{Name: "patientCount", Column: "patientcount", Kind: FieldCount},
		},
	}

	EmergencySchema = Schema{
		Category:     CategoryEmergency,
		Table:        "emergency_files",
		Prefix:       "EMG",
		HorizonYears: 1,
		Fields: []Field{
			{Name: "name", Column: "name", Kind: FieldText},
			{Name: "age", Column: "age", Kind: FieldCount},
			{Name: "gender", Column: "gender", Kind: FieldGender},
		},
	}
)

// Schemas devuelve las cuatro categorías en orden estable.
func Schemas() []Schema {
	return []Schema{PersonalSchema, FamilySchema, ReferralSchema, EmergencySchema}
}

func SchemaFor(c Category) (Schema, bool) {
	for _, s := range Schemas() {
		if s.Category == c {
			return s, true
		}
	}
	return Schema{}, false
}

func (s Schema) Expiry(registration time.Time) time.Time {
	return registration.AddDate(s.HorizonYears, 0, 0)
}

// Columns devuelve id, campos de categoría y fechas, en el orden usado por los repos SQL.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s.Fields)+3)
	cols = append(cols, ColumnID)
	for _, f := range s.Fields {
		cols = append(cols, f.Column)
	}
	return append(cols, ColumnRegistrationDate, ColumnExpiryDate)
}

// DecodeInput convierte el body JSON en Input. Sólo tipa y normaliza; las
// reglas de requerido/no vacío las aplica el Service. Keys desconocidas
// (id, status, etc. que reenvía la UI) se ignoran; null equivale a ausente.
func (s Schema) DecodeInput(raw map[string]json.RawMessage) (Input, error) {
	in := Input{Values: map[string]any{}}

	for _, f := range s.Fields {
		v, ok := raw[f.Name]
		if !ok || isNull(v) {
			continue
		}
		val, err := decodeField(f, v)
		if err != nil {
			return Input{}, err
		}
		in.Values[f.Name] = val
	}

	var err error
	if in.RegistrationDate, err = decodeDate(KeyRegistrationDate, raw); err != nil {
		return Input{}, err
	}
	if in.ExpiryDate, err = decodeDate(KeyExpiryDate, raw); err != nil {
		return Input{}, err
	}
	return in, nil
}

func decodeField(f Field, v json.RawMessage) (any, error) {
	switch f.Kind {
	case FieldCount:
		n, ok := parseCount(v)
		if !ok {
			return nil, &ValidationError{Field: f.Name, Reason: "must be a non-negative integer"}
		}
		return n, nil
	case FieldGender:
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return nil, &ValidationError{Field: f.Name, Reason: "must be one of Male, Female, Other"}
		}
		g, ok := ParseGender(str)
		if !ok {
			return nil, &ValidationError{Field: f.Name, Reason: "must be one of Male, Female, Other"}
		}
		return string(g), nil
	default:
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return nil, &ValidationError{Field: f.Name, Reason: "must be a string"}
		}
		str = strings.TrimSpace(str)
		if utf8.RuneCountInString(str) > maxTextLen {
			return nil, &ValidationError{Field: f.Name, Reason: fmt.Sprintf("must be at most %d characters", maxTextLen)}
		}
		return str, nil
	}
}

// parseCount acepta 30, 30.0 y "30" (los forms de la UI mandan strings).
func parseCount(v json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return 0, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil || n < 0 || n > math.MaxInt32 {
			return 0, false
		}
		return n, true
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func decodeDate(key string, raw map[string]json.RawMessage) (*time.Time, error) {
	v, ok := raw[key]
	if !ok || isNull(v) {
		return nil, nil
	}
	var str string
	if err := json.Unmarshal(v, &str); err != nil {
		return nil, &ValidationError{Field: key, Reason: "must be an ISO-8601 date"}
	}
	t, err := ParseDate(str)
	if err != nil {
		return nil, &ValidationError{Field: key, Reason: "must be an ISO-8601 date"}
	}
	return &t, nil
}

// ParseDate acepta RFC3339 o YYYY-MM-DD. Normaliza a UTC con precisión de
// microsegundos (la de timestamp en Postgres).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, err
		}
	}
	return normalizeTime(t), nil
}

func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || string(bytes.TrimSpace(v)) == "null"
}
