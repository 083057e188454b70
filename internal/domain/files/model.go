package files

import (
	"strings"
	"time"
)

// Category identifica el tipo de expediente.
// @Enum personal, family, referral, emergency
type Category string

const (
	CategoryPersonal  Category = "personal"
	CategoryFamily    Category = "family"
	CategoryReferral  Category = "referral"
	CategoryEmergency Category = "emergency"
)

// Gender aplica a expedientes personales y de emergencia.
// @Enum Male, Female, Other
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// ParseGender es case-insensitive y devuelve la forma canónica.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return GenderMale, true
	case "female":
		return GenderFemale, true
	case "other":
		return GenderOther, true
	default:
		return "", false
	}
}

// Status es derivado, nunca se persiste.
// @Enum Active, Expired
type Status string

const (
	StatusActive  Status = "Active"
	StatusExpired Status = "Expired"
)

// File es un expediente de cualquier categoría. Los campos propios de la
// categoría viven en Values, indexados por Field.Name del Schema:
// FieldText/FieldGender => string, FieldCount => int.
type File struct {
	ID       string
	Category Category

	Values map[string]any

	RegistrationDate time.Time
	ExpiryDate       time.Time
}

func (f File) Text(name string) string {
	s, _ := f.Values[name].(string)
	return s
}

func (f File) Count(name string) int {
	n, _ := f.Values[name].(int)
	return n
}

// Status: Active si now < expiryDate, si no Expired.
func (f File) Status(now time.Time) Status {
	if now.Before(f.ExpiryDate) {
		return StatusActive
	}
	return StatusExpired
}

// Apply devuelve una copia con los campos presentes en in sobrescritos.
func (f File) Apply(in Input) File {
	out := f.clone()
	for k, v := range in.Values {
		out.Values[k] = v
	}
	if in.RegistrationDate != nil {
		out.RegistrationDate = *in.RegistrationDate
	}
	if in.ExpiryDate != nil {
		out.ExpiryDate = *in.ExpiryDate
	}
	return out
}

func (f File) clone() File {
	out := f
	out.Values = make(map[string]any, len(f.Values))
	for k, v := range f.Values {
		out.Values[k] = v
	}
	return out
}

// Input es el payload de create/update ya decodificado: sólo trae los campos
// que vinieron en el request (ausente != vacío).
type Input struct {
	Values           map[string]any
	RegistrationDate *time.Time
	ExpiryDate       *time.Time
}

func (in Input) Empty() bool {
	return len(in.Values) == 0 && in.RegistrationDate == nil && in.ExpiryDate == nil
}

type CategoryStats struct {
	Total   int `json:"total"`
	Weekly  int `json:"weekly"`
	Expired int `json:"expired"`
	Active  int `json:"active"`
}

type DashboardStats struct {
	Personal  CategoryStats `json:"personal"`
	Family    CategoryStats `json:"family"`
	Referral  CategoryStats `json:"referral"`
	Emergency CategoryStats `json:"emergency"`
}

// StatsWindow fija "ahora" y el inicio de la ventana semanal para que todas
// las categorías se cuenten contra el mismo instante.
type StatsWindow struct {
	Since time.Time
	Now   time.Time
}
