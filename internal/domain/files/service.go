package files

import (
	"context"
	"errors"
	"strings"
	"time"
)

// maxIDAttempts acota la regeneración de id ante colisión de PK.
const maxIDAttempts = 3

type Service struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
	newID    func(prefix string) string
}

func NewService(repo Repository, notifier Notifier) *Service {
	if notifier == nil {
		notifier = Notifiers(nil)
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
		newID:    NewID,
	}
}

func (s *Service) schema(c Category) (Schema, error) {
	sch, ok := SchemaFor(c)
	if !ok {
		return Schema{}, &ValidationError{Field: "category", Reason: "is unknown"}
	}
	return sch, nil
}

// List devuelve todos los expedientes de la categoría, más recientes primero.
func (s *Service) List(ctx context.Context, c Category) ([]File, error) {
	sch, err := s.schema(c)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, sch)
	if err != nil {
		return nil, &StorageError{Op: "list", Category: c, Err: err}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, c Category, id string) (File, error) {
	sch, err := s.schema(c)
	if err != nil {
		return File{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return File{}, ErrNotFound
	}
	f, err := s.repo.GetByID(ctx, sch, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return File{}, ErrNotFound
		}
		return File{}, &StorageError{Op: "get", Category: c, Err: err}
	}
	return f, nil
}

// Create valida antes de tocar la base, asigna id y completa las fechas que
// no vinieron: registrationDate = now, expiryDate = registrationDate + horizonte.
func (s *Service) Create(ctx context.Context, c Category, in Input) (File, error) {
	sch, err := s.schema(c)
	if err != nil {
		return File{}, err
	}
	if err := validateRequired(sch, in); err != nil {
		return File{}, err
	}

	reg := normalizeTime(s.now())
	if in.RegistrationDate != nil {
		reg = *in.RegistrationDate
	}
	exp := sch.Expiry(reg)
	if in.ExpiryDate != nil {
		exp = *in.ExpiryDate
	}
	if exp.Before(reg) {
		return File{}, errDateOrder()
	}

	f := File{
		Category:         c,
		Values:           make(map[string]any, len(sch.Fields)),
		RegistrationDate: reg,
		ExpiryDate:       exp,
	}
	for _, fld := range sch.Fields {
		f.Values[fld.Name] = in.Values[fld.Name]
	}

	for attempt := 1; ; attempt++ {
		f.ID = s.newID(sch.Prefix)
		err = s.repo.Create(ctx, sch, f)
		if err == nil {
			break
		}
		if errors.Is(err, ErrConflict) && attempt < maxIDAttempts {
			continue
		}
		return File{}, &StorageError{Op: "create", Category: c, Err: err}
	}

	s.notify(ctx, ChangeCreated, c, f.ID, &f)
	return f, nil
}

// Update aplica un patch parcial: lo ausente no se toca. Un patch vacío es
// no-op y devuelve el registro actual. ErrNotFound si el id no existe.
func (s *Service) Update(ctx context.Context, c Category, id string, in Input) (File, error) {
	sch, err := s.schema(c)
	if err != nil {
		return File{}, err
	}
	if err := validatePatch(sch, in); err != nil {
		return File{}, err
	}

	current, err := s.Get(ctx, c, id)
	if err != nil {
		return File{}, err
	}
	if in.Empty() {
		return current, nil
	}

	merged := current.Apply(in)
	if merged.ExpiryDate.Before(merged.RegistrationDate) {
		return File{}, errDateOrder()
	}

	updated, err := s.repo.Update(ctx, sch, current.ID, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// borrado entre la lectura y el update
			return File{}, ErrNotFound
		}
		return File{}, &StorageError{Op: "update", Category: c, Err: err}
	}

	s.notify(ctx, ChangeUpdated, c, updated.ID, &updated)
	return updated, nil
}

// Delete devuelve si se borró algo. Borrar un id inexistente no es error.
func (s *Service) Delete(ctx context.Context, c Category, id string) (bool, error) {
	sch, err := s.schema(c)
	if err != nil {
		return false, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false, nil
	}
	removed, err := s.repo.Delete(ctx, sch, id)
	if err != nil {
		return false, &StorageError{Op: "delete", Category: c, Err: err}
	}
	if removed {
		s.notify(ctx, ChangeDeleted, c, id, nil)
	}
	return removed, nil
}

func (s *Service) notify(ctx context.Context, kind ChangeKind, c Category, id string, f *File) {
	s.notifier.FileChanged(ctx, Change{
		Kind:     kind,
		Category: c,
		ID:       id,
		At:       s.now(),
		File:     f,
	})
}

func validateRequired(sch Schema, in Input) error {
	var missing []string
	for _, f := range sch.Fields {
		v, ok := in.Values[f.Name]
		if !ok || isBlank(f, v) {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Reason: "missing required fields: " + strings.Join(missing, ", ")}
	}
	return nil
}

func validatePatch(sch Schema, in Input) error {
	for _, f := range sch.Fields {
		v, ok := in.Values[f.Name]
		if ok && isBlank(f, v) {
			return &ValidationError{Field: f.Name, Reason: "must not be empty"}
		}
	}
	return nil
}

// isBlank: sólo los textos pueden quedar vacíos tras el trim; 0 es un count válido.
func isBlank(f Field, v any) bool {
	if f.Kind == FieldCount {
		return false
	}
	s, ok := v.(string)
	return !ok || strings.TrimSpace(s) == ""
}

func errDateOrder() error {
	return &ValidationError{Field: KeyExpiryDate, Reason: "must not be before registrationDate"}
}
