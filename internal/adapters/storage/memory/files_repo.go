package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"sjmc-records/internal/domain/files"
)

// filesRepo guarda las cuatro categorías en un único mapa protegido por un
// RWMutex, así Stats cuenta todo bajo el mismo lock (snapshot consistente).
type filesRepo struct {
	mu    sync.RWMutex
	byCat map[files.Category]map[string]files.File
}

func NewFilesRepo() files.Repository {
	return &filesRepo{
		byCat: make(map[files.Category]map[string]files.File),
	}
}

func (r *filesRepo) table(c files.Category) map[string]files.File {
	t, ok := r.byCat[c]
	if !ok {
		t = make(map[string]files.File)
		r.byCat[c] = t
	}
	return t
}

func (r *filesRepo) List(ctx context.Context, s files.Schema) ([]files.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]files.File, 0, len(r.byCat[s.Category]))
	for _, f := range r.byCat[s.Category] {
		out = append(out, f.Apply(files.Input{}))
	}

	// registrationDate desc; id como desempate para que el orden sea estable
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegistrationDate.Equal(out[j].RegistrationDate) {
			return out[i].RegistrationDate.After(out[j].RegistrationDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *filesRepo) GetByID(ctx context.Context, s files.Schema, id string) (files.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byCat[s.Category][id]
	if !ok {
		return files.File{}, files.ErrNotFound
	}
	return f.Apply(files.Input{}), nil
}

func (r *filesRepo) Create(ctx context.Context, s files.Schema, f files.File) error {
	if strings.TrimSpace(f.ID) == "" {
		return errIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.table(s.Category)
	if _, exists := t[f.ID]; exists {
		return files.ErrConflict
	}
	f.Category = s.Category
	t[f.ID] = f.Apply(files.Input{})
	return nil
}

func (r *filesRepo) Update(ctx context.Context, s files.Schema, id string, in files.Input) (files.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.table(s.Category)
	cur, ok := t[id]
	if !ok {
		return files.File{}, files.ErrNotFound
	}
	next := cur.Apply(in)
	t[id] = next
	return next.Apply(files.Input{}), nil
}

func (r *filesRepo) Delete(ctx context.Context, s files.Schema, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.byCat[s.Category]
	if _, ok := t[id]; !ok {
		return false, nil
	}
	delete(t, id)
	return true, nil
}

func (r *filesRepo) Stats(ctx context.Context, schemas []files.Schema, w files.StatsWindow) (map[files.Category]files.CategoryStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[files.Category]files.CategoryStats, len(schemas))
	for _, s := range schemas {
		var st files.CategoryStats
		for _, f := range r.byCat[s.Category] {
			files.Tally(&st, f, w)
		}
		out[s.Category] = st
	}
	return out, nil
}
