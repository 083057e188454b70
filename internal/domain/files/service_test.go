package files

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byCat map[Category]map[string]File

	createCalls int
	failCreate  error
	failStats   error
}

func newTestRepo() *testRepo {
	return &testRepo{byCat: map[Category]map[string]File{}}
}

func (r *testRepo) table(s Schema) map[string]File {
	t, ok := r.byCat[s.Category]
	if !ok {
		t = map[string]File{}
		r.byCat[s.Category] = t
	}
	return t
}

func (r *testRepo) List(ctx context.Context, s Schema) ([]File, error) {
	out := make([]File, 0)
	for _, f := range r.table(s) {
		out = append(out, f.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegistrationDate.After(out[j].RegistrationDate) })
	return out, nil
}

func (r *testRepo) GetByID(ctx context.Context, s Schema, id string) (File, error) {
	f, ok := r.table(s)[id]
	if !ok {
		return File{}, ErrNotFound
	}
	return f.clone(), nil
}

func (r *testRepo) Create(ctx context.Context, s Schema, f File) error {
	r.createCalls++
	if r.failCreate != nil {
		return r.failCreate
	}
	if _, ok := r.table(s)[f.ID]; ok {
		return ErrConflict
	}
	r.table(s)[f.ID] = f.clone()
	return nil
}

func (r *testRepo) Update(ctx context.Context, s Schema, id string, in Input) (File, error) {
	f, ok := r.table(s)[id]
	if !ok {
		return File{}, ErrNotFound
	}
	f = f.Apply(in)
	r.table(s)[id] = f
	return f.clone(), nil
}

func (r *testRepo) Delete(ctx context.Context, s Schema, id string) (bool, error) {
	if _, ok := r.table(s)[id]; !ok {
		return false, nil
	}
	delete(r.table(s), id)
	return true, nil
}

func (r *testRepo) Stats(ctx context.Context, schemas []Schema, w StatsWindow) (map[Category]CategoryStats, error) {
	if r.failStats != nil {
		return nil, r.failStats
	}
	out := map[Category]CategoryStats{}
	for _, s := range schemas {
		var st CategoryStats
		for _, f := range r.table(s) {
			Tally(&st, f, w)
		}
		out[s.Category] = st
	}
	return out, nil
}

type recordedChanges struct {
	items []Change
}

func (r *recordedChanges) FileChanged(ctx context.Context, ch Change) {
	r.items = append(r.items, ch)
}

func newTestService(now time.Time) (*Service, *testRepo, *recordedChanges) {
	repo := newTestRepo()
	rec := &recordedChanges{}
	svc := NewService(repo, rec)
	svc.now = func() time.Time { return now }
	return svc, repo, rec
}

func personalInput(name string, age int, gender string) Input {
	return Input{Values: map[string]any{"name": name, "age": age, "gender": gender}}
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_DefaultDatesPerCategory(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		cat    Category
		in     Input
		prefix string
		years  int
	}{
		{CategoryPersonal, personalInput("John Doe", 30, "Male"), "SJMC-", 1},
		{CategoryFamily, Input{Values: map[string]any{"headName": "Smith", "memberCount": 4}}, "FAM-", 2},
		{CategoryReferral, Input{Values: map[string]any{"referralName": "Clinic A", "patientCount": 12}}, "REF-", 5},
		{CategoryEmergency, personalInput("Jane", 41, "Female"), "EMG-", 1},
	}

	for _, tc := range cases {
		t.Run(string(tc.cat), func(t *testing.T) {
			svc, _, _ := newTestService(now)

			f, err := svc.Create(context.Background(), tc.cat, tc.in)
			if err != nil {
				t.Fatalf("Create returned error: %v", err)
			}
			if !strings.HasPrefix(f.ID, tc.prefix) || len(f.ID) != len(tc.prefix)+idSuffixLen {
				t.Fatalf("unexpected id %q", f.ID)
			}
			if !f.RegistrationDate.Equal(now) {
				t.Fatalf("expected registrationDate=now, got %s", f.RegistrationDate)
			}
			if want := now.AddDate(tc.years, 0, 0); !f.ExpiryDate.Equal(want) {
				t.Fatalf("expected expiryDate %s, got %s", want, f.ExpiryDate)
			}
			if f.Status(now) != StatusActive {
				t.Fatalf("expected new file to be Active")
			}
		})
	}
}

func TestService_Create_ExplicitDatesWin(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)

	reg := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	in := personalInput("Old", 70, "Other")
	in.RegistrationDate = &reg
	in.ExpiryDate = &exp

	f, err := svc.Create(context.Background(), CategoryPersonal, in)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !f.RegistrationDate.Equal(reg) || !f.ExpiryDate.Equal(exp) {
		t.Fatalf("explicit dates not kept: %s / %s", f.RegistrationDate, f.ExpiryDate)
	}
	if f.Status(now) != StatusExpired {
		t.Fatalf("expected Expired")
	}
}

func TestService_Create_OnlyRegistrationDate_ExpiryFromHorizon(t *testing.T) {
	svc, _, _ := newTestService(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))

	reg := time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)
	in := Input{Values: map[string]any{"referralName": "Clinic", "patientCount": 0}, RegistrationDate: &reg}

	f, err := svc.Create(context.Background(), CategoryReferral, in)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	// AddDate normaliza 2025-02-29 a 2025-03-01
	if want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC); !f.ExpiryDate.Equal(want) {
		t.Fatalf("expected %s, got %s", want, f.ExpiryDate)
	}
}

func TestService_Create_MissingFields(t *testing.T) {
	svc, repo, rec := newTestService(time.Now())

	_, err := svc.Create(context.Background(), CategoryPersonal, Input{Values: map[string]any{"name": "  ", "age": 3}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "name") || !strings.Contains(err.Error(), "gender") {
		t.Fatalf("expected message to list name and gender, got %q", err.Error())
	}
	if repo.createCalls != 0 {
		t.Fatalf("repo must not be touched on validation error")
	}
	if len(rec.items) != 0 {
		t.Fatalf("no change expected")
	}
}

func TestService_Create_ZeroCountIsValid(t *testing.T) {
	svc, _, _ := newTestService(time.Now())

	f, err := svc.Create(context.Background(), CategoryFamily, Input{Values: map[string]any{"headName": "Solo", "memberCount": 0}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if f.Count("memberCount") != 0 {
		t.Fatalf("expected memberCount 0")
	}
}

func TestService_Create_RejectsExpiryBeforeRegistration(t *testing.T) {
	svc, _, _ := newTestService(time.Now())

	reg := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	exp := reg.Add(-time.Hour)
	in := personalInput("A", 1, "Male")
	in.RegistrationDate = &reg
	in.ExpiryDate = &exp

	_, err := svc.Create(context.Background(), CategoryPersonal, in)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Create_UnknownCategory(t *testing.T) {
	svc, _, _ := newTestService(time.Now())

	_, err := svc.Create(context.Background(), Category("pets"), personalInput("A", 1, "Male"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Create_RetriesOnIDConflict(t *testing.T) {
	svc, repo, _ := newTestService(time.Now())

	ids := []string{"SJMC-AAAAAAAAA", "SJMC-AAAAAAAAA", "SJMC-BBBBBBBBB"}
	n := 0
	svc.newID = func(prefix string) string {
		id := ids[n]
		n++
		return id
	}

	if _, err := svc.Create(context.Background(), CategoryPersonal, personalInput("A", 1, "Male")); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	f, err := svc.Create(context.Background(), CategoryPersonal, personalInput("B", 2, "Female"))
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if f.ID != "SJMC-BBBBBBBBB" {
		t.Fatalf("expected regenerated id, got %s", f.ID)
	}
	if repo.createCalls != 3 {
		t.Fatalf("expected 3 repo.Create calls, got %d", repo.createCalls)
	}
}

func TestService_Create_GivesUpAfterMaxAttempts(t *testing.T) {
	svc, repo, rec := newTestService(time.Now())
	repo.failCreate = ErrConflict

	_, err := svc.Create(context.Background(), CategoryPersonal, personalInput("A", 1, "Male"))
	if !errors.Is(err, ErrStorage) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected storage error wrapping ErrConflict, got %v", err)
	}
	if repo.createCalls != maxIDAttempts {
		t.Fatalf("expected %d attempts, got %d", maxIDAttempts, repo.createCalls)
	}
	if len(rec.items) != 0 {
		t.Fatalf("no change expected on failure")
	}
}

func TestService_Create_StorageFailure(t *testing.T) {
	svc, repo, _ := newTestService(time.Now())
	repo.failCreate = errors.New("connection refused")

	_, err := svc.Create(context.Background(), CategoryFamily, Input{Values: map[string]any{"headName": "X", "memberCount": 1}})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if repo.createCalls != 1 {
		t.Fatalf("non-conflict errors must not retry")
	}
}

func TestService_Update_Partial(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	svc, _, rec := newTestService(now)

	f, err := svc.Create(context.Background(), CategoryPersonal, personalInput("John Doe", 30, "Male"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Update(context.Background(), CategoryPersonal, f.ID, Input{Values: map[string]any{"age": 31}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Count("age") != 31 || got.Text("name") != "John Doe" || got.Text("gender") != "Male" {
		t.Fatalf("unexpected values after update: %#v", got.Values)
	}
	if !got.RegistrationDate.Equal(f.RegistrationDate) || !got.ExpiryDate.Equal(f.ExpiryDate) {
		t.Fatalf("dates must be untouched")
	}

	if len(rec.items) != 2 || rec.items[1].Kind != ChangeUpdated || rec.items[1].ID != f.ID {
		t.Fatalf("expected created+updated changes, got %#v", rec.items)
	}
}

func TestService_Update_EmptyPatchIsNoop(t *testing.T) {
	svc, _, rec := newTestService(time.Now())

	f, _ := svc.Create(context.Background(), CategoryPersonal, personalInput("A", 1, "Male"))

	got, err := svc.Update(context.Background(), CategoryPersonal, f.ID, Input{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ID != f.ID || got.Text("name") != "A" {
		t.Fatalf("expected current record back")
	}
	if len(rec.items) != 1 {
		t.Fatalf("empty update must not emit a change")
	}
}

func TestService_Update_RejectsBlankText(t *testing.T) {
	svc, _, _ := newTestService(time.Now())

	f, _ := svc.Create(context.Background(), CategoryPersonal, personalInput("A", 1, "Male"))

	_, err := svc.Update(context.Background(), CategoryPersonal, f.ID, Input{Values: map[string]any{"name": "   "}})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Fatalf("expected ValidationError on name, got %v", err)
	}
}

func TestService_Update_NotFound(t *testing.T) {
	svc, _, _ := newTestService(time.Now())

	_, err := svc.Update(context.Background(), CategoryPersonal, "SJMC-NOPE00000", Input{Values: map[string]any{"age": 2}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Update_DateOrderCheckedAfterMerge(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)

	f, _ := svc.Create(context.Background(), CategoryPersonal, personalInput("A", 1, "Male"))

	exp := now.Add(-24 * time.Hour)
	_, err := svc.Update(context.Background(), CategoryPersonal, f.ID, Input{ExpiryDate: &exp})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// mover ambas fechas juntas es válido
	reg := now.AddDate(-2, 0, 0)
	got, err := svc.Update(context.Background(), CategoryPersonal, f.ID, Input{RegistrationDate: &reg, ExpiryDate: &exp})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status(now) != StatusExpired {
		t.Fatalf("expected Expired after moving expiry to the past")
	}
}

func TestService_Delete(t *testing.T) {
	svc, _, rec := newTestService(time.Now())

	f, _ := svc.Create(context.Background(), CategoryEmergency, personalInput("A", 1, "Female"))

	removed, err := svc.Delete(context.Background(), CategoryEmergency, f.ID)
	if err != nil || !removed {
		t.Fatalf("expected removed=true, got %v %v", removed, err)
	}
	if _, err := svc.Get(context.Background(), CategoryEmergency, f.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	removed, err = svc.Delete(context.Background(), CategoryEmergency, f.ID)
	if err != nil || removed {
		t.Fatalf("second delete: expected removed=false, nil; got %v %v", removed, err)
	}

	if len(rec.items) != 2 || rec.items[1].Kind != ChangeDeleted || rec.items[1].File != nil {
		t.Fatalf("expected exactly one deleted change, got %#v", rec.items)
	}
}

func TestService_List_NewestFirst(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)

	for i := 0; i < 3; i++ {
		reg := now.AddDate(0, 0, -i*10)
		in := personalInput(fmt.Sprintf("p%d", i), i, "Male")
		in.RegistrationDate = &reg
		if _, err := svc.Create(context.Background(), CategoryPersonal, in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	items, err := svc.List(context.Background(), CategoryPersonal)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].RegistrationDate.After(items[i-1].RegistrationDate) {
			t.Fatalf("list not ordered newest first")
		}
	}
}

func TestService_Stats(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)

	mk := func(cat Category, in Input, reg, exp time.Time) {
		in.RegistrationDate = &reg
		in.ExpiryDate = &exp
		if _, err := svc.Create(context.Background(), cat, in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	// reciente y activo
	mk(CategoryPersonal, personalInput("a", 1, "Male"), now.AddDate(0, 0, -1), now.AddDate(1, 0, 0))
	// justo en el borde de la ventana semanal
	mk(CategoryPersonal, personalInput("b", 2, "Male"), now.AddDate(0, 0, -7), now.AddDate(1, 0, 0))
	// viejo y vencido
	mk(CategoryPersonal, personalInput("c", 3, "Male"), now.AddDate(-2, 0, 0), now.AddDate(-1, 0, 0))
	mk(CategoryFamily, Input{Values: map[string]any{"headName": "f", "memberCount": 2}}, now.AddDate(0, 0, -30), now.AddDate(0, 0, -1))

	st, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	want := CategoryStats{Total: 3, Weekly: 2, Expired: 1, Active: 2}
	if st.Personal != want {
		t.Fatalf("personal: expected %+v, got %+v", want, st.Personal)
	}
	if st.Family != (CategoryStats{Total: 1, Expired: 1}) {
		t.Fatalf("family: unexpected %+v", st.Family)
	}
	if st.Referral != (CategoryStats{}) || st.Emergency != (CategoryStats{}) {
		t.Fatalf("expected empty referral/emergency")
	}
	for _, cs := range []CategoryStats{st.Personal, st.Family, st.Referral, st.Emergency} {
		if cs.Active+cs.Expired != cs.Total || cs.Weekly > cs.Total {
			t.Fatalf("inconsistent stats %+v", cs)
		}
	}
}

func TestService_Stats_WeeklyWindowIsSevenDaysAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	// el 9 de marzo de 2025 NY pasa a horario de verano
	now := time.Date(2025, 3, 12, 12, 0, 0, 0, ny)
	svc, _, _ := newTestService(now)

	exp := now.AddDate(1, 0, 0)
	for _, reg := range []time.Time{
		now.Add(-7*24*time.Hour + 30*time.Minute), // adentro
		now.Add(-7*24*time.Hour - 30*time.Minute), // afuera
	} {
		reg := reg
		in := personalInput("a", 1, "Male")
		in.RegistrationDate = &reg
		in.ExpiryDate = &exp
		if _, err := svc.Create(context.Background(), CategoryPersonal, in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	st, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Personal.Weekly != 1 {
		t.Fatalf("expected 1 weekly, got %+v", st.Personal)
	}
}

func TestService_Stats_FailsAtomically(t *testing.T) {
	svc, repo, _ := newTestService(time.Now())
	repo.failStats = errors.New("boom")

	st, err := svc.Stats(context.Background())
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if st != (DashboardStats{}) {
		t.Fatalf("expected zero stats on failure")
	}
}
