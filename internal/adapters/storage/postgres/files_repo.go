package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sjmc-records/internal/domain/files"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// FilesRepo implementa files.Repository sobre las cuatro tablas *_files.
// Los nombres de tabla/columna salen de files.Schema (constantes), nunca del request.
type FilesRepo struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewFilesRepo(db *sql.DB, queryTimeout time.Duration) *FilesRepo {
	return &FilesRepo{db: db, queryTimeout: queryTimeout}
}

func (r *FilesRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

func selectSQL(s files.Schema) string {
	return "SELECT " + strings.Join(s.Columns(), ", ") + " FROM " + s.Table
}

func (r *FilesRepo) List(ctx context.Context, s files.Schema) ([]files.File, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, selectSQL(s)+" ORDER BY "+files.ColumnRegistrationDate+" DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]files.File, 0)
	for rows.Next() {
		f, err := scanFile(rows, s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FilesRepo) GetByID(ctx context.Context, s files.Schema, id string) (files.File, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return files.File{}, files.ErrNotFound
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, selectSQL(s)+" WHERE id = $1", id)
	f, err := scanFile(row, s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return files.File{}, files.ErrNotFound
		}
		return files.File{}, err
	}
	return f, nil
}

func (r *FilesRepo) Create(ctx context.Context, s files.Schema, f files.File) error {
	cols := s.Columns()
	args := make([]any, 0, len(cols))
	args = append(args, f.ID)
	for _, fld := range s.Fields {
		args = append(args, f.Values[fld.Name])
	}
	args = append(args, f.RegistrationDate, f.ExpiryDate)

	q := "INSERT INTO " + s.Table + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders(1, len(cols)) + ")"

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		if isUniqueViolation(err) {
			return files.ErrConflict
		}
		return err
	}
	return nil
}

// Update arma el SET sólo con los campos presentes en in y relee con RETURNING.
func (r *FilesRepo) Update(ctx context.Context, s files.Schema, id string, in files.Input) (files.File, error) {
	q, args := updateSQL(s, id, in)
	if q == "" {
		return r.GetByID(ctx, s, id)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	f, err := scanFile(r.db.QueryRowContext(ctx, q, args...), s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return files.File{}, files.ErrNotFound
		}
		return files.File{}, err
	}
	return f, nil
}

func updateSQL(s files.Schema, id string, in files.Input) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	for _, fld := range s.Fields {
		if v, ok := in.Values[fld.Name]; ok {
			add(fld.Column, v)
		}
	}
	if in.RegistrationDate != nil {
		add(files.ColumnRegistrationDate, *in.RegistrationDate)
	}
	if in.ExpiryDate != nil {
		add(files.ColumnExpiryDate, *in.ExpiryDate)
	}
	if len(sets) == 0 {
		return "", nil
	}

	args = append(args, id)
	q := "UPDATE " + s.Table + " SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + strings.Join(s.Columns(), ", ")
	return q, args
}

func (r *FilesRepo) Delete(ctx context.Context, s files.Schema, id string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, "DELETE FROM "+s.Table+" WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Stats cuenta todas las tablas dentro de una tx read-only REPEATABLE READ,
// así las cuatro categorías ven el mismo snapshot.
func (r *FilesRepo) Stats(ctx context.Context, schemas []files.Schema, w files.StatsWindow) (map[files.Category]files.CategoryStats, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	out := make(map[files.Category]files.CategoryStats, len(schemas))
	for _, s := range schemas {
		var st files.CategoryStats
		if err := tx.QueryRowContext(ctx, statsSQL(s), w.Since, w.Now).Scan(&st.Total, &st.Weekly, &st.Expired); err != nil {
			return nil, fmt.Errorf("stats %s: %w", s.Category, err)
		}
		st.Active = st.Total - st.Expired
		out[s.Category] = st
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func statsSQL(s files.Schema) string {
	return "SELECT COUNT(*)," +
		" COUNT(*) FILTER (WHERE " + files.ColumnRegistrationDate + " >= $1 AND " + files.ColumnRegistrationDate + " <= $2)," +
		" COUNT(*) FILTER (WHERE " + files.ColumnExpiryDate + " < $2)" +
		" FROM " + s.Table
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(sc scanner, s files.Schema) (files.File, error) {
	var (
		f        files.File
		reg, exp time.Time
	)
	texts := make([]string, len(s.Fields))
	counts := make([]int64, len(s.Fields))

	dest := make([]any, 0, len(s.Fields)+3)
	dest = append(dest, &f.ID)
	for i, fld := range s.Fields {
		if fld.Kind == files.FieldCount {
			dest = append(dest, &counts[i])
		} else {
			dest = append(dest, &texts[i])
		}
	}
	dest = append(dest, &reg, &exp)

	if err := sc.Scan(dest...); err != nil {
		return files.File{}, err
	}

	f.Category = s.Category
	f.Values = make(map[string]any, len(s.Fields))
	for i, fld := range s.Fields {
		if fld.Kind == files.FieldCount {
			f.Values[fld.Name] = int(counts[i])
		} else {
			f.Values[fld.Name] = texts[i]
		}
	}
	f.RegistrationDate = reg.UTC()
	f.ExpiryDate = exp.UTC()
	return f, nil
}

func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = "$" + strconv.Itoa(from+i)
	}
	return strings.Join(ps, ", ")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
