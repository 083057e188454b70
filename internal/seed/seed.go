// Package seed carga expedientes y usuarios desde un archivo YAML.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"sjmc-records/internal/domain/accounts"
	"sjmc-records/internal/domain/files"

	"gopkg.in/yaml.v3"
)

type File struct {
	Users []User                      `yaml:"users"`
	Files map[string][]map[string]any `yaml:"files"`
}

// User acepta password en claro o un hash bcrypt ya calculado.
type User struct {
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"passwordHash"`
}

type Result struct {
	Users int
	Files map[files.Category]int
}

func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return File{}, nil
		}
		return File{}, fmt.Errorf("seed: parse: %w", err)
	}
	return f, nil
}

func LoadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()
	return Parse(fh)
}

// Apply crea cada registro vía los services (mismas validaciones, ids y
// fechas por defecto que la API). Corta en el primer error.
func Apply(ctx context.Context, data File, filesSvc *files.Service, accountsSvc *accounts.Service) (Result, error) {
	res := Result{Files: map[files.Category]int{}}

	for i, u := range data.Users {
		var err error
		if u.PasswordHash != "" {
			err = accountsSvc.EnsureUser(ctx, u.Email, u.PasswordHash)
		} else {
			err = accountsSvc.Register(ctx, u.Email, u.Password)
		}
		if err != nil {
			return res, fmt.Errorf("seed: users[%d]: %w", i, err)
		}
		res.Users++
	}

	cats := make([]string, 0, len(data.Files))
	for c := range data.Files {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	for _, c := range cats {
		sch, ok := files.SchemaFor(files.Category(c))
		if !ok {
			return res, fmt.Errorf("seed: unknown category %q", c)
		}
		for i, rec := range data.Files[c] {
			in, err := decodeRecord(sch, rec)
			if err != nil {
				return res, fmt.Errorf("seed: files.%s[%d]: %w", c, i, err)
			}
			if _, err := filesSvc.Create(ctx, sch.Category, in); err != nil {
				return res, fmt.Errorf("seed: files.%s[%d]: %w", c, i, err)
			}
			res.Files[sch.Category]++
		}
	}
	return res, nil
}

// decodeRecord pasa por JSON para reutilizar Schema.DecodeInput (fechas
// YAML llegan como string o time.Time; ambas serializan a ISO-8601).
func decodeRecord(sch files.Schema, rec map[string]any) (files.Input, error) {
	raw := make(map[string]json.RawMessage, len(rec))
	for k, v := range rec {
		b, err := json.Marshal(v)
		if err != nil {
			return files.Input{}, err
		}
		raw[k] = b
	}
	return sch.DecodeInput(raw)
}
