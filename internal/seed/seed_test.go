package seed

import (
	"context"
	"strings"
	"testing"

	"sjmc-records/internal/adapters/storage/memory"
	"sjmc-records/internal/domain/accounts"
	"sjmc-records/internal/domain/files"
	"sjmc-records/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
users:
  - email: admin@sjmc.com
    password: password123
files:
  personal:
    - name: John Doe
      age: 34
      gender: male
      registrationDate: 2025-01-05
  family:
    - headName: Smith
      memberCount: 4
  referral:
    - referralName: City Clinic
      patientCount: "12"
      registrationDate: "2024-06-01T00:00:00Z"
      expiryDate: "2029-06-01T00:00:00Z"
`

type stubIssuer struct{}

func (stubIssuer) Issue(ctx context.Context, c auth.Claims) (string, error) { return "t", nil }

func TestApply(t *testing.T) {
	data, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	filesRepo := memory.NewFilesRepo()
	filesSvc := files.NewService(filesRepo, nil)
	accountsSvc := accounts.NewService(memory.NewUsersRepo(), stubIssuer{})

	res, err := Apply(context.Background(), data, filesSvc, accountsSvc)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Users)
	assert.Equal(t, map[files.Category]int{
		files.CategoryPersonal: 1,
		files.CategoryFamily:   1,
		files.CategoryReferral: 1,
	}, res.Files)

	personal, err := filesSvc.List(context.Background(), files.CategoryPersonal)
	require.NoError(t, err)
	require.Len(t, personal, 1)
	assert.Equal(t, "Male", personal[0].Text("gender"))
	assert.Equal(t, "2025-01-05", personal[0].RegistrationDate.Format("2006-01-02"))
	assert.Equal(t, "2026-01-05", personal[0].ExpiryDate.Format("2006-01-02"))

	_, err = accountsSvc.Login(context.Background(), "admin@sjmc.com", "password123")
	assert.NoError(t, err)
}

func TestApply_RejectsInvalidRecord(t *testing.T) {
	data, err := Parse(strings.NewReader("files:\n  emergency:\n    - name: X\n      age: -3\n      gender: Other\n"))
	require.NoError(t, err)

	_, err = Apply(context.Background(), data,
		files.NewService(memory.NewFilesRepo(), nil),
		accounts.NewService(memory.NewUsersRepo(), stubIssuer{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "files.emergency[0]")
	assert.ErrorIs(t, err, files.ErrInvalidInput)
}

func TestParse_UnknownCategoryAndFields(t *testing.T) {
	_, err := Parse(strings.NewReader("patients: []\n"))
	assert.Error(t, err)

	data, err := Parse(strings.NewReader("files:\n  pets:\n    - name: x\n"))
	require.NoError(t, err)
	_, err = Apply(context.Background(), data,
		files.NewService(memory.NewFilesRepo(), nil),
		accounts.NewService(memory.NewUsersRepo(), stubIssuer{}))
	assert.ErrorContains(t, err, `unknown category "pets"`)
}
