package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/service"
)

// storeless wires services without repositories; only paths rejected before
// any store access can be exercised.
func storeless(opened *int) appFactory {
	return func(ctx context.Context) (*app, error) {
		*opened++
		ops := &service.OperationService{}
		return &app{
			operations: ops,
			imports:    &service.ImportService{Operations: ops},
			messages:   &service.MessageService{},
		}, nil
	}
}

func run(t *testing.T, factory appFactory, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd(factory)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionDoesNotOpenStore(t *testing.T) {
	opened := 0
	out, err := run(t, storeless(&opened), "version")
	require.NoError(t, err)
	assert.Equal(t, "opsctl version "+Version+"\n", out)
	assert.Equal(t, 0, opened)
}

func TestDeleteRequiresYes(t *testing.T) {
	opened := 0
	_, err := run(t, storeless(&opened), "delete", "3")
	assert.ErrorIs(t, err, appErrors.ErrConfirmationRequired)
	assert.Equal(t, 1, opened)

	_, err = run(t, storeless(&opened), "delete", "abc", "--yes")
	assert.EqualError(t, err, `invalid operation id "abc"`)
}

func TestCopyRejectsUnknownTrigger(t *testing.T) {
	opened := 0
	_, err := run(t, storeless(&opened), "copy", "3", "date_ajout_sre")
	assert.True(t, appErrors.IsValidation(err))
}

func TestListAndImportValidateFlags(t *testing.T) {
	opened := 0
	_, err := run(t, storeless(&opened), "list", "--entity", "1", "--kind", "fax")
	assert.ErrorIs(t, err, appErrors.ErrUnknownKind)

	_, err = run(t, storeless(&opened), "list")
	assert.Error(t, err, "--entity is required")

	_, err = run(t, storeless(&opened), "import", "missing.csv", "--entity", "1")
	assert.Error(t, err)
}

func TestPrintOperations(t *testing.T) {
	op := &model.Operation{
		ID: 7, Title: "Launch", Language: "FR", SendDate: model.NewDate(2024, 3, 12),
		Checklist: model.Checklist{CreativeDone: true, ProofValidated: true},
	}
	var out bytes.Buffer
	require.NoError(t, printOperations(&out, []service.OperationView{{Operation: op, Alert: model.Alert{Show: true, Days: 2}}}))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "CHECKLIST")
	assert.Contains(t, string(lines[1]), "12/03/2024")
	assert.Contains(t, string(lines[1]), "x--x-")
	assert.Contains(t, string(lines[1]), "J-2")
}
