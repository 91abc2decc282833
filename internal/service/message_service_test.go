package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/indicator"
	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/service"
)

type copyFixture struct {
	svc       *service.MessageService
	sent      *MockSentRepo
	clipboard *MockClipboard
	indicator *indicator.Memory
	templates *MockTemplateRepo
}

func newCopyFixture() *copyFixture {
	op := &model.Operation{
		ID: 7, EntityID: 1, Kind: model.KindEmail, SendDate: model.NewDate(2024, 3, 15),
		Title: "Spring Launch", Theme: "Promo", Language: "FR",
		Payload: &model.EmailPayload{LocalizedLinks: map[model.Language]string{"FR": "https://fr.example/spring"}},
	}
	other := &model.Operation{ID: 8, EntityID: 1, Kind: model.KindSlider, Title: "Banner", Payload: &model.SliderPayload{}}

	f := &copyFixture{
		sent:      &MockSentRepo{},
		clipboard: &MockClipboard{},
		indicator: indicator.NewMemory(),
		templates: NewMockTemplateRepo(
			&model.MessageTemplate{ID: 1, EntityID: 1, TriggerEvent: model.FlagProofValidated, Subject: "BAT OK {{title}}", Body: "{{entity}}: {{title}} ({{kind}}) le {{send_date}}\n{{localized_links}}", IsActive: true},
			&model.MessageTemplate{ID: 2, EntityID: 1, TriggerEvent: model.FlagCreativeDone, Body: "Creative {{title}}", IsActive: true},
			&model.MessageTemplate{ID: 3, EntityID: 1, TriggerEvent: model.FlagScheduled, Body: "inactive", IsActive: false},
		),
	}
	f.svc = &service.MessageService{
		Operations: NewMockOperationRepo(op, other),
		Entities:   NewMockEntityRepo(&model.Entity{ID: 1, Name: "J4C"}),
		Templates:  f.templates,
		Sent:       f.sent,
		Clipboard:  f.clipboard,
		Indicator:  f.indicator,
	}
	return f
}

func TestCopyRendersCopiesAndLogs(t *testing.T) {
	f := newCopyFixture()
	ctx := context.Background()

	res, err := f.svc.Copy(ctx, service.CopyRequest{OperationID: 7, Trigger: model.FlagProofValidated})
	require.NoError(t, err)

	want := "Subject: BAT OK Spring Launch\n\nJ4C: Spring Launch (Email) le 15/03/2024\nFR : https://fr.example/spring"
	assert.Equal(t, want, res.Text)
	assert.Equal(t, []string{want}, f.clipboard.Writes())
	assert.False(t, res.Duplicate)

	require.Equal(t, 1, f.sent.Count())
	logged := f.sent.sent[0]
	assert.Equal(t, 7, logged.OperationID)
	assert.Equal(t, 1, logged.TemplateID)
	assert.Equal(t, "BAT OK Spring Launch", logged.Subject)
	assert.Equal(t, res.SentMessageID, logged.ID)

	assert.True(t, f.svc.Copied(ctx, 7, model.FlagProofValidated))
	assert.False(t, f.svc.Copied(ctx, 7, model.FlagCreativeDone), "other trigger must not share the indicator")
	assert.False(t, f.svc.Copied(ctx, 8, model.FlagProofValidated), "other operation must not share the indicator")
}

func TestCopyWithoutSubject(t *testing.T) {
	f := newCopyFixture()
	res, err := f.svc.Copy(context.Background(), service.CopyRequest{OperationID: 8, Trigger: model.FlagCreativeDone})
	require.NoError(t, err)
	assert.Equal(t, "Creative Banner", res.Text)
}

func TestCopyNoTemplateConfigured(t *testing.T) {
	f := newCopyFixture()

	_, err := f.svc.Copy(context.Background(), service.CopyRequest{OperationID: 7, Trigger: model.FlagScheduled})
	var noTpl *appErrors.NoTemplateConfiguredError
	require.ErrorAs(t, err, &noTpl)
	assert.Equal(t, 1, noTpl.EntityID)
	assert.Equal(t, 0, f.sent.Count())
	assert.Empty(t, f.clipboard.Writes())
	assert.False(t, f.svc.Copied(context.Background(), 7, model.FlagScheduled))
}

func TestCopyClipboardFailureWritesNothing(t *testing.T) {
	f := newCopyFixture()
	f.clipboard.err = errors.New("no clipboard utility")

	_, err := f.svc.Copy(context.Background(), service.CopyRequest{OperationID: 7, Trigger: model.FlagProofValidated})
	var clipErr *appErrors.ClipboardError
	require.ErrorAs(t, err, &clipErr)
	assert.Equal(t, 0, f.sent.Count())
	assert.False(t, f.svc.Copied(context.Background(), 7, model.FlagProofValidated))
}

func TestCopyUnknownTriggerAndOperation(t *testing.T) {
	f := newCopyFixture()

	_, err := f.svc.Copy(context.Background(), service.CopyRequest{OperationID: 7, Trigger: "date_ajout_sre"})
	assert.True(t, appErrors.IsValidation(err))

	_, err = f.svc.Copy(context.Background(), service.CopyRequest{OperationID: 99, Trigger: model.FlagCreativeDone})
	assert.True(t, appErrors.IsNotFound(err))
	assert.Equal(t, 0, f.sent.Count())
}

func TestCopyEachClickIsLogged(t *testing.T) {
	f := newCopyFixture()
	req := service.CopyRequest{OperationID: 7, Trigger: model.FlagCreativeDone}

	for i := 0; i < 3; i++ {
		_, err := f.svc.Copy(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.sent.Count())
}

func TestCopyDedupesClickID(t *testing.T) {
	f := newCopyFixture()
	req := service.CopyRequest{OperationID: 7, Trigger: model.FlagCreativeDone, ClickID: "click-1"}

	first, err := f.svc.Copy(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.Copy(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.SentMessageID, second.SentMessageID)
	assert.Equal(t, 1, f.sent.Count())
	assert.Len(t, f.clipboard.Writes(), 1)

	req.ClickID = "click-2"
	_, err = f.svc.Copy(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, f.sent.Count())
}

func TestCopyReusedClickIDOnOtherMessage(t *testing.T) {
	f := newCopyFixture()
	ctx := context.Background()

	first, err := f.svc.Copy(ctx, service.CopyRequest{OperationID: 7, Trigger: model.FlagCreativeDone, ClickID: "k"})
	require.NoError(t, err)
	other, err := f.svc.Copy(ctx, service.CopyRequest{OperationID: 8, Trigger: model.FlagProofValidated, ClickID: "k"})
	require.NoError(t, err)

	assert.False(t, other.Duplicate)
	assert.Equal(t, 8, other.OperationID)
	assert.Equal(t, model.FlagProofValidated, other.Trigger)
	assert.NotEqual(t, first.SentMessageID, other.SentMessageID)
	assert.Equal(t, 2, f.sent.Count())
	assert.Len(t, f.clipboard.Writes(), 2)
	assert.True(t, f.svc.Copied(ctx, 8, model.FlagProofValidated))

	// same key, same operation, other trigger
	_, err = f.svc.Copy(ctx, service.CopyRequest{OperationID: 7, Trigger: model.FlagProofValidated, ClickID: "k"})
	require.NoError(t, err)
	assert.Equal(t, 3, f.sent.Count())
}

func TestCopyClickIDExpires(t *testing.T) {
	f := newCopyFixture()
	f.svc.DedupeTTL = time.Millisecond
	req := service.CopyRequest{OperationID: 7, Trigger: model.FlagCreativeDone, ClickID: "late-retry"}

	_, err := f.svc.Copy(context.Background(), req)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	res, err := f.svc.Copy(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, 2, f.sent.Count())
}

func TestCopyConcurrentDuplicateClicks(t *testing.T) {
	f := newCopyFixture()
	f.clipboard.delay = 20 * time.Millisecond
	req := service.CopyRequest{OperationID: 7, Trigger: model.FlagProofValidated, ClickID: "double-click"}

	var wg sync.WaitGroup
	results := make([]*service.CopyResult, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Copy(context.Background(), req)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.sent.Count())
	duplicates := 0
	for _, r := range results {
		if r != nil && r.Duplicate {
			duplicates++
		}
	}
	assert.Equal(t, 4, duplicates)
}

func TestCopyFailedClickCanBeRetried(t *testing.T) {
	f := newCopyFixture()
	f.clipboard.err = errors.New("locked")
	req := service.CopyRequest{OperationID: 7, Trigger: model.FlagCreativeDone, ClickID: "retry-me"}

	_, err := f.svc.Copy(context.Background(), req)
	require.Error(t, err)

	f.clipboard.err = nil
	res, err := f.svc.Copy(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, 1, f.sent.Count())
}

func TestCopyUsesOldestActiveTemplate(t *testing.T) {
	f := newCopyFixture()
	f.templates.templates[9] = &model.MessageTemplate{ID: 9, EntityID: 1, TriggerEvent: model.FlagCreativeDone, Body: "newer", IsActive: true}

	res, err := f.svc.Copy(context.Background(), service.CopyRequest{OperationID: 7, Trigger: model.FlagCreativeDone})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TemplateID)
}

func TestPreviewDoesNotLog(t *testing.T) {
	f := newCopyFixture()
	tpl, rendered, err := f.svc.Preview(context.Background(), 7, model.FlagCreativeDone)
	require.NoError(t, err)
	assert.Equal(t, 2, tpl.ID)
	assert.Equal(t, "Creative Spring Launch", rendered.Text)
	assert.Equal(t, 0, f.sent.Count())
	assert.Empty(t, f.clipboard.Writes())
}
