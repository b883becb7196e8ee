package messages

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/answerdesk/internal/models"
	"github.com/hyperjump/answerdesk/internal/state"
	"github.com/hyperjump/answerdesk/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type staticMessages struct {
	msgs []*models.Message
	err  error
}

func (s staticMessages) ListMessages(context.Context) ([]*models.Message, error) {
	return s.msgs, s.err
}

type brokenState struct{}

func (brokenState) Lookup(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestService_ResolveAll(t *testing.T) {
	store := staticMessages{msgs: []*models.Message{
		{ID: "greeting", Body: "Hello {user_name|friend}!"},
		{ID: "status", Body: "Warp {warp|0}"},
		{ID: "plain", Body: "No placeholders here"},
	}}
	svc := NewService(store, state.Map{"warp": "9"})

	got, err := svc.ResolveAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*models.ResolvedMessage{
		{ID: "greeting", Text: "Hello friend!"},
		{ID: "status", Text: "Warp 9"},
		{ID: "plain", Text: "No placeholders here"},
	}, got)
}

func TestService_ResolveAll_Empty(t *testing.T) {
	svc := NewService(staticMessages{}, state.Map{})
	got, err := svc.ResolveAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestService_ResolveAll_MalformedTemplateIsolated(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := staticMessages{msgs: []*models.Message{
		{ID: "ok-1", Body: "first"},
		{ID: "bad", Body: "Hi {name}"},
		{ID: "ok-2", Body: "{x|second}"},
	}}
	svc := NewService(store, state.Map{}, WithLogger(zap.New(core)))

	got, err := svc.ResolveAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "bad", got[1].ID)
	assert.Empty(t, got[1].Text)
	assert.Contains(t, got[1].Error, template.ErrMalformedPlaceholder.Error())
	assert.Equal(t, "second", got[2].Text)

	entries := logs.FilterField(zap.String("id", "bad")).All()
	assert.Len(t, entries, 1)
}

func TestService_ResolveAll_StoreErrors(t *testing.T) {
	boom := errors.New("database is locked")
	_, err := NewService(staticMessages{err: boom}, state.Map{}).ResolveAll(context.Background())
	assert.ErrorIs(t, err, boom)

	store := staticMessages{msgs: []*models.Message{{ID: "m", Body: "{a|b}"}}}
	_, err = NewService(store, brokenState{}).ResolveAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve message m")
}
