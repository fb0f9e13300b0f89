package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var presetCols = []string{"id", "name", "type", "schema_version", "is_public", "owner_id", "config", "created_at", "updated_at"}

func newPresetService(t *testing.T) (*PresetService, *EventBus, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	bus := NewEventBus()
	return NewPresetService(db, bus, discardLogger()), bus, mock
}

func TestPreset_Create(t *testing.T) {
	svc, bus, mock := newPresetService(t)
	events := bus.Subscribe()
	defer bus.Unsubscribe(events)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chart_presets")).
		WithArgs("Cultures", "pie", 1, false, nil, `{"legend":true}`).
		WillReturnRows(sqlmock.NewRows(presetCols).
			AddRow(7, "Cultures", "pie", 1, false, nil, []byte(`{"legend":true}`), now, now))

	p, err := svc.Create(context.Background(), PresetInput{
		Name:   "Cultures",
		Type:   "pie",
		Config: PresetConfig{"legend": true},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Nil(t, p.OwnerID)
	assert.Equal(t, PresetConfig{"legend": true}, p.Config)
	assert.Equal(t, Event{Resource: ResourcePresets, Action: "created", ID: "7"}, <-events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreset_CreateDuplicate(t *testing.T) {
	svc, _, mock := newPresetService(t)
	owner := "u1"
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chart_presets")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "chart_presets_name_owner_id_key"})

	_, err := svc.Create(context.Background(), PresetInput{
		Name:    "Cultures",
		Type:    "bar",
		OwnerID: &owner,
		Config:  PresetConfig{},
	})

	assert.ErrorIs(t, err, ErrDuplicatePreset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreset_CreateValidation(t *testing.T) {
	svc, _, mock := newPresetService(t)

	tests := map[string]PresetInput{
		"missing config": {Name: "a", Type: "pie"},
		"missing name":   {Type: "pie", Config: PresetConfig{}},
		"unknown type":   {Name: "a", Type: "donut", Config: PresetConfig{}},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreset_GetNotFound(t *testing.T) {
	svc, _, mock := newPresetService(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM chart_presets WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrPresetNotFound)
}

func TestPreset_UpdateKeepsUnsetFields(t *testing.T) {
	svc, _, mock := newPresetService(t)
	now := time.Now()
	public := true
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE chart_presets")).
		WithArgs(nil, nil, &public, nil, nil, nil, int64(3)).
		WillReturnRows(sqlmock.NewRows(presetCols).
			AddRow(3, "Cultures", "pie", 1, true, nil, `{}`, now, now))

	p, err := svc.Update(context.Background(), 3, PresetInput{IsPublic: &public})

	require.NoError(t, err)
	assert.True(t, p.IsPublic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreset_Delete(t *testing.T) {
	svc, _, mock := newPresetService(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chart_presets")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chart_presets")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, svc.Delete(context.Background(), 3))
	assert.ErrorIs(t, svc.Delete(context.Background(), 4), ErrPresetNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
