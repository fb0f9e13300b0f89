package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// ErrDuplicatePreset is returned when (name, owner_id) is already taken.
var ErrDuplicatePreset = errors.New("preset name already used for this owner")

// ErrPresetNotFound is returned when no preset has the requested ID.
var ErrPresetNotFound = errors.New("preset not found")

// uniqueViolation is the SQLSTATE of unique_violation.
const uniqueViolation = "23505"

const presetColumns = `id, name, type, schema_version, is_public, owner_id, config, created_at, updated_at`

// PresetService stores chart presets in the chart_presets table.
type PresetService struct {
	db  *sqlx.DB
	bus *EventBus
	log *slog.Logger
}

// NewPresetService creates a preset service publishing changes on bus.
func NewPresetService(db *sqlx.DB, bus *EventBus, log *slog.Logger) *PresetService {
	return &PresetService{db: db, bus: bus, log: log}
}

// List returns every preset, newest first.
func (s *PresetService) List(ctx context.Context) ([]Preset, error) {
	presets := []Preset{}
	err := s.db.SelectContext(ctx, &presets,
		`SELECT `+presetColumns+` FROM chart_presets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	return presets, nil
}

// Get returns one preset.
func (s *PresetService) Get(ctx context.Context, id int64) (Preset, error) {
	var p Preset
	err := s.db.GetContext(ctx, &p,
		`SELECT `+presetColumns+` FROM chart_presets WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Preset{}, ErrPresetNotFound
	}
	if err != nil {
		return Preset{}, fmt.Errorf("getting preset %d: %w", id, err)
	}
	return p, nil
}

// Create inserts a preset. name, type and config are required.
func (s *PresetService) Create(ctx context.Context, in PresetInput) (Preset, error) {
	if in.Name == "" || in.Type == "" || in.Config == nil {
		return Preset{}, missing("name", "type", "config")
	}
	if err := checkPresetType(in.Type); err != nil {
		return Preset{}, err
	}

	version := 1
	if in.SchemaVersion != nil {
		version = *in.SchemaVersion
	}
	public := in.IsPublic != nil && *in.IsPublic

	var p Preset
	err := s.db.GetContext(ctx, &p,
		`INSERT INTO chart_presets (name, type, schema_version, is_public, owner_id, config)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+presetColumns,
		in.Name, in.Type, version, public, in.OwnerID, in.Config)
	if err != nil {
		return Preset{}, s.writeError("creating preset", in, err)
	}

	s.bus.Publish(Event{Resource: ResourcePresets, Action: "created", ID: strconv.FormatInt(p.ID, 10)})
	return p, nil
}

// Update changes the fields set in in and leaves the others untouched.
func (s *PresetService) Update(ctx context.Context, id int64, in PresetInput) (Preset, error) {
	if in.Type != "" {
		if err := checkPresetType(in.Type); err != nil {
			return Preset{}, err
		}
	}

	var p Preset
	err := s.db.GetContext(ctx, &p,
		`UPDATE chart_presets
		SET
			name = COALESCE($1, name),
			type = COALESCE($2, type),
			is_public = COALESCE($3, is_public),
			owner_id = COALESCE($4, owner_id),
			schema_version = COALESCE($5, schema_version),
			config = COALESCE($6, config),
			updated_at = NOW()
		WHERE id = $7
		RETURNING `+presetColumns,
		nullIfEmpty(in.Name), nullIfEmpty(in.Type), in.IsPublic, in.OwnerID, in.SchemaVersion, in.Config, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Preset{}, ErrPresetNotFound
	}
	if err != nil {
		return Preset{}, s.writeError(fmt.Sprintf("updating preset %d", id), in, err)
	}

	s.bus.Publish(Event{Resource: ResourcePresets, Action: "updated", ID: strconv.FormatInt(id, 10)})
	return p, nil
}

// Delete removes one preset.
func (s *PresetService) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chart_presets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting preset %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting preset %d: %w", id, err)
	}
	if n == 0 {
		return ErrPresetNotFound
	}

	s.bus.Publish(Event{Resource: ResourcePresets, Action: "deleted", ID: strconv.FormatInt(id, 10)})
	return nil
}

func (s *PresetService) writeError(op string, in PresetInput, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		s.log.Warn("duplicate preset", "name", in.Name, "owner_id", in.OwnerID)
		return ErrDuplicatePreset
	}
	return fmt.Errorf("%s: %w", op, err)
}

func checkPresetType(t string) error {
	if !slices.Contains(PresetTypes, t) {
		return &ValidationError{Msg: fmt.Sprintf("invalid type %q, expected one of %v", t, PresetTypes)}
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
