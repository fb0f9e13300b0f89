// Package service contains the chart, layer and preset logic of geodash.
package service

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joeblew999/geodash/internal/schema"
)

// Request types are the single source of truth: Huma reads their tags for
// OpenAPI, the services read them for validation. Every field is optional at
// the schema level so that missing fields surface as a 400 from the service
// rather than a schema error.

// ChartOptions are shared by every chart request.
type ChartOptions struct {
	IncludeNulls     bool   `json:"includeNulls,omitempty" doc:"Keep NULL categories under unspecifiedLabel instead of dropping them"`
	UnspecifiedLabel string `json:"unspecifiedLabel,omitempty" doc:"Label for NULL categories" example:"Non spécifié"`
	UseSelection     bool   `json:"useSelection,omitempty" doc:"Restrict rows to those intersecting the stored selection"`
	GeomColumn       string `json:"geomColumn,omitempty" doc:"Geometry column used by the spatial filter" example:"geom"`
}

// PieRequest asks for one slice per category. Bar charts use the same shape.
type PieRequest struct {
	_              struct{} `json:"-" additionalProperties:"true"`
	TableName      string   `json:"tableName,omitempty" doc:"Whitelisted table" example:"agri2023"`
	CategoryColumn string   `json:"categoryColumn,omitempty" doc:"Slice names" example:"culture"`
	ValueColumn    string   `json:"valueColumn,omitempty" doc:"Summed column" example:"surface_ha"`
	ChartOptions
}

// GroupedRequest asks for a category x dimension matrix across tables.
type GroupedRequest struct {
	_               struct{} `json:"-" additionalProperties:"true"`
	TableNames      []string `json:"tableNames,omitempty" doc:"Whitelisted tables, unioned" example:"[\"agri2022\",\"agri2023\"]"`
	DimensionColumn string   `json:"dimensionColumn,omitempty" doc:"Matrix columns" example:"annee"`
	CategoryColumn  string   `json:"categoryColumn,omitempty" doc:"Matrix rows" example:"culture"`
	ValueColumn     string   `json:"valueColumn,omitempty" doc:"Summed column" example:"surface_ha"`
	ChartOptions
}

// LineRequest asks for one or more series along x.
type LineRequest struct {
	_            struct{} `json:"-" additionalProperties:"true"`
	TableName    string   `json:"tableName,omitempty" doc:"Single whitelisted table" example:"interventions_pompiers"`
	TableNames   []string `json:"tableNames,omitempty" doc:"Whitelisted tables; takes precedence over tableName"`
	XColumn      string   `json:"xColumn,omitempty" doc:"X axis column" example:"mois"`
	ValueColumn  string   `json:"valueColumn,omitempty" doc:"Summed column" example:"nombre"`
	SeriesColumn string   `json:"seriesColumn,omitempty" doc:"Optional column splitting rows into series"`
	ChartOptions
}

// Tables resolves tableNames, falling back to tableName.
func (r LineRequest) Tables() []string {
	if len(r.TableNames) > 0 {
		return r.TableNames
	}
	if r.TableName != "" {
		return []string{r.TableName}
	}
	return nil
}

// SunburstRequest asks for row counts per (parent, child).
type SunburstRequest struct {
	_            struct{} `json:"-" additionalProperties:"true"`
	TableName    string   `json:"tableName,omitempty" doc:"Whitelisted table" example:"milieux_humides"`
	ParentColumn string   `json:"parentColumn,omitempty" doc:"Inner ring" example:"classe"`
	ChildColumn  string   `json:"childColumn,omitempty" doc:"Outer ring" example:"pression_1"`
	ChartOptions
}

// StructureRequest lists the tables whose schemas are compared client side.
type StructureRequest struct {
	TableNames []string `json:"tableNames" minItems:"1" doc:"Whitelisted tables" example:"[\"agri2022\",\"agri2023\"]"`
}

// TableSchema is one table's public columns, sorted by column name.
type TableSchema struct {
	TableName string          `json:"table_name" doc:"Table name" example:"agri2022"`
	SchemaDef []schema.Column `json:"schema_def" doc:"Columns sorted by name, without gid, geom and index"`
}

// PresetTypes are the chart families a preset may configure.
var PresetTypes = []string{"pie", "bar", "bar_groupé", "ligne"}

// PresetConfig is the opaque chart configuration stored as jsonb.
type PresetConfig map[string]any

// Value implements driver.Valuer.
func (c PresetConfig) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *PresetConfig) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scanning preset config: unsupported type %T", src)
	}
	return json.Unmarshal(data, c)
}

// Preset is a saved chart configuration.
type Preset struct {
	ID            int64        `json:"id" db:"id" doc:"Preset ID" example:"1"`
	Name          string       `json:"name" db:"name" doc:"Preset name, unique per owner" example:"Cultures 2023"`
	Type          string       `json:"type" db:"type" enum:"pie,bar,bar_groupé,ligne" doc:"Chart family"`
	SchemaVersion int          `json:"schema_version" db:"schema_version" doc:"Config schema version" example:"1"`
	IsPublic      bool         `json:"is_public" db:"is_public" doc:"Visible to every user"`
	OwnerID       *string      `json:"owner_id" db:"owner_id" doc:"Owner, null for shared presets"`
	Config        PresetConfig `json:"config" db:"config" doc:"Chart configuration"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// PresetInput creates a preset or, with zero fields left unchanged, updates one.
type PresetInput struct {
	_             struct{}     `json:"-" additionalProperties:"true"`
	Name          string       `json:"name,omitempty" maxLength:"200" doc:"Preset name" example:"Cultures 2023"`
	Type          string       `json:"type,omitempty" doc:"One of pie, bar, bar_groupé, ligne" example:"pie"`
	SchemaVersion *int         `json:"schema_version,omitempty" doc:"Defaults to 1 on create" example:"1"`
	IsPublic      *bool        `json:"is_public,omitempty" doc:"Defaults to false on create"`
	OwnerID       *string      `json:"owner_id,omitempty" doc:"Owner identifier"`
	Config        PresetConfig `json:"config,omitempty" doc:"Chart configuration"`
}
