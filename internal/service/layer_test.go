package service

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geodash/internal/aggregate"
	"github.com/joeblew999/geodash/internal/schema"
)

func newLayerService(t *testing.T) (*LayerService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	log := discardLogger()
	return NewLayerService(db, schema.NewGuard(db, "public", log), log), mock
}

func TestLayer_ValidateStructureSortsColumns(t *testing.T) {
	svc, mock := newLayerService(t)
	mock.MatchExpectationsInOrder(false)
	expectColumns(mock, "agri2022", "surface", "gid", "culture", "geom", "index")
	expectColumns(mock, "agri2023", "culture", "geom", "surface")

	got, err := svc.ValidateStructure(context.Background(), []string{"agri2022", "agri2023"})

	require.NoError(t, err)
	require.Len(t, got, 2)
	want := []schema.Column{
		{Name: "culture", Type: "text"},
		{Name: "surface", Type: "text"},
	}
	assert.Equal(t, "agri2022", got[0].TableName)
	assert.Equal(t, want, got[0].SchemaDef, "bookkeeping columns must not make tables differ")
	assert.Equal(t, "agri2023", got[1].TableName)
	assert.Equal(t, want, got[1].SchemaDef)

	b, err := json.Marshal(got[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"table_name":"agri2023","schema_def":[{"name":"culture","type":"text"},{"name":"surface","type":"text"}]}`, string(b))
}

func TestLayer_ValidateStructureRejectsTable(t *testing.T) {
	svc, mock := newLayerService(t)

	_, err := svc.ValidateStructure(context.Background(), []string{"agri2022", "pg_roles"})

	var tna *schema.TableNotAllowedError
	require.ErrorAs(t, err, &tna)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayer_Features(t *testing.T) {
	svc, mock := newLayerService(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "public"."casernes" AS t WHERE "geom" IS NOT NULL`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`ST_AsGeoJSON(CASE WHEN ST_SRID("geom") = 0 THEN "geom" ELSE ST_Transform("geom", 4326) END) AS geometry`)).
		WillReturnRows(sqlmock.NewRows([]string{"geometry", "properties"}).
			AddRow(`{"type":"Point","coordinates":[-73.6,45.5]}`, `{"gid":1,"nom":"Caserne 1"}`).
			AddRow(`{"type":"Point","coordinates":[-73.5,45.6]}`, `{"gid":2,"nom":"Caserne 2"}`))

	page, err := svc.Features(context.Background(), "casernes", 2, 0)

	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Collection.Features, 2)
	assert.Equal(t, orb.Point{-73.6, 45.5}, page.Collection.Features[0].Geometry)
	assert.Equal(t, "Caserne 2", page.Collection.Features[1].Properties["nom"])
	assert.Len(t, page.Collection.BBox, 4)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayer_FeaturesEmpty(t *testing.T) {
	svc, mock := newLayerService(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*)`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := svc.Features(context.Background(), "bati", 100, 0)
	assert.ErrorIs(t, err, aggregate.ErrNoData)
}

func TestLayer_FeaturesValidation(t *testing.T) {
	svc, mock := newLayerService(t)

	for _, tc := range []struct{ limit, offset int }{{0, 0}, {-1, 0}, {10, -1}} {
		_, err := svc.Features(context.Background(), "bati", tc.limit, tc.offset)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	}

	_, err := svc.Features(context.Background(), "chart_presets", 10, 0)
	var tna *schema.TableNotAllowedError
	assert.ErrorAs(t, err, &tna)
	assert.NoError(t, mock.ExpectationsWereMet())
}
