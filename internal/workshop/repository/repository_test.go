package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobnpart/internal/workshop/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "workshop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestHandoffRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	data := &models.ChatPageData{
		JobDetails: &models.JobDetails{JobNumber: "J-1", VIN: "WVW123"},
		PartsDataList: []models.PartsData{{
			Img:       "//cdn.example.com/d1.png",
			Positions: []models.Position{{Number: "1", Coordinates: models.Coordinates{10, 10, 20, 20}}},
		}},
	}

	token, err := repo.SaveHandoff(ctx, data)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := repo.LoadHandoff(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "J-1", got.JobDetails.JobNumber)
	require.Len(t, got.PartsDataList, 1)
	assert.Equal(t, models.Coordinates{10, 10, 20, 20}, got.PartsDataList[0].Positions[0].Coordinates)

	// чтение не удаляет запись
	_, err = repo.LoadHandoff(ctx, token)
	require.NoError(t, err)
}

func TestLoadHandoffMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.LoadHandoff(context.Background(), "unknown")
	assert.ErrorIs(t, err, models.ErrHandoffMissing)
}

func TestSaveHandoffRequiresJob(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.SaveHandoff(context.Background(), &models.ChatPageData{})
	assert.Error(t, err)
}

func TestPruneHandoffs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	token, err := repo.SaveHandoff(ctx, &models.ChatPageData{JobDetails: &models.JobDetails{JobNumber: "J-1"}})
	require.NoError(t, err)

	n, err := repo.PruneHandoffs(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.PruneHandoffs(ctx, -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.LoadHandoff(ctx, token)
	assert.ErrorIs(t, err, models.ErrHandoffMissing)
}

func TestJobParts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pads := models.JobPart{JobNumber: "J-1", Number: "BP-1234-VW", Name: "Front Brake Pads", Source: "SES Part Factors", Price: 49.99}
	discs := models.JobPart{JobNumber: "J-1", Number: "BD-5678-VW", Name: "Front Brake Discs", Price: 89.99}

	require.NoError(t, repo.AddPart(ctx, pads))
	require.NoError(t, repo.AddPart(ctx, discs))
	require.NoError(t, repo.AddPart(ctx, pads))
	require.NoError(t, repo.AddPart(ctx, models.JobPart{JobNumber: "J-2", Number: "BP-1234-VW"}))

	parts, err := repo.ListParts(ctx, "J-1")
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "BP-1234-VW", parts[0].Number)
	assert.Equal(t, 2, parts[0].Quantity)
	assert.Equal(t, 1, parts[1].Quantity)
	assert.InDelta(t, 2*49.99+89.99, Total(parts), 0.001)

	require.NoError(t, repo.UpdateQuantity(ctx, "J-1", "BD-5678-VW", 4))
	require.NoError(t, repo.UpdateQuantity(ctx, "J-1", "BP-1234-VW", 0))

	parts, err = repo.ListParts(ctx, "J-1")
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, 4, parts[0].Quantity)

	assert.ErrorIs(t, repo.AddPart(ctx, models.JobPart{JobNumber: "J-1"}), ErrPartNumberRequired)
}

func TestListPartsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	parts, err := repo.ListParts(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, parts)
	assert.Empty(t, parts)
}
