package db

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/octidy/internal/errors"
)

func TestInsertAndListDeletions(t *testing.T) {
	ctx := context.Background()
	db, err := Init(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	entries := []Deletion{
		{Kind: KindSession, TargetID: "ses_1", Label: "Fix build", Success: true, FilesDeleted: 6, BytesFreed: 4096, CreatedAt: 100},
		{Kind: KindSession, TargetID: "ses_2", Success: false, Error: "IO_FAILURE: remove x: permission denied", CreatedAt: 200},
		{Kind: KindLog, TargetID: "2025-01-01T000000.log", Success: true, BytesFreed: 10, CreatedAt: 300},
	}
	require.NoError(t, InsertDeletions(ctx, db, entries))
	for _, e := range entries {
		_, err := ulid.ParseStrict(e.ID)
		assert.NoError(t, err, "id %q", e.ID)
	}

	all, total, err := ListDeletions(ctx, db, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, "2025-01-01T000000.log", all[0].TargetID)
	assert.Equal(t, entries[0], all[2])
	assert.Equal(t, "IO_FAILURE: remove x: permission denied", all[1].Error)
	assert.False(t, all[1].Success)

	sessions, total, err := ListDeletions(ctx, db, KindSession, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, sessions, 1)
	assert.Equal(t, "ses_2", sessions[0].TargetID)
}

func TestInsertDeletion_FillsDefaults(t *testing.T) {
	ctx := context.Background()
	db, err := Init(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	d := Deletion{Kind: KindProject, TargetID: "prj_1", Success: true}
	require.NoError(t, InsertDeletion(ctx, db, &d))
	assert.NotEmpty(t, d.ID)
	assert.InDelta(t, time.Now().Unix(), d.CreatedAt, 5)

	require.NoError(t, InsertDeletions(ctx, db, nil))
}

func TestPurgeDeletions(t *testing.T) {
	ctx := context.Background()
	db, err := Init(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	old := time.Now().AddDate(0, 0, -30).Unix()
	require.NoError(t, InsertDeletions(ctx, db, []Deletion{
		{Kind: KindSession, TargetID: "old", Success: true, CreatedAt: old},
		{Kind: KindSession, TargetID: "new", Success: true},
	}))

	n, err := PurgeDeletions(ctx, db, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	left, _, err := ListDeletions(ctx, db, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].TargetID)

	_, err = PurgeDeletions(ctx, db, -1)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	n, err = PurgeDeletions(ctx, db, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
