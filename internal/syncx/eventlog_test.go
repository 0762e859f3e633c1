package syncx_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/gradeassist/internal/db"
	"github.com/mind-engage/gradeassist/internal/syncx"
)

func TestAppendAndByKey(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	repo := syncx.NewEventRepo(conn)

	e1, err := syncx.NewEvent(syncx.TypeExportUploaded, "s1", map[string]string{"sessionName": "PR1"})
	require.NoError(t, err)
	e2, err := syncx.NewEvent(syncx.TypeGroupMarkSet, "s1", map[string]any{"team": "Team A", "groupMark": 80})
	require.NoError(t, err)
	e3, err := syncx.NewEvent(syncx.TypeGroupMarkSet, "s2", map[string]any{"team": "Team B"})
	require.NoError(t, err)
	for _, e := range []syncx.Event{e1, e2, e3} {
		require.NoError(t, repo.Append(ctx, e))
	}

	got, err := repo.ByKey(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, syncx.TypeExportUploaded, got[0].Type)
	assert.Equal(t, syncx.TypeGroupMarkSet, got[1].Type)
	assert.JSONEq(t, `{"team":"Team A","groupMark":80}`, string(got[1].Data))
	assert.Equal(t, "local", got[0].SiteID)
	assert.Less(t, got[0].ID, got[1].ID)

	none, err := repo.ByKey(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
