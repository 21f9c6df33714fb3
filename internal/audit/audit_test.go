package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/sealreel/internal/configs"
)

func withDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := configs.UserSealreelSettings.DataDir
	configs.UserSealreelSettings.DataDir = filepath.Join(dir, "sealreel")
	t.Cleanup(func() { configs.UserSealreelSettings.DataDir = old })
	return configs.UserSealreelSettings.DataDir
}

func TestLog_CreatesPrivateFile(t *testing.T) {
	dataDir := withDataDir(t)

	Log(Entry{User: "alice", Operation: OpGenerate, Fingerprint: "abc"})

	info, err := os.Stat(filepath.Join(dataDir, "audit.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLog_AppendsEntries(t *testing.T) {
	withDataDir(t)

	Log(Entry{User: "alice", Operation: OpGenerate})
	Log(Entry{User: "alice", Operation: OpUpload, ContentID: "v1"})
	Log(Entry{User: "alice", Operation: OpApprove, RequestID: "r1", Requester: "bob"})

	entries, err := ReadEntries()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, OpGenerate, entries[0].Operation)
	assert.Equal(t, "v1", entries[1].ContentID)
	assert.Equal(t, "bob", entries[2].Requester)

	ids := map[string]bool{}
	for _, e := range entries {
		assert.Len(t, e.ID, 36)
		assert.NotEmpty(t, e.Timestamp)
		ids[e.ID] = true
	}
	assert.Len(t, ids, 3)
}

func TestLog_PreservesTimestamp(t *testing.T) {
	withDataDir(t)

	Log(Entry{Operation: OpExport, Timestamp: "2024-01-01T00:00:00.000000Z"})

	entries, err := ReadEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-01-01T00:00:00.000000Z", entries[0].Timestamp)
}

func TestReadEntries_NoLog(t *testing.T) {
	withDataDir(t)

	entries, err := ReadEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHasOperation(t *testing.T) {
	withDataDir(t)

	Log(Entry{Operation: OpExport, Fingerprint: "old"})
	Log(Entry{Operation: OpGenerate, Fingerprint: "new"})

	ok, err := HasOperation(OpExport, "old")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasOperation(OpExport, "new")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewEntry(t *testing.T) {
	cfg := &configs.UserConfig{Account: configs.Account{Label: "alice", Email: "alice@example.com"}}

	entry := NewEntry(OpReject, cfg)
	assert.Equal(t, OpReject, entry.Operation)
	assert.Equal(t, "alice", entry.User)
	assert.Equal(t, "alice@example.com", entry.Email)

	assert.Equal(t, Entry{Operation: OpView}, NewEntry(OpView, nil))
}

func TestParseEntries_SkipsMalformed(t *testing.T) {
	data := []byte(`{"op":"generate","user":"alice"}
not json
{"op":"export","fingerprint":"abc"}

{"op":"upload"`)

	entries, err := ParseEntries(data)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "generate", entries[0].Operation)
	assert.Equal(t, "abc", entries[1].Fingerprint)
}

func TestParseEntries_Empty(t *testing.T) {
	entries, err := ParseEntries(nil)
	require.NoError(t, err)
	assert.Nil(t, entries)
}
