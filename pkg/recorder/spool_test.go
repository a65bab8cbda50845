package recorder

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpool(t *testing.T, storePath string, records ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(SpoolPath(storePath), []byte(strings.Join(records, "")), 0600))
}

func TestSpoolPath(t *testing.T) {
	assert.Equal(t, "/r/build/build.db.pending", SpoolPath("/r/build/build.db"))
}

func TestReadSpool(t *testing.T) {
	store := newStore(t, "spool")
	writeSpool(t, store,
		"open\t/etc/app.conf\x00",
		"mkdir\t/tmp/work/../out\x00",
		"openat\trelative/file\x00",
		"garbage\x00",
		"\t/no/hook\x00",
		"unlink\t/var/torn")

	entries, err := ReadSpool(SpoolPath(store))
	require.NoError(t, err)
	assert.Equal(t, []SpoolEntry{
		{Hook: "open", Path: "/etc/app.conf"},
		{Hook: "mkdir", Path: "/tmp/out"},
		{Hook: "openat", Path: "relative/file"},
	}, entries)
}

func TestReadSpoolMissing(t *testing.T) {
	entries, err := ReadSpool(SpoolPath(newStore(t, "none")))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIngest(t *testing.T) {
	store := newStore(t, "forked")
	rec := New(store, nil)
	require.NoError(t, rec.Add("/etc/app.conf"))
	writeSpool(t, store,
		"open\t/etc/app.conf\x00",
		"creat\t/tmp/written-by-child\x00",
		"open\t/proc/self/status\x00")

	n, err := rec.Ingest(func(_, path string) bool {
		return !strings.HasPrefix(path, "/proc")
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	paths, err := Paths(store)
	require.NoError(t, err)
	assert.Equal(t, []string{"/etc/app.conf", "/tmp/written-by-child"}, paths)

	_, err = os.Stat(SpoolPath(store))
	assert.True(t, os.IsNotExist(err))
}

func TestIngestWithoutSpool(t *testing.T) {
	n, err := New(newStore(t, "quiet"), nil).Ingest(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIngestUnbound(t *testing.T) {
	_, err := New("", nil).Ingest(nil)
	assert.ErrorIs(t, err, ErrNoStore)
}
