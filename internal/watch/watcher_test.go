package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "users.xml")
	require.NoError(t, os.WriteFile(source, []byte("<mapper namespace=\"users\"/>"), 0o644))

	changes := make(chan []string, 1)
	w, err := New([]string{source}, func(changed []string) error {
		changes <- changed
		return nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(source, []byte("<mapper namespace=\"users\"></mapper>"), 0o644))

	select {
	case changed := <-changes:
		require.Len(t, changed, 1)
		abs, _ := filepath.Abs(source)
		assert.Equal(t, abs, changed[0])
	case <-time.After(3 * time.Second):
		t.Fatal("no reload within timeout")
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "users.xml")
	require.NoError(t, os.WriteFile(source, []byte("<mapper namespace=\"users\"/>"), 0o644))

	changes := make(chan []string, 1)
	w, err := New([]string{source}, func(changed []string) error {
		changes <- changed
		return nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case changed := <-changes:
		t.Fatalf("unexpected reload for %v", changed)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestDebouncer_BatchesBurst(t *testing.T) {
	batches := make(chan []string, 1)
	d := newDebouncer(100*time.Millisecond, func(changed []string) {
		batches <- changed
	})
	defer d.stop()

	d.add("b.xml")
	d.add("a.xml")
	d.add("a.xml")

	select {
	case changed := <-batches:
		assert.Equal(t, []string{"a.xml", "b.xml"}, changed)
	case <-time.After(2 * time.Second):
		t.Fatal("no batch within timeout")
	}
}
