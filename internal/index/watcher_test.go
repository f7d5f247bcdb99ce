package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"homesite/internal/models"
	"homesite/internal/storage"
)

// watcherTestEnv sets up a content root, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (storage.Store, *DB) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, quietLogger(), func(kind string, col models.Collection, filename string) {
		mu.Lock()
		events = append(events, kind+":"+string(col)+"/"+filename)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(store.Dir(models.CollectionBlog), "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("blog", "new.md")
		return cs != ""
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:blog/new.md" {
				return true
			}
		}
		return false
	}, "expected created:blog/new.md callback")
}

func TestWatcher_SidecarReindexes(t *testing.T) {
	store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(store.Dir(models.CollectionNote), "n.md"), []byte("# N"), 0o644)
	Sync(db, store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(store.Dir(models.CollectionNote), "n.tags.json"), []byte(`{"tags":["later"]}`), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		results, _ := db.Search("later", "note", 10)
		return len(results) == 1
	}, "sidecar write did not reindex its document")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	store, db := watcherTestEnv(t)

	path := filepath.Join(store.Dir(models.CollectionBlog), "del.md")
	_ = os.WriteFile(path, []byte("# Delete Me"), 0o644)
	Sync(db, store, quietLogger())

	cs, _ := db.GetChecksum("blog", "del.md")
	if cs == "" {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(path)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("blog", "del.md")
		return cs == ""
	}, "deleted file still in index")
}

func TestReconcile_DistinguishesCreatedFromUpdated(t *testing.T) {
	store, db := watcherTestEnv(t)

	dir := store.Dir(models.CollectionBlog)
	_ = os.WriteFile(filepath.Join(dir, "a.md"), []byte("# One"), 0o644)
	Sync(db, store, quietLogger())

	// a.md changes content, b.md is brand new.
	_ = os.WriteFile(filepath.Join(dir, "a.md"), []byte("# One revised"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "b.md"), []byte("# Two"), 0o644)

	var events []string
	reconcile(db, store, quietLogger(), func(kind string, col models.Collection, filename string) {
		events = append(events, kind+":"+string(col)+"/"+filename)
	})

	want := map[string]bool{
		"updated:blog/a.md": false,
		"created:blog/b.md": false,
	}
	for _, e := range events {
		if _, ok := want[e]; ok {
			want[e] = true
		} else {
			t.Errorf("unexpected event %s", e)
		}
	}
	for e, seen := range want {
		if !seen {
			t.Errorf("missing event %s, got %v", e, events)
		}
	}
}

func TestWatcher_RenameReconciles(t *testing.T) {
	store, db := watcherTestEnv(t)

	dir := store.Dir(models.CollectionNote)
	_ = os.WriteFile(filepath.Join(dir, "old.md"), []byte("# Rename"), 0o644)
	Sync(db, store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(dir, "old.md"), filepath.Join(dir, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("note", "old.md")
		newCS, _ := db.GetChecksum("note", "renamed.md")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old entry should be removed and new one indexed")
}
