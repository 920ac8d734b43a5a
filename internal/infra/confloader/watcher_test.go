package confloader

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func startWatcher(t *testing.T, path string) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher(path, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	changed := make(chan string, 10)
	w.OnChange(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Stop()
	})

	// Give the event loop a moment before writing.
	time.Sleep(50 * time.Millisecond)
	return w, changed
}

func TestNewWatcher_NonexistentDir(t *testing.T) {
	if _, err := NewWatcher("/nonexistent/path/config.yaml"); err == nil {
		t.Error("NewWatcher() expected error for nonexistent directory")
	}
}

func TestWatcher_Path(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if !filepath.IsAbs(w.Path()) {
		t.Errorf("Path() = %q, want absolute", w.Path())
	}
}

func TestWatcher_FileChange(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configFile, "log:\n  level: info\n")

	w, changed := startWatcher(t, configFile)
	writeFile(t, configFile, "log:\n  level: debug\n")

	select {
	case path := <-changed:
		if path != w.Path() {
			t.Errorf("callback path = %q, want %q", path, w.Path())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnChange() callback was not triggered within timeout")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	writeFile(t, configFile, "a: 1\n")

	_, changed := startWatcher(t, configFile)
	writeFile(t, filepath.Join(dir, "other.yaml"), "b: 2\n")

	select {
	case path := <-changed:
		t.Errorf("unexpected callback for %q", path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_Debounce(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configFile, "a: 0\n")

	_, changed := startWatcher(t, configFile)
	for i := range 5 {
		writeFile(t, configFile, "a: "+string(rune('1'+i))+"\n")
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no callback after burst of writes")
	}
	select {
	case <-changed:
		t.Error("burst of writes produced more than one callback")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_StopEndsRun(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestWatcher_ConcurrentCallbacks(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var count int
	var mu sync.Mutex
	w.OnChange(func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.notifyCallbacks("/test/path")
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 100 {
		t.Errorf("Concurrent notifications: count = %d, want 100", count)
	}
}
