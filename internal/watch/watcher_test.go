// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startWatcher(t *testing.T, cfg Config) (cancel func()) {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, stop := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	// Let the event loop start before files are touched.
	time.Sleep(50 * time.Millisecond)
	return func() {
		stop()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Run() error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run() did not return after cancel")
		}
	}
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var (
		mu    sync.Mutex
		calls int
		got   []string
	)
	done := make(chan struct{}, 1)
	cancel := startWatcher(t, Config{
		BaseDir:  dir,
		Patterns: []string{"**/*.rs"},
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			got = append(got, changed...)
			done <- struct{}{}
			return nil
		},
	})

	for _, name := range []string{"a.rs", "b.rs", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("fn main() {}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(250 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("callback fired %d times, want 1", calls)
	}
	slices.Sort(got)
	got = slices.Compact(got)
	if !slices.Equal(got, []string{"a.rs", "b.rs"}) {
		t.Errorf("changed = %v, want [a.rs b.rs]", got)
	}
}

func TestWatcherIgnoresAndNewDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fired := make(chan []string, 10)
	cancel := startWatcher(t, Config{
		BaseDir:  dir,
		Ignore:   []string{"bundled/**"},
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			fired <- changed
			return nil
		},
	})
	defer cancel()

	if err := os.MkdirAll(filepath.Join(dir, "bundled", "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bundled", "src", "a.rs"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "crates"), 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "crates", "lib.rs"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case changed := <-fired:
		if !slices.Contains(changed, "crates/lib.rs") {
			t.Errorf("changed = %v, want crates/lib.rs", changed)
		}
		for _, c := range changed {
			if filepath.Dir(c) == "bundled/src" {
				t.Errorf("ignored path %s reported", c)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

func TestWatcherRunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	if err := w.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("Run() error: %v", err)
	}
}

func TestNewRejectsInvalidPatterns(t *testing.T) {
	t.Parallel()

	tests := []Config{
		{Patterns: []string{"[unclosed"}},
		{Ignore: []string{""}},
	}
	for _, cfg := range tests {
		cfg.BaseDir = t.TempDir()
		if _, err := New(cfg); err == nil {
			t.Errorf("New(%+v) error = nil, want invalid pattern", cfg)
		}
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	w := &Watcher{ignores: DefaultIgnores()}
	tests := []struct {
		rel  string
		want bool
	}{
		{".git/HEAD", true},
		{"target/debug/a", true},
		{"crates/algorist/target/x.rs", true},
		{"src/bin/a.rs.bk", true},
		{"src/bin/a.rs", false},
		{"crates/algorist/src/lib.rs", false},
	}
	for _, tt := range tests {
		if got := w.ignored(tt.rel); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}

	cp := DefaultIgnores()
	cp[0] = "changed"
	if DefaultIgnores()[0] == "changed" {
		t.Error("DefaultIgnores() returned the shared slice")
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	t.Parallel()

	fired := make(chan []string, 4)
	d := newDebouncer(30*time.Millisecond, func(b []string) { fired <- b }, nil)
	defer d.stop()
	d.add("b")
	d.add("a")
	d.add("b")

	select {
	case batch := <-fired:
		if !slices.Equal(batch, []string{"a", "b"}) {
			t.Errorf("batch = %v, want [a b]", batch)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}
}
