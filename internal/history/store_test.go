package history

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anubad-lang/anubad"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	source := "দেখাও(১)"
	result := &anubad.Output{Text: "1\n", Steps: 2}
	rec, err := store.Record(ctx, source, result, 3*time.Millisecond)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Source != source || got.Kind != anubad.KindOutput || got.Steps != 2 {
		t.Errorf("Unexpected record: %+v", got)
	}
	if got.Display != anubad.FormatSuccess("1\n") {
		t.Errorf("Expected formatted display, got %q", got.Display)
	}
	if got.Elapsed != 3*time.Millisecond {
		t.Errorf("Expected 3ms, got %s", got.Elapsed)
	}
	if got.Digest != Digest(source) || len(got.Digest) != 64 {
		t.Errorf("Unexpected digest %q", got.Digest)
	}

	if byPrefix, err := store.Get(ctx, rec.ID[:8]); err != nil || byPrefix.ID != rec.ID {
		t.Errorf("Expected prefix lookup to find %s, got %v", rec.ID, err)
	}
}

func TestGetUnknown(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetMatchesPrefixLiterally(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec, err := store.Record(ctx, "print(1)", &anubad.Output{Text: "1\n"}, 0)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	for _, id := range []string{"%", "_", rec.ID[:4] + "%", "_" + rec.ID[1:]} {
		if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for %q, got %v", id, err)
		}
	}
	if got, err := store.Get(ctx, strings.ToUpper(rec.ID[:8])); err != nil || got.ID != rec.ID {
		t.Errorf("Expected upper-case prefix to find %s, got %v", rec.ID, err)
	}
}

func TestRecentAndDigest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sources := []string{"print(1)", "x = (", "print(1)"}
	results := []anubad.Result{
		&anubad.Output{Text: "1\n"},
		&anubad.CompileError{Message: "unexpected token", Position: &anubad.SourcePosition{Line: 1}},
		&anubad.Output{Text: "1\n"},
	}
	for i := range sources {
		if _, err := store.Record(ctx, sources[i], results[i], 0); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recent))
	}
	if recent[1].Kind != anubad.KindSyntaxError || recent[1].Line != 1 {
		t.Errorf("Expected syntax error second, got %+v", recent[1])
	}

	same, err := store.ByDigest(ctx, Digest("print(1)"))
	if err != nil {
		t.Fatalf("ByDigest failed: %v", err)
	}
	if len(same) != 2 {
		t.Errorf("Expected 2 runs of the same source, got %d", len(same))
	}
}

func TestDigestNormalizes(t *testing.T) {
	if Digest("\u09b9\u09df") != Digest("\u09b9\u09af\u09bc") {
		t.Error("Expected equivalent spellings to share a digest")
	}
	if Digest("a") == Digest("b") {
		t.Error("Expected different sources to differ")
	}
}
