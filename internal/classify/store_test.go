package classify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

func TestNewStore_Defaults(t *testing.T) {
	s, err := NewStore("")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if got := s.Rules().Categorize("system_server"); got != model.CategorySystem {
		t.Fatalf("default table not active: %s", got)
	}
	if err := s.Watch(context.Background(), nil); err != nil {
		t.Fatalf("watch without a file should be a no-op: %v", err)
	}
}

func TestNewStore_BadFile(t *testing.T) {
	if _, err := NewStore(writeRulesFile(t, "rules: []\n")); err == nil {
		t.Fatal("invalid rule file should fail")
	}
}

func TestStore_Replace(t *testing.T) {
	s, _ := NewStore("")
	s.Replace(nil)
	if s.Rules() == nil {
		t.Fatal("nil replace must keep the current table")
	}
	s.Replace(&Rules{Default: model.CategorySystem})
	if got := s.Rules().Categorize("com.whatsapp"); got != model.CategorySystem {
		t.Fatalf("replacement not active: %s", got)
	}
}

func TestStore_WatchReloads(t *testing.T) {
	path := writeRulesFile(t, "rules:\n  - match: exact\n    pattern: com.example\n    category: system\n")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Watch(ctx, nil); err != nil {
		t.Fatalf("watch: %v", err)
	}

	// a broken edit keeps the previous table
	if err := os.WriteFile(path, []byte("rules: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := s.Rules().Categorize("com.example"); got != model.CategorySystem {
		t.Fatalf("broken reload replaced the table: %s", got)
	}

	if err := os.WriteFile(path, []byte("rules:\n  - match: exact\n    pattern: com.example\n    category: user\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.Rules().Categorize("com.example") == model.CategoryUser {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("rule table was not reloaded")
}
