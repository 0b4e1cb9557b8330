package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/booking"
)

func TestAppendAndHistory_Ordered(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		s.Append("s1", Turn{Role: RoleUser, Content: fmt.Sprintf("msg %d", i)})
	}

	turns, err := s.History("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 5 {
		t.Fatalf("history = %d turns, want 5", len(turns))
	}
	for i, turn := range turns {
		if turn.Content != fmt.Sprintf("msg %d", i) {
			t.Errorf("turn %d = %q", i, turn.Content)
		}
	}
}

func TestHistory_UnknownSession(t *testing.T) {
	s := NewStore()
	if _, err := s.History("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestHistory_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Append("s1", Turn{Role: RoleUser, Content: "original"})

	turns, _ := s.History("s1")
	turns[0].Content = "mutated"

	again, _ := s.History("s1")
	if again[0].Content != "original" {
		t.Error("history exposed internal slice")
	}
}

func TestDraft_CopiedBothWays(t *testing.T) {
	s := NewStore()
	d := &booking.Draft{Name: "Jane Doe", Confidence: map[string]float64{"name": 0.9}}
	s.SetDraft("s1", d)

	d.Name = "changed"
	if got := s.Draft("s1"); got.Name != "Jane Doe" {
		t.Error("SetDraft did not copy")
	}

	got := s.Draft("s1")
	got.Confidence["name"] = 0.1
	if s.Draft("s1").Confidence["name"] != 0.9 {
		t.Error("Draft did not copy the confidence map")
	}

	s.SetDraft("s1", nil)
	if s.Draft("s1") != nil {
		t.Error("nil SetDraft should clear the slot")
	}
}

// Interleaved Update calls on one session must each see the other's writes.
func TestUpdate_ConcurrentMergesSeeEachOther(t *testing.T) {
	s := NewStore()
	fields := []booking.Fields{
		{Name: "Jane Doe"},
		{Email: "jane@example.com"},
		{Date: "2026-03-12"},
		{Time: "14:00"},
	}

	var wg sync.WaitGroup
	for i := range fields {
		wg.Add(1)
		go func(f booking.Fields) {
			defer wg.Done()
			s.Update("s1", func(sess *Session) {
				var d booking.Draft
				if prior := sess.Draft(); prior != nil {
					d = *prior
				}
				d.Merge(f, nil, 0)
				sess.SetDraft(&d)
			})
		}(fields[i])
	}
	wg.Wait()

	d := s.Draft("s1")
	if d == nil || d.Name == "" || d.Email == "" || d.Date == "" || d.Time == "" {
		t.Errorf("concurrent merges lost fields: %+v", d)
	}
}

func TestPruneIdle(t *testing.T) {
	s := NewStore()
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.Append("old", Turn{Role: RoleUser, Content: "hi"})
	current = current.Add(25 * time.Hour)
	s.Append("fresh", Turn{Role: RoleUser, Content: "hi"})

	removed := s.PruneIdle(24 * time.Hour)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := s.History("old"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("idle session should be gone")
	}
	if _, err := s.History("fresh"); err != nil {
		t.Error("active session should survive")
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestPruneIdle_ZeroDisables(t *testing.T) {
	s := NewStore()
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.Append("s1", Turn{Role: RoleUser, Content: "hi"})
	current = current.Add(1000 * time.Hour)

	if removed := s.PruneIdle(0); removed != 0 {
		t.Errorf("removed = %d, want 0 when disabled", removed)
	}
	if s.Len() != 1 {
		t.Error("session should survive with pruning disabled")
	}
}
