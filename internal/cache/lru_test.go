package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCache_GetSet(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[float64](2, time.Hour)
	c.SetClock(clock.now)

	c.Set("key_rate", 16.5)
	v, stored, ok := c.GetWithTime("key_rate")
	if !ok || v != 16.5 || !stored.Equal(clock.t) {
		t.Fatalf("GetWithTime() = %v, %v, %v", v, stored, ok)
	}

	clock.t = clock.t.Add(61 * time.Minute)
	if _, ok := c.Get("key_rate"); ok {
		t.Error("Get() returned an expired entry")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after expired read, want 0", c.Size())
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("entry %s missing", k)
		}
	}

	c.Set("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("overwritten value = %d, want 10", v)
	}
	c.Delete("a")
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestManager_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	short := NewLRUCache[string](10, time.Minute)
	short.SetClock(clock.now)
	long := NewLRUCache[string](10, time.Hour)
	long.SetClock(clock.now)

	short.Set("x", "1")
	short.Set("y", "2")
	long.Set("z", "3")

	m := NewManager(nil)
	m.Register(short)
	m.Register(long)

	clock.t = clock.t.Add(2 * time.Minute)
	if n := m.Sweep(); n != 2 {
		t.Errorf("Sweep() = %d, want 2", n)
	}
	if long.Size() != 1 {
		t.Errorf("long-lived cache lost entries")
	}

	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
