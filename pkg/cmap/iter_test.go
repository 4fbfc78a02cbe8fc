package cmap

import (
	"sort"
	"sync"
	"testing"
)

func TestAll(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	collected := make(map[string]int)
	for k, v := range m.All() {
		collected[k] = v
	}

	want := map[string]int{"a": 1, "b": 2, "c": 3}
	if len(collected) != len(want) {
		t.Fatalf("All() yielded %d pairs, want %d", len(collected), len(want))
	}
	for k, v := range want {
		if collected[k] != v {
			t.Errorf("collected[%s] = %d, want %d", k, collected[k], v)
		}
	}
}

func TestAllEarlyBreak(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 100; i++ {
		m.Set(i, i)
	}

	count := 0
	for range m.All() {
		count++
		if count == 10 {
			break
		}
	}
	if count != 10 {
		t.Errorf("stopped after %d pairs, want 10", count)
	}
}

func TestKeys(t *testing.T) {
	m := New[string, int]()
	m.Set("x", 1)
	m.Set("y", 2)
	m.Set("z", 3)

	keys := m.Keys()
	sort.Strings(keys)
	want := []string{"x", "y", "z"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() length = %d, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestGetOrSet(t *testing.T) {
	m := New[string, int]()

	val, existed := m.GetOrSet("install", 100)
	if existed || val != 100 {
		t.Errorf("GetOrSet(new) = (%d, %v), want (100, false)", val, existed)
	}

	val, existed = m.GetOrSet("install", 200)
	if !existed || val != 100 {
		t.Errorf("GetOrSet(existing) = (%d, %v), want (100, true)", val, existed)
	}
}

func TestUpdate(t *testing.T) {
	m := New[string, int]()

	inc := func(value int, exists bool) int {
		if !exists {
			return 1
		}
		return value + 1
	}

	if got := m.Update("attempts", inc); got != 1 {
		t.Errorf("Update(new) = %d, want 1", got)
	}
	if got := m.Update("attempts", inc); got != 2 {
		t.Errorf("Update(existing) = %d, want 2", got)
	}
}

func TestPop(t *testing.T) {
	m := New[string, int]()
	m.Set("session", 100)

	if val, ok := m.Pop("session"); !ok || val != 100 {
		t.Errorf("Pop(existing) = (%d, %v), want (100, true)", val, ok)
	}
	if m.Has("session") {
		t.Error("session should not exist after Pop")
	}
	if _, ok := m.Pop("session"); ok {
		t.Error("Pop(missing) should report absence")
	}
}

func TestConcurrentIteration(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 1000; i++ {
		m.Set(i, i)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				for range m.All() {
				}
			}
		}()

		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Update(base*100+j, func(v int, _ bool) int { return v + 1 })
			}
		}(i + 100)
	}
	wg.Wait()
}
