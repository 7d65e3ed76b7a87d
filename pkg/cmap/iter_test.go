package cmap

import (
	"sort"
	"testing"
)

func TestRange(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	collected := make(map[string]int)
	m.Range(func(key string, value int) bool {
		collected[key] = value
		return true
	})

	if len(collected) != 3 {
		t.Errorf("Range collected %d items, want 3", len(collected))
	}

	for k, v := range map[string]int{"a": 1, "b": 2, "c": 3} {
		if collected[k] != v {
			t.Errorf("collected[%s] = %d, want %d", k, collected[k], v)
		}
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 100; i++ {
		m.Set(i, i)
	}

	count := 0
	m.Range(func(key, value int) bool {
		count++
		return count < 10
	})

	if count != 10 {
		t.Errorf("Range stopped at %d, want 10", count)
	}
}

func TestKeys(t *testing.T) {
	m := New[string, int]()
	m.Set("x", 1)
	m.Set("y", 2)
	m.Set("z", 3)

	keys := m.Keys()
	if len(keys) != 3 {
		t.Errorf("Keys() length = %d, want 3", len(keys))
	}

	sort.Strings(keys)
	expected := []string{"x", "y", "z"}
	for i, k := range keys {
		if k != expected[i] {
			t.Errorf("keys[%d] = %q, want %q", i, k, expected[i])
		}
	}
}

func TestValues(t *testing.T) {
	m := New[string, int]()
	m.Set("x", 10)
	m.Set("y", 20)
	m.Set("z", 30)

	values := m.Values()
	if len(values) != 3 {
		t.Errorf("Values() length = %d, want 3", len(values))
	}

	sort.Ints(values)
	expected := []int{10, 20, 30}
	for i, v := range values {
		if v != expected[i] {
			t.Errorf("values[%d] = %d, want %d", i, v, expected[i])
		}
	}
}

func TestSortedKeys(t *testing.T) {
	m := New[uint64, string]()
	m.Set(30, "c")
	m.Set(10, "a")
	m.Set(20, "b")

	keys := SortedKeys(m)
	expected := []uint64{10, 20, 30}
	if len(keys) != len(expected) {
		t.Fatalf("SortedKeys() length = %d, want %d", len(keys), len(expected))
	}
	for i, k := range keys {
		if k != expected[i] {
			t.Errorf("keys[%d] = %d, want %d", i, k, expected[i])
		}
	}
}

func TestGetOrSet(t *testing.T) {
	m := New[string, int]()

	// First call sets the value
	val, existed := m.GetOrSet("key1", 100)
	if existed || val != 100 {
		t.Errorf("GetOrSet(new) = (%d, %v), want (100, false)", val, existed)
	}

	// Second call returns the existing value
	val, existed = m.GetOrSet("key1", 200)
	if !existed || val != 100 {
		t.Errorf("GetOrSet(existing) = (%d, %v), want (100, true)", val, existed)
	}
}

func TestUpdate(t *testing.T) {
	m := New[uint64, []uint64]()

	m.Update(1, func(children []uint64, exists bool) []uint64 {
		if exists {
			t.Error("Update callback: exists = true on first update")
		}
		return append(children, 7)
	})
	m.Update(1, func(children []uint64, exists bool) []uint64 {
		if !exists {
			t.Error("Update callback: exists = false on second update")
		}
		return append(children, 9)
	})

	val, ok := m.Get(1)
	if !ok || len(val) != 2 || val[0] != 7 || val[1] != 9 {
		t.Errorf("Get(1) = (%v, %v), want ([7 9], true)", val, ok)
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[string, int]()

	if !m.SetIfAbsent("key1", 100) {
		t.Error("SetIfAbsent(absent) should return true")
	}

	val, _ := m.Get("key1")
	if val != 100 {
		t.Errorf("Get(key1) = %d, want 100", val)
	}

	if m.SetIfAbsent("key1", 200) {
		t.Error("SetIfAbsent(present) should return false")
	}

	val, _ = m.Get("key1")
	if val != 100 {
		t.Errorf("value changed unexpectedly: %d, want 100", val)
	}
}

func TestPop(t *testing.T) {
	m := New[string, int]()
	m.Set("key1", 42)

	val, ok := m.Pop("key1")
	if !ok || val != 42 {
		t.Errorf("Pop(key1) = (%d, %v), want (42, true)", val, ok)
	}

	if m.Has("key1") {
		t.Error("key1 should not exist after Pop")
	}

	_, ok = m.Pop("key1")
	if ok {
		t.Error("Pop(missing) should return false")
	}
}
