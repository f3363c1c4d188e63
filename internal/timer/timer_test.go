package timer

import (
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestManual_RunsInDueOrder(t *testing.T) {
	m := NewManual()
	var order []string
	m.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, "b") })

	m.Advance(20 * time.Millisecond)
	if !reflect.DeepEqual(order, []string{"a", "b"}) {
		t.Fatalf("after 20ms order = %v, want [a b]", order)
	}
	m.Advance(10 * time.Millisecond)
	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Fatalf("after 30ms order = %v, want [a b c]", order)
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", m.Pending())
	}
}

func TestManual_Stop(t *testing.T) {
	m := NewManual()
	ran := false
	tm := m.AfterFunc(5*time.Millisecond, func() { ran = true })

	if !tm.Stop() {
		t.Error("first Stop() = false, want true")
	}
	if tm.Stop() {
		t.Error("second Stop() = true, want false")
	}
	m.Advance(time.Second)
	if ran {
		t.Error("stopped timer ran")
	}
}

func TestManual_NestedScheduling(t *testing.T) {
	m := NewManual()
	var at []time.Duration
	m.AfterFunc(10*time.Millisecond, func() {
		at = append(at, m.Now())
		m.AfterFunc(10*time.Millisecond, func() { at = append(at, m.Now()) })
	})

	m.Advance(25 * time.Millisecond)
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if !reflect.DeepEqual(at, want) {
		t.Errorf("callback times = %v, want %v", at, want)
	}
	if m.Now() != 25*time.Millisecond {
		t.Errorf("Now() = %v, want 25ms", m.Now())
	}
}

func TestReal_AfterFunc(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	Real{}.AfterFunc(time.Millisecond, wg.Done)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Real.AfterFunc callback did not run")
	}
}
