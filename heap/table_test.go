package heap

import (
	stderrors "errors"
	"math/rand"
	"testing"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

func TestTable_ReservedSlots(t *testing.T) {
	table := NewTable()

	tests := []struct {
		v    any
		want Handle
	}{
		{jsvalue.Undefined{}, HandleUndefined},
		{nil, HandleUndefined},
		{jsvalue.Null{}, HandleNull},
		{true, HandleTrue},
		{false, HandleFalse},
	}
	for _, tt := range tests {
		if h := table.Alloc(tt.v); h != tt.want {
			t.Errorf("Alloc(%#v) = %d, want %d", tt.v, h, tt.want)
		}
	}

	if table.Len() != 0 {
		t.Errorf("Len() = %d, reserved slots should not count", table.Len())
	}

	table.Free(HandleNull)
	if v := table.Get(HandleNull); v != (jsvalue.Null{}) {
		t.Errorf("reserved slot changed after Free: %#v", v)
	}
	if v := table.Get(HandleTrue); v != true {
		t.Errorf("Get(true) = %#v", v)
	}
}

func TestTable_AllocGetFree(t *testing.T) {
	table := NewTable()

	h := table.Alloc("hello")
	if IsReserved(h) {
		t.Fatalf("Alloc returned reserved handle %d", h)
	}
	if v := table.Get(h); v != "hello" {
		t.Fatalf("Get = %v, want hello", v)
	}

	table.Free(h)
	if _, ok := table.Lookup(h); ok {
		t.Error("handle should be dead after Free")
	}

	h2 := table.Alloc(42)
	if h2 != h {
		t.Errorf("freed slot not reused: got %d, want %d", h2, h)
	}
	if v := table.Get(h2); v != 42.0 {
		t.Errorf("Get = %#v, want normalized 42", v)
	}
}

func TestTable_FreeListIsLIFO(t *testing.T) {
	table := NewTable()
	a := table.Alloc("a")
	b := table.Alloc("b")
	c := table.Alloc("c")

	table.Free(a)
	table.Free(c)

	if got := table.Alloc("x"); got != c {
		t.Errorf("first reuse = %d, want %d", got, c)
	}
	if got := table.Alloc("y"); got != a {
		t.Errorf("second reuse = %d, want %d", got, a)
	}
	if got := table.Alloc("z"); got != c+1 {
		t.Errorf("growth = %d, want %d", got, c+1)
	}
	_ = b
}

func TestTable_TakeAndClone(t *testing.T) {
	table := NewTable()
	obj := jsvalue.NewObject()
	h := table.Alloc(obj)

	c := table.Clone(h)
	if c == h {
		t.Fatal("Clone returned the same handle")
	}
	if table.Get(c) != obj {
		t.Error("clone does not point to the same value")
	}

	if v := table.Take(h); v != obj {
		t.Error("Take returned wrong value")
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
	if table.Get(c) != obj {
		t.Error("clone should survive freeing the original")
	}
}

func expectViolation(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("%s: expected panic", name)
		}
		err, ok := r.(error)
		if !ok || !stderrors.Is(err, &errors.Error{Phase: errors.PhaseHeap, Kind: errors.KindContractViolation}) {
			t.Fatalf("%s: panic value %v is not a heap contract violation", name, r)
		}
	}()
	fn()
}

func TestTable_ContractViolations(t *testing.T) {
	table := NewTable()
	h := table.Alloc("v")
	table.Free(h)

	expectViolation(t, "get freed", func() { table.Get(h) })
	expectViolation(t, "double free", func() { table.Free(h) })
	expectViolation(t, "out of range", func() { table.Get(9999) })
}

type dropCounter struct{ n *int }

func (d dropCounter) Drop() { *d.n++ }

func TestTable_ObserversAndDropper(t *testing.T) {
	table := NewTable()
	var events []Event
	table.Subscribe(ObserverFunc(func(e Event) { events = append(events, e) }))

	drops := 0
	h := table.Alloc(dropCounter{n: &drops})
	table.Alloc(true) // reserved, no event
	table.Free(h)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventCreated || events[1].Type != EventDropped {
		t.Errorf("events = %v", events)
	}
	if events[1].Handle != h {
		t.Errorf("dropped handle = %d, want %d", events[1].Handle, h)
	}
	if drops != 1 {
		t.Errorf("Drop called %d times, want 1", drops)
	}
}

func TestTable_Reset(t *testing.T) {
	table := NewTable()
	drops := 0
	table.Alloc(dropCounter{n: &drops})
	table.Alloc("s")

	table.Reset()
	if table.Len() != 0 {
		t.Errorf("Len() = %d after Reset", table.Len())
	}
	if drops != 1 {
		t.Errorf("Drop called %d times", drops)
	}
	if h := table.Alloc("fresh"); h != reservedCount {
		t.Errorf("first handle after Reset = %d, want %d", h, reservedCount)
	}
}

func TestTable_EachSkipsDeadAndReserved(t *testing.T) {
	table := NewTable()
	a := table.Alloc("a")
	b := table.Alloc("b")
	table.Alloc("c")
	table.Free(b)

	var seen []Handle
	table.Each(func(h Handle, _ any) bool {
		seen = append(seen, h)
		return true
	})
	if len(seen) != 2 || seen[0] != a {
		t.Errorf("Each visited %v", seen)
	}
}

// Random alloc/free sequences must never hand out a live slot twice or a
// reserved slot at all.
func TestTable_NoAliasingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 50; round++ {
		table := NewTable()
		live := make(map[Handle]int)
		next := 0

		for step := 0; step < 500; step++ {
			if len(live) > 0 && rng.Intn(3) == 0 {
				for h := range live {
					table.Free(h)
					delete(live, h)
					break
				}
				continue
			}
			next++
			h := table.Alloc(jsvalue.NewArray(float64(next)))
			if IsReserved(h) {
				t.Fatalf("round %d: Alloc returned reserved slot %d", round, h)
			}
			if _, dup := live[h]; dup {
				t.Fatalf("round %d: handle %d handed out twice", round, h)
			}
			live[h] = next
		}

		for h, want := range live {
			arr := table.Get(h).(*jsvalue.Array)
			if arr.Elems[0] != float64(want) {
				t.Fatalf("round %d: handle %d holds %v, want %d", round, h, arr.Elems[0], want)
			}
		}
		if table.Len() != len(live) {
			t.Fatalf("round %d: Len() = %d, want %d", round, table.Len(), len(live))
		}
	}
}
