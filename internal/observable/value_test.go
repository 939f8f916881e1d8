package observable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_NewGet(t *testing.T) {
	v := New(42)
	assert.Equal(t, 42, v.Get())

	s := New("hello")
	assert.Equal(t, "hello", s.Get())
}

func TestValue_SetThenGet(t *testing.T) {
	v := New(0)
	v.Set(7)
	assert.Equal(t, 7, v.Get())

	v.Set(9)
	assert.Equal(t, 9, v.Get(), "get returns the most recent set")
}

func TestValue_SubscribeInvokedOncePerSet(t *testing.T) {
	v := New(0)

	var got []int
	v.Subscribe(func(x int) { got = append(got, x) })

	v.Set(3)
	assert.Equal(t, []int{3}, got)
}

func TestValue_SubscriberOrderPreserved(t *testing.T) {
	v := New(0)

	var calls []string
	v.Subscribe(func(x int) { calls = append(calls, "h1") })
	v.Subscribe(func(x int) { calls = append(calls, "h2") })

	v.Set(5)
	v.Set(6)

	assert.Equal(t, []string{"h1", "h2", "h1", "h2"}, calls)
}

// Scenario C: two handlers on score, set(5), H1 then H2 both receive 5.
func TestValue_TwoHandlersReceiveSameValueInOrder(t *testing.T) {
	score := New(0)

	type call struct {
		handler string
		value   int
	}
	var calls []call
	score.Subscribe(func(x int) { calls = append(calls, call{"H1", x}) })
	score.Subscribe(func(x int) { calls = append(calls, call{"H2", x}) })

	score.Set(5)

	assert.Equal(t, []call{{"H1", 5}, {"H2", 5}}, calls)
}

func TestValue_RedundantSetNotifiesAgain(t *testing.T) {
	v := New(1)

	count := 0
	v.Subscribe(func(int) { count++ })

	v.Set(1)
	v.Set(1)

	assert.Equal(t, 2, count, "no equality check before firing")
}

func TestValue_LateSubscriberNotRetroactive(t *testing.T) {
	v := New(0)
	v.Set(1)
	v.Set(2)

	var got []int
	v.Subscribe(func(x int) { got = append(got, x) })
	assert.Empty(t, got)

	v.Set(3)
	assert.Equal(t, []int{3}, got)
}

func TestValue_PanickingSubscriberIsolated(t *testing.T) {
	v := New(0)

	var after []int
	v.Subscribe(func(int) { panic("label widget went away") })
	v.Subscribe(func(x int) { after = append(after, x) })

	require.NotPanics(t, func() { v.Set(4) })
	assert.Equal(t, []int{4}, after)
	assert.Equal(t, 4, v.Get())
}

func TestValue_PanickingPredicateIsolated(t *testing.T) {
	v := New(0)

	var after []int
	v.SubscribeWhen(func(int) bool { panic("bad predicate") }, func(int) {})
	v.Subscribe(func(x int) { after = append(after, x) })

	require.NotPanics(t, func() { v.Set(1) })
	assert.Equal(t, []int{1}, after)
}

func TestValue_SubscribeWhen(t *testing.T) {
	v := New(0)

	var even []int
	v.SubscribeWhen(func(x int) bool { return x%2 == 0 }, func(x int) { even = append(even, x) })

	for i := 1; i <= 6; i++ {
		v.Set(i)
	}

	assert.Equal(t, []int{2, 4, 6}, even)
}

func TestValue_Unsubscribe(t *testing.T) {
	v := New(0)

	var a, b []int
	subA := v.Subscribe(func(x int) { a = append(a, x) })
	v.Subscribe(func(x int) { b = append(b, x) })
	require.Equal(t, 2, v.Len())

	v.Set(1)
	subA.Unsubscribe()
	subA.Unsubscribe() // idempotent
	v.Set(2)

	assert.Equal(t, []int{1}, a)
	assert.Equal(t, []int{1, 2}, b)
	assert.Equal(t, 1, v.Len())
}

func TestValue_ZeroSubscriptionUnsubscribe(t *testing.T) {
	var s Subscription
	assert.NotPanics(t, s.Unsubscribe)
}

func TestValue_SubscribeDuringNotification(t *testing.T) {
	v := New(0)

	var inner []int
	v.Subscribe(func(x int) {
		if x == 1 {
			v.Subscribe(func(y int) { inner = append(inner, y) })
		}
	})

	v.Set(1)
	assert.Empty(t, inner, "subscriber added mid-notification is not called for that set")

	v.Set(2)
	assert.Equal(t, []int{2}, inner)
}

func TestValue_SubscriberMayReadCell(t *testing.T) {
	v := New(0)

	var seen int
	v.Subscribe(func(int) { seen = v.Get() })

	v.Set(11)
	assert.Equal(t, 11, seen)
}

func TestValue_CloneIsolatesStoredValue(t *testing.T) {
	clone := func(s []int) []int { return append([]int(nil), s...) }
	v := NewWithClone([]int{1, 2}, clone)

	v.Subscribe(func(s []int) { s[0] = 99 })
	v.Set([]int{3, 4})

	got := v.Get()
	assert.Equal(t, []int{3, 4}, got)

	got[1] = 100
	assert.Equal(t, []int{3, 4}, v.Get(), "readers cannot mutate through Get")
}

func TestValue_ReadOnlyView(t *testing.T) {
	v := New("idle")
	var r Readable[string] = v.ReadOnly()

	var got []string
	r.Subscribe(func(s string) { got = append(got, s) })
	r.SubscribeWhen(func(s string) bool { return s == "idle" }, func(s string) { got = append(got, "when:"+s) })

	v.Set("playing")
	v.Set("idle")
	assert.Equal(t, "idle", r.Get())
	assert.Equal(t, []string{"playing", "idle", "when:idle"}, got)

	_, settable := r.(*Value[string])
	assert.False(t, settable, "the view does not expose the cell")
}

func TestValue_ConcurrentGetSubscribe(t *testing.T) {
	v := New(0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = v.Get()
				v.Subscribe(func(int) {}).Unsubscribe()
			}
		}()
	}

	for i := 0; i < 100; i++ {
		v.Set(i)
	}
	wg.Wait()

	assert.Equal(t, 99, v.Get())
	assert.Equal(t, 0, v.Len())
}
