package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/simon/internal/engine"
)

func TestMultiSink_FansOutInOrder(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := engine.MultiSink{a, engine.NopSink{}, b}

	m.Activate(1)
	m.MarkOK(1)
	m.Deactivate(1)
	m.MarkFail(2)
	m.ClearMark(2)

	want := []string{"0 activate 1", "0 mark_ok 1", "0 deactivate 1", "0 mark_fail 2", "0 clear_mark 2"}
	assert.Equal(t, want, a.events)
	assert.Equal(t, want, b.events)
}
