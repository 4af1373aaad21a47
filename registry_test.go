//go:build linux || darwin

package looper

import (
	"bytes"
	"errors"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PrepareCurrentRelease(t *testing.T) {
	r := NewRegistry(nil)

	assert.Nil(t, r.Current())

	l, err := r.Prepare(true)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.True(t, l.AllowNonCallbacks())
	assert.Same(t, l, r.Current())
	assert.Equal(t, 1, r.Len())

	l2, err := r.Prepare(true)
	require.NoError(t, err)
	assert.Same(t, l, l2)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Release())
	assert.Nil(t, r.Current())
	assert.Equal(t, 0, r.Len())
	assert.True(t, l.closed.Load())

	// nothing bound
	assert.NoError(t, r.Release())
}

func TestRegistry_Set(t *testing.T) {
	r := NewRegistry(nil)

	l := newTestLooper(t, BackendNotify, WithAllowNonCallbacks(true))

	assert.Nil(t, r.Set(l))
	assert.Same(t, l, r.Current())
	assert.Equal(t, 1, r.Len())

	// an adopted looper is returned by Prepare, as-is
	prepared, err := r.Prepare(true)
	require.NoError(t, err)
	assert.Same(t, l, prepared)

	// replacing returns the old looper, without closing it
	other := newTestLooper(t, BackendPoll)
	assert.Same(t, l, r.Set(other))
	assert.Same(t, other, r.Current())
	assert.False(t, l.closed.Load())

	assert.Same(t, other, r.Set(nil))
	assert.Nil(t, r.Current())
	assert.Equal(t, 0, r.Len())
	assert.False(t, other.closed.Load())

	// still usable
	other.Wake()
	result, _ := other.PollOnce(0)
	assert.Equal(t, PollWake, result)

	assert.Nil(t, r.Set(nil))
	assert.NoError(t, r.Release())
	assert.False(t, l.closed.Load())
}

func TestRegistry_SetThenRelease(t *testing.T) {
	r := NewRegistry(nil)

	l, err := New()
	require.NoError(t, err)

	assert.Nil(t, r.Set(l))
	require.NoError(t, r.Release())
	assert.True(t, l.closed.Load())
	assert.Nil(t, r.Current())
}

func TestRegistry_PrepareMismatch(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(NewLogger(&buf, logiface.LevelWarning))
	defer r.Release()

	l, err := r.Prepare(false)
	require.NoError(t, err)

	l2, err := r.Prepare(true)
	require.NoError(t, err)
	assert.Same(t, l, l2)
	assert.False(t, l2.AllowNonCallbacks())
	assert.Contains(t, buf.String(), "different allowNonCallbacks")
}

func TestRegistry_PerGoroutine(t *testing.T) {
	r := NewRegistry(nil)

	mine, err := r.Prepare(false)
	require.NoError(t, err)
	defer r.Release()

	type result struct {
		l   *Looper
		err error
	}
	ch := make(chan result)
	go func() {
		l, err := r.Prepare(false)
		ch <- result{l, err}
		<-ch
		_ = r.Release()
		close(ch)
	}()

	other := <-ch
	require.NoError(t, other.err)
	assert.NotSame(t, mine, other.l)
	assert.Equal(t, 2, r.Len())
	assert.Same(t, mine, r.Current())

	ch <- result{}
	<-ch
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Options(t *testing.T) {
	r := NewRegistry(nil, WithBackend(BackendPoll))
	defer r.Release()

	l, err := r.Prepare(false, WithMaxEvents(4))
	require.NoError(t, err)
	assert.Equal(t, BackendPoll, l.Backend())
	assert.Equal(t, 4, cap(l.events))
}

func TestRegistry_Go(t *testing.T) {
	r := NewRegistry(nil)

	var inside *Looper
	var current *Looper
	errBoom := errors.New("boom")
	err := <-r.Go(true, func(l *Looper) error {
		inside = l
		current = r.Current()
		l.Wake()
		if result, _ := l.PollOnce(1000); result != PollWake {
			t.Errorf("unexpected result %d", result)
		}
		return errBoom
	})

	assert.ErrorIs(t, err, errBoom)
	require.NotNil(t, inside)
	assert.Same(t, inside, current)
	assert.True(t, inside.AllowNonCallbacks())
	assert.True(t, inside.closed.Load())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_GoPanic(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(NewLogger(&buf, logiface.LevelError))

	done := r.Go(false, func(*Looper) error {
		panic("worker failed")
	})
	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker failed")
	assert.Contains(t, buf.String(), "looper: worker panicked")
	assert.Equal(t, 0, r.Len())

	// closed after the result
	_, ok := <-done
	assert.False(t, ok)
}

func TestDefaultRegistry(t *testing.T) {
	err := <-Go(false, func(l *Looper) error {
		if Current() != l {
			return errors.New("current mismatch")
		}
		prepared, err := Prepare(false)
		if err != nil {
			return err
		}
		if prepared != l {
			return errors.New("prepare mismatch")
		}
		return nil
	})
	assert.NoError(t, err)

	l, err := Prepare(false)
	require.NoError(t, err)
	assert.Same(t, l, Current())
	require.NoError(t, Release())
	assert.Nil(t, Current())

	adopted := newTestLooper(t, BackendNotify)
	assert.Nil(t, Set(adopted))
	assert.Same(t, adopted, Current())
	assert.Same(t, adopted, Set(nil))
	assert.Nil(t, Current())
	assert.False(t, adopted.closed.Load())
}
