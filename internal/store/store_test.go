package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

type counterState struct {
	Counts map[string]int
	Items  []string
}

func cloneCounter(s counterState) counterState {
	c := counterState{Counts: make(map[string]int, len(s.Counts)), Items: s.Items}
	for k, v := range s.Counts {
		c.Counts[k] = v
	}
	return c
}

func newCounterStore(obs Observer) *Store[counterState] {
	s := New(counterState{Counts: map[string]int{}}, Config[counterState]{
		Name:     "counter",
		Clone:    cloneCounter,
		Observer: obs,
	})
	s.RegisterMutation("incr", func(_ context.Context, tx *Tx[counterState], args []any) error {
		key, err := Arg[string](args, 0)
		if err != nil {
			return err
		}
		return tx.Update(func(st *counterState) error {
			st.Counts[key]++
			return nil
		})
	})
	s.RegisterMutation("push", func(_ context.Context, tx *Tx[counterState], args []any) error {
		item, err := Arg[string](args, 0)
		if err != nil {
			return err
		}
		return tx.Update(func(st *counterState) error {
			st.Items = append(append([]string(nil), st.Items...), item)
			return nil
		})
	})
	s.RegisterMutation("noop", func(context.Context, *Tx[counterState], []any) error {
		return nil
	})
	s.RegisterGetter("count", func(st counterState, args []any) (any, error) {
		key, err := Arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		return st.Counts[key], nil
	})
	return s
}

func TestDispatch_UnknownMutation(t *testing.T) {
	s := newCounterStore(nil)
	require.NoError(t, s.Dispatch(context.Background(), "incr", "a"))
	before := s.Snapshot()
	rev := s.Revision()

	renders := 0
	conn := s.Connect(ComponentFunc(func() { renders++ }))
	Bind(conn, func(st counterState) int { return st.Counts["a"] })

	err := s.Dispatch(context.Background(), "explode", "a")

	assert.True(t, errors.Is(err, domain.ErrUnknownMutation))
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, rev, s.Revision())
	assert.Zero(t, renders)
}

func TestDispatch_UpdatesStateAndRevision(t *testing.T) {
	s := newCounterStore(nil)
	ctx := context.Background()

	require.NoError(t, s.Dispatch(ctx, "incr", "a"))
	require.NoError(t, s.Dispatch(ctx, "incr", "a"))
	require.NoError(t, s.Dispatch(ctx, "noop"))

	assert.Equal(t, 2, s.Snapshot().Counts["a"])
	assert.Equal(t, uint64(2), s.Revision())
}

func TestDispatch_InvalidArgument(t *testing.T) {
	s := newCounterStore(nil)

	err := s.Dispatch(context.Background(), "incr", 42)

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "incr")
	assert.Zero(t, s.Revision())
}

func TestSnapshot_IsALease(t *testing.T) {
	s := newCounterStore(nil)
	require.NoError(t, s.Dispatch(context.Background(), "incr", "a"))

	lease := s.Snapshot()
	lease.Counts["a"] = 100

	assert.Equal(t, 1, s.Snapshot().Counts["a"])
}

func TestTxUpdate_FailureDoesNotCommit(t *testing.T) {
	s := newCounterStore(nil)
	boom := errors.New("boom")
	s.RegisterMutation("partial", func(_ context.Context, tx *Tx[counterState], _ []any) error {
		return tx.Update(func(st *counterState) error {
			st.Counts["a"] = 99
			return boom
		})
	})

	err := s.Dispatch(context.Background(), "partial")

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, s.Snapshot().Counts["a"])
	assert.Zero(t, s.Revision())
}

func TestGet(t *testing.T) {
	s := newCounterStore(nil)
	require.NoError(t, s.Dispatch(context.Background(), "incr", "b"))

	v, err := s.Get("count", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	n, err := GetAs[int](s, "count", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = GetAs[string](s, "count", "b")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, domain.ErrUnknownGetter)
}

func TestRegistries(t *testing.T) {
	s := newCounterStore(nil)
	assert.Equal(t, []string{"incr", "noop", "push"}, s.Mutations())
	assert.Equal(t, []string{"count"}, s.Getters())
	assert.Equal(t, "counter", s.Name())
}

func TestBind_RendersOnlyAffectedComponents(t *testing.T) {
	s := newCounterStore(nil)
	ctx := context.Background()

	var rendersA, rendersB int
	connA := s.Connect(ComponentFunc(func() { rendersA++ }))
	connB := s.Connect(ComponentFunc(func() { rendersB++ }))
	a := Bind(connA, func(st counterState) int { return st.Counts["a"] })
	b := Bind(connB, func(st counterState) int { return st.Counts["b"] })

	require.NoError(t, s.Dispatch(ctx, "incr", "a"))

	assert.Equal(t, 1, rendersA)
	assert.Equal(t, 0, rendersB)
	assert.Equal(t, 1, a.Value())
	assert.Equal(t, 0, b.Value())
	assert.Equal(t, 1, a.Updates())
	assert.Zero(t, b.Updates())
}

func TestBind_OneRenderPerDispatch(t *testing.T) {
	s := newCounterStore(nil)
	s.RegisterMutation("incrBoth", func(_ context.Context, tx *Tx[counterState], _ []any) error {
		if err := tx.Update(func(st *counterState) error { st.Counts["a"]++; return nil }); err != nil {
			return err
		}
		return tx.Update(func(st *counterState) error { st.Counts["b"]++; return nil })
	})

	renders := 0
	var updates []int
	conn := s.Connect(ComponentFunc(func() { renders++ }))
	Bind(conn, func(st counterState) int { return st.Counts["a"] }, WithOnUpdate(func(v int) { updates = append(updates, v) }))
	Bind(conn, func(st counterState) int { return st.Counts["b"] })

	require.NoError(t, s.Dispatch(context.Background(), "incrBoth"))

	assert.Equal(t, 1, renders)
	assert.Equal(t, []int{1}, updates)
	assert.Equal(t, uint64(2), s.Revision())
}

func TestBind_NotifiedBeforeDispatchReturns(t *testing.T) {
	s := newCounterStore(nil)
	conn := s.Connect(nil)
	b := Bind(conn, func(st counterState) int { return st.Counts["a"] })

	require.NoError(t, s.Dispatch(context.Background(), "incr", "a"))

	assert.Equal(t, 1, b.Value())
}

func TestBind_DefaultEqualityIsIdentity(t *testing.T) {
	s := newCounterStore(nil)
	ctx := context.Background()
	require.NoError(t, s.Dispatch(ctx, "push", "x"))

	renders := 0
	conn := s.Connect(ComponentFunc(func() { renders++ }))
	Bind(conn, func(st counterState) []string { return st.Items })

	// Items is shared between leases, so unrelated writes keep its identity.
	require.NoError(t, s.Dispatch(ctx, "incr", "a"))
	assert.Zero(t, renders)

	require.NoError(t, s.Dispatch(ctx, "push", "y"))
	assert.Equal(t, 1, renders)
}

func TestBind_EqualDepthSuppressesRebuiltSlices(t *testing.T) {
	s := newCounterStore(nil)
	ctx := context.Background()

	var strict, deep int
	strictConn := s.Connect(ComponentFunc(func() { strict++ }))
	deepConn := s.Connect(ComponentFunc(func() { deep++ }))
	selector := func(st counterState) []int { return []int{st.Counts["a"]} }
	Bind(strictConn, selector)
	Bind(deepConn, selector, WithEqualDepth[[]int](1))

	require.NoError(t, s.Dispatch(ctx, "incr", "b"))
	assert.Equal(t, 1, strict)
	assert.Zero(t, deep)

	require.NoError(t, s.Dispatch(ctx, "incr", "a"))
	assert.Equal(t, 2, strict)
	assert.Equal(t, 1, deep)
}

type versioned struct {
	rev   uint64
	items []string
}

func (v versioned) Revision() uint64 { return v.rev }

func TestBind_RevisionedResults(t *testing.T) {
	s := newCounterStore(nil)
	ctx := context.Background()

	renders := 0
	conn := s.Connect(ComponentFunc(func() { renders++ }))
	Bind(conn, func(st counterState) versioned {
		return versioned{rev: uint64(st.Counts["a"]), items: []string{"fresh"}}
	})

	require.NoError(t, s.Dispatch(ctx, "incr", "b"))
	assert.Zero(t, renders, "same revision must not render even though contents were rebuilt")

	require.NoError(t, s.Dispatch(ctx, "incr", "a"))
	assert.Equal(t, 1, renders)
}

func TestBind_CustomIsEqual(t *testing.T) {
	s := newCounterStore(nil)
	renders := 0
	conn := s.Connect(ComponentFunc(func() { renders++ }))
	Bind(conn, func(st counterState) int { return st.Counts["a"] }, WithIsEqual(func(a, b int) bool { return a/2 == b/2 }))

	require.NoError(t, s.Dispatch(context.Background(), "incr", "a"))
	assert.Zero(t, renders)
	require.NoError(t, s.Dispatch(context.Background(), "incr", "a"))
	assert.Equal(t, 1, renders)
}

func TestConnection_Close(t *testing.T) {
	s := newCounterStore(nil)
	renders := 0
	conn := s.Connect(ComponentFunc(func() { renders++ }))
	Bind(conn, func(st counterState) int { return st.Counts["a"] })
	assert.Equal(t, 1, s.Subscribers())
	assert.NotEmpty(t, conn.ID())

	conn.Close()
	conn.Close()

	require.NoError(t, s.Dispatch(context.Background(), "incr", "a"))
	assert.Zero(t, renders)
	assert.Zero(t, s.Subscribers())
	assert.True(t, conn.Closed())
}

func TestDispatch_ConcurrentWritesDoNotInterleave(t *testing.T) {
	s := newCounterStore(nil)
	conn := s.Connect(nil)
	b := Bind(conn, func(st counterState) int { return st.Counts["a"] })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Dispatch(context.Background(), "incr", "a"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Snapshot().Counts["a"])
	assert.Equal(t, uint64(50), s.Revision())
	assert.Equal(t, 50, b.Value())
}

func TestDispatch_SlowMutationLastWriteWins(t *testing.T) {
	s := newCounterStore(nil)
	release := make(chan struct{})
	started := make(chan struct{})
	s.RegisterMutation("slowSet", func(ctx context.Context, tx *Tx[counterState], args []any) error {
		v, err := Arg[int](args, 0)
		if err != nil {
			return err
		}
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		return tx.Update(func(st *counterState) error {
			st.Counts["a"] = v
			return nil
		})
	})
	s.RegisterMutation("set", func(_ context.Context, tx *Tx[counterState], args []any) error {
		v, err := Arg[int](args, 0)
		if err != nil {
			return err
		}
		return tx.Update(func(st *counterState) error {
			st.Counts["a"] = v
			return nil
		})
	})

	done := make(chan error)
	go func() { done <- s.Dispatch(context.Background(), "slowSet", 1) }()
	<-started

	require.NoError(t, s.Dispatch(context.Background(), "set", 2))
	assert.Equal(t, 2, s.Snapshot().Counts["a"])

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, s.Snapshot().Counts["a"], "the slow write lands last")
}

type recordingObserver struct {
	mu         sync.Mutex
	dispatched []string
	failed     int
	renders    int
}

func (o *recordingObserver) Dispatched(_, mutation string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dispatched = append(o.dispatched, mutation)
	if err != nil {
		o.failed++
	}
}

func (o *recordingObserver) Notified(_ string, _, renders int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.renders += renders
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	s := newCounterStore(obs)
	conn := s.Connect(nil)
	Bind(conn, func(st counterState) int { return st.Counts["a"] })

	require.NoError(t, s.Dispatch(context.Background(), "incr", "a"))
	assert.Error(t, s.Dispatch(context.Background(), "incr"))
	assert.Error(t, s.Dispatch(context.Background(), "unknown"))

	assert.Equal(t, []string{"incr", "incr"}, obs.dispatched)
	assert.Equal(t, 1, obs.failed)
	assert.Equal(t, 1, obs.renders)
}
