// Package remotetest provides a scripted in-memory Source for tests.
package remotetest

import (
	"fmt"

	"github.com/system-metaverse/system-go/pkg/entity"
	"github.com/system-metaverse/system-go/pkg/remote"
	"github.com/system-metaverse/system-go/pkg/wire"
)

// Source is a fake remote source. Tests drive it synchronously: Subscribe
// registers callbacks, and Ack/Fail/Insert/Update/Delete invoke them on the
// caller's goroutine, mimicking the serial delivery of the real client.
//
// The zero value is not usable; call New.
type Source struct {
	// ConnectedVal is returned by Connected.
	ConnectedVal bool

	// subs holds the live registrations by handle.
	subs map[remote.Handle]*Registration

	// torn retains registrations after Unsubscribe so tests can emit
	// stale events tied to a dead handle.
	torn map[remote.Handle]*Registration

	// SubscribeCalls counts Subscribe invocations.
	SubscribeCalls int

	// UnsubscribeCalls counts Unsubscribe invocations.
	UnsubscribeCalls int
}

// Registration captures the callbacks of one Subscribe call.
type Registration struct {
	Handle  remote.Handle
	Queries []wire.Query
	Acks    remote.SubscriptionCallbacks
	Rows    map[entity.Family]remote.RowCallbacks
}

// New creates a connected fake source.
func New() *Source {
	return &Source{
		ConnectedVal: true,
		subs:         make(map[remote.Handle]*Registration),
		torn:         make(map[remote.Handle]*Registration),
	}
}

// Connected implements remote.Source.
func (s *Source) Connected() bool { return s.ConnectedVal }

// Subscribe implements remote.Source.
func (s *Source) Subscribe(queries []wire.Query, acks remote.SubscriptionCallbacks, rows map[entity.Family]remote.RowCallbacks) (remote.Handle, error) {
	s.SubscribeCalls++

	if !s.ConnectedVal {
		return "", remote.ErrNotConnected
	}
	if len(queries) == 0 {
		return "", remote.ErrNoQueries
	}

	h := remote.NewHandle()
	s.subs[h] = &Registration{Handle: h, Queries: queries, Acks: acks, Rows: rows}
	return h, nil
}

// Unsubscribe implements remote.Source.
func (s *Source) Unsubscribe(h remote.Handle) {
	s.UnsubscribeCalls++

	if reg, ok := s.subs[h]; ok {
		delete(s.subs, h)
		s.torn[h] = reg
	}
}

// ActiveCount returns the number of live registrations.
func (s *Source) ActiveCount() int { return len(s.subs) }

// Handles returns the live handles, in no particular order.
func (s *Source) Handles() []remote.Handle {
	hs := make([]remote.Handle, 0, len(s.subs))
	for h := range s.subs {
		hs = append(hs, h)
	}
	return hs
}

// OnlyHandle returns the single live handle; it panics when the live
// registration count is not exactly one.
func (s *Source) OnlyHandle() remote.Handle {
	if len(s.subs) != 1 {
		panic(fmt.Sprintf("remotetest: %d live registrations, want 1", len(s.subs)))
	}
	for h := range s.subs {
		return h
	}
	return ""
}

// Ack delivers a successful acknowledgment for h.
func (s *Source) Ack(h remote.Handle) {
	if reg, ok := s.subs[h]; ok && reg.Acks.OnApplied != nil {
		reg.Acks.OnApplied(h)
	}
}

// Fail delivers a failed acknowledgment for h and drops the registration.
func (s *Source) Fail(h remote.Handle, err error) {
	reg, ok := s.subs[h]
	if !ok {
		return
	}
	delete(s.subs, h)
	s.torn[h] = reg
	if reg.Acks.OnError != nil {
		reg.Acks.OnError(h, err)
	}
}

// Insert delivers a row insert to every live registration tracking the
// record's family.
func (s *Source) Insert(t testingT, rec entity.Record) {
	row := mustMarshal(t, rec)
	for _, reg := range s.subs {
		if cbs, ok := reg.Rows[rec.Family()]; ok && cbs.OnInsert != nil {
			cbs.OnInsert(row)
		}
	}
}

// Update delivers a row update to every live registration tracking the
// record's family.
func (s *Source) Update(t testingT, oldRec, newRec entity.Record) {
	oldRow := mustMarshal(t, oldRec)
	newRow := mustMarshal(t, newRec)
	for _, reg := range s.subs {
		if cbs, ok := reg.Rows[newRec.Family()]; ok && cbs.OnUpdate != nil {
			cbs.OnUpdate(oldRow, newRow)
		}
	}
}

// Delete delivers a row delete to every live registration tracking the
// record's family.
func (s *Source) Delete(t testingT, rec entity.Record) {
	row := mustMarshal(t, rec)
	for _, reg := range s.subs {
		if cbs, ok := reg.Rows[rec.Family()]; ok && cbs.OnDelete != nil {
			cbs.OnDelete(row)
		}
	}
}

// EmitStaleInsert fires the insert callback registered under a handle that
// has already been torn down or superseded. Used to verify stale-callback
// guards.
func (s *Source) EmitStaleInsert(t testingT, h remote.Handle, rec entity.Record) {
	reg, ok := s.torn[h]
	if !ok {
		return
	}
	if cbs, ok := reg.Rows[rec.Family()]; ok && cbs.OnInsert != nil {
		cbs.OnInsert(mustMarshal(t, rec))
	}
}

// EmitStaleAck fires the applied callback registered under a dead handle.
func (s *Source) EmitStaleAck(h remote.Handle) {
	if reg, ok := s.torn[h]; ok && reg.Acks.OnApplied != nil {
		reg.Acks.OnApplied(h)
	}
}

// testingT is the subset of *testing.T the fake needs.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

func mustMarshal(t testingT, v any) []byte {
	t.Helper()
	data, err := wire.Marshal(v)
	if err != nil {
		t.Fatalf("remotetest: marshal %T: %v", v, err)
	}
	return data
}

// Compile-time interface satisfaction check.
var _ remote.Source = (*Source)(nil)
