package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"

	"github.com/system-metaverse/system-go/pkg/entity"
	"github.com/system-metaverse/system-go/pkg/wire"
	"github.com/system-metaverse/system-go/pkg/world"
)

var testUpgrader = websocket.Upgrader{}

// startServer runs script against every WebSocket connection to a test server
// and returns the ws:// URL.
func startServer(t *testing.T, script func(t *testing.T, conn *websocket.Conn)) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		script(t, conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// readClientMessage reads and decodes one client message from the test server side.
func readClientMessage(t *testing.T, conn *websocket.Conn) *wire.ClientMessage {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("server read failed: %v", err)
	}
	msg, err := wire.DecodeClientMessage(data)
	if err != nil {
		t.Fatalf("server decode failed: %v", err)
	}
	return msg
}

// writeServerMessage encodes and writes one server message from the test server side.
func writeServerMessage(t *testing.T, conn *websocket.Conn, msg *wire.ServerMessage) {
	t.Helper()

	data, err := wire.EncodeServerMessage(msg)
	if err != nil {
		t.Fatalf("server encode failed: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatalf("server write failed: %v", err)
	}
}

func waitSignal[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func TestSubscribeNotConnected(t *testing.T) {
	c := NewClient(ClientConfig{URL: "ws://127.0.0.1:0"})

	_, err := c.Subscribe([]wire.Query{{Family: entity.FamilyEnergyOrbs}}, SubscriptionCallbacks{}, nil)
	if err != ErrNotConnected {
		t.Errorf("Subscribe before Dial = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeDeliversAckAndRows(t *testing.T) {
	orb := entity.EnergyOrb{OrbID: 1, WorldCoords: world.Origin, QuantumCount: 25}

	url := startServer(t, func(t *testing.T, conn *websocket.Conn) {
		sub := readClientMessage(t, conn)
		if sub.Type != wire.MsgSubscribe || len(sub.Queries) != 1 {
			t.Errorf("unexpected first message: %+v", sub)
		}

		writeServerMessage(t, conn, &wire.ServerMessage{
			Type:     wire.MsgSubscriptionApplied,
			HandleID: sub.HandleID,
		})

		row, err := wire.Marshal(orb)
		if err != nil {
			t.Errorf("marshal orb: %v", err)
			return
		}
		writeServerMessage(t, conn, &wire.ServerMessage{
			Type:     wire.MsgTransactionUpdate,
			HandleID: sub.HandleID,
			Update: &wire.TransactionUpdate{Ops: []wire.RowOp{
				{Family: entity.FamilyEnergyOrbs, Kind: wire.OpInsert, Row: row},
			}},
		})

		unsub := readClientMessage(t, conn)
		if unsub.Type != wire.MsgUnsubscribe || unsub.HandleID != sub.HandleID {
			t.Errorf("unexpected second message: %+v", unsub)
		}
	})

	c := NewClient(ClientConfig{URL: url, PingInterval: time.Minute})
	if err := c.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	applied := make(chan Handle, 1)
	inserts := make(chan entity.EnergyOrb, 1)

	h, err := c.Subscribe(
		[]wire.Query{{Family: entity.FamilyEnergyOrbs}},
		SubscriptionCallbacks{OnApplied: func(h Handle) { applied <- h }},
		map[entity.Family]RowCallbacks{
			entity.FamilyEnergyOrbs: {OnInsert: func(row cbor.RawMessage) {
				var got entity.EnergyOrb
				if err := wire.Unmarshal(row, &got); err != nil {
					t.Errorf("decode row: %v", err)
					return
				}
				inserts <- got
			}},
		},
	)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if got := waitSignal(t, applied, "acknowledgment"); got != h {
		t.Errorf("applied handle = %s, want %s", got, h)
	}
	if got := waitSignal(t, inserts, "row insert"); got.QuantumCount != 25 {
		t.Errorf("inserted orb = %+v", got)
	}

	c.Unsubscribe(h)
}

func TestSubscriptionErrorRevertsHandle(t *testing.T) {
	url := startServer(t, func(t *testing.T, conn *websocket.Conn) {
		sub := readClientMessage(t, conn)
		writeServerMessage(t, conn, &wire.ServerMessage{
			Type:     wire.MsgSubscriptionError,
			HandleID: sub.HandleID,
			Error:    "table quota exceeded",
		})
		// Keep the connection open until the client closes.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, _ = conn.ReadMessage()
	})

	c := NewClient(ClientConfig{URL: url, PingInterval: time.Minute})
	if err := c.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	errs := make(chan error, 1)
	_, err := c.Subscribe(
		[]wire.Query{{Family: entity.FamilyPlayers}},
		SubscriptionCallbacks{OnError: func(_ Handle, err error) { errs <- err }},
		nil,
	)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	got := waitSignal(t, errs, "subscription error")
	if !strings.Contains(got.Error(), "table quota exceeded") {
		t.Errorf("error = %v", got)
	}
}

func TestStaleHandleMessagesDropped(t *testing.T) {
	orb := entity.EnergyOrb{OrbID: 9, WorldCoords: world.Origin}

	url := startServer(t, func(t *testing.T, conn *websocket.Conn) {
		first := readClientMessage(t, conn) // subscribe h1
		unsub := readClientMessage(t, conn) // unsubscribe h1
		if unsub.HandleID != first.HandleID {
			t.Errorf("unsubscribe for %s, want %s", unsub.HandleID, first.HandleID)
		}

		// Stale update for the dead handle; must be discarded.
		row, err := wire.Marshal(orb)
		if err != nil {
			t.Errorf("marshal orb: %v", err)
			return
		}
		writeServerMessage(t, conn, &wire.ServerMessage{
			Type:     wire.MsgTransactionUpdate,
			HandleID: first.HandleID,
			Update: &wire.TransactionUpdate{Ops: []wire.RowOp{
				{Family: entity.FamilyEnergyOrbs, Kind: wire.OpInsert, Row: row},
			}},
		})

		second := readClientMessage(t, conn) // subscribe h2
		writeServerMessage(t, conn, &wire.ServerMessage{
			Type:     wire.MsgSubscriptionApplied,
			HandleID: second.HandleID,
		})
	})

	c := NewClient(ClientConfig{URL: url, PingInterval: time.Minute})
	if err := c.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	staleInserts := 0
	rows := map[entity.Family]RowCallbacks{
		entity.FamilyEnergyOrbs: {OnInsert: func(cbor.RawMessage) { staleInserts++ }},
	}

	h1, err := c.Subscribe([]wire.Query{{Family: entity.FamilyEnergyOrbs}}, SubscriptionCallbacks{}, rows)
	if err != nil {
		t.Fatalf("first Subscribe failed: %v", err)
	}
	c.Unsubscribe(h1)

	applied := make(chan Handle, 1)
	h2, err := c.Subscribe(
		[]wire.Query{{Family: entity.FamilyEnergyOrbs}},
		SubscriptionCallbacks{OnApplied: func(h Handle) { applied <- h }},
		nil,
	)
	if err != nil {
		t.Fatalf("second Subscribe failed: %v", err)
	}

	// Dispatch is serial: once the second ack arrives, the stale update for
	// h1 has already been processed (and dropped).
	if got := waitSignal(t, applied, "second acknowledgment"); got != h2 {
		t.Errorf("applied handle = %s, want %s", got, h2)
	}
	if staleInserts != 0 {
		t.Errorf("stale inserts delivered = %d, want 0", staleInserts)
	}
}

func TestHandleUniqueness(t *testing.T) {
	h1, h2 := NewHandle(), NewHandle()
	if h1 == h2 {
		t.Error("handles should be unique")
	}
	if h1.IsZero() {
		t.Error("fresh handle should not be zero")
	}
	var zero Handle
	if !zero.IsZero() {
		t.Error("zero handle should report IsZero")
	}
}
