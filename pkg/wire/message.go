package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/system-metaverse/system-go/pkg/entity"
)

// ClientMessageType identifies a client-to-server message.
type ClientMessageType uint8

const (
	// MsgSubscribe establishes a subscription over a set of table queries.
	MsgSubscribe ClientMessageType = 1

	// MsgUnsubscribe cancels a previously established subscription.
	MsgUnsubscribe ClientMessageType = 2
)

// IsValid returns true for a known client message type.
func (t ClientMessageType) IsValid() bool {
	return t == MsgSubscribe || t == MsgUnsubscribe
}

// String returns the message type name.
func (t ClientMessageType) String() string {
	switch t {
	case MsgSubscribe:
		return "SUBSCRIBE"
	case MsgUnsubscribe:
		return "UNSUBSCRIBE"
	default:
		return "UNKNOWN"
	}
}

// ServerMessageType identifies a server-to-client message.
type ServerMessageType uint8

const (
	// MsgSubscriptionApplied acknowledges a subscribe request.
	MsgSubscriptionApplied ServerMessageType = 1

	// MsgSubscriptionError rejects a subscribe request.
	MsgSubscriptionError ServerMessageType = 2

	// MsgTransactionUpdate carries row changes for subscribed tables.
	MsgTransactionUpdate ServerMessageType = 3
)

// IsValid returns true for a known server message type.
func (t ServerMessageType) IsValid() bool {
	return t >= MsgSubscriptionApplied && t <= MsgTransactionUpdate
}

// String returns the message type name.
func (t ServerMessageType) String() string {
	switch t {
	case MsgSubscriptionApplied:
		return "SUBSCRIPTION_APPLIED"
	case MsgSubscriptionError:
		return "SUBSCRIPTION_ERROR"
	case MsgTransactionUpdate:
		return "TRANSACTION_UPDATE"
	default:
		return "UNKNOWN"
	}
}

// Query selects all rows of one table family. The server performs no
// row-level filtering; scope filtering is the client's responsibility.
type Query struct {
	Family entity.Family `cbor:"1,keyasint"`
}

// ClientMessage is a client-to-server message.
//
// CBOR encoding:
//
//	{
//	  1: type,      // uint8: 1=Subscribe, 2=Unsubscribe
//	  2: handleId,  // string: UUID of the subscription handle
//	  3: queries    // Subscribe only: table queries
//	}
type ClientMessage struct {
	Type     ClientMessageType `cbor:"1,keyasint"`
	HandleID string            `cbor:"2,keyasint"`
	Queries  []Query           `cbor:"3,keyasint,omitempty"`
}

// Validate checks if the client message is well formed.
func (m *ClientMessage) Validate() error {
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid client message type: %d", m.Type)
	}
	if m.HandleID == "" {
		return fmt.Errorf("missing subscription handle")
	}
	if m.Type == MsgSubscribe && len(m.Queries) == 0 {
		return fmt.Errorf("subscribe without queries")
	}
	for _, q := range m.Queries {
		if !q.Family.IsValid() {
			return fmt.Errorf("invalid query family: %d", q.Family)
		}
	}
	return nil
}

// OpKind identifies one kind of row change.
type OpKind uint8

const (
	// OpInsert is a newly inserted row.
	OpInsert OpKind = 1

	// OpUpdate replaces an existing row; both snapshots are carried.
	OpUpdate OpKind = 2

	// OpDelete removes a row.
	OpDelete OpKind = 3
)

// IsValid returns true for a known op kind.
func (k OpKind) IsValid() bool {
	return k >= OpInsert && k <= OpDelete
}

// String returns the op kind name.
func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "INSERT"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// RowOp is one row change within a transaction update. Rows are opaque
// CBOR payloads decoded by the controller that owns the family.
//
// CBOR encoding:
//
//	{
//	  1: family,   // uint8
//	  2: kind,     // uint8: 1=Insert, 2=Update, 3=Delete
//	  3: row,      // row snapshot (new snapshot for updates)
//	  4: oldRow    // Update only: prior snapshot
//	}
type RowOp struct {
	Family entity.Family   `cbor:"1,keyasint"`
	Kind   OpKind          `cbor:"2,keyasint"`
	Row    cbor.RawMessage `cbor:"3,keyasint,omitempty"`
	OldRow cbor.RawMessage `cbor:"4,keyasint,omitempty"`
}

// Validate checks if the row op is well formed.
func (op *RowOp) Validate() error {
	if !op.Family.IsValid() {
		return fmt.Errorf("invalid row op family: %d", op.Family)
	}
	if !op.Kind.IsValid() {
		return fmt.Errorf("invalid row op kind: %d", op.Kind)
	}
	if len(op.Row) == 0 {
		return fmt.Errorf("row op without row payload")
	}
	if op.Kind == OpUpdate && len(op.OldRow) == 0 {
		return fmt.Errorf("update op without prior snapshot")
	}
	return nil
}

// TransactionUpdate groups the row changes of one server transaction.
type TransactionUpdate struct {
	Ops []RowOp `cbor:"1,keyasint"`
}

// ServerMessage is a server-to-client message.
//
// CBOR encoding:
//
//	{
//	  1: type,      // uint8: 1=Applied, 2=Error, 3=TransactionUpdate
//	  2: handleId,  // string: subscription handle the message belongs to
//	  3: error,     // Error only: failure description
//	  4: update     // TransactionUpdate only: row changes
//	}
type ServerMessage struct {
	Type     ServerMessageType  `cbor:"1,keyasint"`
	HandleID string             `cbor:"2,keyasint"`
	Error    string             `cbor:"3,keyasint,omitempty"`
	Update   *TransactionUpdate `cbor:"4,keyasint,omitempty"`
}

// Validate checks if the server message is well formed.
func (m *ServerMessage) Validate() error {
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid server message type: %d", m.Type)
	}
	if m.HandleID == "" {
		return fmt.Errorf("missing subscription handle")
	}
	switch m.Type {
	case MsgSubscriptionError:
		if m.Error == "" {
			return fmt.Errorf("subscription error without description")
		}
	case MsgTransactionUpdate:
		if m.Update == nil || len(m.Update.Ops) == 0 {
			return fmt.Errorf("transaction update without ops")
		}
		for i := range m.Update.Ops {
			if err := m.Update.Ops[i].Validate(); err != nil {
				return fmt.Errorf("op %d: %w", i, err)
			}
		}
	}
	return nil
}
