// Package notif defines the notification wire type shared by the CTF
// filesystem source and sink (spec.md §3, §6): PacketBegin, Event, and
// PacketEnd, each carrying back-references to the Stream/StreamClass/Trace
// they belong to.
package notif

import "github.com/c360/ctffs/ctf/schema"

// Kind identifies which variant a Notification carries.
type Kind int

// Kind values, in the order spec.md's bracketing regex expects them:
// (PacketBegin Event* PacketEnd)*.
const (
	KindPacketBegin Kind = iota
	KindEvent
	KindPacketEnd
)

// String renders a Kind for logs and test failure messages.
func (k Kind) String() string {
	switch k {
	case KindPacketBegin:
		return "packet-begin"
	case KindEvent:
		return "event"
	case KindPacketEnd:
		return "packet-end"
	default:
		return "unknown"
	}
}

// Packet is a bounded section of a stream file: a header, a context, and
// the events between a PacketBegin and its matching PacketEnd.
type Packet struct {
	Stream  *schema.Stream
	Header  schema.FieldValues
	Context schema.FieldValues
}

// Event is a single decoded event belonging to a Packet.
type Event struct {
	Class         *schema.EventClass
	Packet        *Packet
	Header        schema.FieldValues
	StreamContext schema.FieldValues
	Context       schema.FieldValues
	Payload       schema.FieldValues
}

// Notification is one item of the stream a SourceIterator produces and a
// SinkMirror consumes. Exactly one of Packet/Event is set, selected by Kind.
type Notification struct {
	Kind   Kind
	Packet *Packet // set for KindPacketBegin and KindPacketEnd
	Event  *Event  // set for KindEvent
}

// PacketBegin constructs a KindPacketBegin notification.
func PacketBegin(p *Packet) Notification { return Notification{Kind: KindPacketBegin, Packet: p} }

// PacketEnd constructs a KindPacketEnd notification.
func PacketEnd(p *Packet) Notification { return Notification{Kind: KindPacketEnd, Packet: p} }

// EventNotif constructs a KindEvent notification.
func EventNotif(e *Event) Notification { return Notification{Kind: KindEvent, Event: e} }
