package mls

import "fmt"

// MessageKind tags the content of a Message, standing in for the wire-type
// discriminant TLS-codec'd messages carry in a real MLS implementation.
type MessageKind byte

const (
	// MessageKindKeyPackage tags a published KeyPackage.
	MessageKindKeyPackage MessageKind = 1
	// MessageKindWelcome tags a Welcome addressed to one new member.
	MessageKindWelcome MessageKind = 2
	// MessageKindCommit tags a group state transition.
	MessageKindCommit MessageKind = 3
)

func (k MessageKind) String() string {
	switch k {
	case MessageKindKeyPackage:
		return "key-package"
	case MessageKindWelcome:
		return "welcome"
	case MessageKindCommit:
		return "commit"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// Message is the minimal framing this agent puts on the rendezvous store:
// one leading kind byte followed by an opaque payload. It is the
// behavioral stand-in for MlsMessageIn/MlsMessageOut; real MLS wire
// interop (TLS codec framing) is explicitly out of scope.
type Message struct {
	Kind    MessageKind
	Payload []byte
}

// Marshal serializes the message to its wire form.
func (m Message) Marshal() []byte {
	out := make([]byte, 1+len(m.Payload))
	out[0] = byte(m.Kind)
	copy(out[1:], m.Payload)
	return out
}

// UnmarshalMessage parses a message previously produced by Marshal.
func UnmarshalMessage(data []byte) (Message, error) {
	if len(data) < 1 {
		return Message{}, fmt.Errorf("mls: message too short to carry a kind byte")
	}
	payload := make([]byte, len(data)-1)
	copy(payload, data[1:])
	return Message{Kind: MessageKind(data[0]), Payload: payload}, nil
}

// ExpectKind returns an error if the message is not of the wanted kind.
func (m Message) ExpectKind(want MessageKind) error {
	if m.Kind != want {
		return fmt.Errorf("mls: expected %s message, got %s", want, m.Kind)
	}
	return nil
}
