package main

// Register names of the three parties and the receiver's output.
const (
	groupSource   = "teletom"
	groupSender   = "alice"
	groupReceiver = "bob"
	cregMessage   = "received_message"
)

// Message is a two-bit classical message, written bit 0 first.
type Message string

var validMessages = []Message{"00", "01", "10", "11"}

// Valid reports whether m is one of the four two-bit literals.
func (m Message) Valid() bool {
	for _, v := range validMessages {
		if m == v {
			return true
		}
	}
	return false
}

// Encode appends the gates that imprint msg on qubit and returns how many
// were appended. Any message outside the four literals appends nothing and
// therefore decodes as "00".
func Encode(c *Circuit, qubit int, msg Message) int {
	switch msg {
	case "00":
		c.AddGate("ID", qubit)
		return 1
	case "01":
		c.AddGate("X", qubit)
		return 1
	case "10":
		c.AddGate("Z", qubit)
		return 1
	case "11":
		c.AddGate("Z", qubit)
		c.AddGate("X", qubit)
		return 2
	}
	return 0
}

// BuildSuperdense builds the full protocol circuit: a Bell pair prepared by
// the source, split between sender and receiver, the sender's encoding, the
// hand-off of the encoded qubit and the receiver's Bell measurement.
func BuildSuperdense(msg Message) *Circuit {
	c := NewCircuit(
		ClassicalRegister{Name: cregMessage, Size: 2},
		QubitGroup{Name: groupSource, Size: 2},
		QubitGroup{Name: groupSender, Size: 1},
		QubitGroup{Name: groupReceiver, Size: 2},
	)
	src0, src1 := c.Qubit(groupSource, 0), c.Qubit(groupSource, 1)
	alice := c.Qubit(groupSender, 0)
	bob0, bob1 := c.Qubit(groupReceiver, 0), c.Qubit(groupReceiver, 1)

	c.SetStage(StagePrepare)
	c.AddGate("H", src0)
	c.AddGate("CX", src1, src0)
	c.AddBarrier()

	c.SetStage(StageDistribute)
	c.AddGate("SWAP", alice, src0)
	c.AddGate("SWAP", bob0, src1)
	c.AddBarrier()

	c.SetStage(StageEncode)
	Encode(c, alice, msg)
	c.AddBarrier()

	c.SetStage(StageDeliver)
	c.AddGate("SWAP", bob1, alice)
	c.AddBarrier()

	c.SetStage(StageDecode)
	c.AddGate("CX", bob1, bob0)
	c.AddGate("H", bob0)
	c.AddBarrier()

	c.SetStage(StageMeasure)
	c.AddMeasure(bob0, 0)
	c.AddMeasure(bob1, 1)
	c.SetStage(StageNone)

	return c
}
