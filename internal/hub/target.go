package hub

// Target addresses an outbound emission: the whole room or a single
// connection.
type Target struct {
	clientID string
}

// All addresses every connected client.
func All() Target {
	return Target{}
}

// To addresses a single connection.
func To(clientID string) Target {
	return Target{clientID: clientID}
}

// Broadcast reports whether the target is the whole room.
func (t Target) Broadcast() bool {
	return t.clientID == ""
}

// key identifies the target's delivery queue.
func (t Target) key() string {
	if t.Broadcast() {
		return "*"
	}
	return t.clientID
}
