package domain

// Kind is the wire tag carried in the "command" field of every frame sent to peers.
type Kind string

const (
	KindMoveRelative Kind = "move_rel"
	KindMoveAbsolute Kind = "move"
	KindSetGoal      Kind = "goal"
	KindStop         Kind = "stop"
)

// Command is built once per ingress call and never mutated afterwards.
// Field presence follows the kind: move_rel carries turn and distance,
// move and goal carry x and z, stop carries nothing.
type Command struct {
	Kind     Kind     `json:"command"`
	Turn     *float64 `json:"turn,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
	X        *float64 `json:"x,omitempty"`
	Z        *float64 `json:"z,omitempty"`
}

func MoveRelative(turn, distance float64) Command {
	return Command{Kind: KindMoveRelative, Turn: &turn, Distance: &distance}
}

func MoveAbsolute(x, z float64) Command {
	return Command{Kind: KindMoveAbsolute, X: &x, Z: &z}
}

func SetGoal(x, z float64) Command {
	return Command{Kind: KindSetGoal, X: &x, Z: &z}
}

func Stop() Command {
	return Command{Kind: KindStop}
}

// Peer is one open simulator connection.
type Peer interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Dispatcher schedules a send onto the peer-serving loop. It does not
// wait for, or report, the outcome of the send.
type Dispatcher interface {
	Dispatch(peer Peer, payload []byte)
}

type Snapshotter interface {
	Snapshot() []Peer
}

// SessionHub is what a peer session needs from the loop that owns the registry.
type SessionHub interface {
	Register(peer Peer) error
	Unregister(peer Peer)
}

type FrameObserver interface {
	Observe(peer Peer, data []byte)
}
