package metadata

// TypeKind discriminates the three node kinds a type can describe.
type TypeKind int

const (
	// KindArtifact describes artifact nodes.
	KindArtifact TypeKind = 1

	// KindExecution describes execution nodes.
	KindExecution TypeKind = 2

	// KindContext describes context nodes.
	KindContext TypeKind = 3
)

// String returns the lowercase name of the kind.
func (k TypeKind) String() string {
	switch k {
	case KindArtifact:
		return "artifact"
	case KindExecution:
		return "execution"
	case KindContext:
		return "context"
	default:
		return "unknown"
	}
}

// Type is a named property schema for one node kind.
//
// Properties maps property name to its declared kind. InputType and
// OutputType carry the permitted input/output artifact shapes and are only
// meaningful for KindExecution; they are nil when absent.
type Type struct {
	ID         int64
	Kind       TypeKind
	Name       string
	Properties map[string]PropertyKind
	InputType  Signature
	OutputType Signature
}

// Artifact is a node representing a produced or consumed piece of data.
//
// Properties must conform to the owning type's schema; CustomProperties are
// unconstrained.
type Artifact struct {
	ID               int64
	TypeID           int64
	URI              string
	Properties       map[string]Value
	CustomProperties map[string]Value
}

// Execution is a node representing a run of a computation.
type Execution struct {
	ID               int64
	TypeID           int64
	Properties       map[string]Value
	CustomProperties map[string]Value
}

// Context is a node grouping artifacts and executions, such as a pipeline
// run or an experiment. Name is required and unique within TypeID.
type Context struct {
	ID               int64
	TypeID           int64
	Name             string
	Properties       map[string]Value
	CustomProperties map[string]Value
}

// EventType tags the direction and declaration status of an event edge.
type EventType int

const (
	// EventUnknown is the unset sentinel; events require an explicit type.
	EventUnknown EventType = 0

	// EventDeclaredOutput marks an artifact declared as an output before the
	// execution completed.
	EventDeclaredOutput EventType = 1

	// EventDeclaredInput marks an artifact declared as an input before the
	// execution started.
	EventDeclaredInput EventType = 2

	// EventInput marks an artifact consumed by an execution.
	EventInput EventType = 3

	// EventOutput marks an artifact produced by an execution.
	EventOutput EventType = 4
)

// String returns the snake_case name of the event type.
func (t EventType) String() string {
	switch t {
	case EventDeclaredOutput:
		return "declared_output"
	case EventDeclaredInput:
		return "declared_input"
	case EventInput:
		return "input"
	case EventOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Event is a directional, typed, positioned edge between an artifact and an
// execution. MillisecondsSinceEpoch is assigned by the store at creation
// when left zero. Path locates the artifact within the execution's
// input/output structure; empty means no position.
type Event struct {
	ID                     int64
	ArtifactID             int64
	ExecutionID            int64
	Type                   EventType
	MillisecondsSinceEpoch int64
	Path                   []PathStep
}

// Association is an edge between an execution and a context.
// The (ExecutionID, ContextID) pair is unique.
type Association struct {
	ID          int64
	ExecutionID int64
	ContextID   int64
}

// Attribution is an edge between an artifact and a context.
// The (ArtifactID, ContextID) pair is unique.
type Attribution struct {
	ID         int64
	ArtifactID int64
	ContextID  int64
}
