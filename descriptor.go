package buildops

// OperationType categorizes a build operation for the purposes of output
// grouping (see package grouping) and diagnostics. Only TASK and
// CONFIGURE_PROJECT trigger output buffering; every other type behaves like
// Uncategorized for grouping purposes.
type OperationType int

const (
	// Uncategorized is the default operation type.
	Uncategorized OperationType = iota
	// Task identifies an operation that executes a build task.
	Task
	// ConfigureProject identifies an operation that evaluates a project's
	// build configuration.
	ConfigureProject
)

func (t OperationType) String() string {
	switch t {
	case Task:
		return "TASK"
	case ConfigureProject:
		return "CONFIGURE_PROJECT"
	default:
		return "UNCATEGORIZED"
	}
}

// Groups reports whether operations of this type trigger output buffering.
func (t OperationType) Groups() bool {
	return t == Task || t == ConfigureProject
}

// Descriptor is the immutable metadata of a build operation, built once by
// the executor at the moment the operation starts.
type Descriptor struct {
	ID                  OperationID
	ParentID            *OperationID
	DisplayName         string
	ProgressDisplayName string
	OperationType       OperationType
}

// DescriptorBuilder collects the metadata a build operation declares about
// itself before the executor resolves its parent and mints an id. A zero
// value is a valid, minimal descriptor.
type DescriptorBuilder struct {
	displayName         string
	progressDisplayName string
	operationType       OperationType
	parentID            *OperationID // overrides the thread's current operation, if set
}

// NewDescriptorBuilder creates a builder for an operation with the given
// display name.
func NewDescriptorBuilder(displayName string) *DescriptorBuilder {
	return &DescriptorBuilder{displayName: displayName}
}

// WithProgressDisplayName sets the name shown by the progress logger while
// the operation is running. An empty value (the default) means the
// operation does not open a progress-logger scope.
func (b *DescriptorBuilder) WithProgressDisplayName(name string) *DescriptorBuilder {
	b.progressDisplayName = name
	return b
}

// OfType sets the operation's type.
func (b *DescriptorBuilder) OfType(t OperationType) *DescriptorBuilder {
	b.operationType = t
	return b
}

// WithParent overrides the parent id that would otherwise be resolved from
// the calling context's current operation.
func (b *DescriptorBuilder) WithParent(id OperationID) *DescriptorBuilder {
	p := id
	b.parentID = &p
	return b
}

// build resolves the descriptor's parent (explicit override, else the
// supplied default) and mints an id from gen.
func (b *DescriptorBuilder) build(gen *idGenerator, defaultParent *OperationID) Descriptor {
	parent := b.parentID
	if parent == nil {
		parent = defaultParent
	}
	return Descriptor{
		ID:                  gen.nextNormalID(),
		ParentID:            parent,
		DisplayName:         b.displayName,
		ProgressDisplayName: b.progressDisplayName,
		OperationType:       b.operationType,
	}
}
