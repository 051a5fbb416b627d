package cst

// Builder accumulates a flat event stream while the parser walks tokens,
// then replays it into a GreenNode tree. This rowan/rust-analyzer-style
// indirection is what makes Checkpoint/StartNodeAt cheap: the parser can
// consume tokens optimistically (e.g. while it's still unsure whether a
// number is a plain NumberValue, a Quantity, or a Ratio) and only decide
// which node to wrap them in once it has enough lookahead, without ever
// un-consuming a token (spec.md §4.B "rewind to checkpoint").
type Builder struct {
	events []event
}

type eventKind uint8

const (
	evStart eventKind = iota
	evFinish
	evToken
)

type event struct {
	kind  eventKind
	nkind Kind
	tok   Token
}

// Checkpoint marks a position in the event stream to later wrap with
// StartNodeAt.
type Checkpoint int

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// StartNode opens a new node of kind.
func (b *Builder) StartNode(kind Kind) {
	b.events = append(b.events, event{kind: evStart, nkind: kind})
}

// Checkpoint returns a marker for the current position, for later use
// with StartNodeAt.
func (b *Builder) Checkpoint() Checkpoint {
	return Checkpoint(len(b.events))
}

// StartNodeAt retroactively opens a node of kind at a previously recorded
// checkpoint, so every token pushed since the checkpoint ends up inside
// it once FinishNode is called.
func (b *Builder) StartNodeAt(cp Checkpoint, kind Kind) {
	ev := event{kind: evStart, nkind: kind}
	b.events = append(b.events, event{}) // grow by one
	copy(b.events[cp+1:], b.events[cp:])
	b.events[cp] = ev
}

// FinishNode closes the most recently opened node.
func (b *Builder) FinishNode() {
	b.events = append(b.events, event{kind: evFinish})
}

// Token appends a leaf token to the currently open node (or to the
// implicit root if no node is open yet).
func (b *Builder) Token(t Token) {
	b.events = append(b.events, event{kind: evToken, tok: t})
}

// Finish replays the event stream into an immutable GreenNode tree rooted
// at a node of kind rootKind.
func (b *Builder) Finish(rootKind Kind) *GreenNode {
	type frame struct {
		kind     Kind
		children []GreenChild
	}
	stack := []frame{{kind: rootKind}}

	for _, ev := range b.events {
		switch ev.kind {
		case evStart:
			stack = append(stack, frame{kind: ev.nkind})
		case evToken:
			top := len(stack) - 1
			stack[top].children = append(stack[top].children, NewGreenToken(ev.tok))
		case evFinish:
			top := len(stack) - 1
			node := newGreenNode(stack[top].kind, stack[top].children)
			stack = stack[:top]
			parent := len(stack) - 1
			stack[parent].children = append(stack[parent].children, GreenChild{Node: node})
		}
	}

	return newGreenNode(stack[0].kind, stack[0].children)
}
