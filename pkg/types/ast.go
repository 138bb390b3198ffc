package types

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types.
const (
	// Literals
	NodeString   NodeType = "string"
	NodeInteger  NodeType = "integer"
	NodeDecimal  NodeType = "decimal"
	NodeBoolean  NodeType = "boolean"
	NodeDate     NodeType = "date"
	NodeDateTime NodeType = "datetime"
	NodeTime     NodeType = "time"
	NodeQuantity NodeType = "quantity"
	NodeEmpty    NodeType = "empty" // {}

	// Navigation
	NodeName  NodeType = "name"  // member access or type filter
	NodePath  NodeType = "path"  // a.b
	NodeIndex NodeType = "index" // a[i]

	// Operators
	NodeBinary NodeType = "binary" // +, -, =, and, |, ...
	NodeUnary  NodeType = "unary"  // -, +
	NodeTypeOp NodeType = "typeop" // is, as

	// Functions
	NodeFunction NodeType = "function"

	// Variables
	NodeVariable NodeType = "variable" // $this, $index, $total
	NodeExternal NodeType = "external" // %name
)

// ASTNode represents a node in the Abstract Syntax Tree.
//
// Nodes are never modified after parsing, so one tree may be evaluated by many
// goroutines at once.
type ASTNode struct {
	Type     NodeType
	Value    interface{} // literal value (a value.Value) for literal nodes
	StrValue string      // name, operator, function name, variable name or type specifier
	Position int

	LHS       *ASTNode
	RHS       *ASTNode
	Arguments []*ASTNode
}

// NewASTNode creates a new AST node of the specified type.
// Prefer NodeArena.Alloc when parsing to reduce per-node heap allocations.
func NewASTNode(nodeType NodeType, position int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
	}
}

// IsLiteral reports whether the node is a literal.
func (n *ASTNode) IsLiteral() bool {
	switch n.Type {
	case NodeString, NodeInteger, NodeDecimal, NodeBoolean, NodeDate,
		NodeDateTime, NodeTime, NodeQuantity, NodeEmpty:
		return true
	}
	return false
}

// String returns a string representation of the node type.
func (n *ASTNode) String() string {
	if n.StrValue != "" {
		return string(n.Type) + "(" + n.StrValue + ")"
	}
	return string(n.Type)
}

// arenaChunkSize is the number of ASTNode values pre-allocated per arena chunk.
// Most path expressions fit in a single chunk.
const arenaChunkSize = 32

// NodeArena is a bump-pointer allocator for ASTNode values.
//
// The arena pre-allocates fixed-size chunks of ASTNode structs and hands out
// pointers into them, so a typical expression needs a single allocation for
// all of its nodes.
//
// # Lifetime
//
// The arena must stay alive as long as any pointer returned by Alloc is
// reachable. Attaching the arena to the [Expression] achieves this.
//
// # Thread safety
//
// NodeArena is NOT thread-safe. Each parser owns its own arena, and the nodes
// are only read once parsing has finished.
type NodeArena struct {
	chunks [][]ASTNode
	pos    int
}

// NewNodeArena allocates an arena pre-warmed with one initial chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{
		chunks: [][]ASTNode{make([]ASTNode, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued ASTNode inside the arena,
// with Type and Position set.
func (a *NodeArena) Alloc(nodeType NodeType, position int) *ASTNode {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]ASTNode, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = nodeType
	n.Position = position
	return n
}

// Len returns the number of nodes allocated so far.
func (a *NodeArena) Len() int {
	return (len(a.chunks)-1)*arenaChunkSize + a.pos
}
