package story

import (
	"errors"
	"fmt"
	"slices"
)

// Chapter is an immutable, authored graph of nodes with a designated start.
type Chapter struct {
	id            string
	title         string
	description   string
	start         string
	requiredFlags []string
	nodes         map[string]Node
	order         []string
}

// ChapterSpec carries the authored fields of a chapter.
type ChapterSpec struct {
	ID            string
	Title         string
	Description   string
	Start         string
	RequiredFlags []string
	Nodes         []Node
}

// NewChapter builds a chapter from spec.
//
// Precondition: ID non-empty; node ids unique and non-empty; Start names a node.
// Postcondition: Returns the chapter or an error listing every violation.
func NewChapter(spec ChapterSpec) (*Chapter, error) {
	var errs []error
	if spec.ID == "" {
		errs = append(errs, errors.New("chapter id must not be empty"))
	}
	c := &Chapter{
		id:            spec.ID,
		title:         spec.Title,
		description:   spec.Description,
		start:         spec.Start,
		requiredFlags: slices.Clone(spec.RequiredFlags),
		nodes:         make(map[string]Node, len(spec.Nodes)),
	}
	for i, n := range spec.Nodes {
		if n == nil {
			errs = append(errs, fmt.Errorf("node %d is nil", i))
			continue
		}
		id := n.NodeID()
		if id == "" {
			errs = append(errs, fmt.Errorf("node %d (%s) has no id", i, n.Kind()))
			continue
		}
		if _, dup := c.nodes[id]; dup {
			errs = append(errs, fmt.Errorf("duplicate node id %q", id))
			continue
		}
		c.nodes[id] = n
		c.order = append(c.order, id)
	}
	if _, ok := c.nodes[spec.Start]; !ok {
		errs = append(errs, fmt.Errorf("start node %q not found", spec.Start))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("chapter %q: %w", spec.ID, errors.Join(errs...))
	}
	return c, nil
}

func (c *Chapter) ID() string          { return c.id }
func (c *Chapter) Title() string       { return c.title }
func (c *Chapter) Description() string { return c.description }
func (c *Chapter) StartNodeID() string { return c.start }

// RequiredFlags returns the flags that must be set before the chapter may start.
func (c *Chapter) RequiredFlags() []string { return slices.Clone(c.requiredFlags) }

// Node returns the node with the given id.
func (c *Chapter) Node(id string) (Node, bool) {
	n, ok := c.nodes[id]
	return n, ok
}

// Nodes returns every node in authored order.
func (c *Chapter) Nodes() []Node {
	out := make([]Node, len(c.order))
	for i, id := range c.order {
		out[i] = c.nodes[id]
	}
	return out
}

// Len returns the number of nodes.
func (c *Chapter) Len() int { return len(c.order) }
