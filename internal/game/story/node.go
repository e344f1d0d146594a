// Package story implements the branching narrative: chapters of typed nodes,
// choice conditions and effects, and the engine that walks the graph while
// owning the player's progression.
package story

// Kind tags each node variant.
type Kind string

const (
	KindNarration  Kind = "narration"
	KindDialogue   Kind = "dialogue"
	KindChoice     Kind = "choice"
	KindCombat     Kind = "combat"
	KindCheckpoint Kind = "checkpoint"
)

// Node is one unit of narrative content. The set of implementations is closed:
// Narration, Dialogue, Choice, Combat and Checkpoint.
type Node interface {
	NodeID() string
	Kind() Kind
	node()
}

// Narration describes a scene.
type Narration struct {
	ID   string
	Text string
	Mood string
	Next string
}

// Dialogue is a line spoken by a cast member.
type Dialogue struct {
	ID      string
	Speaker string
	Text    string
	Emotion string
	Next    string
}

// Option is one selectable branch of a Choice.
type Option struct {
	ID         string
	Label      string
	Next       string
	Conditions []Condition
	Effects    []Effect
	Tooltip    string
}

// Choice offers the player a set of options. It has no implicit successor.
type Choice struct {
	ID      string
	Prompt  string
	Options []Option
}

// Combat hands control to a battle. Lose is empty when defeat ends the story.
type Combat struct {
	ID           string
	EnemyType    string
	NameOverride string
	Boss         bool
	Intro        string
	Win          string
	Lose         string
}

// Checkpoint marks chapter completion. An empty NextChapter ends the story.
type Checkpoint struct {
	ID              string
	ChapterComplete bool
	NextChapter     string
	Summary         string
	Next            string
}

func (n Narration) NodeID() string  { return n.ID }
func (n Dialogue) NodeID() string   { return n.ID }
func (n Choice) NodeID() string     { return n.ID }
func (n Combat) NodeID() string     { return n.ID }
func (n Checkpoint) NodeID() string { return n.ID }

func (Narration) Kind() Kind  { return KindNarration }
func (Dialogue) Kind() Kind   { return KindDialogue }
func (Choice) Kind() Kind     { return KindChoice }
func (Combat) Kind() Kind     { return KindCombat }
func (Checkpoint) Kind() Kind { return KindCheckpoint }

func (Narration) node()  {}
func (Dialogue) node()   {}
func (Choice) node()     {}
func (Combat) node()     {}
func (Checkpoint) node() {}

// Option returns the option with the given id.
func (n Choice) Option(id string) (Option, bool) {
	for _, o := range n.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Successor returns the id of the node that implicitly follows n.
//
// Postcondition: ok is false for Choice and Combat nodes and for nodes whose
// next link is empty.
func Successor(n Node) (id string, ok bool) {
	switch v := n.(type) {
	case Narration:
		id = v.Next
	case Dialogue:
		id = v.Next
	case Checkpoint:
		id = v.Next
	case Choice, Combat:
		return "", false
	}
	return id, id != ""
}

// Targets returns every node id n can lead to, including choice and combat branches.
func Targets(n Node) []string {
	var out []string
	add := func(id string) {
		if id != "" {
			out = append(out, id)
		}
	}
	switch v := n.(type) {
	case Narration:
		add(v.Next)
	case Dialogue:
		add(v.Next)
	case Checkpoint:
		add(v.Next)
	case Choice:
		for _, o := range v.Options {
			add(o.Next)
		}
	case Combat:
		add(v.Win)
		add(v.Lose)
	}
	return out
}
