package domain

import "time"

// Entry is one position of a plan.
type Entry struct {
	Position int  `json:"position"`
	Item     Item `json:"item"`
}

// Plan is one concrete presentation order for a run.
type Plan struct {
	ID         string    `json:"id"`
	Experiment string    `json:"experiment"`
	Seed       uint64    `json:"seed"`
	CreatedAt  time.Time `json:"created_at"`
	Entries    []Entry   `json:"entries"`
}

// Indices returns the table index of every entry, in plan order.
func (p *Plan) Indices() []int {
	out := make([]int, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Item.Index
	}
	return out
}

// GroupCounts returns how many entries each group contributed.
func (p *Plan) GroupCounts() map[string]int {
	out := make(map[string]int)
	for _, e := range p.Entries {
		out[e.Item.Group]++
	}
	return out
}

// SameOrder reports whether both plans present the same items in the same order.
func (p *Plan) SameOrder(other *Plan) bool {
	if other == nil || len(p.Entries) != len(other.Entries) {
		return false
	}
	for i := range p.Entries {
		if p.Entries[i].Item.Index != other.Entries[i].Item.Index {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no entries or item maps with the receiver.
func (p *Plan) Clone() *Plan {
	out := *p
	out.Entries = make([]Entry, len(p.Entries))
	for i, e := range p.Entries {
		out.Entries[i] = Entry{Position: e.Position, Item: e.Item.Clone()}
	}
	return &out
}
