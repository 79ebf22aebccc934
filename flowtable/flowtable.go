package flowtable

// Flow is an ordered (source, destination) pair of node identifiers.
type Flow struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// Priority of a flow-table entry.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Entry is one forwarding decision of a switch: traffic matching Dst is
// sent to the first reachable hop in Action; Backup lists the remaining
// equal-cost hops kept for failover of critical flows.
type Entry struct {
	MatchDst string   `json:"match_dst"`
	Action   []string `json:"action"`
	Priority Priority `json:"priority"`
	Backup   []string `json:"backup,omitempty"`
}

// Table maps a switch to its forwarding entries, one entry per reachable
// destination other than the switch itself.
type Table map[string][]Entry

// Lookup returns the entry of sw matching dst, if present.
func (t Table) Lookup(sw, dst string) (Entry, bool) {
	for _, entry := range t[sw] {
		if entry.MatchDst == dst {
			return entry, true
		}
	}
	return Entry{}, false
}

// DecidePolicy derives the priority and backup of an entry from the flow
// state. hops must already be in the order chosen by the synthesizer.
//
// Priority is high iff some active flow targets dst. Backup is present iff
// some active flow to dst is marked critical and more than one equal-cost
// hop exists; it then holds every hop except the primary.
func DecidePolicy(dst string, active []Flow, critical map[Flow]bool, hops []string) (Priority, []string) {
	priority := PriorityNormal
	var backup []string
	for _, flow := range active {
		if flow.Dst != dst {
			continue
		}
		priority = PriorityHigh
		if critical[flow] && len(hops) > 1 {
			backup = append([]string(nil), hops[1:]...)
		}
	}
	return priority, backup
}
