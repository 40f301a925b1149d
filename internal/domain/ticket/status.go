package ticket

import "strings"

type Status string

const (
	StatusNotServed Status = "not_served"
	StatusServing   Status = "serving"
	StatusHold      Status = "hold"
	StatusServed    Status = "served"
)

// ParseStatus accepts the canonical values plus the display spellings ("Not Served", "Hold").
func ParseStatus(raw string) (Status, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	switch Status(s) {
	case StatusNotServed, StatusServing, StatusHold, StatusServed:
		return Status(s), true
	case "on_hold":
		return StatusHold, true
	}
	return "", false
}

func (s Status) Terminal() bool { return s == StatusServed }

var transitions = map[Status]map[Status]bool{
	StatusNotServed: {StatusServing: true},
	StatusServing:   {StatusServed: true, StatusHold: true, StatusNotServed: true},
	StatusHold:      {StatusServing: true, StatusServed: true, StatusNotServed: true},
}

// CanTransition reports whether from -> to is an edge of the ticket lifecycle.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}
