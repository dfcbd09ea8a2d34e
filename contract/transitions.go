package contract

// transitions lists the statuses reachable from each status.
// Expired and settled are terminal.
var transitions = map[Status][]Status{
	StatusCreated:   {StatusPurchased, StatusExpired},
	StatusPurchased: {StatusSettled},
	StatusExpired:   {},
	StatusSettled:   {},
}

// CanTransition reports whether a contract may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s.
func AllowedTransitions(s Status) []Status {
	allowed := transitions[s]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}
