package session

// Status is the activation state of the selected contest.
type Status int

const (
	NoContest Status = iota
	Future
	Active
	Paused
	Past
)

func (s Status) String() string {
	switch s {
	case NoContest:
		return "no contest"
	case Future:
		return "future"
	case Active:
		return "active"
	case Paused:
		return "paused"
	case Past:
		return "past"
	default:
		return "unknown"
	}
}
