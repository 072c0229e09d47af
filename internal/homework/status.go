package homework

// Status is a review status code reported by the API.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Known reports whether s is one of the enumerated statuses.
func (s Status) Known() bool {
	_, ok := verdicts[s]
	return ok
}

// Verdict returns the human-readable sentence for s.
func (s Status) Verdict() (string, bool) {
	v, ok := verdicts[s]
	return v, ok
}
