package homework

import (
	"fmt"
	"sort"
)

// Status is a review status code as reported by the remote API.
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

// Verdict returns the human readable text for a status code.
func Verdict(s Status) (string, bool) {
	v, ok := verdicts[s]
	return v, ok
}

// KnownStatuses lists the status codes in stable order.
func KnownStatuses() []Status {
	out := make([]Status, 0, len(verdicts))
	for s := range verdicts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WorkItem is one validated record of the response.
type WorkItem struct {
	ID      string
	Status  Status
	Verdict string
}

// StatusChangedMessage renders the notification text for a changed item.
// The template is consumed by people reading the chat; keep it byte-for-byte.
func StatusChangedMessage(id, verdict string) string {
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", id, verdict)
}
