package review

type SubmitOutcome string

const (
	SubmitSuccess         SubmitOutcome = "success"
	SubmitAlreadyReviewed SubmitOutcome = "already_reviewed"
)

func (o SubmitOutcome) Message() string {
	switch o {
	case SubmitSuccess:
		return "Review submitted."
	case SubmitAlreadyReviewed:
		return "You have already reviewed this shop this month."
	default:
		return string(o)
	}
}

type SubmitResult struct {
	Outcome SubmitOutcome `json:"outcome"`
	Message string        `json:"message"`
	Review  *Review       `json:"review,omitempty"`
}
