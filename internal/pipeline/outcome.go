package pipeline

import "github.com/spacesedan/threatwatch/internal/models"

// Result is where a record left the classification path.
type Result int

const (
	ResultOutOfRange Result = iota + 1
	ResultUnrelated
	ResultNonNegative
	ResultThreat
)

func (r Result) String() string {
	switch r {
	case ResultOutOfRange:
		return "out_of_range"
	case ResultUnrelated:
		return "unrelated"
	case ResultNonNegative:
		return "nonnegative"
	case ResultThreat:
		return "threat"
	default:
		return "unknown"
	}
}

// Outcome is the result of running a record through the classification
// path. Record is set only for ResultThreat; Message is set otherwise.
type Outcome struct {
	Result  Result
	Message string
	Record  *models.ProcessedRecord
}

// MessageBody is the response body of a not-applicable outcome.
type MessageBody struct {
	Message string `json:"message"`
}
