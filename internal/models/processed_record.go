package models

// ProcessedSubmission is a manual classification naming an existing raw
// record by id.
type ProcessedSubmission struct {
	Time       Field `json:"time"`
	Raw        Field `json:"raw"`
	ThreatType Field `json:"threat_type"`
}

// ProcessedRecord is the classification outcome attached to exactly one raw
// record.
type ProcessedRecord struct {
	ID         int64      `json:"id"`
	Time       Timestamp  `json:"time"`
	RawID      int64      `json:"-"`
	Raw        RawView    `json:"raw"`
	ThreatType ThreatType `json:"threat_type"`
}
