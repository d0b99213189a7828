package models

// RawSubmission is an unvalidated raw record as received from a client or a
// bulk file row.
type RawSubmission struct {
	RawText Field `json:"raw_text"`
	Time    Field `json:"time"`
	Source  Field `json:"source"`
	Lat     Field `json:"lat"`
	Lon     Field `json:"lon"`
	Author  Field `json:"author"`
	URL     Field `json:"url"`
}

// RawRecord is an admitted, unclassified text item.
type RawRecord struct {
	ID        int64     `json:"id"`
	RawText   string    `json:"raw_text"`
	Time      Timestamp `json:"time"`
	Source    Source    `json:"source"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Author    *string   `json:"author"`
	URL       *string   `json:"url"`
	Emojis    bool      `json:"emojis"`
	Processed bool      `json:"processed"`
}

// RawView is the raw record as embedded in a processed record.
type RawView struct {
	RawText string    `json:"raw_text"`
	Time    Timestamp `json:"time"`
	Source  Source    `json:"source"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	Author  *string   `json:"author"`
	URL     *string   `json:"url"`
}

func (r RawRecord) View() RawView {
	return RawView{
		RawText: r.RawText,
		Time:    r.Time,
		Source:  r.Source,
		Lat:     r.Lat,
		Lon:     r.Lon,
		Author:  r.Author,
		URL:     r.URL,
	}
}
