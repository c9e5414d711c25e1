package model

import "time"

const (
	DayLayout  = "2006-01-02"
	TimeLayout = "15:04"
)

type Event struct {
	ID               string    `json:"id"`
	Slug             string    `json:"slug"`
	StartDay         string    `json:"start_day"`  // YYYY-MM-DD
	StartTime        string    `json:"start_time"` // HH:MM
	Classes          []string  `json:"classes"`
	Discipline       string    `json:"discipline"`
	Gender           string    `json:"gender"`
	Phase            string    `json:"phase"`
	Remarks          *string   `json:"remarks"`
	Area             *string   `json:"area"`
	StartListPathPDF *string   `json:"start_list_path_pdf"`
	ResultsPathPDF   *string   `json:"results_path_pdf"`
	PublishStartList bool      `json:"publish_start_list"`
	PublishResults   bool      `json:"publish_results"`
	CreatedAt        time.Time `json:"created_at"`
}

// StartsAt combines day and time in loc. ok is false when either part is malformed.
func (e *Event) StartsAt(loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(DayLayout+" "+TimeLayout, e.StartDay+" "+e.StartTime, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// EventUpdate carries a partial update; nil fields keep their stored value.
type EventUpdate struct {
	StartDay         *string   `json:"start_day"`
	StartTime        *string   `json:"start_time"`
	Classes          *[]string `json:"classes"`
	Discipline       *string   `json:"discipline"`
	Gender           *string   `json:"gender"`
	Phase            *string   `json:"phase"`
	Remarks          *string   `json:"remarks"`
	Area             *string   `json:"area"`
	StartListPathPDF *string   `json:"start_list_path_pdf"`
	ResultsPathPDF   *string   `json:"results_path_pdf"`
	PublishStartList *bool     `json:"publish_start_list"`
	PublishResults   *bool     `json:"publish_results"`
}

// UpcomingEvent is the compact event view attached to participant lookups.
type UpcomingEvent struct {
	ID         string  `json:"id"`
	Discipline string  `json:"discipline"`
	Phase      string  `json:"phase"`
	Gender     string  `json:"gender"`
	StartDay   string  `json:"start_day"`
	StartTime  string  `json:"start_time"`
	Area       *string `json:"area"`
}
