package report

import (
	"time"

	"formcraft/internal/model"
)

// TimelineDays is the length of the response timeline
const TimelineDays = 7

// FieldStat counts the responses answering a field
type FieldStat struct {
	FieldID   string          `json:"fieldId"`
	Label     string          `json:"label"`
	Type      model.FieldType `json:"type"`
	Completed int             `json:"completed"`
	Rate      float64         `json:"rate"`
}

// DayCount is the number of responses submitted on one UTC day
type DayCount struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Responses int    `json:"responses"`
}

// Analytics summarizes the responses of a form. Rates are percentages.
type Analytics struct {
	TotalResponses int                     `json:"totalResponses"`
	CompletionRate float64                 `json:"completionRate"`
	Fields         []FieldStat             `json:"fields"`
	Timeline       []DayCount              `json:"timeline"`
	FieldTypes     map[model.FieldType]int `json:"fieldTypes"`
}

// Analyze computes the analytics of responses to form as of now. A
// response is complete when every field of the form has a truthy answer.
func Analyze(form model.Form, responses []model.FormResponse, now time.Time) Analytics {
	a := Analytics{
		TotalResponses: len(responses),
		Fields:         make([]FieldStat, 0, len(form.Fields)),
		Timeline:       make([]DayCount, 0, TimelineDays),
		FieldTypes:     make(map[model.FieldType]int),
	}

	complete := 0
	for _, resp := range responses {
		if len(form.Fields) > 0 && answersAll(form, resp) {
			complete++
		}
	}
	a.CompletionRate = percent(complete, len(responses))

	for _, field := range form.Fields {
		completed := 0
		for _, resp := range responses {
			if resp.Data[field.ID].Truthy() {
				completed++
			}
		}
		a.Fields = append(a.Fields, FieldStat{
			FieldID:   field.ID,
			Label:     field.Label,
			Type:      field.Type,
			Completed: completed,
			Rate:      percent(completed, len(responses)),
		})
		a.FieldTypes[field.Type]++
	}

	perDay := make(map[string]int)
	for _, resp := range responses {
		perDay[resp.SubmittedAt.UTC().Format(time.DateOnly)]++
	}
	today := now.UTC()
	for i := TimelineDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := day.Format(time.DateOnly)
		a.Timeline = append(a.Timeline, DayCount{
			Date:      key,
			Weekday:   day.Format("Mon"),
			Responses: perDay[key],
		})
	}

	return a
}

func answersAll(form model.Form, resp model.FormResponse) bool {
	for _, field := range form.Fields {
		if !resp.Data[field.ID].Truthy() {
			return false
		}
	}
	return true
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
