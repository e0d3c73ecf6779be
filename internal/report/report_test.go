package report

import (
	"bytes"
	"testing"
	"time"

	"formcraft/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportForm() model.Form {
	return model.Form{
		ID:    "f",
		Title: "Event  sign up",
		Fields: []model.FormField{
			{ID: "name", Type: model.FieldTypeText, Label: "Name"},
			{ID: "extras", Type: model.FieldTypeCheckbox, Label: "Extras, optional"},
			{ID: "guests", Type: model.FieldTypeNumber, Label: "Guests"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	submitted := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	responses := []model.FormResponse{
		{
			ID:     "r1",
			FormID: "f",
			Data: map[string]model.Value{
				"name":   model.String(`Ann "AJ" Lee`),
				"extras": model.List("parking", "lunch"),
				"guests": model.Number(2),
			},
			SubmittedAt: submitted,
		},
		{
			ID:          "r2",
			FormID:      "f",
			Data:        map[string]model.Value{"guests": model.Number(0)},
			SubmittedAt: submitted,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, reportForm(), responses))

	want := "Submission Date,Name,\"Extras, optional\",Guests\n" +
		"2024-05-02T09:30:00Z,\"Ann \"\"AJ\"\" Lee\",\"parking, lunch\",\"2\"\n" +
		"2024-05-02T09:30:00Z,\"\",\"\",\"\""
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, model.Form{}, nil))
	assert.Equal(t, "Submission Date", buf.String())
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Event_sign_up_responses.csv", Filename(reportForm()))
}

func TestAnalyze(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	responses := []model.FormResponse{
		{Data: map[string]model.Value{
			"name": model.String("Ann"), "extras": model.List(), "guests": model.Number(1),
		}, SubmittedAt: now},
		{Data: map[string]model.Value{
			"name": model.String("Bo"), "guests": model.Number(0),
		}, SubmittedAt: now.AddDate(0, 0, -1)},
		{Data: map[string]model.Value{
			"name": model.String(""),
		}, SubmittedAt: now.AddDate(0, 0, -30)},
		{Data: map[string]model.Value{
			"name": model.String("Cy"), "extras": model.List("lunch"), "guests": model.Number(3),
		}, SubmittedAt: now.AddDate(0, 0, -6)},
	}

	a := Analyze(reportForm(), responses, now)
	assert.Equal(t, 4, a.TotalResponses)
	assert.InDelta(t, 50.0, a.CompletionRate, 1e-9)

	require.Len(t, a.Fields, 3)
	assert.Equal(t, 3, a.Fields[0].Completed)
	assert.InDelta(t, 75.0, a.Fields[0].Rate, 1e-9)
	assert.Equal(t, 2, a.Fields[1].Completed)
	assert.Equal(t, 2, a.Fields[2].Completed)

	require.Len(t, a.Timeline, TimelineDays)
	assert.Equal(t, "2024-05-04", a.Timeline[0].Date)
	assert.Equal(t, 1, a.Timeline[0].Responses)
	assert.Equal(t, "2024-05-10", a.Timeline[6].Date)
	assert.Equal(t, "Fri", a.Timeline[6].Weekday)
	assert.Equal(t, 1, a.Timeline[6].Responses)
	assert.Equal(t, 1, a.Timeline[5].Responses)

	assert.Equal(t, map[model.FieldType]int{
		model.FieldTypeText:     1,
		model.FieldTypeCheckbox: 1,
		model.FieldTypeNumber:   1,
	}, a.FieldTypes)
}

func TestAnalyze_NoResponses(t *testing.T) {
	a := Analyze(reportForm(), nil, time.Now())
	assert.Equal(t, 0, a.TotalResponses)
	assert.Equal(t, 0.0, a.CompletionRate)
	for _, f := range a.Fields {
		assert.Equal(t, 0.0, f.Rate)
	}
}

func TestAnalyze_NoFields(t *testing.T) {
	responses := []model.FormResponse{{Data: map[string]model.Value{}, SubmittedAt: time.Now()}}
	a := Analyze(model.Form{}, responses, time.Now())
	assert.Equal(t, 0.0, a.CompletionRate)
	assert.Empty(t, a.Fields)
}
