package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMinutes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantOK  bool
	}{
		{name: "digit minutes", input: "потренировался 90 минут", want: 90, wantOK: true},
		{name: "digit minutes short unit", input: "бегал 30 мин", want: 30, wantOK: true},
		{name: "digit hours", input: "читал 2 часа", want: 120, wantOK: true},
		{name: "single hour", input: "готовил 1 час", want: 60, wantOK: true},
		{name: "hours short unit", input: "занимался 3 ч", want: 180, wantOK: true},
		{name: "seconds round up", input: "планка 40 секунд", want: 1, wantOK: true},
		{name: "seconds over a minute", input: "планка 90 секунд", want: 1, wantOK: true},
		{name: "spelled out hours", input: "гулял два часа", want: 120, wantOK: true},
		{name: "spelled out minutes", input: "отдыхал десять минут", want: 10, wantOK: true},
		{name: "half hour", input: "читал полчаса", want: 30, wantOK: true},
		{name: "one and a half hours", input: "тренировался полтора часа", want: 90, wantOK: true},
		{name: "no duration", input: "сходил в зал", want: 0, wantOK: false},
		{name: "bare number is not a duration", input: "пробежал 10 км", want: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractMinutes(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripTimeExpressions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "digits", input: "читал 2 часа книгу", want: "читал  книгу"},
		{name: "spelled", input: "гулял два часа в парке", want: "гулял  в парке"},
		{name: "half hour", input: "медитировал полчаса утром", want: "медитировал  утром"},
		{name: "untouched", input: "сходил в зал", want: "сходил в зал"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripTimeExpressions(tt.input))
		})
	}
}
