// Package quizimport converts the admin question JSON format into stored questions.
package quizimport

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"testseries-service/internal/domain"
)

// RequiredKeys must be present on every imported row.
var RequiredKeys = []string{
	"questionNo", "question", "option1", "option2", "option3", "option4", "correctOption", "marks",
}

// ValidationError rejects a whole batch.
type ValidationError struct {
	Invalid int
	Total   int
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("Found %d invalid questions. All questions must have: questionNo, question, option1-4, correctOption, marks.", e.Invalid)
}

// Parse validates and converts a JSON array of question rows.
// Any invalid row rejects the batch.
func Parse(data []byte) ([]domain.Question, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, &ValidationError{Reason: "JSON must be an array of questions"}
	}
	if len(rows) == 0 {
		return nil, &ValidationError{Reason: "JSON must contain at least one question"}
	}

	invalid := 0
	for _, row := range rows {
		if !validRow(row) {
			invalid++
		}
	}
	if invalid > 0 {
		return nil, &ValidationError{Invalid: invalid, Total: len(rows)}
	}

	out := make([]domain.Question, 0, len(rows))
	for i, row := range rows {
		out = append(out, convert(i, row))
	}
	return out, nil
}

func validRow(row map[string]any) bool {
	if row == nil {
		return false
	}
	for _, k := range RequiredKeys {
		v, ok := row[k]
		if !ok || v == nil {
			return false
		}
	}
	n, err := strconv.Atoi(text(row["correctOption"]))
	return err == nil && n >= 1 && n <= 4
}

func convert(i int, row map[string]any) domain.Question {
	number := text(row["questionNo"])
	id := number
	if missing(row["questionNo"]) {
		id = fmt.Sprintf("q-%d", i+1)
	}
	image := text(row["imageLink"])
	if image == "" {
		image = "null"
	}
	return domain.Question{
		ID:            id,
		Number:        number,
		Text:          text(row["question"]),
		Option1:       text(row["option1"]),
		Option2:       text(row["option2"]),
		Option3:       text(row["option3"]),
		Option4:       text(row["option4"]),
		CorrectOption: "option" + text(row["correctOption"]),
		Marks:         domain.ParseMarks(row["marks"]),
		ImageLink:     image,
	}
}

// text renders a JSON scalar as a trimmed string; numbers lose a trailing ".0".
// missing reports a questionNo that cannot serve as an id: absent, blank, numeric zero or false.
func missing(v any) bool {
	switch t := v.(type) {
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return text(v) == ""
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

