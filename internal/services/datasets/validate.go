package datasets

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/7flash/argilla/internal/models"
)

const (
	ratingMinOptions = 2
	ratingMaxOptions = 10
	labelMinOptions  = 2
	labelMaxOptions  = 250
)

// validateQuestionSettings checks the options of a question against its type
func validateQuestionSettings(s models.QuestionSettings) error {
	switch s.Type {
	case models.QuestionTypeText:
		if len(s.Options) > 0 {
			return newError(ErrInvalid, "text questions do not accept options")
		}
	case models.QuestionTypeRating:
		if n := len(s.Options); n < ratingMinOptions || n > ratingMaxOptions {
			return newError(ErrInvalid, "rating questions need between %d and %d options, got %d", ratingMinOptions, ratingMaxOptions, n)
		}
		seen := make(map[int]bool, len(s.Options))
		for _, opt := range s.Options {
			v, ok := asInt(opt.Value)
			if !ok {
				return newError(ErrInvalid, "rating option values must be integers, got %v", opt.Value)
			}
			if seen[v] {
				return newError(ErrInvalid, "rating option values must be unique, `%d` is repeated", v)
			}
			seen[v] = true
		}
	case models.QuestionTypeLabelSelection, models.QuestionTypeMultiLabelSelection:
		if n := len(s.Options); n < labelMinOptions || n > labelMaxOptions {
			return newError(ErrInvalid, "label questions need between %d and %d options, got %d", labelMinOptions, labelMaxOptions, n)
		}
		seen := make(map[string]bool, len(s.Options))
		for _, opt := range s.Options {
			v, ok := opt.Value.(string)
			if !ok || v == "" {
				return newError(ErrInvalid, "label option values must be non-empty strings, got %v", opt.Value)
			}
			if seen[v] {
				return newError(ErrInvalid, "label option values must be unique, `%s` is repeated", v)
			}
			seen[v] = true
		}
		if s.VisibleOptions != nil && *s.VisibleOptions > len(s.Options) {
			return newError(ErrInvalid, "visible_options (%d) cannot exceed the number of options (%d)", *s.VisibleOptions, len(s.Options))
		}
	default:
		return newError(ErrInvalid, "unsupported question type `%s`", s.Type)
	}
	return nil
}

// validateRecordFields checks a record's field values against the dataset fields
func validateRecordFields(fields []*models.Field, values map[string]string) error {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Name] = true
		if _, ok := values[f.Name]; f.Required && !ok {
			return newError(ErrInvalid, "missing required value for field: `%s`", f.Name)
		}
	}

	var unknown []string
	for name := range values {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return newError(ErrInvalid, "found fields values for non configured fields: %s", quoteList(unknown))
	}
	return nil
}

// validateResponse checks response values against the dataset questions.
// Submitted responses must answer every required question.
func validateResponse(questions []*models.Question, input models.ResponseCreate) error {
	byName := make(map[string]*models.Question, len(questions))
	for _, q := range questions {
		byName[q.Name] = q
	}

	var unknown []string
	for name := range input.Values {
		if _, ok := byName[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return newError(ErrInvalid, "found responses for non configured questions: %s", quoteList(unknown))
	}

	if input.Status == models.ResponseStatusSubmitted {
		for _, q := range questions {
			if _, ok := input.Values[q.Name]; q.Required && !ok {
				return newError(ErrInvalid, "missing required question: `%s`", q.Name)
			}
		}
	}

	for name, v := range input.Values {
		if err := validateAnswer(byName[name], v.Value); err != nil {
			return err
		}
	}
	return nil
}

func validateAnswer(q *models.Question, value any) error {
	switch q.Settings.Type {
	case models.QuestionTypeText:
		if s, ok := value.(string); !ok || s == "" {
			return newError(ErrInvalid, "question `%s` expects a non-empty string", q.Name)
		}
	case models.QuestionTypeRating:
		v, ok := asInt(value)
		if !ok || !hasOption(q.Settings.Options, func(o any) bool { ov, ok := asInt(o); return ok && ov == v }) {
			return newError(ErrInvalid, "%v is not a valid rating for question `%s`", value, q.Name)
		}
	case models.QuestionTypeLabelSelection:
		s, ok := value.(string)
		if !ok || !hasOption(q.Settings.Options, func(o any) bool { return o == s }) {
			return newError(ErrInvalid, "%v is not a valid label for question `%s`", value, q.Name)
		}
	case models.QuestionTypeMultiLabelSelection:
		labels, ok := value.([]any)
		if !ok || len(labels) == 0 {
			return newError(ErrInvalid, "question `%s` expects a non-empty list of labels", q.Name)
		}
		seen := make(map[string]bool, len(labels))
		for _, l := range labels {
			s, ok := l.(string)
			if !ok || !hasOption(q.Settings.Options, func(o any) bool { return o == s }) {
				return newError(ErrInvalid, "%v is not a valid label for question `%s`", l, q.Name)
			}
			if seen[s] {
				return newError(ErrInvalid, "label `%s` is repeated for question `%s`", s, q.Name)
			}
			seen[s] = true
		}
	}
	return nil
}

func hasOption(options []models.QuestionOption, match func(any) bool) bool {
	for _, o := range options {
		if match(o.Value) {
			return true
		}
	}
	return false
}

// asInt accepts JSON numbers that hold a whole value
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func quoteList(names []string) string {
	sort.Strings(names)
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("`%s`", n)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
