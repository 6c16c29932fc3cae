package exam

import (
	_ "embed"
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"mentormuni-server/models"
)

//go:embed question_item.schema.json
var questionItemSchema string

var itemSchema = mustLoadSchema(questionItemSchema)

func mustLoadSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("exam: invalid embedded question item schema: " + err.Error())
	}
	return schema
}

// FallbackItem is returned when the model output yields no usable question.
var FallbackItem = models.QuestionItem{
	Question:      "Interview fundamentals",
	CorrectAnswer: models.AnswerYes,
	StudyTopic:    "General",
}

// ParseResult is the outcome of ParsePlan.
type ParseResult struct {
	Items     []models.QuestionItem
	Discarded int
	Fallback  bool
}

// ParsePlan extracts question items from raw model output. It never fails:
// malformed elements are dropped and an empty result becomes FallbackItem.
func ParsePlan(raw string) ParseResult {
	var res ParseResult

	arr, ok := extractJSONArray(raw)
	if ok {
		var elems []json.RawMessage
		if err := json.Unmarshal([]byte(arr), &elems); err == nil {
			for _, elem := range elems {
				if len(res.Items) == QuestionCount {
					break
				}
				item, ok := parseItem(elem)
				if !ok {
					res.Discarded++
					continue
				}
				res.Items = append(res.Items, item)
			}
		}
	}

	if len(res.Items) == 0 {
		res.Items = []models.QuestionItem{FallbackItem}
		res.Fallback = true
	}
	return res
}

func parseItem(elem json.RawMessage) (models.QuestionItem, bool) {
	check, err := itemSchema.Validate(gojsonschema.NewBytesLoader(elem))
	if err != nil || !check.Valid() {
		return models.QuestionItem{}, false
	}

	var item models.QuestionItem
	if err := json.Unmarshal(elem, &item); err != nil {
		return models.QuestionItem{}, false
	}

	answer, ok := normalizeAnswer(item.CorrectAnswer)
	if !ok {
		return models.QuestionItem{}, false
	}

	return models.QuestionItem{
		Question:      strings.TrimSpace(item.Question),
		CorrectAnswer: answer,
		StudyTopic:    strings.TrimSpace(item.StudyTopic),
	}, true
}

func normalizeAnswer(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return models.AnswerYes, true
	case "no":
		return models.AnswerNo, true
	}
	return "", false
}

// extractJSONArray returns the first balanced [...] substring of s that is
// valid JSON. Brackets inside JSON strings are ignored.
func extractJSONArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	for start != -1 {
		if end, ok := matchBracket(s, start); ok && json.Valid([]byte(s[start:end+1])) {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '[')
		if next == -1 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBracket(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
