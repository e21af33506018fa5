package formats

import (
	"strings"

	"github.com/fexa-archive/fexa/internal/exam"
)

// DetectQuestionType classifies a document as the morning or afternoon
// session from its opening text. The session header appears near the top,
// so only the first 1000 runes are inspected; morning is the default.
func DetectQuestionType(text string) exam.QuestionType {
	head := []rune(text)
	if len(head) > 1000 {
		head = head[:1000]
	}
	if strings.Contains(string(head), string(exam.TypeAfternoon)) {
		return exam.TypeAfternoon
	}
	return exam.TypeMorning
}
