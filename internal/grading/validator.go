// Package grading decides whether answers are correct and how attempts are scored.
package grading

import (
	"github.com/RubachokBoss/coursework-service/internal/models"
)

// Validate reports whether answer is a correct answer to q. Free responses are
// never correct here; see Question.NeedsManualGrading.
func Validate(q models.Question, answer models.Answer) (bool, error) {
	switch body := q.Body.(type) {
	case models.FillBlank:
		return validateFillBlank(body, answer)
	case models.MultipleChoice:
		return validateMultipleChoice(body, answer)
	case models.FreeResponse:
		return false, nil
	case nil:
		return false, models.Validationf("This question has not been set up yet.")
	default:
		return false, models.Validationf("unsupported question type %q", q.Type())
	}
}

func validateFillBlank(q models.FillBlank, answer models.Answer) (bool, error) {
	if answer.Choice != nil {
		return false, models.Validationf("fill in the blank answers must be text")
	}
	given := models.NormalizeAnswer(answer.Text)
	for _, accepted := range q.AcceptedAnswers {
		if given == accepted {
			return true, nil
		}
	}
	return false, nil
}

func validateMultipleChoice(q models.MultipleChoice, answer models.Answer) (bool, error) {
	if answer.Choice == nil {
		return false, models.Validationf("multiple choice answers must be an option index")
	}
	// out of range never equals CorrectIndex, since that is always in range
	return *answer.Choice == q.CorrectIndex, nil
}
