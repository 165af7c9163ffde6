package grading

import (
	"strings"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

// AttemptOutcome is the updated record after one question attempt.
type AttemptOutcome struct {
	Attempt models.QuestionAttempt
	// OverLimit is advisory: the attempt is still recorded.
	OverLimit bool
}

// ApplyAttempt records one attempt at a question. Tries always go up by one.
// Credit sets the points to pointsWorth; without credit earlier points are kept,
// so a wrong resubmission never takes credit away.
func ApplyAttempt(prev models.QuestionAttempt, triesAllowed int, pointsWorth float64, answer string, credit bool) AttemptOutcome {
	next := prev
	next.Answer = answer
	next.Tries = prev.Tries + 1
	if credit {
		next.Points = pointsWorth
		next.Correct = true
	}

	return AttemptOutcome{
		Attempt:   next,
		OverLimit: next.Tries > triesAllowed,
	}
}

// ApplyExerciseResult records one graded exercise submission. Points are taken
// fresh from the result rather than accumulated.
func ApplyExerciseResult(prev models.ExerciseAttempt, code []models.CodeFile, result *models.GradingResult) models.ExerciseAttempt {
	return models.ExerciseAttempt{
		Code:    code,
		Tries:   prev.Tries + 1,
		Correct: result.IsCorrect,
		Points:  result.PointsEarned,
	}
}

// MapSandboxResult matches the sandbox's passed and failed test names back to the
// exercise's tests. Names the exercise does not define are ignored.
func MapSandboxResult(tests []models.ExerciseTest, resp *models.SandboxResponse) *models.GradingResult {
	errs := resp.Errors
	if errs == nil {
		errs = []string{}
	}

	passed := strings.Fields(resp.PassedTests)
	passedSet := make(map[string]struct{}, len(passed))
	for _, name := range passed {
		passedSet[name] = struct{}{}
	}
	all := append(passed, strings.Fields(resp.FailedTests)...)

	result := &models.GradingResult{
		IsCorrect:   len(errs) == 0,
		Errors:      errs,
		TestResults: make([]models.TestResult, 0, len(all)),
	}

	for _, name := range all {
		test, ok := findTest(tests, name)
		if !ok {
			continue
		}
		_, ok = passedSet[name]
		if ok {
			result.PointsEarned += test.Worth()
		}
		result.TestResults = append(result.TestResults, models.TestResult{
			Passed:      ok,
			Description: test.Description,
		})
	}

	return result
}

func findTest(tests []models.ExerciseTest, name string) (models.ExerciseTest, bool) {
	for _, t := range tests {
		if t.Name == name {
			return t, true
		}
	}
	return models.ExerciseTest{}, false
}

// Total is the submission's score: question and exercise points, less the
// assignment's point loss once if any attempt was accepted late. Never negative.
func Total(sub *models.Submission, a *models.Assignment) float64 {
	var total float64
	for _, q := range sub.Questions {
		total += q.Points
	}
	for _, e := range sub.Exercises {
		total += e.Points
	}
	if sub.IsLate && a.DeadlineType == models.DeadlinePointLoss {
		total -= a.PointLoss
	}
	if total < 0 {
		return 0
	}
	return total
}
