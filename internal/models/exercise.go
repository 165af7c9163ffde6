package models

const hiddenFilePlaceholder = "Your teacher has hidden this file."

type CodeFile struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	IsHidden bool   `json:"is_hidden,omitempty"`
}

type ExerciseTest struct {
	Name string `json:"name"`
	// nil when the teacher has not set it yet
	PointsWorth *float64 `json:"points_worth"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
}

func (t ExerciseTest) Worth() float64 {
	if t.PointsWorth == nil {
		return 0
	}
	return *t.PointsWorth
}

type Exercise struct {
	Title        string         `json:"title"`
	Language     Language       `json:"language"`
	PointsWorth  float64        `json:"points_worth"`
	TriesAllowed *int           `json:"tries_allowed"`
	IsFinished   bool           `json:"is_finished"`
	IsTested     bool           `json:"is_tested"`
	Context      string         `json:"context"`
	Code         []CodeFile     `json:"code"`
	SolutionCode []CodeFile     `json:"solution_code"`
	Tests        []ExerciseTest `json:"tests"`
}

// NewExercise returns an empty exercise for the given language.
func NewExercise(language Language, title string) Exercise {
	return Exercise{
		Title:        title,
		Language:     language,
		Code:         []CodeFile{},
		SolutionCode: []CodeFile{},
		Tests:        []ExerciseTest{},
	}
}

// ExerciseEdit holds the fields a teacher may change. Nil fields are left alone.
type ExerciseEdit struct {
	Title        *string        `json:"title"`
	Context      *string        `json:"context"`
	TriesAllowed *TriesAllowed  `json:"tries_allowed"`
	Code         []CodeFile     `json:"code"`
	Tests        []ExerciseTest `json:"tests"`
}

// Edit applies the changes and recomputes PointsWorth as the sum of the tests'
// worth. Tests without a numeric worth count as zero.
func (e *Exercise) Edit(edit ExerciseEdit) {
	if edit.Title != nil {
		e.Title = *edit.Title
	}
	if edit.Context != nil {
		e.Context = *edit.Context
	}
	if edit.TriesAllowed != nil {
		n := int(*edit.TriesAllowed)
		e.TriesAllowed = &n
	}
	if edit.Code != nil {
		e.Code = edit.Code
	}
	if edit.Tests != nil {
		e.Tests = edit.Tests
	}

	var total float64
	for _, t := range e.Tests {
		total += t.Worth()
	}
	e.PointsWorth = total
}

// CheckFinished updates and returns IsFinished. The exercise is finished once it
// has at least one test, every test has a description and a worth, and the
// context and tries allowed are set.
func (e *Exercise) CheckFinished() bool {
	finished := len(e.Tests) > 0 && e.Context != "" && e.TriesAllowed != nil
	if finished {
		for _, t := range e.Tests {
			if t.Description == "" || t.PointsWorth == nil {
				finished = false
				break
			}
		}
	}

	e.IsFinished = finished
	return finished
}

// SaveTeacherSolution stores the teacher's solution and whether it passed.
func (e *Exercise) SaveTeacherSolution(correct bool, solution []CodeFile) {
	e.IsTested = correct
	e.SolutionCode = solution
}

// SubmittableCode merges a student's files with the skeleton: hidden skeleton
// files always use the teacher's version.
func (e Exercise) SubmittableCode(files []CodeFile) []CodeFile {
	hidden := make(map[string]CodeFile)
	for _, f := range e.Code {
		if f.IsHidden {
			hidden[f.Name] = f
		}
	}

	out := make([]CodeFile, 0, len(files)+len(hidden))
	for _, f := range files {
		if _, ok := hidden[f.Name]; ok {
			continue
		}
		out = append(out, CodeFile{Name: f.Name, Code: f.Code})
	}
	for _, f := range e.Code {
		if f.IsHidden {
			out = append(out, CodeFile{Name: f.Name, Code: f.Code})
		}
	}

	return out
}

type ExerciseView struct {
	Title        string     `json:"title"`
	Context      string     `json:"context"`
	Language     Language   `json:"language"`
	PointsWorth  float64    `json:"points_worth"`
	Code         []CodeFile `json:"code"`
	TriesAllowed *int       `json:"tries_allowed"`
}

// StripAnswers is what students get to see: no solution, no tests, and hidden
// files replaced with a placeholder.
func (e Exercise) StripAnswers() ExerciseView {
	code := make([]CodeFile, len(e.Code))
	for i, f := range e.Code {
		code[i] = f
		if f.IsHidden {
			code[i].Code = hiddenFilePlaceholder
		}
	}

	return ExerciseView{
		Title:        e.Title,
		Context:      e.Context,
		Language:     e.Language,
		PointsWorth:  e.PointsWorth,
		Code:         code,
		TriesAllowed: e.TriesAllowed,
	}
}
