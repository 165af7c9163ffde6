package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

type QuestionType string

const (
	QuestionTypeFillBlank      QuestionType = "fillblank"
	QuestionTypeMultipleChoice QuestionType = "mc"
	QuestionTypeFreeResponse   QuestionType = "frq"
)

const (
	// UnlimitedTries is what "unlimited" tries allowed is stored as.
	UnlimitedTries      = 10000
	MaxFillBlankAnswers = 10
)

// QuestionBody is the type-specific part of a question.
// Implemented by FillBlank, MultipleChoice and FreeResponse.
type QuestionBody interface {
	Type() QuestionType
}

type FillBlank struct {
	// lowercase, trimmed
	AcceptedAnswers []string
}

type MultipleChoice struct {
	Options      []string
	CorrectIndex int
}

type FreeResponse struct{}

func (FillBlank) Type() QuestionType      { return QuestionTypeFillBlank }
func (MultipleChoice) Type() QuestionType { return QuestionTypeMultipleChoice }
func (FreeResponse) Type() QuestionType   { return QuestionTypeFreeResponse }

// Question is embedded in an assignment. A freshly added question has a nil Body
// until the teacher edits it.
type Question struct {
	Prompt       string
	PointsWorth  float64
	TriesAllowed int
	IsHomework   bool
	Body         QuestionBody
}

func (q Question) Type() QuestionType {
	if q.Body == nil {
		return ""
	}
	return q.Body.Type()
}

// NeedsManualGrading reports whether a teacher has to score the question by hand.
// Homework free responses are auto-awarded full points instead.
func (q Question) NeedsManualGrading() bool {
	_, ok := q.Body.(FreeResponse)
	return ok && !q.IsHomework
}

// QuestionView is the wire shape of a question. Answer fields are omitted in the
// student view.
type QuestionView struct {
	Prompt        string       `json:"prompt"`
	QuestionType  QuestionType `json:"question_type,omitempty"`
	PointsWorth   float64      `json:"points_worth"`
	TriesAllowed  int          `json:"tries_allowed"`
	IsHomework    bool         `json:"is_homework"`
	AnswerOptions []string     `json:"answer_options,omitempty"`
	MCAnswer      *int         `json:"mc_answer,omitempty"`
}

func (q Question) view(withAnswers bool) QuestionView {
	v := QuestionView{
		Prompt:       q.Prompt,
		QuestionType: q.Type(),
		PointsWorth:  q.PointsWorth,
		TriesAllowed: q.TriesAllowed,
		IsHomework:   q.IsHomework,
	}
	switch b := q.Body.(type) {
	case FillBlank:
		if withAnswers {
			v.AnswerOptions = b.AcceptedAnswers
		}
	case MultipleChoice:
		v.AnswerOptions = b.Options
		if withAnswers {
			idx := b.CorrectIndex
			v.MCAnswer = &idx
		}
	}
	return v
}

// StudentView strips accepted answers.
func (q Question) StudentView() QuestionView {
	return q.view(false)
}

func (q Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.view(true))
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var v QuestionView
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	q.Prompt = v.Prompt
	q.PointsWorth = v.PointsWorth
	q.TriesAllowed = v.TriesAllowed
	q.IsHomework = v.IsHomework

	switch v.QuestionType {
	case QuestionTypeFillBlank:
		q.Body = FillBlank{AcceptedAnswers: v.AnswerOptions}
	case QuestionTypeMultipleChoice:
		mc := MultipleChoice{Options: v.AnswerOptions}
		if v.MCAnswer != nil {
			mc.CorrectIndex = *v.MCAnswer
		}
		q.Body = mc
	case QuestionTypeFreeResponse:
		q.Body = FreeResponse{}
	case "":
		q.Body = nil
	default:
		return Validationf("unknown question type %q", v.QuestionType)
	}

	return nil
}

// TriesAllowed accepts either a number or the string "unlimited".
type TriesAllowed int

func (t *TriesAllowed) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = 0
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.EqualFold(strings.TrimSpace(s), "unlimited") {
			*t = UnlimitedTries
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return Validationf("tries allowed must be a number or \"unlimited\"")
		}
		*t = TriesAllowed(n)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return Validationf("tries allowed must be a number or \"unlimited\"")
	}
	*t = TriesAllowed(n)
	return nil
}

// BuildQuestion turns a teacher's edit into a question. Shape problems are
// rejected here, before anything is mutated.
func BuildQuestion(req *EditQuestionRequest) (Question, error) {
	q := Question{
		Prompt:       req.Question,
		PointsWorth:  req.PointsWorth,
		TriesAllowed: int(req.TriesAllowed),
		IsHomework:   req.IsHomework,
	}
	if q.TriesAllowed < 0 {
		return Question{}, Validationf("tries allowed cannot be negative")
	}

	switch QuestionType(req.QuestionType) {
	case QuestionTypeFillBlank:
		answers, err := parseFillBlankOptions(req.AnswerOptions)
		if err != nil {
			return Question{}, err
		}
		q.Body = FillBlank{AcceptedAnswers: answers}
	case QuestionTypeMultipleChoice:
		var options []string
		if err := json.Unmarshal(req.AnswerOptions, &options); err != nil || options == nil {
			return Question{}, Validationf("Something went wrong with the multiple choice selection")
		}
		if req.MCAnswer == nil || *req.MCAnswer < 0 || *req.MCAnswer >= len(options) {
			return Question{}, Validationf("the correct option must be one of the answer options")
		}
		q.Body = MultipleChoice{Options: options, CorrectIndex: *req.MCAnswer}
	case QuestionTypeFreeResponse:
		q.Body = FreeResponse{}
	default:
		return Question{}, Validationf("unknown question type %q", req.QuestionType)
	}

	return q, nil
}

// parseFillBlankOptions accepts "a, b, c" or ["a", "b", "c"].
func parseFillBlankOptions(raw json.RawMessage) ([]string, error) {
	var parts []string

	var csv string
	if err := json.Unmarshal(raw, &csv); err == nil {
		parts = strings.Split(csv, ",")
	} else if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, Validationf("fill in the blank answers must be a comma separated list")
	}

	answers := make([]string, 0, len(parts))
	for _, p := range parts {
		if a := NormalizeAnswer(p); a != "" {
			answers = append(answers, a)
		}
	}

	if len(answers) > MaxFillBlankAnswers {
		return nil, Validationf("Must have at most %d possible answers", MaxFillBlankAnswers)
	}

	return answers, nil
}

// NormalizeAnswer is the comparison form of fill in the blank answers.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Answer is a student's answer to one question: free text or a choice index.
type Answer struct {
	Text   string
	Choice *int
}

// ParseAnswer reads a JSON string or number.
func ParseAnswer(raw json.RawMessage) (Answer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Answer{}, Validationf("answer is required")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Answer{Text: s}, nil
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return Answer{Choice: &n}, nil
	}

	return Answer{}, Validationf("answer must be a string or an option index")
}

// String is how the answer is recorded on the submission.
func (a Answer) String() string {
	if a.Choice != nil {
		return strconv.Itoa(*a.Choice)
	}
	return a.Text
}
