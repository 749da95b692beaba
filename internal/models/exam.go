package models

// OptionKeys lists the answer letters every exam question must carry, in order.
var OptionKeys = []string{"A", "B", "C", "D"}

type ExamOptions struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// Get returns the option text for a letter.
func (o ExamOptions) Get(key string) (string, bool) {
	switch key {
	case "A":
		return o.A, true
	case "B":
		return o.B, true
	case "C":
		return o.C, true
	case "D":
		return o.D, true
	}
	return "", false
}

type ExamQuestion struct {
	Question      string      `json:"question"`
	Options       ExamOptions `json:"options"`
	CorrectAnswer string      `json:"correctAnswer"` // "A" | "B" | "C" | "D"
	Explanation   string      `json:"explanation"`
}

type ExamRequest struct {
	Context      string `json:"context"`
	NumQuestions int    `json:"numQuestions"`
}

type ExamResult struct {
	Questions []ExamQuestion `json:"questions"`
}
