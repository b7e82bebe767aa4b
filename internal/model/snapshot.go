package model

// ExamState enumerates the exam session states.
type ExamState string

const (
	ExamStateIntro    ExamState = "intro"
	ExamStateActive   ExamState = "active"
	ExamStateFinished ExamState = "finished"
)

// ExamSnapshot is the crash-recovery record for an in-progress exam. It has
// a lifecycle independent of UserProgress: written on every change while the
// session is active, removed the moment the session finishes or resets.
// Timestamp is a millisecond epoch wall-clock write time.
type ExamSnapshot struct {
	State        ExamState         `json:"state"`
	QuestionIDs  []string          `json:"questionIds"`
	Answers      map[string]string `json:"answers"`
	CurrentIndex int               `json:"currentIndex"`
	TimeLeft     int               `json:"timeLeft"`
	Timestamp    int64             `json:"timestamp"`
}

// ExamAnswerRequest records the selected option for the current question.
type ExamAnswerRequest struct {
	Key string `json:"key" binding:"required,max=10"`
}

// ExamNavigateRequest moves the exam cursor. Exactly one of To (absolute)
// or Step (relative) is used; To wins when both are present.
type ExamNavigateRequest struct {
	To   *int `json:"to"`
	Step int  `json:"step"`
}

// ExamResumeRequest accepts or declines a pending recovery snapshot.
type ExamResumeRequest struct {
	Accept bool `json:"accept"`
}
