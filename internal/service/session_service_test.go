package service

import (
	"context"
	"errors"
	"testing"

	"study_tutor_backend/internal/model"
	"study_tutor_backend/internal/repository"
	"study_tutor_backend/internal/util"
)

// fakeGrader 按顺序吐出预置裁决，记录调用次数
type fakeGrader struct {
	verdicts []model.Verdict
	err      error
	calls    int
}

func (f *fakeGrader) Grade(_ context.Context, _ string, _ model.Question, _ string) (model.Verdict, error) {
	f.calls++
	if f.err != nil {
		return model.Verdict{}, f.err
	}
	v := f.verdicts[0]
	if len(f.verdicts) > 1 {
		f.verdicts = f.verdicts[1:]
	}
	return v, nil
}

const oneQuestionDeck = `
meta:
  title: Capitals
  policy:
    max_attempts: 3
questions:
  - id: q1
    prompt: What is the capital of France?
    acceptable_answers: [Paris]
`

const twoQuestionDeck = `
meta:
  title: Capitals
questions:
  - id: q1
    prompt: What is the capital of France?
    acceptable_answers: [Paris]
  - id: q2
    prompt: What is the capital of Germany?
    acceptable_answers: [Berlin]
`

const emptyDeck = `
meta:
  title: Nothing Here
questions: []
`

func newTestService(t *testing.T, grader Grader, deckYAML string) *SessionService {
	t.Helper()
	svc := NewSessionService(grader, repository.NewDeckRepository(t.TempDir()))
	if deckYAML != "" {
		if _, err := svc.LoadDeckYAML(DefaultSessionID, []byte(deckYAML), ""); err != nil {
			t.Fatalf("load deck: %v", err)
		}
	}
	return svc
}

func checkInvariant(t *testing.T, snap SessionSnapshot) {
	t.Helper()
	if snap.Correct+snap.Wrong != snap.Current {
		t.Fatalf("tally invariant broken: correct=%d wrong=%d current=%d", snap.Correct, snap.Wrong, snap.Current)
	}
	if snap.Attempts < 0 || snap.Attempts > snap.MaxAttempts {
		t.Fatalf("attempts out of range: %d (max %d)", snap.Attempts, snap.MaxAttempts)
	}
}

// 场景A：精确匹配快速通道，判分服务绝不能被调用
func TestSubmitFastPath(t *testing.T) {
	grader := &fakeGrader{err: errors.New("must not be called")}
	svc := newTestService(t, grader, oneQuestionDeck)

	result, err := svc.SubmitAnswer(context.Background(), "", "  paris  ")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if result.Outcome != OutcomeCorrect {
		t.Errorf("outcome = %q", result.Outcome)
	}
	if grader.calls != 0 {
		t.Errorf("fast path must bypass grading, got %d calls", grader.calls)
	}
	snap := result.Session
	checkInvariant(t, snap)
	if snap.Correct != 1 || snap.Current != 1 || snap.Status != StatusComplete {
		t.Errorf("snapshot = %+v", snap)
	}
}

// 场景B：连续三次判错后按错计入并推进，尝试数归零
func TestSubmitFailOutAfterMaxAttempts(t *testing.T) {
	grader := &fakeGrader{verdicts: []model.Verdict{{Correct: false, Hint: "Think of France's capital."}}}
	svc := newTestService(t, grader, oneQuestionDeck)
	ctx := context.Background()

	for attempt := 1; attempt <= 2; attempt++ {
		result, err := svc.SubmitAnswer(ctx, "", "London")
		if err != nil {
			t.Fatalf("attempt %d: %v", attempt, err)
		}
		if result.Outcome != OutcomeRetry {
			t.Fatalf("attempt %d outcome = %q", attempt, result.Outcome)
		}
		if result.Hint != "Think of France's capital." {
			t.Errorf("attempt %d hint = %q", attempt, result.Hint)
		}
		checkInvariant(t, result.Session)
		if result.Session.Attempts != attempt || result.Session.Current != 0 {
			t.Errorf("attempt %d snapshot = %+v", attempt, result.Session)
		}
		if result.Session.LastHint != result.Hint {
			t.Errorf("last hint not recorded: %+v", result.Session)
		}
	}

	result, err := svc.SubmitAnswer(ctx, "", "London")
	if err != nil {
		t.Fatalf("final attempt: %v", err)
	}
	if result.Outcome != OutcomeFailed {
		t.Errorf("outcome = %q", result.Outcome)
	}
	snap := result.Session
	checkInvariant(t, snap)
	if snap.Wrong != 1 || snap.Current != 1 || snap.Attempts != 0 || snap.LastHint != "" {
		t.Errorf("snapshot = %+v", snap)
	}
	if grader.calls != 3 {
		t.Errorf("grader calls = %d", grader.calls)
	}
}

// 判分服务返回正确时同样推进
func TestSubmitGradedCorrect(t *testing.T) {
	grader := &fakeGrader{verdicts: []model.Verdict{{Correct: true, Hint: "n/a"}}}
	svc := newTestService(t, grader, oneQuestionDeck)

	result, err := svc.SubmitAnswer(context.Background(), "", "The city of Paris")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if result.Outcome != OutcomeCorrect || result.Session.Correct != 1 {
		t.Errorf("result = %+v", result)
	}
	if grader.calls != 1 {
		t.Errorf("grader calls = %d", grader.calls)
	}
}

// 判分故障必须降级为保守裁决：一次带通用提示的判错，绝不向上传播
func TestSubmitGradingFailureIsConservative(t *testing.T) {
	grader := &fakeGrader{err: errors.New("upstream down")}
	svc := newTestService(t, grader, oneQuestionDeck)

	result, err := svc.SubmitAnswer(context.Background(), "", "London")
	if err != nil {
		t.Fatalf("grading failure must not surface: %v", err)
	}
	if result.Outcome != OutcomeRetry {
		t.Errorf("outcome = %q", result.Outcome)
	}
	if result.Hint != conservativeHint {
		t.Errorf("hint = %q, want conservative fallback", result.Hint)
	}
	checkInvariant(t, result.Session)
}

// 空白输入被拒绝且状态不变
func TestSubmitBlankAnswer(t *testing.T) {
	grader := &fakeGrader{err: errors.New("must not be called")}
	svc := newTestService(t, grader, oneQuestionDeck)

	for _, answer := range []string{"", "   ", "\n\t"} {
		if _, err := svc.SubmitAnswer(context.Background(), "", answer); !errors.Is(err, util.ErrBlankAnswer) {
			t.Errorf("answer %q: err = %v, want ErrBlankAnswer", answer, err)
		}
	}

	snap, err := svc.Snapshot("")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Current != 0 || snap.Attempts != 0 {
		t.Errorf("blank input changed state: %+v", snap)
	}
}

// 场景C：skip无条件按错计，与已尝试次数无关
func TestSkip(t *testing.T) {
	grader := &fakeGrader{verdicts: []model.Verdict{{Correct: false, Hint: "no"}}}
	svc := newTestService(t, grader, twoQuestionDeck)
	ctx := context.Background()

	// 先错一次再跳过
	if _, err := svc.SubmitAnswer(ctx, "", "London"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	snap, err := svc.Skip("")
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	checkInvariant(t, snap)
	if snap.Wrong != 1 || snap.Current != 1 || snap.Attempts != 0 || snap.LastHint != "" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Question == nil || snap.Question.ID != "q2" {
		t.Errorf("expected q2 active, got %+v", snap.Question)
	}
}

// 终态下只有 restart / load 能离开
func TestTerminalState(t *testing.T) {
	grader := &fakeGrader{}
	svc := newTestService(t, grader, oneQuestionDeck)
	ctx := context.Background()

	if _, err := svc.SubmitAnswer(ctx, "", "Paris"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, "", "anything"); !errors.Is(err, util.ErrDeckComplete) {
		t.Errorf("submit after completion: %v", err)
	}
	if _, err := svc.Skip(""); !errors.Is(err, util.ErrDeckComplete) {
		t.Errorf("skip after completion: %v", err)
	}

	snap, err := svc.Restart("")
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if snap.Status != StatusInProgress || snap.Current != 0 || snap.Correct != 0 || snap.Wrong != 0 {
		t.Errorf("restart snapshot = %+v", snap)
	}
}

// restart 连续调用两次与一次等价
func TestRestartIdempotent(t *testing.T) {
	grader := &fakeGrader{}
	svc := newTestService(t, grader, twoQuestionDeck)

	if _, err := svc.SubmitAnswer(context.Background(), "", "Paris"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	first, err := svc.Restart("")
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	second, err := svc.Restart("")
	if err != nil {
		t.Fatalf("Restart twice: %v", err)
	}
	firstQ, secondQ := first.Question, second.Question
	first.Question, second.Question = nil, nil
	if first != second {
		t.Errorf("restart not idempotent: %+v vs %+v", first, second)
	}
	if firstQ == nil || secondQ == nil || *firstQ != *secondQ {
		t.Errorf("restart not idempotent: question %+v vs %+v", firstQ, secondQ)
	}
}

// 场景D：空题库立即处于 empty 态，而不是正常完成
func TestEmptyDeck(t *testing.T) {
	grader := &fakeGrader{}
	svc := newTestService(t, grader, emptyDeck)

	snap, err := svc.Snapshot("")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Status != StatusEmpty {
		t.Errorf("status = %q, want empty", snap.Status)
	}
	if snap.Message == "" || snap.Current != 0 || snap.Total != 0 {
		t.Errorf("snapshot = %+v", snap)
	}

	if _, err := svc.SubmitAnswer(context.Background(), "", "x"); !errors.Is(err, util.ErrDeckEmpty) {
		t.Errorf("submit on empty deck: %v", err)
	}
	if _, err := svc.Skip(""); !errors.Is(err, util.ErrDeckEmpty) {
		t.Errorf("skip on empty deck: %v", err)
	}
}

// 换deck等价于restart；每个会话键独占自己的状态
func TestLoadDeckAndSessionIsolation(t *testing.T) {
	grader := &fakeGrader{}
	svc := newTestService(t, grader, oneQuestionDeck)
	ctx := context.Background()

	if _, err := svc.SubmitAnswer(ctx, "", "Paris"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	snap, err := svc.LoadDeckYAML("", []byte(twoQuestionDeck), "")
	if err != nil {
		t.Fatalf("LoadDeckYAML: %v", err)
	}
	if snap.Current != 0 || snap.Correct != 0 || snap.Total != 2 {
		t.Errorf("reload must reset state: %+v", snap)
	}

	// 第二个会话互不影响
	if _, err := svc.LoadDeckYAML("other", []byte(oneQuestionDeck), ""); err != nil {
		t.Fatalf("load other: %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, "other", "Paris"); err != nil {
		t.Fatalf("submit other: %v", err)
	}
	otherSnap, _ := svc.Snapshot("other")
	mainSnap, _ := svc.Snapshot("")
	if otherSnap.Correct != 1 || mainSnap.Correct != 0 {
		t.Errorf("sessions not isolated: other=%+v main=%+v", otherSnap, mainSnap)
	}
}

func TestUnknownSession(t *testing.T) {
	svc := NewSessionService(&fakeGrader{}, repository.NewDeckRepository(t.TempDir()))
	if _, err := svc.Snapshot("ghost"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}
