package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"study_tutor_backend/internal/model"
	"study_tutor_backend/internal/repository"
	"study_tutor_backend/internal/util"
	"study_tutor_backend/pkg/logger"
	"study_tutor_backend/pkg/monitoring"
)

// DefaultSessionID 单用户部署下的会话键
const DefaultSessionID = "default"

// 判分服务不可用时施加的保守裁决（对用户仅表现为一次带通用提示的判错）
const conservativeHint = "Revisit the main idea and key terms."

// 会话状态标签
const (
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
	StatusEmpty      = "empty"
)

// 提交结果标签
const (
	OutcomeCorrect = "correct" // 答对，已推进
	OutcomeRetry   = "retry"   // 答错，同题重试
	OutcomeFailed  = "failed"  // 用尽次数，按错计并推进
)

// tutorSession 一套题 + 进度，由各自的锁独占
// 锁覆盖整个提交流程（含阻塞的判分外呼）：动作逐个处理完才接受下一个
type tutorSession struct {
	mu    sync.Mutex
	deck  *model.Deck
	state model.SessionState
	model string // 本会话的判分模型覆盖，空则用全局配置
}

// SessionService 托管壳：按会话键隔离各自的Deck与SessionState
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*tutorSession
	grader   Grader
	decks    *repository.DeckRepository
}

func NewSessionService(grader Grader, decks *repository.DeckRepository) *SessionService {
	return &SessionService{
		sessions: make(map[string]*tutorSession),
		grader:   grader,
		decks:    decks,
	}
}

// QuestionView 暴露给前端的题目视图，绝不携带答案与评分细则
type QuestionView struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Number int    `json:"number"`
}

// SessionSnapshot 展示层读取的全部状态
type SessionSnapshot struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	Message     string        `json:"message,omitempty"`
	Current     int           `json:"current"`
	Total       int           `json:"total"`
	Correct     int           `json:"correct"`
	Wrong       int           `json:"wrong"`
	Attempts    int           `json:"attempts"`
	MaxAttempts int           `json:"max_attempts"`
	LastHint    string        `json:"last_hint,omitempty"`
	Question    *QuestionView `json:"question,omitempty"`
}

// SubmitResult 单次提交的转移结果
type SubmitResult struct {
	Outcome string          `json:"outcome"`
	Hint    string          `json:"hint,omitempty"`
	Session SessionSnapshot `json:"session"`
}

func (s *SessionService) get(sessionID string) (*tutorSession, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionService) getOrCreate(sessionID string) *tutorSession {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &tutorSession{}
		s.sessions[sessionID] = sess
	}
	return sess
}

// LoadDeckFromFile 从题库目录加载并重置会话（等价于 restart）
func (s *SessionService) LoadDeckFromFile(sessionID, path, modelName string) (SessionSnapshot, error) {
	deck, err := s.decks.Load(path)
	if err != nil {
		return SessionSnapshot{}, err
	}
	return s.installDeck(sessionID, deck, modelName), nil
}

// LoadDeckYAML 直接加载YAML文档内容
func (s *SessionService) LoadDeckYAML(sessionID string, data []byte, modelName string) (SessionSnapshot, error) {
	deck, err := s.decks.Parse(data)
	if err != nil {
		return SessionSnapshot{}, err
	}
	return s.installDeck(sessionID, deck, modelName), nil
}

func (s *SessionService) installDeck(sessionID string, deck *model.Deck, modelName string) SessionSnapshot {
	sess := s.getOrCreate(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.deck = deck
	sess.state = sess.state.Reset()
	if modelName != "" {
		sess.model = modelName
	}
	monitoring.DeckLoads.Inc()
	logger.Log.Info("deck loaded",
		zap.String("title", deck.Title),
		zap.Int("questions", deck.Total()))
	return snapshot(sess)
}

// Snapshot 当前会话状态（展示层只读入口）
func (s *SessionService) Snapshot(sessionID string) (SessionSnapshot, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.deck == nil {
		return SessionSnapshot{}, util.ErrNoDeckLoaded
	}
	return snapshot(sess), nil
}

// SubmitAnswer 提交答案：先走精确匹配快速通道，未命中再请求外部判分
// 判分错误在此处吸收为保守裁决，绝不向上传播
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID, answer string) (SubmitResult, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return SubmitResult{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.deck == nil {
		return SubmitResult{}, util.ErrNoDeckLoaded
	}
	if sess.deck.Total() == 0 {
		return SubmitResult{}, util.ErrDeckEmpty
	}
	if sess.state.Finished(sess.deck.Total()) {
		return SubmitResult{}, util.ErrDeckComplete
	}
	if strings.TrimSpace(answer) == "" {
		return SubmitResult{}, util.ErrBlankAnswer
	}

	q := sess.deck.Questions[sess.state.CurrentIndex]

	// 快速通道优先于任何外部判分，不受策略配置影响
	if MatchesAnswer(answer, q.AcceptableAnswers) {
		sess.state = sess.state.AdvanceCorrect()
		monitoring.AnswerResults.WithLabelValues("correct_fast").Inc()
		return SubmitResult{Outcome: OutcomeCorrect, Session: snapshot(sess)}, nil
	}

	verdict, err := s.grader.Grade(ctx, sess.model, q, answer)
	if err != nil {
		// 判分故障降级：按保守裁决继续，会话绝不因外部依赖中断
		logger.Log.Warn("grading failed, applying conservative verdict",
			zap.String("question", q.ID), zap.Error(err))
		verdict = model.Verdict{Correct: false, Hint: conservativeHint}
	}

	if verdict.Correct {
		sess.state = sess.state.AdvanceCorrect()
		monitoring.AnswerResults.WithLabelValues("correct_graded").Inc()
		return SubmitResult{Outcome: OutcomeCorrect, Session: snapshot(sess)}, nil
	}

	if sess.state.AttemptCount+1 >= sess.deck.Policy.MaxAttempts {
		sess.state = sess.state.AdvanceWrong()
		monitoring.AnswerResults.WithLabelValues("failed").Inc()
		return SubmitResult{Outcome: OutcomeFailed, Session: snapshot(sess)}, nil
	}

	sess.state = sess.state.RecordMiss(verdict.Hint)
	monitoring.AnswerResults.WithLabelValues("retry").Inc()
	return SubmitResult{Outcome: OutcomeRetry, Hint: verdict.Hint, Session: snapshot(sess)}, nil
}

// Skip 跳过当前题目：无条件按错计，不管已尝试几次
func (s *SessionService) Skip(sessionID string) (SessionSnapshot, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.deck == nil {
		return SessionSnapshot{}, util.ErrNoDeckLoaded
	}
	if sess.deck.Total() == 0 {
		return SessionSnapshot{}, util.ErrDeckEmpty
	}
	if sess.state.Finished(sess.deck.Total()) {
		return SessionSnapshot{}, util.ErrDeckComplete
	}

	sess.state = sess.state.AdvanceWrong()
	monitoring.AnswerResults.WithLabelValues("skipped").Inc()
	return snapshot(sess), nil
}

// Restart 归零重来，题目内容不变；重复调用幂等
func (s *SessionService) Restart(sessionID string) (SessionSnapshot, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.deck == nil {
		return SessionSnapshot{}, util.ErrNoDeckLoaded
	}
	sess.state = sess.state.Reset()
	return snapshot(sess), nil
}

func snapshot(sess *tutorSession) SessionSnapshot {
	d := sess.deck
	snap := SessionSnapshot{
		Title:       d.Title,
		Description: d.Description,
		Current:     sess.state.CurrentIndex,
		Total:       d.Total(),
		Correct:     sess.state.CorrectTotal,
		Wrong:       sess.state.WrongTotal,
		Attempts:    sess.state.AttemptCount,
		MaxAttempts: d.Policy.MaxAttempts,
		LastHint:    sess.state.LastHint,
	}

	switch {
	case d.Total() == 0:
		// 空题库是独立的提示态，不能按正常完成汇报
		snap.Status = StatusEmpty
		snap.Message = "This deck has no questions."
	case sess.state.Finished(d.Total()):
		snap.Status = StatusComplete
		snap.Message = "All questions attempted."
	default:
		snap.Status = StatusInProgress
		q := d.Questions[sess.state.CurrentIndex]
		snap.Question = &QuestionView{
			ID:     q.ID,
			Prompt: q.Prompt,
			Number: sess.state.CurrentIndex + 1,
		}
	}
	return snap
}
