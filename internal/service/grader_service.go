package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"study_tutor_backend/internal/model"
	"study_tutor_backend/pkg/monitoring"
	"study_tutor_backend/pkg/tracing"
)

// 固定判分指令：宽容小幅变体、同义词算对、拿不准倾向判错、提示不泄露答案
// 要求单行JSON输出，解析端做了防御
const gradingSystemPrompt = `You are an exacting but supportive grader. You will receive:
1) A question (prompt)
2) An array of acceptable answers (strings)
3) A rubric (text guidance)
4) A student's answer (free text)

Decide if the student's answer is correct. Use the acceptable answers and rubric.
- Be tolerant of small variations, case, punctuation, and minor whitespace.
- If the answer is clearly equivalent or a commonly accepted synonym, mark it correct.
- If in doubt, lean conservative and mark incorrect.
- Provide a brief, actionable hint without revealing the full answer.

Output strictly as JSON in one line with this schema:
{"correct": true|false, "hint": "<short advice, no solution>"}`

// 解析失败/字段缺失时的兜底提示
const fallbackHint = "Reflect on the core concept."

// Grader 判分边界：错误向外返回，保守兜底由状态机统一施加
type Grader interface {
	Grade(ctx context.Context, modelName string, q model.Question, studentAnswer string) (model.Verdict, error)
}

type GraderService struct {
	ai *AIService
}

func NewGraderService(ai *AIService) *GraderService {
	return &GraderService{ai: ai}
}

type gradingPayload struct {
	Prompt            string   `json:"prompt"`
	AcceptableAnswers []string `json:"acceptable_answers"`
	Rubric            string   `json:"rubric"`
	StudentAnswer     string   `json:"student_answer"`
}

// Grade 调用判分服务并解析单行JSON裁决
// 每次调用恰好一次外呼，不重试不缓存（快速通道是唯一的"缓存"）
func (s *GraderService) Grade(ctx context.Context, modelName string, q model.Question, studentAnswer string) (model.Verdict, error) {
	ctx, span := tracing.Tracer.Start(ctx, "grader.grade")
	defer span.End()

	payload, err := json.Marshal(gradingPayload{
		Prompt:            q.Prompt,
		AcceptableAnswers: q.AcceptableAnswers,
		Rubric:            q.Rubric,
		StudentAnswer:     studentAnswer, // 原始输入，不做归一化
	})
	if err != nil {
		return model.Verdict{}, err
	}

	start := time.Now()
	raw, err := s.ai.Chat(ctx, modelName, gradingSystemPrompt, string(payload))
	monitoring.GradingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		monitoring.GradingRequests.WithLabelValues("error").Inc()
		return model.Verdict{}, err
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		monitoring.GradingRequests.WithLabelValues("malformed").Inc()
		return model.Verdict{}, err
	}

	monitoring.GradingRequests.WithLabelValues("ok").Inc()
	return verdict, nil
}

// parseVerdict 防御式解析：截取首个 { 到最后一个 } 之间的子串作为JSON
// 容忍模型在JSON前后输出多余说明文字
func parseVerdict(raw string) (model.Verdict, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return model.Verdict{}, fmt.Errorf("no JSON object in grader reply: %q", truncate(raw, 120))
	}

	var parsed struct {
		Correct bool   `json:"correct"`
		Hint    string `json:"hint"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return model.Verdict{}, fmt.Errorf("malformed grader reply: %w", err)
	}

	hint := strings.TrimSpace(parsed.Hint)
	if hint == "" {
		hint = fallbackHint
	}
	return model.Verdict{Correct: parsed.Correct, Hint: hint}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
