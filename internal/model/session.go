package model

// SessionState 会话进度计数器
// 不变式：CorrectTotal + WrongTotal == CurrentIndex；每次换题 AttemptCount 归零
// 所有转移操作返回新值，便于脱离HTTP层单独测试
type SessionState struct {
	CurrentIndex int    `json:"current_index"`
	AttemptCount int    `json:"attempt_count"`
	CorrectTotal int    `json:"correct_total"`
	WrongTotal   int    `json:"wrong_total"`
	LastHint     string `json:"last_hint"`
}

// AdvanceCorrect 答对推进：计入正确并换题
func (s SessionState) AdvanceCorrect() SessionState {
	s.CorrectTotal++
	return s.advance()
}

// AdvanceWrong 答错推进：计入错误并换题（跳过、用尽次数均走此转移）
func (s SessionState) AdvanceWrong() SessionState {
	s.WrongTotal++
	return s.advance()
}

func (s SessionState) advance() SessionState {
	s.CurrentIndex++
	s.AttemptCount = 0
	s.LastHint = ""
	return s
}

// RecordMiss 未答对但还有剩余机会：累计尝试并记录提示
func (s SessionState) RecordMiss(hint string) SessionState {
	s.AttemptCount++
	s.LastHint = hint
	return s
}

// Reset 重新开始，题目内容不变
func (s SessionState) Reset() SessionState {
	return SessionState{}
}

// Finished 是否已经走完整套题
func (s SessionState) Finished(total int) bool {
	return s.CurrentIndex >= total
}

// Verdict 单次判分结果，不做持久化
type Verdict struct {
	Correct bool   `json:"correct"`
	Hint    string `json:"hint"`
}
