package model

// Question 题卡：加载后不可变
// AcceptableAnswers/Rubric/Hint 不参与JSON序列化，避免把答案泄露给前端
type Question struct {
	ID                string   `json:"id"`
	Prompt            string   `json:"prompt"`
	AcceptableAnswers []string `json:"-"`
	Rubric            string   `json:"-"`
	Hint              string   `json:"-"`
}

// DeckPolicy 判分策略，默认值在加载时填充（而不是使用时）
type DeckPolicy struct {
	MaxAttempts           int  `json:"max_attempts"`
	RevealAnswerOnFailout bool `json:"reveal_answer_on_failout"` // 预留字段，状态机暂未消费
}

const DefaultMaxAttempts = 3

// Deck 一套题目及其策略，由唯一的活跃会话独占
type Deck struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Policy      DeckPolicy `json:"policy"`
	Questions   []Question `json:"-"`
}

func (d *Deck) Total() int {
	return len(d.Questions)
}

// DeckInfo 题库列表项（摘要信息）
type DeckInfo struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Questions   int    `json:"questions"`
}
