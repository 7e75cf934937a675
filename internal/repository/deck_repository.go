package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"study_tutor_backend/internal/model"
	"study_tutor_backend/internal/util"
)

// 缺省提示语，题目未提供hint时使用
const defaultHint = "Consider the key concept and its standard term."

// DeckRepository 基于目录的YAML题库
// 会话状态只存在于进程内存，题库文件是唯一的外部数据源
type DeckRepository struct {
	dir string
}

func NewDeckRepository(dir string) *DeckRepository {
	return &DeckRepository{dir: dir}
}

// deckDoc 对应题库文档结构；指针字段用于区分"缺省"与"显式零值"
type deckDoc struct {
	Meta struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Policy      struct {
			MaxAttempts           *int  `yaml:"max_attempts"`
			RevealAnswerOnFailout *bool `yaml:"reveal_answer_on_failout"`
		} `yaml:"policy"`
	} `yaml:"meta"`
	Questions []struct {
		ID                string   `yaml:"id"`
		Prompt            string   `yaml:"prompt"`
		AcceptableAnswers []string `yaml:"acceptable_answers"`
		Rubric            string   `yaml:"rubric"`
		Hint              string   `yaml:"hint"`
	} `yaml:"questions"`
}

// List 枚举题库目录下的全部deck摘要
func (r *DeckRepository) List() ([]model.DeckInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}

	var infos []model.DeckInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		deck, err := r.Load(e.Name())
		if err != nil {
			// 坏文件跳过，不让单个损坏的deck拖垮列表
			continue
		}
		infos = append(infos, model.DeckInfo{
			Path:        e.Name(),
			Title:       deck.Title,
			Description: deck.Description,
			Questions:   deck.Total(),
		})
	}
	return infos, nil
}

// Load 读取并解析一个deck；相对路径基于题库目录，禁止越出目录
func (r *DeckRepository) Load(path string) (*model.Deck, error) {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(r.dir, path)
	}
	clean := filepath.Clean(full)
	if !filepath.IsAbs(path) && !strings.HasPrefix(clean, filepath.Clean(r.dir)+string(os.PathSeparator)) {
		return nil, util.ErrDeckNotFound
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, util.ErrDeckNotFound
		}
		return nil, err
	}
	return r.Parse(data)
}

// Parse 解析YAML文档为Deck，缺省值在此统一填充
func (r *DeckRepository) Parse(data []byte) (*model.Deck, error) {
	var doc deckDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrDeckMalformed, err)
	}

	deck := &model.Deck{
		Title:       doc.Meta.Title,
		Description: doc.Meta.Description,
		Policy: model.DeckPolicy{
			MaxAttempts:           model.DefaultMaxAttempts,
			RevealAnswerOnFailout: false,
		},
	}
	if deck.Title == "" {
		deck.Title = "Untitled Deck"
	}
	if doc.Meta.Policy.MaxAttempts != nil {
		if *doc.Meta.Policy.MaxAttempts <= 0 {
			return nil, fmt.Errorf("%w: policy.max_attempts must be positive", util.ErrDeckMalformed)
		}
		deck.Policy.MaxAttempts = *doc.Meta.Policy.MaxAttempts
	}
	if doc.Meta.Policy.RevealAnswerOnFailout != nil {
		deck.Policy.RevealAnswerOnFailout = *doc.Meta.Policy.RevealAnswerOnFailout
	}

	seen := make(map[string]bool, len(doc.Questions))
	for i, q := range doc.Questions {
		if strings.TrimSpace(q.ID) == "" {
			return nil, fmt.Errorf("%w: question %d has no id", util.ErrDeckMalformed, i+1)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: duplicate question id %q", util.ErrDeckMalformed, q.ID)
		}
		seen[q.ID] = true
		if strings.TrimSpace(q.Prompt) == "" {
			return nil, fmt.Errorf("%w: question %q has no prompt", util.ErrDeckMalformed, q.ID)
		}

		hint := q.Hint
		if hint == "" {
			hint = defaultHint
		}
		deck.Questions = append(deck.Questions, model.Question{
			ID:                q.ID,
			Prompt:            q.Prompt,
			AcceptableAnswers: q.AcceptableAnswers,
			Rubric:            q.Rubric,
			Hint:              hint,
		})
	}

	return deck, nil
}
