package controller

import (
	"errors"

	"github.com/gin-gonic/gin"

	"study_tutor_backend/internal/service"
	"study_tutor_backend/internal/util"
)

type SessionController struct {
	sessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{sessionService: sessionService}
}

// sessionKey 多用户托管时用 ?session= 区分，各自独占一套状态
func sessionKey(ctx *gin.Context) string {
	return ctx.DefaultQuery("session", service.DefaultSessionID)
}

type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

type LoadDeckRequest struct {
	Path  string `json:"path"`
	YAML  string `json:"yaml"`
	Model string `json:"model"`
}

// GetSession 当前会话状态
// @Summary 读取会话快照
// @Description 返回当前题目、进度、得分与最近一次提示
// @Tags Session
// @Produce json
// @Success 200 {object} service.SessionSnapshot
// @Router /api/session [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	snap, err := c.sessionService.Snapshot(sessionKey(ctx))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// SubmitAnswer 提交答案
// @Summary 提交自由文本答案
// @Description 精确匹配快速通道优先，未命中时调用外部判分
// @Tags Session
// @Accept json
// @Produce json
// @Param request body SubmitAnswerRequest true "答案内容"
// @Success 200 {object} service.SubmitResult
// @Router /api/session/answer [post]
func (c *SessionController) SubmitAnswer(ctx *gin.Context) {
	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.sessionService.SubmitAnswer(ctx.Request.Context(), sessionKey(ctx), req.Answer)
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Skip 跳过当前题目
// @Summary 跳过题目
// @Description 无条件按答错计入并推进
// @Tags Session
// @Produce json
// @Success 200 {object} service.SessionSnapshot
// @Router /api/session/skip [post]
func (c *SessionController) Skip(ctx *gin.Context) {
	snap, err := c.sessionService.Skip(sessionKey(ctx))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// Restart 重新开始当前deck
// @Summary 重置会话进度
// @Tags Session
// @Produce json
// @Success 200 {object} service.SessionSnapshot
// @Router /api/session/restart [post]
func (c *SessionController) Restart(ctx *gin.Context) {
	snap, err := c.sessionService.Restart(sessionKey(ctx))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// LoadDeck 加载/替换deck并重置会话
// @Summary 加载题库
// @Description path 与 yaml 二选一；model 可覆盖本会话的判分模型
// @Tags Session
// @Accept json
// @Produce json
// @Param request body LoadDeckRequest true "题库来源"
// @Success 200 {object} service.SessionSnapshot
// @Router /api/session/deck [post]
func (c *SessionController) LoadDeck(ctx *gin.Context) {
	var req LoadDeckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var (
		snap service.SessionSnapshot
		err  error
	)
	switch {
	case req.YAML != "":
		snap, err = c.sessionService.LoadDeckYAML(sessionKey(ctx), []byte(req.YAML), req.Model)
	case req.Path != "":
		snap, err = c.sessionService.LoadDeckFromFile(sessionKey(ctx), req.Path, req.Model)
	default:
		util.BadRequest(ctx, "either path or yaml is required")
		return
	}
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

func (c *SessionController) renderError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrBlankAnswer):
		// 输入错误：提示用户重新输入，状态未发生变化
		util.BadRequest(ctx, "Please enter an answer.")
	case errors.Is(err, util.ErrDeckComplete):
		util.Conflict(ctx, "All questions attempted. Restart to try again.")
	case errors.Is(err, util.ErrDeckEmpty):
		util.Conflict(ctx, "This deck has no questions.")
	case errors.Is(err, util.ErrNoDeckLoaded), errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx, "No active session. Load a deck first.")
	case errors.Is(err, util.ErrDeckNotFound):
		util.NotFound(ctx, "Deck not found.")
	case errors.Is(err, util.ErrDeckMalformed):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
