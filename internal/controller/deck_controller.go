package controller

import (
	"github.com/gin-gonic/gin"

	"study_tutor_backend/internal/repository"
	"study_tutor_backend/internal/util"
)

type DeckController struct {
	decks *repository.DeckRepository
}

func NewDeckController(decks *repository.DeckRepository) *DeckController {
	return &DeckController{decks: decks}
}

// ListDecks 题库目录下的可用deck
// @Summary 列出可用题库
// @Tags Deck
// @Produce json
// @Success 200 {array} model.DeckInfo
// @Router /api/decks [get]
func (c *DeckController) ListDecks(ctx *gin.Context) {
	infos, err := c.decks.List()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, infos)
}
