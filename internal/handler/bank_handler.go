package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/response"
)

type BankHandler struct {
	info model.BankInfo
}

func NewBankHandler(info model.BankInfo) *BankHandler {
	return &BankHandler{info: info}
}

// GetBankInfo godoc
// GET /api/v1/bank
func (h *BankHandler) GetBankInfo(c *gin.Context) {
	response.Success(c, http.StatusOK, h.info)
}
