package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type PageHandler struct {
	title string
}

func NewPageHandler(title string) *PageHandler {
	return &PageHandler{title: title}
}

// Index 前端页面
// GET /
func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title": h.title,
	})
}
