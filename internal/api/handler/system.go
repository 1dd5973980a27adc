package handler

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/med_image_server/internal/api/middleware"
	"github.com/qs3c/med_image_server/internal/pkg/response"
	"github.com/qs3c/med_image_server/internal/service"
)

type SystemHandler struct {
	systemService *service.SystemService
}

func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// Info 系统诊断信息
// GET /system-info
func (h *SystemHandler) Info(c *gin.Context) {
	// 诊断接口任何失败都只返回 {error}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] 获取系统信息过程中发生错误: %v", middleware.GetRequestID(c), r)
			response.ErrorOnly(c, fmt.Sprint(r))
		}
	}()

	info, err := h.systemService.Info(c.Request.Context())
	if err != nil {
		log.Printf("[%s] 获取系统信息过程中发生错误: %v", middleware.GetRequestID(c), err)
		response.ErrorOnly(c, err.Error())
		return
	}

	response.JSON(c, info)
}
