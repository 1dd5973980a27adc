package handler

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/med_image_server/internal/api/middleware"
	"github.com/qs3c/med_image_server/internal/pkg/classifier"
	"github.com/qs3c/med_image_server/internal/pkg/response"
	"github.com/qs3c/med_image_server/internal/service"
)

type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
	}
}

// Analyze 上传图像并分析
// POST /analyze
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	header, err := imageFile(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.TooLarge(c, "")
			return
		}
		log.Printf("[%s] Malformed upload: %v", middleware.GetRequestID(c), err)
		response.BadRequest(c, "")
		return
	}

	analysisType, ok := c.GetPostForm("analysis_type")
	if !ok {
		analysisType = classifier.TypeGeneral
	}

	resp, err := h.analysisService.Analyze(c.Request.Context(), header, analysisType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoFile),
			errors.Is(err, service.ErrEmptyFilename),
			errors.Is(err, service.ErrUnsupportedType):
			response.ParamError(c, err.Error())
		default:
			log.Printf("[%s] 图像分析过程中发生错误: %v", middleware.GetRequestID(c), err)
			response.ServerError(c, err.Error())
		}
		return
	}

	data := gin.H{
		"result":        resp.Result,
		"confidence":    resp.Confidence,
		"record_id":     resp.RecordID,
		"analysis_type": resp.AnalysisType,
	}
	if resp.ClassID != nil {
		data["class_id"] = *resp.ClassID
	}
	response.Success(c, data)
}

// History 最近 50 条分析记录
// GET /history
func (h *AnalysisHandler) History(c *gin.Context) {
	items, err := h.analysisService.History(c.Request.Context())
	if err != nil {
		log.Printf("[%s] 获取历史记录过程中发生错误: %v", middleware.GetRequestID(c), err)
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"records": items})
}

// imageFile 读取 image 文件字段；没有该字段或请求不是 multipart 时返回 nil。
// 浏览器未选择文件时会提交 filename="" 的空 part，multipart 解析把它当作普通字段，
// 这里还原成文件名为空的 header
func imageFile(c *gin.Context) (*multipart.FileHeader, error) {
	file, header, err := c.Request.FormFile("image")
	switch {
	case err == nil:
		file.Close()
		return header, nil
	case errors.Is(err, http.ErrMissingFile):
		if form := c.Request.MultipartForm; form != nil {
			if _, ok := form.Value["image"]; ok {
				return &multipart.FileHeader{}, nil
			}
		}
		return nil, nil
	case errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	default:
		return nil, err
	}
}
