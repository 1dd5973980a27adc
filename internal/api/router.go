package api

import (
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/med_image_server/config"
	"github.com/qs3c/med_image_server/internal/api/handler"
	"github.com/qs3c/med_image_server/internal/api/middleware"
)

type Router struct {
	pageHandler      *handler.PageHandler
	systemHandler    *handler.SystemHandler
	analysisHandler  *handler.AnalysisHandler
	websocketHandler *handler.WebSocketHandler
	templates        *template.Template
	cfg              *config.Config
}

// NewRouter templates 需包含 index.html
func NewRouter(
	pageHandler *handler.PageHandler,
	systemHandler *handler.SystemHandler,
	analysisHandler *handler.AnalysisHandler,
	websocketHandler *handler.WebSocketHandler,
	templates *template.Template,
	cfg *config.Config,
) *Router {
	return &Router{
		pageHandler:      pageHandler,
		systemHandler:    systemHandler,
		analysisHandler:  analysisHandler,
		websocketHandler: websocketHandler,
		templates:        templates,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if !r.cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if r.cfg.Server.Debug {
		engine.Use(gin.Logger())
	}
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS(r.cfg.CORS))

	if r.templates != nil {
		engine.SetHTMLTemplate(r.templates)
	}

	// 页面
	engine.GET("/", r.pageHandler.Index)

	// 诊断
	engine.GET("/system-info", r.systemHandler.Info)

	// 分析
	engine.POST("/analyze", middleware.BodyLimit(r.cfg.Upload.MaxSize), r.analysisHandler.Analyze)
	engine.GET("/history", r.analysisHandler.History)

	// 新记录推送
	engine.GET("/ws", r.websocketHandler.Handle)

	return engine
}
