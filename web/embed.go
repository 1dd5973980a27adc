package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*
var templatesFS embed.FS

// Templates 解析内嵌的页面模板
func Templates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}
