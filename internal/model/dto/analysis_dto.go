package dto

// AnalyzeResponse 分析结果
type AnalyzeResponse struct {
	Result       string `json:"result"`
	Confidence   string `json:"confidence"`
	RecordID     int64  `json:"record_id"`
	AnalysisType string `json:"analysis_type"` // 展示名称
	ClassID      *int   `json:"class_id,omitempty"`
}

// HistoryItem 历史记录列表项
type HistoryItem struct {
	ID           int64  `json:"id"`
	Filename     string `json:"filename"`
	AnalysisType string `json:"analysis_type"`
	Result       string `json:"result"`
	Confidence   string `json:"confidence"`
	Timestamp    string `json:"timestamp"`
}

// RecordEvent 新记录事件，推送给 WebSocket 客户端
type RecordEvent struct {
	Type   string      `json:"type"`
	Record HistoryItem `json:"record"`
}
