package dto

// SystemInfo 系统诊断信息
// python_version / tensorflow_version 沿用前端已使用的字段名
type SystemInfo struct {
	OS                string `json:"os"`
	RuntimeVersion    string `json:"python_version"`
	ModelVersion      string `json:"tensorflow_version"`
	DBType            string `json:"db_type"`
	DBConnected       bool   `json:"db_connected"`
	RecordCount       int64  `json:"record_count"`
	ServerTime        string `json:"server_time"`
	AnalysisEngine    string `json:"analysis_engine"`
	RedisConnected    *bool  `json:"redis_connected,omitempty"`
	WebSocketSessions int    `json:"websocket_sessions"`
}
