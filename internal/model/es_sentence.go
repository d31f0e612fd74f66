package model

// EsSentence 定义了存储在 Elasticsearch 中的参考句子结构。
type EsSentence struct {
	SentenceID   string `json:"sentence_id"` // 唯一标识，例如 fileMd5 + position
	FileMD5      string `json:"file_md5"`
	Position     int    `json:"position"`
	TextContent  string `json:"text_content"`
	ModelVersion string `json:"model_version"`
}

// SentenceHit 定义了返回给调用方的句子检索结果。
type SentenceHit struct {
	FileMD5     string  `json:"fileMd5"`
	FileName    string  `json:"fileName,omitempty"`
	Position    int     `json:"position"`
	TextContent string  `json:"textContent"`
	Score       float64 `json:"score"`
}
