// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// ReferenceIngestTask represents one reference-corpus document waiting to be
// extracted, embedded and indexed.
type ReferenceIngestTask struct {
	FileMD5    string `json:"file_md5"`
	ObjectName string `json:"object_name"`
	FileName   string `json:"file_name"`
	UploadedBy uint   `json:"uploaded_by"`
}
