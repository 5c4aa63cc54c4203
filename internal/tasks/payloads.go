package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeExportGenerate = "export:generate"
)

// ExportGeneratePayload 描述一次异步导出所需的最小信息。
// 文档快照已存入 ExportRecord，队列里只带记录 ID 与追踪号。
type ExportGeneratePayload struct {
	RecordID      uint   `json:"record_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewExportGenerateTask 构造一个新的简历导出任务。
func NewExportGenerateTask(recordID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ExportGeneratePayload{
		RecordID:      recordID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExportGenerate, payload), nil
}
