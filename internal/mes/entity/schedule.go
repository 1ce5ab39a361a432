package entity

// ScheduleResult 排程结果，只读透传
type ScheduleResult struct {
	Tasks    []ScheduleTask     `json:"tasks"`
	Loads    map[string]float64 `json:"loads"` // 设备ID -> 累计工时
	Warnings []ScheduleWarning  `json:"warnings"`
}

// UnassignedEquipment 未分配设备的任务与负荷键
const UnassignedEquipment = "-1"

// ScheduleTask 排程任务，时间窗为 [Start, End)；ID 与其它实体一样是不透明字符串
type ScheduleTask struct {
	WorkOrderID          string  `json:"work_order_id"`
	OperationID          string  `json:"operation_id"`
	WorkOrderOperationID string  `json:"work_order_operation_id"`
	EquipmentID          string  `json:"equipment_id"` // UnassignedEquipment 表示未分配设备
	Sequence             int     `json:"sequence"`
	Start                string  `json:"start"`
	End                  string  `json:"end"`
	PlannedQuantity      float64 `json:"planned_quantity"`
	RemainingQuantity    float64 `json:"remaining_quantity"`
}

// ScheduleWarning 交期预警
type ScheduleWarning struct {
	WorkOrderID    string  `json:"work_order_id"`
	Code           string  `json:"code"`
	PlannedEndDate string  `json:"planned_end_date"`
	TaskEnd        string  `json:"task_end"`
	DelayHours     float64 `json:"delay_hours"`
}
