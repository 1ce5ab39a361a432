package entity

// WIPItem 在制品追踪记录，Status 为自由字符串（wip/completed/hold 等）
type WIPItem struct {
	ID           string          `json:"id"`
	WorkOrderID  string          `json:"workOrderId"`
	OperationID  string          `json:"operationId"`
	MaterialID   string          `json:"materialId"`
	BatchNumber  string          `json:"batchNumber"`
	SerialNumber string          `json:"serialNumber"`
	Quantity     float64         `json:"quantity"`
	Status       string          `json:"status"`
	Location     string          `json:"location"`
	OperatorID   string          `json:"operatorId"`
	EquipmentID  string          `json:"equipmentId"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
	WorkOrder    *WorkOrderBrief `json:"workOrder"`
	Operation    *OperationBrief `json:"operation"`
}

func (w WIPItem) EntityID() string { return w.ID }

// WorkOrderBrief 在制品关联的工单简要信息
type WorkOrderBrief struct {
	ID              string  `json:"id"`
	Code            string  `json:"code"`
	ProductID       string  `json:"productId"`
	PlannedQuantity float64 `json:"plannedQuantity"`
	Status          string  `json:"status"`
}

// OperationBrief 在制品关联的工序简要信息
type OperationBrief struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}
