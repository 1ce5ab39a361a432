package entity

// WorkOrderStatus 工单状态
const (
	WOStatusDraft      = "draft"
	WOStatusReleased   = "released"
	WOStatusInProgress = "in_progress"
	WOStatusCompleted  = "completed"
	WOStatusCancelled  = "cancelled"
)

// WorkOrder 生产工单
// 同时保留后端字段名与前端历史别名（WoNo/Qty/StartDate/DueDate/Remark），解码时两者取同一值
type WorkOrder struct {
	ID                string               `json:"id"`
	Code              string               `json:"code"`
	ProductID         string               `json:"product_id"`
	BomID             string               `json:"bom_id"`
	RoutingID         string               `json:"routing_id"`
	PlannedQuantity   float64              `json:"planned_quantity"`
	CompletedQuantity float64              `json:"completed_quantity"`
	ScrappedQuantity  float64              `json:"scrapped_quantity"`
	Status            string               `json:"status"`
	Priority          int                  `json:"priority"`
	PlannedStartDate  string               `json:"planned_start_date"`
	PlannedEndDate    string               `json:"planned_end_date"`
	ActualStartDate   string               `json:"actual_start_date"`
	ActualEndDate     string               `json:"actual_end_date"`
	Customer          string               `json:"customer"`
	SalesOrder        string               `json:"sales_order"`
	Notes             string               `json:"notes"`
	CreatedBy         string               `json:"created_by"`
	CreatedAt         string               `json:"created_at"`
	UpdatedAt         string               `json:"updated_at"`
	Operations        []WorkOrderOperation `json:"operations"`

	// 前端显示用别名
	WoNo        string  `json:"woNo"`
	ProductCode string  `json:"productCode"`
	ProductName string  `json:"productName"`
	Qty         float64 `json:"qty"`
	Uom         string  `json:"uom"`
	StartDate   string  `json:"startDate"`
	DueDate     string  `json:"dueDate"`
	Remark      string  `json:"remark"`
}

func (w WorkOrder) EntityID() string { return w.ID }

// WorkOrderOperation 工单工序
type WorkOrderOperation struct {
	ID                string  `json:"id"`
	WorkOrderID       string  `json:"work_order_id"`
	OperationID       string  `json:"operation_id"`
	Sequence          int     `json:"sequence"`
	EquipmentID       string  `json:"equipment_id"`
	PlannedQuantity   float64 `json:"planned_quantity"`
	CompletedQuantity float64 `json:"completed_quantity"`
	ScrappedQuantity  float64 `json:"scrapped_quantity"`
	Status            string  `json:"status"`
	PlannedStartDate  string  `json:"planned_start_date"`
	PlannedEndDate    string  `json:"planned_end_date"`
}

// 报工类型
const (
	ReportStart    = "start"
	ReportComplete = "complete"
	ReportPause    = "pause"
	ReportResume   = "resume"
	ReportScrap    = "scrap"
)

// WorkReport 报工记录（扫码报工）
type WorkReport struct {
	ID                   string  `json:"id"`
	WorkOrderID          string  `json:"workOrderId" validate:"required"`
	WorkOrderOperationID string  `json:"workOrderOperationId"`
	ReportType           string  `json:"reportType" validate:"required,oneof=start complete pause resume scrap"`
	Quantity             float64 `json:"quantity" validate:"gte=0"`
	OperatorID           string  `json:"operatorId"`
	EquipmentID          string  `json:"equipmentId"`
	ShiftID              string  `json:"shiftId"`
	Barcode              string  `json:"barcode"`
	Notes                string  `json:"notes"`
	ReportTime           string  `json:"reportTime"`
	CreatedAt            string  `json:"createdAt"`
}

func (r WorkReport) EntityID() string { return r.ID }
