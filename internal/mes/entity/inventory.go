package entity

// InventoryItem 库存记录
type InventoryItem struct {
	ID             string  `json:"id"`
	WarehouseID    string  `json:"warehouseId"`
	MaterialID     string  `json:"materialId"`
	BatchNumber    string  `json:"batchNumber"`
	Location       string  `json:"location"`
	Quantity       float64 `json:"quantity"`
	AvailableQty   float64 `json:"availableQty"`
	AllocatedQty   float64 `json:"allocatedQty"`
	UnitPrice      float64 `json:"unitPrice"`
	ProductionDate string  `json:"productionDate"`
	ExpiryDate     string  `json:"expiryDate"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func (i InventoryItem) EntityID() string { return i.ID }

// ReservedQty 已占用数量 = 库存数量 - 可用数量
func (i InventoryItem) ReservedQty() float64 {
	return i.Quantity - i.AvailableQty
}

// 物料事务类型
const (
	TxnPick     = "pick"
	TxnIssue    = "issue"
	TxnReturn   = "return"
	TxnReceive  = "receive"
	TxnAdjust   = "adjust"
	TxnTransfer = "transfer"
)

// MaterialTransaction 物料事务（领料/发料/退料/入库）
type MaterialTransaction struct {
	ID              string  `json:"id"`
	TransactionType string  `json:"transactionType" validate:"required,oneof=pick issue return receive adjust transfer"`
	MaterialID      string  `json:"materialId" validate:"required"`
	WarehouseID     string  `json:"warehouseId" validate:"required"`
	WorkOrderID     string  `json:"workOrderId"`
	BatchNumber     string  `json:"batchNumber"`
	Quantity        float64 `json:"quantity" validate:"gt=0"`
	UnitPrice       float64 `json:"unitPrice"`
	FromLocation    string  `json:"fromLocation"`
	ToLocation      string  `json:"toLocation"`
	OperatorID      string  `json:"operatorId"`
	ReferenceNo     string  `json:"referenceNo"`
	Notes           string  `json:"notes"`
	TransactionDate string  `json:"transactionDate"`
	CreatedAt       string  `json:"createdAt"`
}

func (t MaterialTransaction) EntityID() string { return t.ID }

// 领料单状态
const (
	PickDraft     = "draft"
	PickConfirmed = "confirmed"
	PickCompleted = "completed"
)

// MaterialPick 领料单
type MaterialPick struct {
	ID          string             `json:"id"`
	Code        string             `json:"code" validate:"required"`
	WorkOrderID string             `json:"workOrderId"`
	WarehouseID string             `json:"warehouseId" validate:"required"`
	PickType    string             `json:"pickType" validate:"omitempty,oneof=normal bom"`
	Status      string             `json:"status"`
	RequestDate string             `json:"requestDate"`
	PickDate    string             `json:"pickDate"`
	Notes       string             `json:"notes"`
	Items       []MaterialPickItem `json:"items" validate:"dive"`
}

func (p MaterialPick) EntityID() string { return p.ID }

// MaterialPickItem 领料单明细
type MaterialPickItem struct {
	ID          string  `json:"id"`
	MaterialID  string  `json:"materialId" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	PickedQty   float64 `json:"pickedQty"`
	UomID       string  `json:"uomId"`
	WarehouseID string  `json:"warehouseId"`
	BatchNumber string  `json:"batchNumber"`
	Location    string  `json:"location"`
}

// InventorySummary 库存汇总（按仓库或按物料），Key 为仓库ID或物料ID
type InventorySummary struct {
	Key           string  `json:"key"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	TotalQuantity float64 `json:"totalQuantity"`
	AvailableQty  float64 `json:"availableQty"`
	ItemCount     int     `json:"itemCount"`
}
