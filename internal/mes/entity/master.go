package entity

// Entity 客户端实体，ID 为不透明字符串（后端数字ID统一转字符串）
type Entity interface {
	EntityID() string
}

// Material 物料
type Material struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Spec        string  `json:"spec"`
	Uom         string  `json:"uom"`  // 计量单位ID
	Type        string  `json:"type"` // 原材料/半成品/成品/耗材
	UnitPrice   float64 `json:"unitPrice"`
	SafetyStock float64 `json:"safetyStock"`
	LeadTime    int     `json:"leadTime"` // 提前期(天)
	Supplier    string  `json:"supplier"`
	Remark      string  `json:"remark"`
	Active      bool    `json:"active"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func (m Material) EntityID() string { return m.ID }

// Uom 计量单位
type Uom struct {
	ID          string `json:"id"`
	Code        string `json:"code"` // PCS/SET/KG
	Name        string `json:"name"`
	Description string `json:"description"`
	Precision   int    `json:"precision"` // 小数位数
	Active      bool   `json:"active"`
}

func (u Uom) EntityID() string { return u.ID }

// MaterialType 物料类型
type MaterialType struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

func (t MaterialType) EntityID() string { return t.ID }

// BOM状态
const (
	BomStatusDraft    = "draft"
	BomStatusReleased = "released"
	BomStatusArchived = "archived"
)

// BomHeader BOM表头
type BomHeader struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	ProductID   string    `json:"productId"`
	ProductCode string    `json:"productCode"`
	ProductName string    `json:"productName"`
	Version     string    `json:"version"`
	Quantity    float64   `json:"quantity"` // 产出数量
	Status      string    `json:"status"`
	Active      bool      `json:"active"`
	Remark      string    `json:"remark"`
	Items       []BomItem `json:"items"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

func (b BomHeader) EntityID() string { return b.ID }

// BomItem BOM明细
type BomItem struct {
	ID           string  `json:"id"`
	HeaderID     string  `json:"headerId"`
	MaterialID   string  `json:"materialId"`
	MaterialCode string  `json:"materialCode"`
	MaterialName string  `json:"materialName"`
	Qty          float64 `json:"qty"`
	ScrapRate    float64 `json:"scrapRate"` // 损耗率
	Seq          int     `json:"seq"`
	Remark       string  `json:"remark"`
}

func (i BomItem) EntityID() string { return i.ID }

// Operation 工序
type Operation struct {
	ID              string  `json:"id"`
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Description     string  `json:"description"`
	StdDurationMin  float64 `json:"stdDurationMin"` // 标准工时(分钟)
	WorkstationCode string  `json:"workstationCode"`
	NeedTooling     bool    `json:"needTooling"`
	QualityCheck    bool    `json:"qualityCheck"`
}

func (o Operation) EntityID() string { return o.ID }

// 工艺路线状态
const (
	RoutingStatusDraft    = "draft"
	RoutingStatusReleased = "released"
)

// Routing 工艺路线
type Routing struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	ProductID   string      `json:"productId"`
	ProductCode string      `json:"productCode"`
	Version     string      `json:"version"`
	Status      string      `json:"status"`
	Active      bool        `json:"active"`
	Remark      string      `json:"remark"`
	Ops         []RoutingOp `json:"ops"`
}

func (r Routing) EntityID() string { return r.ID }

// RoutingOp 工艺路线工序，按 Seq 排序
type RoutingOp struct {
	Seq           int     `json:"seq"`
	OperationID   string  `json:"operationId"`
	OperationCode string  `json:"operationCode"`
	OperationName string  `json:"operationName"`
	EquipmentID   string  `json:"equipmentId"`
	EquipmentCode string  `json:"equipmentCode"`
	ToolingCode   string  `json:"toolingCode"`
	StdTime       float64 `json:"stdTime"`
	SetupTime     float64 `json:"setupTime"`
	Remark        string  `json:"remark"`
}

// 设备状态
const (
	EquipmentIdle        = "idle"
	EquipmentRunning     = "running"
	EquipmentMaintenance = "maintenance"
	EquipmentFault       = "fault"
)

// Equipment 设备，Enabled 由 Status 推导
type Equipment struct {
	ID              string  `json:"id"`
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Model           string  `json:"model"`
	Vendor          string  `json:"vendor"`
	LineCode        string  `json:"lineCode"`
	WorkstationCode string  `json:"workstationCode"`
	Location        string  `json:"location"`
	CapacityPerHour float64 `json:"capacityPerHour"`
	Status          string  `json:"status"`
	Enabled         bool    `json:"enabled"`
}

func (e Equipment) EntityID() string { return e.ID }

// 工装状态
const (
	ToolingAvailable   = "available"
	ToolingInUse       = "in-use"
	ToolingMaintenance = "maintenance"
)

// Tooling 工装，Usable 由 Status 推导
type Tooling struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Spec        string `json:"spec"`
	Quantity    int    `json:"quantity"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Usable      bool   `json:"usable"`
}

func (t Tooling) EntityID() string { return t.ID }

// 人员状态
const (
	PersonActive   = "active"
	PersonInactive = "inactive"
	PersonResigned = "resigned"
)

// Person 人员
type Person struct {
	ID         string `json:"id"`
	EmpNo      string `json:"empNo"`
	Name       string `json:"name"`
	Role       string `json:"role"` // operator / qc / supervisor
	Department string `json:"department"`
	SkillLevel string `json:"skillLevel"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	ShiftCode  string `json:"shiftCode"`
	Status     string `json:"status"`
	Active     bool   `json:"active"`
}

func (p Person) EntityID() string { return p.ID }

// Shift 班次，Start/End 为 HH:mm
type Shift struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

func (s Shift) EntityID() string { return s.ID }

// Warehouse 仓库
type Warehouse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"` // 原材料/半成品/成品/在制品/不良品
	Address     string `json:"address"`
	Manager     string `json:"manager"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

func (w Warehouse) EntityID() string { return w.ID }

// Department 部门
type Department struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Manager     string `json:"manager"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func (d Department) EntityID() string { return d.ID }

// Workshop 车间
type Workshop struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	DepartmentID string `json:"departmentId"`
	Supervisor   string `json:"supervisor"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func (w Workshop) EntityID() string { return w.ID }
