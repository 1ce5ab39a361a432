package codec

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

// DisabledStatuses 状态推导布尔值的否定状态表，未列出的状态一律视为可用
var DisabledStatuses = map[string][]string{
	"equipment": {entity.EquipmentMaintenance, entity.EquipmentFault},
	"tooling":   {entity.ToolingInUse, entity.ToolingMaintenance},
	"person":    {entity.PersonInactive, entity.PersonResigned},
}

// ============================================================
// 主数据
// ============================================================

var Material = New[entity.Material]("material",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Text("spec", "specification"),
	Ref("uom", "uom_id"),
	Text("type", "material_type"),
	Float("unitPrice", "unit_price"),
	Float("safetyStock", "safety_stock"),
	Int("leadTime", "lead_time"),
	Text("supplier", "supplier"),
	Text("remark", "description"),
	Flag("active", "active"),
	Text("createdAt", "created_at").ReadOnly(),
	Text("updatedAt", "updated_at").ReadOnly(),
)

var Uom = New[entity.Uom]("uom",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Text("description", "description"),
	Int("precision", "precision"),
	Flag("active", "active"),
)

var MaterialType = New[entity.MaterialType]("material_type",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Text("description", "description"),
	Flag("active", "active"),
)

var BomItem = New[entity.BomItem]("bom_item",
	Key("id"),
	Ref("headerId", "bom_id"),
	Ref("materialId", "material_id"),
	Text("materialCode", "material_code").ReadOnly(),
	Text("materialName", "material_name").ReadOnly(),
	Float("qty", "quantity"),
	Float("scrapRate", "scrap_rate"),
	Int("seq", "sequence"),
	Text("remark", "description"),
)

var Bom = New[entity.BomHeader]("bom",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Ref("productId", "product_id"),
	Text("productCode", "product_code").ReadOnly(),
	Text("productName", "product_name").ReadOnly(),
	Text("version", "version"),
	Float("quantity", "quantity"),
	TextOr("status", "status", entity.BomStatusDraft),
	Flag("active", "is_active"),
	Text("remark", "description"),
	List("items", "items", BomItem),
	Text("createdAt", "created_at").ReadOnly(),
	Text("updatedAt", "updated_at").ReadOnly(),
)

var Operation = New[entity.Operation]("operation",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Text("type", "operation_type"),
	Text("description", "description"),
	Float("stdDurationMin", "standard_time"),
	Text("workstationCode", "workstation_code"),
	FlagOr("needTooling", "need_tooling", false),
	FlagOr("qualityCheck", "quality_check", false),
)

var RoutingOp = New[entity.RoutingOp]("routing_op",
	Int("seq", "sequence"),
	Ref("operationId", "operation_id"),
	Text("operationCode", "operation_code").ReadOnly(),
	Text("operationName", "operation_name").ReadOnly(),
	Ref("equipmentId", "equipment_id"),
	Text("equipmentCode", "equipment_code").ReadOnly(),
	Text("toolingCode", "tooling_code"),
	Float("stdTime", "standard_time"),
	Float("setupTime", "setup_time"),
	Text("remark", "description"),
)

var Routing = New[entity.Routing]("routing",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Ref("productId", "product_id"),
	Text("productCode", "product_code").ReadOnly(),
	Text("version", "version"),
	TextOr("status", "status", entity.RoutingStatusDraft),
	Flag("active", "is_active"),
	Text("remark", "description"),
	List("ops", "items", RoutingOp),
)

var Equipment = New[entity.Equipment]("equipment",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Text("type", "equipment_type"),
	Text("model", "model"),
	Text("vendor", "manufacturer"),
	Text("lineCode", "line_code"),
	Text("workstationCode", "workstation_code"),
	Text("location", "location"),
	Float("capacityPerHour", "capacity"),
	TextOr("status", "status", entity.EquipmentIdle),
	Derived("enabled", "status", DisabledStatuses["equipment"]),
)

var Tooling = New[entity.Tooling]("tooling",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Text("type", "tooling_type"),
	Text("spec", "specification"),
	Int("quantity", "quantity"),
	Text("location", "location"),
	Text("description", "description"),
	TextOr("status", "status", entity.ToolingAvailable),
	Derived("usable", "status", DisabledStatuses["tooling"]),
)

var Person = New[entity.Person]("person",
	Key("id"),
	Text("empNo", "code"),
	Text("name", "name"),
	Text("role", "position"),
	Text("department", "department"),
	Text("skillLevel", "skill_level"),
	Text("phone", "phone"),
	Text("email", "email"),
	Text("shiftCode", "shift_code"),
	TextOr("status", "status", entity.PersonActive),
	Derived("active", "status", DisabledStatuses["person"]),
)

var Shift = New[entity.Shift]("shift",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Clock("start", "start_time"),
	Clock("end", "end_time"),
	Text("description", "description"),
	Flag("active", "active"),
)

var Warehouse = New[entity.Warehouse]("warehouse",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Text("type", "warehouse_type"),
	Text("address", "location"),
	Text("manager", "manager"),
	Text("description", "description"),
	Flag("active", "active"),
)

var Department = New[entity.Department]("department",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Text("manager", "manager"),
	Text("description", "description"),
	Flag("active", "active"),
	Text("createdAt", "created_at").ReadOnly(),
	Text("updatedAt", "updated_at").ReadOnly(),
)

var Workshop = New[entity.Workshop]("workshop",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Ref("departmentId", "department_id"),
	Text("supervisor", "supervisor"),
	Text("location", "location"),
	Text("description", "description"),
	Flag("active", "active"),
	Text("createdAt", "created_at").ReadOnly(),
	Text("updatedAt", "updated_at").ReadOnly(),
)

// ============================================================
// 工单与报工
// ============================================================

var WorkOrderOperation = New[entity.WorkOrderOperation]("work_order_operation",
	Key("id"),
	Ref("work_order_id", "work_order_id").ReadOnly(),
	Ref("operation_id", "operation_id"),
	Int("sequence", "sequence"),
	Ref("equipment_id", "equipment_id"),
	Float("planned_quantity", "planned_quantity"),
	Float("completed_quantity", "completed_quantity"),
	Float("scrapped_quantity", "scrapped_quantity"),
	TextOr("status", "status", "pending"),
	Text("planned_start_date", "planned_start_date").Optional(),
	Text("planned_end_date", "planned_end_date").Optional(),
)

// WorkOrder 工单；别名字段与后端字段解码为同一值，创建时补齐 product_id/status/priority
var WorkOrder = New[entity.WorkOrder]("work_order",
	Key("id"),
	Text("code", "code").Alias("woNo"),
	Ref("product_id", "product_id").WithDefault(1),
	Ref("bom_id", "bom_id"),
	Ref("routing_id", "routing_id"),
	Float("planned_quantity", "planned_quantity").Alias("qty"),
	Float("completed_quantity", "completed_quantity"),
	Float("scrapped_quantity", "scrapped_quantity"),
	TextOr("status", "status", entity.WOStatusDraft).WithDefault(entity.WOStatusDraft),
	IntOr("priority", "priority", 5).WithDefault(5),
	Text("planned_start_date", "planned_start_date").Alias("startDate"),
	Text("planned_end_date", "planned_end_date").Alias("dueDate"),
	Text("actual_start_date", "actual_start_date").Optional(),
	Text("actual_end_date", "actual_end_date").Optional(),
	Text("customer", "customer"),
	Text("sales_order", "sales_order"),
	Text("notes", "notes").Alias("remark"),
	Text("created_by", "created_by").Optional(),
	Text("productCode", "product_code").ReadOnly(),
	Text("productName", "product_name").ReadOnly(),
	Text("uom", "uom").ReadOnly(),
	List("operations", "operations", WorkOrderOperation),
	Text("created_at", "created_at").ReadOnly(),
	Text("updated_at", "updated_at").ReadOnly(),
)

var WorkReport = New[entity.WorkReport]("work_report",
	Key("id"),
	Ref("workOrderId", "work_order_id"),
	Ref("workOrderOperationId", "work_order_operation_id"),
	Text("reportType", "report_type"),
	Float("quantity", "quantity"),
	Ref("operatorId", "operator_id"),
	Ref("equipmentId", "equipment_id"),
	Ref("shiftId", "shift_id"),
	Text("barcode", "barcode").Optional(),
	Text("notes", "notes").Optional(),
	Text("reportTime", "report_time").Optional(),
	Text("createdAt", "created_at").ReadOnly(),
)

// ============================================================
// 在制品与库存
// ============================================================

var workOrderBrief = New[entity.WorkOrderBrief]("work_order_brief",
	Key("id"),
	Text("code", "code"),
	Ref("productId", "product_id"),
	Float("plannedQuantity", "planned_quantity"),
	Text("status", "status"),
)

var operationBrief = New[entity.OperationBrief]("operation_brief",
	Key("id"),
	Text("code", "code"),
	Text("name", "name"),
	Text("type", "operation_type"),
)

var WIP = New[entity.WIPItem]("wip",
	Key("id"),
	Ref("workOrderId", "work_order_id"),
	Ref("operationId", "operation_id"),
	Ref("materialId", "material_id"),
	Text("batchNumber", "batch_number").Optional(),
	Text("serialNumber", "serial_number").Optional(),
	Float("quantity", "quantity"),
	Text("status", "status"),
	Text("location", "location").Optional(),
	Ref("operatorId", "operator_id"),
	Ref("equipmentId", "equipment_id"),
	Text("createdAt", "created_at").ReadOnly(),
	Text("updatedAt", "updated_at").ReadOnly(),
	Object("workOrder", "work_order", workOrderBrief),
	Object("operation", "operation", operationBrief),
)

var Inventory = New[entity.InventoryItem]("inventory",
	Key("id"),
	Ref("warehouseId", "warehouse_id"),
	Ref("materialId", "material_id"),
	Text("batchNumber", "batch_number").Optional(),
	Text("location", "location").Optional(),
	Float("quantity", "quantity"),
	Float("availableQty", "available_quantity"),
	Float("allocatedQty", "allocated_quantity"),
	Float("unitPrice", "unit_price"),
	Text("productionDate", "production_date").Optional(),
	Text("expiryDate", "expiry_date").Optional(),
	Text("createdAt", "created_at").ReadOnly(),
	Text("updatedAt", "updated_at").ReadOnly(),
)

var MaterialTransaction = New[entity.MaterialTransaction]("material_transaction",
	Key("id"),
	Text("transactionType", "transaction_type"),
	Ref("materialId", "material_id"),
	Ref("warehouseId", "warehouse_id"),
	Ref("workOrderId", "work_order_id"),
	Text("batchNumber", "batch_number").Optional(),
	Float("quantity", "quantity"),
	Float("unitPrice", "unit_price"),
	Text("fromLocation", "from_location").Optional(),
	Text("toLocation", "to_location").Optional(),
	Ref("operatorId", "operator_id"),
	Text("referenceNo", "reference_no").Optional(),
	Text("notes", "notes").Optional(),
	Text("transactionDate", "transaction_date").Optional(),
	Text("createdAt", "created_at").ReadOnly(),
)

var MaterialPickItem = New[entity.MaterialPickItem]("material_pick_item",
	Key("id"),
	Ref("materialId", "material_id"),
	Float("quantity", "required_quantity"),
	Float("pickedQty", "picked_quantity"),
	Ref("uomId", "uom_id"),
	Ref("warehouseId", "warehouse_id"),
	Text("batchNumber", "batch_number").Optional(),
	Text("location", "location").Optional(),
)

var MaterialPick = New[entity.MaterialPick]("material_pick",
	Key("id"),
	Text("code", "code"),
	Ref("workOrderId", "work_order_id"),
	Ref("warehouseId", "warehouse_id"),
	TextOr("pickType", "pick_type", "normal").Optional(),
	TextOr("status", "status", entity.PickDraft).Optional(),
	Text("requestDate", "request_date").Optional(),
	Text("pickDate", "pick_date").Optional(),
	Text("notes", "notes").Optional(),
	List("items", "items", MaterialPickItem),
)

// WarehouseSummary /inventory/summary/by-warehouse 的行
var WarehouseSummary = New[entity.InventorySummary]("warehouse_summary",
	Ref("key", "warehouse_id").ReadOnly(),
	Text("name", "warehouse_name"),
	Int("itemCount", "item_count"),
	Float("totalQuantity", "total_quantity"),
)

// MaterialSummary /inventory/summary/by-material 的行
var MaterialSummary = New[entity.InventorySummary]("material_summary",
	Ref("key", "material_id").ReadOnly(),
	Text("code", "material_code"),
	Text("name", "material_name"),
	Float("totalQuantity", "total_quantity"),
	Float("availableQty", "total_available"),
)

// ============================================================
// 排程结果（只读透传）
// ============================================================

var Schedule = New[entity.ScheduleResult]("schedule",
	Field{Client: "tasks", Server: "tasks", Decode: rawList},
	Field{Client: "loads", Server: "loads", Decode: rawMap},
	Field{Client: "warnings", Server: "warnings", Decode: rawList},
)

func rawList(v interface{}, ok bool) interface{} {
	if items, isList := v.([]interface{}); ok && isList {
		return items
	}
	return []interface{}{}
}

func rawMap(v interface{}, ok bool) interface{} {
	if m, isMap := v.(map[string]interface{}); ok && isMap {
		return m
	}
	return map[string]interface{}{}
}
