package export

import (
	"sort"
	"strconv"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

// Table 导出用二维表，xlsx 中为一个工作表，csv 中为一个文件
type Table struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// ScheduleTables 排程结果：任务、设备负荷、交期预警
func ScheduleTables(res entity.ScheduleResult) []Table {
	tasks := Table{
		Name:   "排程任务",
		Header: []string{"工单ID", "工序ID", "工单工序ID", "设备", "顺序", "开始", "结束", "计划数量", "剩余数量"},
	}
	for _, t := range res.Tasks {
		tasks.Rows = append(tasks.Rows, []interface{}{
			t.WorkOrderID, t.OperationID, t.WorkOrderOperationID, equipmentLabel(t.EquipmentID),
			t.Sequence, t.Start, t.End, t.PlannedQuantity, t.RemainingQuantity,
		})
	}

	loads := Table{Name: "设备负荷", Header: []string{"设备", "累计工时"}}
	keys := make([]string, 0, len(res.Loads))
	for k := range res.Loads {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessNumeric(keys[i], keys[j]) })
	for _, k := range keys {
		loads.Rows = append(loads.Rows, []interface{}{equipmentLabel(k), res.Loads[k]})
	}

	warnings := Table{
		Name:   "交期预警",
		Header: []string{"工单ID", "工单编号", "计划完工", "排程完工", "延误(小时)"},
	}
	for _, w := range res.Warnings {
		warnings.Rows = append(warnings.Rows, []interface{}{
			w.WorkOrderID, w.Code, w.PlannedEndDate, w.TaskEnd, w.DelayHours,
		})
	}
	return []Table{tasks, loads, warnings}
}

// InventoryTables 库存明细，附按仓库或按物料的汇总
func InventoryTables(items []entity.InventoryItem, summaries []entity.InventorySummary) []Table {
	detail := Table{
		Name:   "库存明细",
		Header: []string{"ID", "仓库ID", "物料ID", "批次", "库位", "数量", "可用", "占用", "单价"},
	}
	for _, it := range items {
		detail.Rows = append(detail.Rows, []interface{}{
			it.ID, it.WarehouseID, it.MaterialID, it.BatchNumber, it.Location,
			it.Quantity, it.AvailableQty, it.ReservedQty(), it.UnitPrice,
		})
	}
	tables := []Table{detail}
	if len(summaries) == 0 {
		return tables
	}

	summary := Table{Name: "库存汇总", Header: []string{"键", "编码", "名称", "条目数", "总数量", "可用数量"}}
	for _, s := range summaries {
		summary.Rows = append(summary.Rows, []interface{}{
			s.Key, s.Code, s.Name, s.ItemCount, s.TotalQuantity, s.AvailableQty,
		})
	}
	return append(tables, summary)
}

func equipmentLabel(id string) string {
	if id == entity.UnassignedEquipment {
		return "未分配"
	}
	return id
}

func lessNumeric(a, b string) bool {
	x, errA := strconv.ParseInt(a, 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return x < y
	}
	return a < b
}
