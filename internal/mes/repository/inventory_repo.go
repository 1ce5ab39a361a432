package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/mes/codec"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/shared/mesclient"
)

// InventoryQuery 库存列表条件
type InventoryQuery struct {
	WarehouseID string
	MaterialID  string
	BatchNumber string
	Location    string
	Page
}

func (q InventoryQuery) Values() url.Values {
	v := url.Values{}
	setIf(v, "warehouse_id", q.WarehouseID)
	setIf(v, "material_id", q.MaterialID)
	setIf(v, "batch_number", q.BatchNumber)
	setIf(v, "location", q.Location)
	q.apply(v)
	return v
}

// TransactionQuery 物料事务列表条件
type TransactionQuery struct {
	MaterialID      string
	WarehouseID     string
	WorkOrderID     string
	TransactionType string
	Page
}

func (q TransactionQuery) Values() url.Values {
	v := url.Values{}
	setIf(v, "material_id", q.MaterialID)
	setIf(v, "warehouse_id", q.WarehouseID)
	setIf(v, "work_order_id", q.WorkOrderID)
	setIf(v, "transaction_type", q.TransactionType)
	q.apply(v)
	return v
}

// PickQuery 领料单列表条件
type PickQuery struct {
	Status      string
	WorkOrderID string
	Page
}

func (q PickQuery) Values() url.Values {
	v := url.Values{}
	setIf(v, "status", q.Status)
	setIf(v, "work_order_id", q.WorkOrderID)
	q.apply(v)
	return v
}

// ReturnRequest 退料
type ReturnRequest struct {
	MaterialID  string `validate:"required"`
	WarehouseID string `validate:"required"`
	WorkOrderID string
	BatchNumber string
	Quantity    float64 `validate:"gt=0"`
	Location    string
	OperatorID  string
	Notes       string
}

// ReturnResult 退料结果
type ReturnResult struct {
	Message       string `json:"message"`
	TransactionID int64  `json:"transaction_id"`
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

type InventoryRepository struct {
	*Repository[entity.InventoryItem]
	transactions *Repository[entity.MaterialTransaction]
	picks        *Repository[entity.MaterialPick]
}

func NewInventoryRepository(gw Gateway, log *zap.Logger) *InventoryRepository {
	return &InventoryRepository{
		Repository:   New(gw, "/inventory", codec.Inventory, log),
		transactions: New(gw, "/material-transactions", codec.MaterialTransaction, log),
		picks:        New(gw, "/material-picks", codec.MaterialPick, log),
	}
}

// SummaryByWarehouse 按仓库汇总
func (r *InventoryRepository) SummaryByWarehouse(ctx context.Context) ([]entity.InventorySummary, error) {
	return r.summary(ctx, "/summary/by-warehouse", codec.WarehouseSummary)
}

// SummaryByMaterial 按物料汇总
func (r *InventoryRepository) SummaryByMaterial(ctx context.Context) ([]entity.InventorySummary, error) {
	return r.summary(ctx, "/summary/by-material", codec.MaterialSummary)
}

func (r *InventoryRepository) summary(ctx context.Context, suffix string, c *codec.Codec[entity.InventorySummary]) ([]entity.InventorySummary, error) {
	resp, err := r.gw.Request(ctx, http.MethodGet, r.path+suffix, mesclient.RequestOptions{})
	if err != nil {
		return nil, err
	}
	return decodeList(c, resp.Data, r.log), nil
}

// Transact 提交物料事务（领料/发料/退料/入库/调整/调拨），后端同步更新库存
func (r *InventoryRepository) Transact(ctx context.Context, tx entity.MaterialTransaction) (entity.MaterialTransaction, error) {
	if err := check("material transaction", tx); err != nil {
		return entity.MaterialTransaction{}, err
	}
	return r.transactions.Create(ctx, codec.PatchOf(tx))
}

// Transactions 物料事务列表
func (r *InventoryRepository) Transactions(ctx context.Context, q TransactionQuery) ([]entity.MaterialTransaction, error) {
	return r.transactions.List(ctx, q)
}

// CreatePick 创建领料单
func (r *InventoryRepository) CreatePick(ctx context.Context, pick entity.MaterialPick) (entity.MaterialPick, error) {
	if err := check("material pick", pick); err != nil {
		return entity.MaterialPick{}, err
	}
	return r.picks.Create(ctx, codec.PatchOf(pick))
}

// Picks 领料单列表
func (r *InventoryRepository) Picks(ctx context.Context, q PickQuery) ([]entity.MaterialPick, error) {
	return r.picks.List(ctx, q)
}

// GetPick 领料单详情
func (r *InventoryRepository) GetPick(ctx context.Context, id string) (entity.MaterialPick, error) {
	return r.picks.Get(ctx, id)
}

// ConfirmPick 确认领料单
func (r *InventoryRepository) ConfirmPick(ctx context.Context, id string) (entity.MaterialPick, error) {
	return r.picks.call(ctx, http.MethodPost, r.picks.itemPath(id)+"/confirm", mesclient.RequestOptions{})
}

// CompletePick 完成领料，后端扣减库存
func (r *InventoryRepository) CompletePick(ctx context.Context, id string) (entity.MaterialPick, error) {
	return r.picks.call(ctx, http.MethodPost, r.picks.itemPath(id)+"/complete", mesclient.RequestOptions{})
}

// CreatePickFromBOM 按工单BOM自动生成领料单
func (r *InventoryRepository) CreatePickFromBOM(ctx context.Context, workOrderID, warehouseID string) (entity.MaterialPick, error) {
	params := url.Values{}
	params.Set("work_order_id", workOrderID)
	params.Set("warehouse_id", warehouseID)
	return r.picks.call(ctx, http.MethodPost, r.picks.path+"/bom", mesclient.RequestOptions{Params: params})
}

// Return 退料入库
func (r *InventoryRepository) Return(ctx context.Context, req ReturnRequest) (ReturnResult, error) {
	if err := check("material return", req); err != nil {
		return ReturnResult{}, err
	}
	params := url.Values{}
	params.Set("material_id", req.MaterialID)
	params.Set("warehouse_id", req.WarehouseID)
	params.Set("quantity", strconv.FormatFloat(req.Quantity, 'f', -1, 64))
	setIf(params, "work_order_id", req.WorkOrderID)
	setIf(params, "batch_number", req.BatchNumber)
	setIf(params, "location", req.Location)
	setIf(params, "operator_id", req.OperatorID)
	setIf(params, "notes", req.Notes)

	resp, err := r.gw.Request(ctx, http.MethodPost, "/material-returns", mesclient.RequestOptions{Params: params})
	if err != nil {
		return ReturnResult{}, err
	}
	var out ReturnResult
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		r.log.Warn("退料响应无法解析", zap.Error(err))
	}
	return out, nil
}
