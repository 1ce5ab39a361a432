package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/mes/codec"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/shared/mesclient"
)

// WorkOrderQuery 工单列表条件
type WorkOrderQuery struct {
	Status string
	Page
}

func (q WorkOrderQuery) Values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	q.apply(v)
	return v
}

// GenerateResult 生成工序结果
type GenerateResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type WorkOrderRepository struct {
	*Repository[entity.WorkOrder]
}

func NewWorkOrderRepository(gw Gateway, log *zap.Logger) *WorkOrderRepository {
	return &WorkOrderRepository{Repository: New(gw, "/work-orders", codec.WorkOrder, log)}
}

// Release 下达
func (r *WorkOrderRepository) Release(ctx context.Context, id string) (entity.WorkOrder, error) {
	return r.Transition(ctx, id, TransitionRelease)
}

// Start 开工
func (r *WorkOrderRepository) Start(ctx context.Context, id string) (entity.WorkOrder, error) {
	return r.Transition(ctx, id, TransitionStart)
}

// Complete 完工
func (r *WorkOrderRepository) Complete(ctx context.Context, id string) (entity.WorkOrder, error) {
	return r.Transition(ctx, id, TransitionComplete)
}

// Cancel 取消
func (r *WorkOrderRepository) Cancel(ctx context.Context, id string) (entity.WorkOrder, error) {
	return r.Transition(ctx, id, TransitionCancel)
}

// Transition 执行状态迁移，返回后端确认后的工单；本地不做前置检查也不预设状态
func (r *WorkOrderRepository) Transition(ctx context.Context, id string, t Transition) (entity.WorkOrder, error) {
	if !t.Valid() {
		return entity.WorkOrder{}, fmt.Errorf("unknown work order transition %q", t)
	}
	r.log.Info("工单状态迁移", zap.String("id", id), zap.String("transition", string(t)))
	return r.call(ctx, http.MethodPost, r.itemPath(id)+"/"+string(t), mesclient.RequestOptions{})
}

// GenerateOperations 按工艺路线生成工单工序，force 时先删除已有工序
func (r *WorkOrderRepository) GenerateOperations(ctx context.Context, id string, force bool) (GenerateResult, error) {
	opts := mesclient.RequestOptions{}
	if force {
		opts.Params = url.Values{"force": []string{"true"}}
	}
	resp, err := r.gw.Request(ctx, http.MethodPost, r.itemPath(id)+"/generate-operations", opts)
	if err != nil {
		return GenerateResult{}, err
	}
	var out GenerateResult
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		r.log.Warn("生成工序响应无法解析", zap.Error(err))
	}
	return out, nil
}
