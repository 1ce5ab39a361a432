package repository

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/mes/codec"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

// WIPQuery 在制品列表条件
type WIPQuery struct {
	WorkOrderID string
	Status      string
	Page
}

func (q WIPQuery) Values() url.Values {
	v := url.Values{}
	if q.WorkOrderID != "" {
		v.Set("work_order_id", q.WorkOrderID)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	q.apply(v)
	return v
}

type WIPRepository struct {
	*Repository[entity.WIPItem]
}

func NewWIPRepository(gw Gateway, log *zap.Logger) *WIPRepository {
	return &WIPRepository{Repository: New(gw, "/wip-tracking", codec.WIP, log)}
}

// TraceByBatch 按批次号追溯
func (r *WIPRepository) TraceByBatch(ctx context.Context, batch string) ([]entity.WIPItem, error) {
	return r.list(ctx, r.path+"/batch/"+url.PathEscape(batch), nil)
}

// TraceBySerial 按序列号追溯
func (r *WIPRepository) TraceBySerial(ctx context.Context, serial string) ([]entity.WIPItem, error) {
	return r.list(ctx, r.path+"/serial/"+url.PathEscape(serial), nil)
}
