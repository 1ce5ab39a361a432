package repository

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/mes/codec"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

// ReportQuery 报工列表条件
type ReportQuery struct {
	WorkOrderID string
	Page
}

func (q ReportQuery) Values() url.Values {
	v := url.Values{}
	setIf(v, "work_order_id", q.WorkOrderID)
	q.apply(v)
	return v
}

// ReportRepository 扫码报工
type ReportRepository struct {
	*Repository[entity.WorkReport]
}

func NewReportRepository(gw Gateway, log *zap.Logger) *ReportRepository {
	return &ReportRepository{Repository: New(gw, "/work-reports", codec.WorkReport, log)}
}

// Submit 校验后提交报工，开工/完工报工会由后端推进工单状态
func (r *ReportRepository) Submit(ctx context.Context, report entity.WorkReport) (entity.WorkReport, error) {
	if err := check("work report", report); err != nil {
		return entity.WorkReport{}, err
	}
	return r.Create(ctx, codec.PatchOf(report))
}
