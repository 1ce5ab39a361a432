package repository

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/mes/codec"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/shared/mesclient"
)

// ScheduleReader 排程结果读取，排程由后端计算
type ScheduleReader struct {
	gw  Gateway
	log *zap.Logger
}

func NewScheduleReader(gw Gateway, log *zap.Logger) *ScheduleReader {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScheduleReader{gw: gw, log: log}
}

// Run 触发一次排程
func (s *ScheduleReader) Run(ctx context.Context) (entity.ScheduleResult, error) {
	return s.fetch(ctx, http.MethodPost, "/schedule/run")
}

// Get 获取当前排程
func (s *ScheduleReader) Get(ctx context.Context) (entity.ScheduleResult, error) {
	return s.fetch(ctx, http.MethodGet, "/schedule")
}

func (s *ScheduleReader) fetch(ctx context.Context, method, path string) (entity.ScheduleResult, error) {
	resp, err := s.gw.Request(ctx, method, path, mesclient.RequestOptions{})
	if err != nil {
		return entity.ScheduleResult{}, err
	}
	res := codec.Schedule.DecodeJSON(resp.Data)
	if res.Tasks == nil {
		res.Tasks = []entity.ScheduleTask{}
	}
	if res.Loads == nil {
		res.Loads = map[string]float64{}
	}
	if res.Warnings == nil {
		res.Warnings = []entity.ScheduleWarning{}
	}
	s.log.Debug("排程结果", zap.Int("tasks", len(res.Tasks)), zap.Int("warnings", len(res.Warnings)))
	return res, nil
}
