package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/mes/codec"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/shared/mesclient"
)

// Gateway 传输网关，由 mesclient.Client 实现
type Gateway interface {
	Request(ctx context.Context, method, path string, opts mesclient.RequestOptions) (*mesclient.Response, error)
}

// Filter 列表查询条件
type Filter interface {
	Values() url.Values
}

// Query 通用查询参数，nil 与空字符串不发送
type Query map[string]interface{}

func (q Query) Values() url.Values {
	v := url.Values{}
	for key, val := range q {
		switch x := val.(type) {
		case nil:
		case string:
			if x != "" {
				v.Set(key, x)
			}
		default:
			v.Set(key, fmt.Sprint(x))
		}
	}
	return v
}

// Page 分页参数，零值不发送
type Page struct {
	Skip  int
	Limit int
}

func (p Page) apply(v url.Values) {
	if p.Skip > 0 {
		v.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
}

// Repository 单实体类型的 CRUD 仓库
type Repository[T entity.Entity] struct {
	gw    Gateway
	path  string
	codec *codec.Codec[T]
	log   *zap.Logger
}

func New[T entity.Entity](gw Gateway, path string, c *codec.Codec[T], log *zap.Logger) *Repository[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository[T]{gw: gw, path: path, codec: c, log: log}
}

// Path 集合路径
func (r *Repository[T]) Path() string {
	return r.path
}

// List 获取列表；payload 不是数组时返回空切片
func (r *Repository[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	var params url.Values
	if filter != nil {
		params = filter.Values()
	}
	return r.list(ctx, r.path, params)
}

// Get 获取单条记录
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	return r.call(ctx, http.MethodGet, r.itemPath(id), mesclient.RequestOptions{})
}

// Create 创建记录，写入声明的创建默认值
func (r *Repository[T]) Create(ctx context.Context, patch codec.Patch) (T, error) {
	return r.call(ctx, http.MethodPost, r.path, mesclient.RequestOptions{Body: r.codec.EncodeNew(patch)})
}

// Update 更新记录，只发送 patch 中出现的字段
func (r *Repository[T]) Update(ctx context.Context, id string, patch codec.Patch) (T, error) {
	return r.call(ctx, http.MethodPut, r.itemPath(id), mesclient.RequestOptions{Body: r.codec.Encode(patch)})
}

// Remove 删除记录
func (r *Repository[T]) Remove(ctx context.Context, id string) error {
	_, err := r.gw.Request(ctx, http.MethodDelete, r.itemPath(id), mesclient.RequestOptions{})
	return err
}

// Upsert patch 带 id 则更新，否则创建；只发送 patch 中出现的字段
func (r *Repository[T]) Upsert(ctx context.Context, patch codec.Patch) (T, error) {
	if id := patchID(patch); codec.HasID(id) {
		r.log.Debug("upsert -> update", zap.String("entity", r.codec.Name()), zap.String("id", id))
		return r.Update(ctx, id, patch)
	}
	r.log.Debug("upsert -> create", zap.String("entity", r.codec.Name()))
	return r.Create(ctx, patch)
}

// Save 整体保存实体：所有映射字段都会发送，零值会覆盖后端数据
func (r *Repository[T]) Save(ctx context.Context, e T) (T, error) {
	patch := codec.PatchOf(e)
	if id := e.EntityID(); codec.HasID(id) {
		return r.Update(ctx, id, patch)
	}
	return r.Create(ctx, patch)
}

func patchID(p codec.Patch) string {
	switch id := p["id"].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}

func (r *Repository[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r *Repository[T]) call(ctx context.Context, method, path string, opts mesclient.RequestOptions) (T, error) {
	resp, err := r.gw.Request(ctx, method, path, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.codec.DecodeJSON(resp.Data), nil
}

func (r *Repository[T]) list(ctx context.Context, path string, params url.Values) ([]T, error) {
	resp, err := r.gw.Request(ctx, http.MethodGet, path, mesclient.RequestOptions{Params: params})
	if err != nil {
		return nil, err
	}
	return decodeList(r.codec, resp.Data, r.log), nil
}

// decodeList 解码列表响应，非数组 payload 记录告警后按空列表处理
func decodeList[T any](c *codec.Codec[T], data []byte, log *zap.Logger) []T {
	if codec.ParseList(data) == nil {
		log.Warn("列表响应不是数组，按空列表处理", zap.String("entity", c.Name()), zap.ByteString("payload", truncate(data, 256)))
	}
	return c.DecodeList(data)
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

// ============================================================
// 仓库集合
// ============================================================

// Repositories MES 仓库集合
type Repositories struct {
	Uoms          *Repository[entity.Uom]
	Materials     *Repository[entity.Material]
	MaterialTypes *Repository[entity.MaterialType]
	Warehouses    *Repository[entity.Warehouse]
	Operations    *Repository[entity.Operation]
	Equipment     *Repository[entity.Equipment]
	Tooling       *Repository[entity.Tooling]
	Personnel     *Repository[entity.Person]
	Shifts        *Repository[entity.Shift]
	Departments   *Repository[entity.Department]
	Workshops     *Repository[entity.Workshop]
	Boms          *BomRepository
	Routings      *RoutingRepository
	WorkOrders    *WorkOrderRepository
	Schedule      *ScheduleReader
	WIP           *WIPRepository
	Inventory     *InventoryRepository
	Reports       *ReportRepository
}

func NewRepositories(gw Gateway, log *zap.Logger) *Repositories {
	return &Repositories{
		Uoms:          New(gw, "/uoms", codec.Uom, log),
		Materials:     New(gw, "/materials", codec.Material, log),
		MaterialTypes: New(gw, "/material-types", codec.MaterialType, log),
		Warehouses:    New(gw, "/warehouses", codec.Warehouse, log),
		Operations:    New(gw, "/operations", codec.Operation, log),
		Equipment:     New(gw, "/equipment", codec.Equipment, log),
		Tooling:       New(gw, "/tooling", codec.Tooling, log),
		Personnel:     New(gw, "/personnel", codec.Person, log),
		Shifts:        New(gw, "/shifts", codec.Shift, log),
		Departments:   New(gw, "/departments", codec.Department, log),
		Workshops:     New(gw, "/workshops", codec.Workshop, log),
		Boms:          NewBomRepository(gw, log),
		Routings:      NewRoutingRepository(gw, log),
		WorkOrders:    NewWorkOrderRepository(gw, log),
		Schedule:      NewScheduleReader(gw, log),
		WIP:           NewWIPRepository(gw, log),
		Inventory:     NewInventoryRepository(gw, log),
		Reports:       NewReportRepository(gw, log),
	}
}
