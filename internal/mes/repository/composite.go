package repository

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/mes/codec"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/shared/mesclient"
)

// ByProductOptions 按产品筛选的可选条件
// ActiveOnly 接受 bool 或 1/0，发送时统一为 active_only=1|0，nil 不发送
type ByProductOptions struct {
	Version    string
	ActiveOnly interface{}
}

func (o ByProductOptions) Values() url.Values {
	v := url.Values{}
	if o.Version != "" {
		v.Set("version", o.Version)
	}
	if flag, ok := activeFlag(o.ActiveOnly); ok {
		v.Set("active_only", flag)
	}
	return v
}

func activeFlag(v interface{}) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case bool:
		return boolDigit(x), true
	case int:
		return boolDigit(x != 0), true
	case int64:
		return boolDigit(x != 0), true
	case float64:
		return boolDigit(x != 0), true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return "", false
		}
		return boolDigit(b), true
	}
	return "", false
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ============================================================
// BOM
// ============================================================

type BomRepository struct {
	*Repository[entity.BomHeader]
	items *codec.Codec[entity.BomItem]
}

func NewBomRepository(gw Gateway, log *zap.Logger) *BomRepository {
	return &BomRepository{
		Repository: New(gw, "/boms", codec.Bom, log),
		items:      codec.BomItem,
	}
}

// Detail BOM表头及按顺序排列的明细，明细缺失时为空切片
func (r *BomRepository) Detail(ctx context.Context, id string) (entity.BomHeader, error) {
	b, err := r.Get(ctx, id)
	if err != nil {
		return b, err
	}
	if b.Items == nil {
		b.Items = []entity.BomItem{}
	}
	return b, nil
}

// ByProduct 按产品查询BOM，可选版本与仅激活
func (r *BomRepository) ByProduct(ctx context.Context, productID string, opts ByProductOptions) ([]entity.BomHeader, error) {
	return r.list(ctx, r.path+"/by-product/"+url.PathEscape(productID), opts.Values())
}

// AddItem 追加BOM明细
func (r *BomRepository) AddItem(ctx context.Context, bomID string, item codec.Patch) (entity.BomItem, error) {
	resp, err := r.gw.Request(ctx, http.MethodPost, r.itemPath(bomID)+"/items", mesclient.RequestOptions{
		Body: r.items.Encode(item),
	})
	if err != nil {
		return entity.BomItem{}, err
	}
	return r.items.DecodeJSON(resp.Data), nil
}

// ============================================================
// 工艺路线
// ============================================================

type RoutingRepository struct {
	*Repository[entity.Routing]
}

func NewRoutingRepository(gw Gateway, log *zap.Logger) *RoutingRepository {
	return &RoutingRepository{Repository: New(gw, "/routings", codec.Routing, log)}
}

// Detail 工艺路线及按顺序排列的工序
func (r *RoutingRepository) Detail(ctx context.Context, id string) (entity.Routing, error) {
	rt, err := r.Get(ctx, id)
	if err != nil {
		return rt, err
	}
	if rt.Ops == nil {
		rt.Ops = []entity.RoutingOp{}
	}
	return rt, nil
}

// ByProduct 按产品查询工艺路线
func (r *RoutingRepository) ByProduct(ctx context.Context, productID string, opts ByProductOptions) ([]entity.Routing, error) {
	return r.list(ctx, r.path+"/by-product/"+url.PathEscape(productID), opts.Values())
}
