package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/codec"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/shared/mesclient"
)

// ============================================================
// 记录型网关
// ============================================================

type recordedCall struct {
	Method string
	Path   string
	Opts   mesclient.RequestOptions
}

type fakeGateway struct {
	calls   []recordedCall
	body    string
	err     error
	respond func(method, path string) string
}

func (f *fakeGateway) Request(ctx context.Context, method, path string, opts mesclient.RequestOptions) (*mesclient.Response, error) {
	f.calls = append(f.calls, recordedCall{Method: method, Path: path, Opts: opts})
	if f.err != nil {
		return nil, f.err
	}
	body := f.body
	if f.respond != nil {
		body = f.respond(method, path)
	}
	if body == "" {
		body = "null"
	}
	return &mesclient.Response{StatusCode: http.StatusOK, Data: json.RawMessage(body)}, nil
}

func (f *fakeGateway) last(t *testing.T) recordedCall {
	t.Helper()
	if len(f.calls) == 0 {
		t.Fatal("no gateway call recorded")
	}
	return f.calls[len(f.calls)-1]
}

// ============================================================
// 通用仓库
// ============================================================

func TestUpsertDispatch(t *testing.T) {
	cases := []struct {
		name   string
		input  codec.Patch
		method string
		path   string
		body   codec.Record
	}{
		{"new", codec.Patch{"code": "M1", "name": "Bolt"}, http.MethodPost, "/materials",
			codec.Record{"code": "M1", "name": "Bolt"}},
		{"persisted", codec.Patch{"id": "42", "code": "M1"}, http.MethodPut, "/materials/42",
			codec.Record{"code": "M1"}},
		{"numeric id", codec.Patch{"id": float64(42), "code": "M1"}, http.MethodPut, "/materials/42",
			codec.Record{"code": "M1"}},
		{"zero id", codec.Patch{"id": "0", "code": "M1"}, http.MethodPost, "/materials",
			codec.Record{"code": "M1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{body: `{"id":42,"code":"M1"}`}
			repos := NewRepositories(gw, nil)

			got, err := repos.Materials.Upsert(context.Background(), tc.input)
			if err != nil {
				t.Fatalf("Upsert: %v", err)
			}
			if len(gw.calls) != 1 {
				t.Fatalf("calls = %d, want 1", len(gw.calls))
			}
			c := gw.calls[0]
			if c.Method != tc.method || c.Path != tc.path {
				t.Errorf("request = %s %s, want %s %s", c.Method, c.Path, tc.method, tc.path)
			}
			// 未出现的字段（active、uom 等）不得以零值发送
			if !reflect.DeepEqual(c.Opts.Body, tc.body) {
				t.Errorf("body = %#v, want %#v", c.Opts.Body, tc.body)
			}
			if got.ID != "42" {
				t.Errorf("ID = %q", got.ID)
			}
		})
	}
}

func TestSaveSendsWholeEntity(t *testing.T) {
	gw := &fakeGateway{body: `{"id":42,"code":"M1"}`}
	repos := NewRepositories(gw, nil)

	if _, err := repos.Materials.Save(context.Background(), entity.Material{ID: "42", Code: "M1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	c := gw.last(t)
	if c.Method != http.MethodPut || c.Path != "/materials/42" {
		t.Errorf("request = %s %s", c.Method, c.Path)
	}
	body, _ := c.Opts.Body.(codec.Record)
	if body["active"] != 0 || body["name"] != "" {
		t.Errorf("whole-entity save must send zero values: %#v", body)
	}
	if _, ok := body["id"]; ok {
		t.Error("id must not be sent in the body")
	}
}

func TestUpsertPartialEquipment(t *testing.T) {
	gw := &fakeGateway{body: `{"id":3,"code":"EQ-1","name":"冲床","status":"running"}`}
	repos := NewRepositories(gw, nil)

	eq, err := repos.Equipment.Upsert(context.Background(), codec.Patch{"id": "3", "name": "冲床"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got := gw.last(t).Opts.Body; !reflect.DeepEqual(got, codec.Record{"name": "冲床"}) {
		t.Errorf("body = %#v, want name only", got)
	}
	if eq.Status != "running" || eq.Code != "EQ-1" {
		t.Errorf("equipment = %+v", eq)
	}
}

func TestUpdateSendsOnlyPatch(t *testing.T) {
	gw := &fakeGateway{body: `{"id":5,"name":"新名称","specification":"M8"}`}
	repo := New(gw, "/materials", codec.Material, nil)

	m, err := repo.Update(context.Background(), "5", codec.Patch{"name": "新名称"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	c := gw.last(t)
	if c.Method != http.MethodPut || c.Path != "/materials/5" {
		t.Errorf("request = %s %s", c.Method, c.Path)
	}
	if !reflect.DeepEqual(c.Opts.Body, codec.Record{"name": "新名称"}) {
		t.Errorf("body = %#v", c.Opts.Body)
	}
	// 返回值来自后端响应
	if m.Spec != "M8" {
		t.Errorf("Spec = %q, want value from response", m.Spec)
	}
}

func TestListNonArrayIsEmpty(t *testing.T) {
	gw := &fakeGateway{body: `{"detail":"unexpected"}`}
	repo := New(gw, "/uoms", codec.Uom, nil)

	items, err := repo.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %#v, want empty slice", items)
	}
}

func TestListSendsFilter(t *testing.T) {
	gw := &fakeGateway{body: `[{"id":1,"code":"D1"}]`}
	repos := NewRepositories(gw, nil)

	got, err := repos.Workshops.List(context.Background(), Query{"department_id": 3, "active": 1, "keyword": ""})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Code != "D1" {
		t.Errorf("got %+v", got)
	}
	params := gw.last(t).Opts.Params
	if params.Get("department_id") != "3" || params.Get("active") != "1" {
		t.Errorf("params = %v", params)
	}
	if params.Has("keyword") {
		t.Error("empty filter values must not be sent")
	}
}

func TestErrorsPropagateUnchanged(t *testing.T) {
	want := &mesclient.APIError{Kind: mesclient.KindClient, StatusCode: 404, Message: "Material not found"}
	gw := &fakeGateway{err: want}
	repos := NewRepositories(gw, nil)

	_, err := repos.Materials.Get(context.Background(), "9")
	if err != want {
		t.Fatalf("err = %v, want the gateway error itself", err)
	}
	if !mesclient.IsNotFound(err) {
		t.Error("IsNotFound should hold")
	}

	if err := repos.Materials.Remove(context.Background(), "9"); !errors.Is(err, want) {
		t.Errorf("Remove err = %v", err)
	}
	if _, err := repos.Schedule.Get(context.Background()); err != want {
		t.Errorf("schedule err = %v", err)
	}
}

func TestRemove(t *testing.T) {
	gw := &fakeGateway{body: `{"message":"deleted"}`}
	repos := NewRepositories(gw, nil)

	if err := repos.Shifts.Remove(context.Background(), "3"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	c := gw.last(t)
	if c.Method != http.MethodDelete || c.Path != "/shifts/3" {
		t.Errorf("request = %s %s", c.Method, c.Path)
	}
}

// ============================================================
// BOM / 工艺路线
// ============================================================

func TestBomDetail(t *testing.T) {
	gw := &fakeGateway{body: `{"id":1,"code":"BOM-1"}`}
	repos := NewRepositories(gw, nil)

	b, err := repos.Boms.Detail(context.Background(), "1")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if b.Items == nil || len(b.Items) != 0 {
		t.Errorf("items = %#v, want empty slice", b.Items)
	}
	if gw.last(t).Path != "/boms/1" {
		t.Errorf("path = %s", gw.last(t).Path)
	}
}

func TestByProductParams(t *testing.T) {
	cases := []struct {
		name   string
		opts   ByProductOptions
		active string
		has    bool
	}{
		{"bool true", ByProductOptions{ActiveOnly: true}, "1", true},
		{"bool false", ByProductOptions{ActiveOnly: false}, "0", true},
		{"int one", ByProductOptions{ActiveOnly: 1}, "1", true},
		{"int zero", ByProductOptions{ActiveOnly: 0}, "0", true},
		{"unset", ByProductOptions{}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{body: `[]`}
			repos := NewRepositories(gw, nil)
			if _, err := repos.Routings.ByProduct(context.Background(), "9", tc.opts); err != nil {
				t.Fatalf("ByProduct: %v", err)
			}
			c := gw.last(t)
			if c.Path != "/routings/by-product/9" {
				t.Errorf("path = %s", c.Path)
			}
			if c.Opts.Params.Has("active_only") != tc.has || c.Opts.Params.Get("active_only") != tc.active {
				t.Errorf("params = %v", c.Opts.Params)
			}
		})
	}

	gw := &fakeGateway{body: `[{"id":3,"code":"BOM-9","version":"V2"}]`}
	repos := NewRepositories(gw, nil)
	boms, err := repos.Boms.ByProduct(context.Background(), "9", ByProductOptions{Version: "V2", ActiveOnly: true})
	if err != nil {
		t.Fatalf("ByProduct: %v", err)
	}
	if len(boms) != 1 || boms[0].Version != "V2" {
		t.Errorf("boms = %+v", boms)
	}
	if p := gw.last(t).Opts.Params; p.Get("version") != "V2" || p.Get("active_only") != "1" {
		t.Errorf("params = %v", p)
	}
}

func TestBomAddItem(t *testing.T) {
	gw := &fakeGateway{body: `{"id":11,"bom_id":1,"material_id":2,"quantity":3,"sequence":1}`}
	repos := NewRepositories(gw, nil)

	item, err := repos.Boms.AddItem(context.Background(), "1", codec.Patch{"materialId": "2", "qty": 3, "seq": 1})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	c := gw.last(t)
	if c.Method != http.MethodPost || c.Path != "/boms/1/items" {
		t.Errorf("request = %s %s", c.Method, c.Path)
	}
	want := codec.Record{"material_id": int64(2), "quantity": float64(3), "sequence": int64(1)}
	if !reflect.DeepEqual(c.Opts.Body, want) {
		t.Errorf("body = %#v, want %#v", c.Opts.Body, want)
	}
	if item.ID != "11" || item.HeaderID != "1" || item.Qty != 3 {
		t.Errorf("item = %+v", item)
	}
}

// ============================================================
// 工单
// ============================================================

func TestReleaseSingleCall(t *testing.T) {
	gw := &fakeGateway{body: `{"id":7,"code":"WO-7","status":"released"}`}
	repos := NewRepositories(gw, nil)

	wo, err := repos.WorkOrders.Release(context.Background(), "7")
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if len(gw.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(gw.calls))
	}
	c := gw.calls[0]
	if c.Method != http.MethodPost || c.Path != "/work-orders/7/release" || c.Opts.Body != nil {
		t.Errorf("request = %s %s body=%v", c.Method, c.Path, c.Opts.Body)
	}
	if wo.Status != entity.WOStatusReleased || wo.WoNo != "WO-7" {
		t.Errorf("wo = %+v", wo)
	}
}

func TestTransitionPaths(t *testing.T) {
	gw := &fakeGateway{body: `{"id":7}`}
	repos := NewRepositories(gw, nil)
	ctx := context.Background()

	ops := map[string]func(context.Context, string) (entity.WorkOrder, error){
		"/work-orders/7/start":    repos.WorkOrders.Start,
		"/work-orders/7/complete": repos.WorkOrders.Complete,
		"/work-orders/7/cancel":   repos.WorkOrders.Cancel,
	}
	for path, op := range ops {
		if _, err := op(ctx, "7"); err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if got := gw.last(t).Path; got != path {
			t.Errorf("path = %s, want %s", got, path)
		}
	}

	before := len(gw.calls)
	if _, err := repos.WorkOrders.Transition(ctx, "7", Transition("archive")); err == nil {
		t.Error("unknown transition should fail")
	}
	if len(gw.calls) != before {
		t.Error("unknown transition must not reach the gateway")
	}
}

func TestTransitionErrorSurfaces(t *testing.T) {
	gw := &fakeGateway{err: &mesclient.APIError{Kind: mesclient.KindClient, StatusCode: 400,
		Message: "Only draft work orders can be released"}}
	repos := NewRepositories(gw, nil)

	_, err := repos.WorkOrders.Release(context.Background(), "7")
	if got := mesclient.Message(err); got != "Only draft work orders can be released" {
		t.Errorf("message = %q", got)
	}
}

func TestWorkOrderCreateDefaults(t *testing.T) {
	gw := &fakeGateway{body: `{"id":8,"code":"WO-8","status":"draft","priority":5,"product_id":1}`}
	repos := NewRepositories(gw, nil)

	wo, err := repos.WorkOrders.Upsert(context.Background(), codec.Patch{"woNo": "WO-8", "qty": 10})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	body := gw.last(t).Opts.Body.(codec.Record)
	if body["code"] != "WO-8" || body["planned_quantity"] != float64(10) {
		t.Errorf("aliases not applied: %#v", body)
	}
	if body["status"] != entity.WOStatusDraft || body["priority"] != 5 || body["product_id"] != 1 {
		t.Errorf("create defaults missing: %#v", body)
	}
	if wo.ID != "8" {
		t.Errorf("ID = %q", wo.ID)
	}

	if _, err := repos.WorkOrders.Update(context.Background(), "8", codec.Patch{"remark": "加急"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := gw.last(t).Opts.Body; !reflect.DeepEqual(got, codec.Record{"notes": "加急"}) {
		t.Errorf("update body = %#v", got)
	}
}

func TestWorkOrderListAndGenerate(t *testing.T) {
	gw := &fakeGateway{respond: func(method, path string) string {
		if method == http.MethodPost {
			return `{"message":"Operations generated","count":3}`
		}
		return `[{"id":1,"status":"released"}]`
	}}
	repos := NewRepositories(gw, nil)
	ctx := context.Background()

	list, err := repos.WorkOrders.List(ctx, WorkOrderQuery{Status: "released", Page: Page{Limit: 20}})
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if p := gw.last(t).Opts.Params; p.Get("status") != "released" || p.Get("limit") != "20" || p.Has("skip") {
		t.Errorf("params = %v", p)
	}

	res, err := repos.WorkOrders.GenerateOperations(ctx, "1", true)
	if err != nil {
		t.Fatalf("GenerateOperations: %v", err)
	}
	c := gw.last(t)
	if c.Path != "/work-orders/1/generate-operations" || c.Opts.Params.Get("force") != "true" {
		t.Errorf("request = %s %v", c.Path, c.Opts.Params)
	}
	if res.Count != 3 {
		t.Errorf("count = %d", res.Count)
	}
}

// ============================================================
// 排程
// ============================================================

func TestScheduleReader(t *testing.T) {
	gw := &fakeGateway{body: `{}`}
	repos := NewRepositories(gw, nil)

	res, err := repos.Schedule.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.Tasks == nil || res.Loads == nil || res.Warnings == nil {
		t.Errorf("empty schedule must use empty collections: %+v", res)
	}
	if c := gw.last(t); c.Method != http.MethodGet || c.Path != "/schedule" {
		t.Errorf("request = %s %s", c.Method, c.Path)
	}

	gw.body = `{"tasks":[{"work_order_id":7,"equipment_id":-1,"start":"2024-05-01T08:00:00","end":"2024-05-01T09:00:00"}],"loads":{"-1":1}}`
	res, err = repos.Schedule.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c := gw.last(t); c.Method != http.MethodPost || c.Path != "/schedule/run" {
		t.Errorf("request = %s %s", c.Method, c.Path)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].EquipmentID != entity.UnassignedEquipment || res.Loads[entity.UnassignedEquipment] != 1 {
		t.Errorf("res = %+v", res)
	}
}

// ============================================================
// 在制品 / 库存 / 报工
// ============================================================

func TestWIPQueries(t *testing.T) {
	gw := &fakeGateway{body: `[{"id":1,"batch_number":"B 01/x"}]`}
	repos := NewRepositories(gw, nil)
	ctx := context.Background()

	items, err := repos.WIP.TraceByBatch(ctx, "B 01/x")
	if err != nil || len(items) != 1 {
		t.Fatalf("TraceByBatch = %v, %v", items, err)
	}
	if got := gw.last(t).Path; got != "/wip-tracking/batch/B%2001%2Fx" {
		t.Errorf("path = %s", got)
	}

	if _, err := repos.WIP.TraceBySerial(ctx, "SN-1"); err != nil {
		t.Fatalf("TraceBySerial: %v", err)
	}
	if got := gw.last(t).Path; got != "/wip-tracking/serial/SN-1" {
		t.Errorf("path = %s", got)
	}

	if _, err := repos.WIP.List(ctx, WIPQuery{WorkOrderID: "7", Status: "wip"}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if p := gw.last(t).Opts.Params; p.Get("work_order_id") != "7" || p.Get("status") != "wip" {
		t.Errorf("params = %v", p)
	}
}

func TestInventoryQueries(t *testing.T) {
	gw := &fakeGateway{respond: func(method, path string) string {
		switch path {
		case "/inventory/summary/by-warehouse":
			return `[{"warehouse_id":1,"warehouse_name":"原料仓","item_count":2,"total_quantity":30}]`
		case "/inventory":
			return `[{"id":1,"quantity":10,"available_quantity":7}]`
		}
		return `[]`
	}}
	repos := NewRepositories(gw, nil)
	ctx := context.Background()

	items, err := repos.Inventory.List(ctx, InventoryQuery{WarehouseID: "1", BatchNumber: "B1", Page: Page{Skip: 10, Limit: 5}})
	if err != nil || len(items) != 1 {
		t.Fatalf("List = %v, %v", items, err)
	}
	if items[0].ReservedQty() != 3 {
		t.Errorf("reserved = %v", items[0].ReservedQty())
	}
	p := gw.last(t).Opts.Params
	if p.Get("warehouse_id") != "1" || p.Get("batch_number") != "B1" || p.Get("skip") != "10" || p.Get("limit") != "5" {
		t.Errorf("params = %v", p)
	}
	if p.Has("material_id") {
		t.Error("unset filter sent")
	}

	sums, err := repos.Inventory.SummaryByWarehouse(ctx)
	if err != nil || len(sums) != 1 || sums[0].Key != "1" || sums[0].TotalQuantity != 30 {
		t.Errorf("summary = %+v, %v", sums, err)
	}
}

func TestTransactValidation(t *testing.T) {
	gw := &fakeGateway{body: `{"id":1,"transaction_type":"pick","material_id":2,"warehouse_id":1,"quantity":5}`}
	repos := NewRepositories(gw, nil)
	ctx := context.Background()

	_, err := repos.Inventory.Transact(ctx, entity.MaterialTransaction{TransactionType: "steal", MaterialID: "2", WarehouseID: "1", Quantity: 5})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(gw.calls) != 0 {
		t.Fatal("invalid transaction must not reach the gateway")
	}

	tx, err := repos.Inventory.Transact(ctx, entity.MaterialTransaction{TransactionType: entity.TxnPick, MaterialID: "2", WarehouseID: "1", Quantity: 5})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	c := gw.last(t)
	body := c.Opts.Body.(codec.Record)
	if c.Path != "/material-transactions" || body["transaction_type"] != "pick" || body["material_id"] != int64(2) {
		t.Errorf("request = %s %#v", c.Path, body)
	}
	for _, key := range []string{"work_order_id", "transaction_date", "batch_number"} {
		if _, ok := body[key]; ok {
			t.Errorf("empty %s must not be sent", key)
		}
	}
	if tx.ID != "1" || tx.Quantity != 5 {
		t.Errorf("tx = %+v", tx)
	}
}

func TestPickLifecycle(t *testing.T) {
	gw := &fakeGateway{body: `{"id":4,"code":"PK-1","status":"confirmed","items":[{"id":1,"material_id":2,"required_quantity":3}]}`}
	repos := NewRepositories(gw, nil)
	ctx := context.Background()

	pick, err := repos.Inventory.CreatePick(ctx, entity.MaterialPick{
		Code:        "PK-1",
		WarehouseID: "1",
		Items:       []entity.MaterialPickItem{{MaterialID: "2", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreatePick: %v", err)
	}
	body := gw.last(t).Opts.Body.(codec.Record)
	items, _ := body["items"].([]codec.Record)
	if len(items) != 1 || items[0]["required_quantity"] != float64(3) {
		t.Errorf("items = %#v", body["items"])
	}
	if len(pick.Items) != 1 || pick.Items[0].Quantity != 3 {
		t.Errorf("pick = %+v", pick)
	}

	if _, err := repos.Inventory.CreatePick(ctx, entity.MaterialPick{Code: "PK-2", WarehouseID: "1",
		Items: []entity.MaterialPickItem{{MaterialID: "", Quantity: 1}}}); err == nil {
		t.Error("item without material should fail validation")
	}

	if _, err := repos.Inventory.ConfirmPick(ctx, "4"); err != nil {
		t.Fatalf("ConfirmPick: %v", err)
	}
	if c := gw.last(t); c.Method != http.MethodPost || c.Path != "/material-picks/4/confirm" {
		t.Errorf("request = %s %s", c.Method, c.Path)
	}
	if _, err := repos.Inventory.CompletePick(ctx, "4"); err != nil {
		t.Fatalf("CompletePick: %v", err)
	}
	if c := gw.last(t); c.Path != "/material-picks/4/complete" {
		t.Errorf("path = %s", c.Path)
	}

	if _, err := repos.Inventory.CreatePickFromBOM(ctx, "7", "1"); err != nil {
		t.Fatalf("CreatePickFromBOM: %v", err)
	}
	c := gw.last(t)
	if c.Path != "/material-picks/bom" || c.Opts.Params.Get("work_order_id") != "7" || c.Opts.Params.Get("warehouse_id") != "1" {
		t.Errorf("request = %s %v", c.Path, c.Opts.Params)
	}
	if c.Opts.Body != nil {
		t.Errorf("body = %#v, want none", c.Opts.Body)
	}
}

func TestMaterialReturn(t *testing.T) {
	gw := &fakeGateway{body: `{"message":"Material returned successfully","transaction_id":12}`}
	repos := NewRepositories(gw, nil)

	res, err := repos.Inventory.Return(context.Background(), ReturnRequest{MaterialID: "2", WarehouseID: "1", Quantity: 1.5})
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	c := gw.last(t)
	if c.Path != "/material-returns" || c.Opts.Params.Get("quantity") != "1.5" {
		t.Errorf("request = %s %v", c.Path, c.Opts.Params)
	}
	if res.TransactionID != 12 {
		t.Errorf("res = %+v", res)
	}

	if _, err := repos.Inventory.Return(context.Background(), ReturnRequest{MaterialID: "2", WarehouseID: "1"}); err == nil {
		t.Error("zero quantity should fail validation")
	}
}

func TestReportSubmit(t *testing.T) {
	gw := &fakeGateway{body: `{"id":3,"work_order_id":7,"report_type":"complete","quantity":10}`}
	repos := NewRepositories(gw, nil)
	ctx := context.Background()

	r, err := repos.Reports.Submit(ctx, entity.WorkReport{WorkOrderID: "7", ReportType: entity.ReportComplete, Quantity: 10})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	body := gw.last(t).Opts.Body.(codec.Record)
	if body["work_order_id"] != int64(7) || body["report_type"] != "complete" {
		t.Errorf("body = %#v", body)
	}
	if _, ok := body["report_time"]; ok {
		t.Error("empty report_time must not be sent")
	}
	if r.ID != "3" || r.WorkOrderID != "7" {
		t.Errorf("report = %+v", r)
	}

	if _, err := repos.Reports.Submit(ctx, entity.WorkReport{WorkOrderID: "7", ReportType: "dance"}); err == nil {
		t.Error("unknown report type should fail validation")
	}

	if _, err := repos.Reports.List(ctx, ReportQuery{WorkOrderID: "7"}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if p := gw.last(t).Opts.Params; p.Get("work_order_id") != "7" {
		t.Errorf("params = %v", p)
	}
}
