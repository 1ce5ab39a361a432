package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/middleware"
)

// Record 后端存储的一行，数值字段统一为 float64（与 JSON 解码一致）
type Record = map[string]interface{}

// Collections 通用 CRUD 集合
var Collections = []string{
	"uoms", "materials", "material-types", "warehouses", "operations",
	"equipment", "tooling", "personnel", "shifts", "departments", "workshops",
	"boms", "routings", "work-orders", "wip-tracking", "inventory",
	"material-transactions", "material-picks", "work-reports",
}

// codeRequired 创建时必须带 code 的集合
var codeRequired = map[string]string{
	"uoms":           "UOM",
	"materials":      "Material",
	"material-types": "Material Type",
	"warehouses":     "Warehouse",
	"operations":     "Operation",
	"equipment":      "Equipment",
	"tooling":        "Tooling",
	"personnel":      "Personnel",
	"shifts":         "Shift",
	"departments":    "Department",
	"workshops":      "Workshop",
	"boms":           "BOM",
	"routings":       "Routing",
	"work-orders":    "Work Order",
}

// notFoundNames 404 detail 中的实体名
var notFoundNames = map[string]string{
	"wip-tracking":          "WIP",
	"inventory":             "Inventory",
	"material-transactions": "Material Transaction",
	"material-picks":        "Material Pick",
	"work-reports":          "Work Report",
}

const woOpsCollection = "work-order-operations"

const timeLayout = "2006-01-02T15:04:05"

type woTransition struct {
	from   string
	to     string
	detail string
}

var woTransitions = map[string]woTransition{
	"release":  {from: "draft", to: "released", detail: "Only draft work orders can be released"},
	"start":    {from: "released", to: "in_progress", detail: "Only released work orders can be started"},
	"complete": {from: "in_progress", to: "completed", detail: "Only in-progress work orders can be completed"},
	"cancel":   {to: "cancelled"},
}

// Recorded 后端收到的一次请求
type Recorded struct {
	Method    string
	Path      string // 去掉 /api/v1 前缀，保留转义
	Query     url.Values
	Body      Record
	RequestID string
	Auth      string
}

type failure struct {
	status int
	detail interface{}
}

type httpError struct {
	status int
	detail interface{}
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%d: %v", e.status, e.detail)
}

func notFound(name string) *httpError {
	return &httpError{status: http.StatusNotFound, detail: name + " not found"}
}

func badRequest(detail string) *httpError {
	return &httpError{status: http.StatusBadRequest, detail: detail}
}

func missing(loc ...string) *httpError {
	return &httpError{status: http.StatusUnprocessableEntity, detail: []gin.H{{
		"loc":  append([]string{"body"}, loc...),
		"msg":  "field required",
		"type": "value_error.missing",
	}}}
}

// Backend 内存版 MES 后端：gin + gzip + JWT，行为对齐真实后端的状态校验与 detail 文案
type Backend struct {
	Server *httptest.Server
	Router *gin.Engine

	mu       sync.Mutex
	seq      int64
	store    map[string]map[int64]Record
	requests []Recorded
	failures []failure
	now      func() time.Time
	token    string
}

// NewBackend 启动后端，测试结束时关闭
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	loadEnv()

	logger := zap.NewNop()
	if getEnv("MES_TEST_LOG", "") != "" {
		logger, _ = zap.NewDevelopment()
	}

	b := &Backend{
		store: make(map[string]map[int64]Record),
		now:   func() time.Time { return time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC) },
		token: DefaultTestToken(),
	}
	b.Router = SetupRouter(logger)
	b.Router.Use(b.record, b.inject)
	b.routes(AuthGroup(b.Router, APIPrefix))

	b.Server = httptest.NewServer(b.Router)
	t.Cleanup(b.Server.Close)
	return b
}

// URL 后端 API 基地址
func (b *Backend) URL() string {
	return b.Server.URL + APIPrefix
}

// Token 可通过认证的访问令牌
func (b *Backend) Token() string {
	return b.token
}

// SetClock 固定排程与时间戳使用的时间
func (b *Backend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// FailNext 下一次请求直接返回 status，detail 为 nil 时响应体为空
func (b *Backend) FailNext(status int, detail interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, failure{status: status, detail: detail})
}

// Requests 已收到的请求
func (b *Backend) Requests() []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Recorded, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest 最近一次请求
func (b *Backend) LastRequest() (Recorded, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return Recorded{}, false
	}
	return b.requests[len(b.requests)-1], true
}

// Seed 直接写入一行并返回分配的ID
func (b *Backend) Seed(collection string, rec Record) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insert(collection, normalize(rec))
}

// Lookup 读取一行的副本
func (b *Backend) Lookup(collection string, id int64) (Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.store[collection][id]
	if !ok {
		return nil, false
	}
	return clone(rec), true
}

// Count 集合行数
func (b *Backend) Count(collection string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.store[collection])
}

// ============================================================
// 中间件
// ============================================================

func (b *Backend) record(c *gin.Context) {
	rec := Recorded{
		Method:    c.Request.Method,
		Path:      strings.TrimPrefix(c.Request.URL.EscapedPath(), APIPrefix),
		Query:     c.Request.URL.Query(),
		RequestID: c.Request.Header.Get("X-Request-ID"),
		Auth:      c.Request.Header.Get("Authorization"),
	}
	if c.Request.Body != nil {
		raw, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		if len(bytes.TrimSpace(raw)) > 0 {
			json.Unmarshal(raw, &rec.Body)
		}
	}
	b.mu.Lock()
	b.requests = append(b.requests, rec)
	b.mu.Unlock()
	c.Next()
}

func (b *Backend) inject(c *gin.Context) {
	b.mu.Lock()
	var f *failure
	if len(b.failures) > 0 {
		f = &b.failures[0]
		b.failures = b.failures[1:]
	}
	b.mu.Unlock()

	if f == nil {
		c.Next()
		return
	}
	if f.detail == nil {
		c.AbortWithStatus(f.status)
		return
	}
	c.AbortWithStatusJSON(f.status, gin.H{"detail": f.detail})
}

// ============================================================
// 路由
// ============================================================

func (b *Backend) routes(g *gin.RouterGroup) {
	for _, name := range Collections {
		g.GET("/"+name, b.handleList(name))
		g.POST("/"+name, b.handleCreate(name))
		g.GET("/"+name+"/:id", b.handleGet(name))
		g.PUT("/"+name+"/:id", b.handleUpdate(name))
		g.DELETE("/"+name+"/:id", b.handleRemove(name))
	}

	g.GET("/boms/by-product/:product_id", b.handleByProduct("boms"))
	g.GET("/routings/by-product/:product_id", b.handleByProduct("routings"))
	g.POST("/boms/:id/items", b.handleAddBomItem)

	for action := range woTransitions {
		g.POST("/work-orders/:id/"+action, b.handleTransition(action))
	}
	g.POST("/work-orders/:id/generate-operations", b.handleGenerate)

	g.POST("/schedule/run", middleware.RequireRole("mes_planner"), b.handleSchedule)
	g.GET("/schedule", b.handleSchedule)

	g.GET("/wip-tracking/batch/:key", b.handleTrace("batch_number"))
	g.GET("/wip-tracking/serial/:key", b.handleTrace("serial_number"))

	g.GET("/inventory/summary/by-warehouse", b.handleWarehouseSummary)
	g.GET("/inventory/summary/by-material", b.handleMaterialSummary)

	g.POST("/material-picks/bom", b.handlePickFromBOM)
	g.POST("/material-picks/:id/confirm", b.handlePickStatus("draft", "confirmed", "Only draft picks can be confirmed"))
	g.POST("/material-picks/:id/complete", b.handleCompletePick)
	g.POST("/material-returns", b.handleReturn)
}

// respond 统一输出：err 为 *httpError 时按 FastAPI 约定返回 {"detail": ...}
func respond(c *gin.Context, body interface{}, err error) {
	if err != nil {
		if he, ok := err.(*httpError); ok {
			c.JSON(he.status, gin.H{"detail": he.detail})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, body)
}

func pathID(c *gin.Context, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		return 0, &httpError{status: http.StatusUnprocessableEntity, detail: []gin.H{{
			"loc":  []string{"path", param},
			"msg":  "value is not a valid integer",
			"type": "type_error.integer",
		}}}
	}
	return id, nil
}

func bindBody(c *gin.Context) (Record, error) {
	var body Record
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		return nil, missing()
	}
	return normalize(body), nil
}

func (b *Backend) handleList(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		respond(c, b.views(name, b.filter(name, c.Request.URL.Query())), nil)
	}
}

func (b *Backend) handleGet(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respond(c, nil, err)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		rec, err := b.find(name, id)
		if err != nil {
			respond(c, nil, err)
			return
		}
		respond(c, b.view(name, rec), nil)
	}
}

func (b *Backend) handleCreate(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := bindBody(c)
		if err != nil {
			respond(c, nil, err)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		rec, err := b.create(name, body)
		if err != nil {
			respond(c, nil, err)
			return
		}
		respond(c, b.view(name, rec), nil)
	}
}

func (b *Backend) handleUpdate(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respond(c, nil, err)
			return
		}
		body, err := bindBody(c)
		if err != nil {
			respond(c, nil, err)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		rec, err := b.find(name, id)
		if err != nil {
			respond(c, nil, err)
			return
		}
		for k, v := range body {
			if k == "id" {
				continue
			}
			if k == "items" {
				v = b.withItemIDs(v, "bom_id", id, name == "boms")
			}
			rec[k] = v
		}
		rec["updated_at"] = b.stamp()
		respond(c, b.view(name, rec), nil)
	}
}

func (b *Backend) handleRemove(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respond(c, nil, err)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, err := b.find(name, id); err != nil {
			respond(c, nil, err)
			return
		}
		delete(b.store[name], id)
		respond(c, gin.H{"message": entityName(name) + " deleted successfully"}, nil)
	}
}

func (b *Backend) handleByProduct(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := pathID(c, "product_id")
		if err != nil {
			respond(c, nil, err)
			return
		}
		version := c.Query("version")
		activeOnly := c.Query("active_only")

		b.mu.Lock()
		defer b.mu.Unlock()
		out := []Record{}
		for _, rec := range b.sorted(name) {
			if num(rec["product_id"]) != float64(productID) {
				continue
			}
			if version != "" && fmt.Sprint(rec["version"]) != version {
				continue
			}
			if activeOnly == "1" && !truthy(rec["is_active"]) {
				continue
			}
			out = append(out, b.view(name, rec))
		}
		respond(c, out, nil)
	}
}

func (b *Backend) handleAddBomItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond(c, nil, err)
		return
	}
	body, err := bindBody(c)
	if err != nil {
		respond(c, nil, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bom, err := b.find("boms", id)
	if err != nil {
		respond(c, nil, err)
		return
	}
	if _, ok := body["material_id"]; !ok {
		respond(c, nil, missing("material_id"))
		return
	}
	b.seq++
	body["id"] = float64(b.seq)
	body["bom_id"] = float64(id)
	items, _ := bom["items"].([]interface{})
	bom["items"] = append(items, body)
	respond(c, b.decorateItem(body), nil)
}

func (b *Backend) handleTransition(action string) gin.HandlerFunc {
	tr := woTransitions[action]
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respond(c, nil, err)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		wo, err := b.find("work-orders", id)
		if err != nil {
			respond(c, nil, err)
			return
		}
		if tr.from != "" && wo["status"] != tr.from {
			respond(c, nil, badRequest(tr.detail))
			return
		}
		wo["status"] = tr.to
		switch action {
		case "start":
			wo["actual_start_date"] = b.stamp()
		case "complete":
			wo["actual_end_date"] = b.stamp()
		}
		wo["updated_at"] = b.stamp()
		respond(c, b.view("work-orders", wo), nil)
	}
}

func (b *Backend) handleGenerate(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond(c, nil, err)
		return
	}
	force := c.Query("force") == "true"

	b.mu.Lock()
	defer b.mu.Unlock()
	wo, err := b.find("work-orders", id)
	if err != nil {
		respond(c, nil, err)
		return
	}
	if num(wo["routing_id"]) == 0 {
		respond(c, nil, badRequest("Work Order has no routing"))
		return
	}
	existing := b.workOrderOps(id)
	if len(existing) > 0 && !force {
		respond(c, gin.H{"message": "Operations already exist", "count": len(existing)}, nil)
		return
	}
	for _, op := range existing {
		delete(b.store[woOpsCollection], int64(num(op["id"])))
	}
	routing, ok := b.store["routings"][int64(num(wo["routing_id"]))]
	if !ok {
		respond(c, nil, badRequest("Routing not found"))
		return
	}
	items, _ := routing["items"].([]interface{})
	for _, it := range items {
		item, _ := it.(map[string]interface{})
		b.insert(woOpsCollection, Record{
			"work_order_id":      float64(id),
			"operation_id":       item["operation_id"],
			"sequence":           item["sequence"],
			"equipment_id":       item["equipment_id"],
			"planned_quantity":   wo["planned_quantity"],
			"completed_quantity": float64(0),
			"scrapped_quantity":  float64(0),
			"status":             "pending",
			"planned_start_date": wo["planned_start_date"],
		})
	}
	respond(c, gin.H{"message": "Operations generated", "count": len(b.workOrderOps(id))}, nil)
}

func (b *Backend) handleTrace(field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		b.mu.Lock()
		defer b.mu.Unlock()
		out := []Record{}
		for _, rec := range b.sorted("wip-tracking") {
			if fmt.Sprint(rec[field]) == key {
				out = append(out, b.view("wip-tracking", rec))
			}
		}
		respond(c, out, nil)
	}
}

func (b *Backend) handleWarehouseSummary(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	type agg struct {
		count int
		total float64
	}
	sums := map[int64]*agg{}
	var keys []int64
	for _, rec := range b.sorted("inventory") {
		wid := int64(num(rec["warehouse_id"]))
		if sums[wid] == nil {
			sums[wid] = &agg{}
			keys = append(keys, wid)
		}
		sums[wid].count++
		sums[wid].total += num(rec["quantity"])
	}
	out := []gin.H{}
	for _, wid := range keys {
		row := gin.H{"warehouse_id": wid, "item_count": sums[wid].count, "total_quantity": sums[wid].total}
		if wh, ok := b.store["warehouses"][wid]; ok {
			row["warehouse_name"] = wh["name"]
		}
		out = append(out, row)
	}
	respond(c, out, nil)
}

func (b *Backend) handleMaterialSummary(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	type agg struct {
		total     float64
		available float64
	}
	sums := map[int64]*agg{}
	var keys []int64
	for _, rec := range b.sorted("inventory") {
		mid := int64(num(rec["material_id"]))
		if sums[mid] == nil {
			sums[mid] = &agg{}
			keys = append(keys, mid)
		}
		sums[mid].total += num(rec["quantity"])
		sums[mid].available += num(rec["available_quantity"])
	}
	out := []gin.H{}
	for _, mid := range keys {
		row := gin.H{"material_id": mid, "total_quantity": sums[mid].total, "total_available": sums[mid].available}
		if m, ok := b.store["materials"][mid]; ok {
			row["material_code"] = m["code"]
			row["material_name"] = m["name"]
		}
		out = append(out, row)
	}
	respond(c, out, nil)
}

func (b *Backend) handlePickFromBOM(c *gin.Context) {
	woID, err := queryID(c, "work_order_id")
	if err != nil {
		respond(c, nil, err)
		return
	}
	whID, err := queryID(c, "warehouse_id")
	if err != nil {
		respond(c, nil, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	wo, err := b.find("work-orders", woID)
	if err != nil {
		respond(c, nil, err)
		return
	}
	if num(wo["bom_id"]) == 0 {
		respond(c, nil, badRequest("Work Order has no BOM"))
		return
	}
	bom, err := b.find("boms", int64(num(wo["bom_id"])))
	if err != nil {
		respond(c, nil, err)
		return
	}
	var items []interface{}
	bomItems, _ := bom["items"].([]interface{})
	for _, it := range bomItems {
		item, _ := it.(map[string]interface{})
		b.seq++
		items = append(items, Record{
			"id":                float64(b.seq),
			"material_id":       item["material_id"],
			"required_quantity": num(item["quantity"]) * num(wo["planned_quantity"]) * (1 + num(item["scrap_rate"])),
			"picked_quantity":   float64(0),
		})
	}
	pick := Record{
		"code":          fmt.Sprintf("PICK-%v-%d", wo["code"], 1000+rand.Intn(9000)),
		"work_order_id": float64(woID),
		"warehouse_id":  float64(whID),
		"pick_type":     "bom",
		"status":        "draft",
		"request_date":  b.stamp(),
		"items":         items,
	}
	b.insert("material-picks", pick)
	respond(c, clone(pick), nil)
}

func (b *Backend) handlePickStatus(from, to, detail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respond(c, nil, err)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		pick, err := b.find("material-picks", id)
		if err != nil {
			respond(c, nil, err)
			return
		}
		if pick["status"] != from {
			respond(c, nil, badRequest(detail))
			return
		}
		pick["status"] = to
		respond(c, clone(pick), nil)
	}
}

func (b *Backend) handleCompletePick(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond(c, nil, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	pick, err := b.find("material-picks", id)
	if err != nil {
		respond(c, nil, err)
		return
	}
	if pick["status"] != "confirmed" {
		respond(c, nil, badRequest("Only confirmed picks can be completed"))
		return
	}
	items, _ := pick["items"].([]interface{})
	for _, it := range items {
		item, _ := it.(map[string]interface{})
		qty := num(item["picked_quantity"])
		b.insert("material-transactions", Record{
			"transaction_type": "pick",
			"material_id":      item["material_id"],
			"warehouse_id":     pick["warehouse_id"],
			"work_order_id":    pick["work_order_id"],
			"batch_number":     item["batch_number"],
			"quantity":         qty,
			"from_location":    item["location"],
			"reference_no":     pick["code"],
			"transaction_date": b.stamp(),
		})
		if inv := b.stock(pick["warehouse_id"], item["material_id"], item["batch_number"]); inv != nil {
			inv["quantity"] = num(inv["quantity"]) - qty
			inv["available_quantity"] = num(inv["available_quantity"]) - qty
		}
	}
	pick["status"] = "completed"
	pick["pick_date"] = b.stamp()
	respond(c, clone(pick), nil)
}

func (b *Backend) handleReturn(c *gin.Context) {
	materialID, err := queryID(c, "material_id")
	if err != nil {
		respond(c, nil, err)
		return
	}
	warehouseID, err := queryID(c, "warehouse_id")
	if err != nil {
		respond(c, nil, err)
		return
	}
	qty, _ := strconv.ParseFloat(c.Query("quantity"), 64)

	tx := Record{
		"transaction_type": "return",
		"material_id":      float64(materialID),
		"warehouse_id":     float64(warehouseID),
		"quantity":         qty,
	}
	for _, key := range []string{"work_order_id", "operator_id"} {
		if v := c.Query(key); v != "" {
			n, _ := strconv.ParseFloat(v, 64)
			tx[key] = n
		}
	}
	if v := c.Query("batch_number"); v != "" {
		tx["batch_number"] = v
	}
	if v := c.Query("location"); v != "" {
		tx["to_location"] = v
	}
	if v := c.Query("notes"); v != "" {
		tx["notes"] = v
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, err := b.transact(tx)
	if err != nil {
		respond(c, nil, err)
		return
	}
	respond(c, gin.H{"message": "Material returned successfully", "transaction_id": rec["id"]}, nil)
}

func (b *Backend) handleSchedule(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	respond(c, b.schedule(), nil)
}

func queryID(c *gin.Context, key string) (int64, error) {
	v := c.Query(key)
	if v == "" {
		return 0, &httpError{status: http.StatusUnprocessableEntity, detail: []gin.H{{
			"loc":  []string{"query", key},
			"msg":  "field required",
			"type": "value_error.missing",
		}}}
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &httpError{status: http.StatusUnprocessableEntity, detail: []gin.H{{
			"loc":  []string{"query", key},
			"msg":  "value is not a valid integer",
			"type": "type_error.integer",
		}}}
	}
	return id, nil
}

// ============================================================
// 存储
// ============================================================

func (b *Backend) insert(collection string, rec Record) int64 {
	if b.store[collection] == nil {
		b.store[collection] = make(map[int64]Record)
	}
	b.seq++
	id := b.seq
	rec["id"] = float64(id)
	b.store[collection][id] = rec
	return id
}

func (b *Backend) find(collection string, id int64) (Record, error) {
	rec, ok := b.store[collection][id]
	if !ok {
		return nil, notFound(entityName(collection))
	}
	return rec, nil
}

func (b *Backend) sorted(collection string) []Record {
	ids := make([]int64, 0, len(b.store[collection]))
	for id := range b.store[collection] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.store[collection][id])
	}
	return out
}

// filter 按查询参数逐字段相等过滤，skip/limit 分页
func (b *Backend) filter(collection string, q url.Values) []Record {
	skip, _ := strconv.Atoi(q.Get("skip"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	out := []Record{}
	for _, rec := range b.sorted(collection) {
		if matches(rec, q) {
			out = append(out, rec)
		}
	}
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func matches(rec Record, q url.Values) bool {
	for key := range q {
		switch key {
		case "skip", "limit", "_t":
			continue
		}
		if fmt.Sprint(rec[key]) != q.Get(key) {
			return false
		}
	}
	return true
}

func (b *Backend) create(name string, body Record) (Record, error) {
	if label, ok := codeRequired[name]; ok {
		code, _ := body["code"].(string)
		if strings.TrimSpace(code) == "" {
			return nil, missing("code")
		}
		for _, rec := range b.store[name] {
			if rec["code"] == code {
				return nil, badRequest(label + " code already exists")
			}
		}
	}
	delete(body, "id")

	switch name {
	case "material-transactions":
		return b.transact(body)
	case "work-reports":
		if err := b.report(body); err != nil {
			return nil, err
		}
	case "work-orders":
		if _, ok := body["status"]; !ok {
			body["status"] = "draft"
		}
		body["created_at"] = b.stamp()
	}

	id := b.insert(name, body)
	if items, ok := body["items"]; ok {
		body["items"] = b.withItemIDs(items, "bom_id", id, name == "boms")
	}
	return body, nil
}

// withItemIDs 为嵌套明细分配ID
func (b *Backend) withItemIDs(v interface{}, parentKey string, parentID int64, setParent bool) interface{} {
	items, ok := v.([]interface{})
	if !ok {
		return v
	}
	for _, it := range items {
		item, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		if num(item["id"]) == 0 {
			b.seq++
			item["id"] = float64(b.seq)
		}
		if setParent {
			item[parentKey] = float64(parentID)
		}
	}
	return items
}

// transact 物料事务并同步库存，出库不足时拒绝
func (b *Backend) transact(tx Record) (Record, error) {
	if _, ok := tx["material_id"]; !ok {
		return nil, missing("material_id")
	}
	if _, ok := tx["warehouse_id"]; !ok {
		return nil, missing("warehouse_id")
	}
	if _, ok := tx["transaction_date"]; !ok {
		tx["transaction_date"] = b.stamp()
	}
	qty := num(tx["quantity"])
	inv := b.stock(tx["warehouse_id"], tx["material_id"], tx["batch_number"])

	switch tx["transaction_type"] {
	case "pick", "issue":
		if inv == nil || num(inv["available_quantity"]) < qty {
			return nil, badRequest("Insufficient inventory")
		}
		inv["quantity"] = num(inv["quantity"]) - qty
		inv["available_quantity"] = num(inv["available_quantity"]) - qty
	case "return", "receive":
		if inv == nil {
			b.insert("inventory", Record{
				"material_id":        tx["material_id"],
				"warehouse_id":       tx["warehouse_id"],
				"batch_number":       tx["batch_number"],
				"quantity":           qty,
				"available_quantity": qty,
				"location":           tx["to_location"],
				"unit_price":         tx["unit_price"],
			})
		} else {
			inv["quantity"] = num(inv["quantity"]) + qty
			inv["available_quantity"] = num(inv["available_quantity"]) + qty
		}
	}
	tx["created_at"] = b.stamp()
	b.insert("material-transactions", tx)
	return tx, nil
}

func (b *Backend) stock(warehouseID, materialID, batch interface{}) Record {
	for _, inv := range b.store["inventory"] {
		if num(inv["warehouse_id"]) == num(warehouseID) &&
			num(inv["material_id"]) == num(materialID) &&
			fmt.Sprint(inv["batch_number"]) == fmt.Sprint(batch) {
			return inv
		}
	}
	return nil
}

// report 报工推进工单与工序数量、状态
func (b *Backend) report(r Record) error {
	wo, err := b.find("work-orders", int64(num(r["work_order_id"])))
	if err != nil {
		return err
	}
	if _, ok := r["report_time"]; !ok {
		r["report_time"] = b.stamp()
	}
	r["created_at"] = b.stamp()
	qty := num(r["quantity"])

	switch r["report_type"] {
	case "complete":
		wo["completed_quantity"] = num(wo["completed_quantity"]) + qty
	case "scrap":
		wo["scrapped_quantity"] = num(wo["scrapped_quantity"]) + qty
	}

	if op, ok := b.store[woOpsCollection][int64(num(r["work_order_operation_id"]))]; ok {
		switch r["report_type"] {
		case "start":
			op["status"] = "in_progress"
		case "complete":
			op["completed_quantity"] = num(op["completed_quantity"]) + qty
			if num(op["completed_quantity"]) >= num(op["planned_quantity"]) {
				op["status"] = "completed"
			}
		case "scrap":
			op["scrapped_quantity"] = num(op["scrapped_quantity"]) + qty
		}
	}

	if r["report_type"] == "start" && wo["status"] == "released" {
		wo["status"] = "in_progress"
		if _, ok := wo["actual_start_date"]; !ok {
			wo["actual_start_date"] = b.stamp()
		}
	}
	return nil
}

func (b *Backend) workOrderOps(woID int64) []Record {
	var ops []Record
	for _, op := range b.sorted(woOpsCollection) {
		if num(op["work_order_id"]) == float64(woID) {
			ops = append(ops, op)
		}
	}
	sort.SliceStable(ops, func(i, j int) bool { return num(ops[i]["sequence"]) < num(ops[j]["sequence"]) })
	return ops
}

// ============================================================
// 视图
// ============================================================

func (b *Backend) views(name string, recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, b.view(name, rec))
	}
	return out
}

// view 返回附带关联字段的副本
func (b *Backend) view(name string, rec Record) Record {
	out := clone(rec)
	switch name {
	case "work-orders":
		ops := []interface{}{}
		for _, op := range b.workOrderOps(int64(num(rec["id"]))) {
			ops = append(ops, clone(op))
		}
		out["operations"] = ops
		if p, ok := b.store["materials"][int64(num(rec["product_id"]))]; ok {
			out["product_code"] = p["code"]
			out["product_name"] = p["name"]
		}
	case "boms":
		if p, ok := b.store["materials"][int64(num(rec["product_id"]))]; ok {
			out["product_code"] = p["code"]
			out["product_name"] = p["name"]
		}
		if items, ok := rec["items"].([]interface{}); ok {
			decorated := make([]interface{}, 0, len(items))
			for _, it := range items {
				if item, ok := it.(map[string]interface{}); ok {
					decorated = append(decorated, b.decorateItem(item))
				}
			}
			out["items"] = decorated
		}
	case "wip-tracking":
		if wo, ok := b.store["work-orders"][int64(num(rec["work_order_id"]))]; ok {
			out["work_order"] = Record{
				"id": wo["id"], "code": wo["code"], "product_id": wo["product_id"],
				"planned_quantity": wo["planned_quantity"], "status": wo["status"],
			}
		}
		if op, ok := b.store["operations"][int64(num(rec["operation_id"]))]; ok {
			out["operation"] = Record{
				"id": op["id"], "code": op["code"], "name": op["name"], "operation_type": op["operation_type"],
			}
		}
	}
	return out
}

func (b *Backend) decorateItem(item Record) Record {
	out := clone(item)
	if m, ok := b.store["materials"][int64(num(item["material_id"]))]; ok {
		out["material_code"] = m["code"]
		out["material_name"] = m["name"]
	}
	return out
}

// ============================================================
// 排程：按设备游标顺排，速率 1 单位/小时，每日 8 小时
// ============================================================

func (b *Backend) schedule() gin.H {
	now := b.now().Truncate(time.Hour)
	type task struct {
		wo    Record
		op    Record
		start time.Time
		end   time.Time
	}

	var wos []Record
	for _, wo := range b.sorted("work-orders") {
		if wo["status"] == "released" || wo["status"] == "in_progress" {
			wos = append(wos, wo)
		}
	}
	sort.SliceStable(wos, func(i, j int) bool { return num(wos[i]["priority"]) < num(wos[j]["priority"]) })

	cursor := map[int64]time.Time{}
	var tasks []task
	for _, wo := range wos {
		for _, op := range b.workOrderOps(int64(num(wo["id"]))) {
			equip := int64(num(op["equipment_id"]))
			if equip == 0 {
				equip = -1
			}
			start, ok := cursor[equip]
			if !ok {
				start = parseTime(op["planned_start_date"], now)
			}
			remaining := num(op["planned_quantity"]) - num(op["completed_quantity"])
			if remaining < 0 {
				remaining = 0
			}
			end := workingEnd(start, remaining)
			cursor[equip] = end
			tasks = append(tasks, task{wo: wo, op: op, start: start, end: end})
		}
	}

	taskList := []gin.H{}
	loads := map[string]float64{}
	warnings := []gin.H{}
	for _, t := range tasks {
		equip := int64(num(t.op["equipment_id"]))
		if equip == 0 {
			equip = -1
		}
		remaining := num(t.op["planned_quantity"]) - num(t.op["completed_quantity"])
		if remaining < 0 {
			remaining = 0
		}
		taskList = append(taskList, gin.H{
			"work_order_id":           t.op["work_order_id"],
			"operation_id":            t.op["operation_id"],
			"work_order_operation_id": t.op["id"],
			"equipment_id":            equip,
			"sequence":                t.op["sequence"],
			"start":                   t.start.Format(timeLayout),
			"end":                     t.end.Format(timeLayout),
			"planned_quantity":        t.op["planned_quantity"],
			"remaining_quantity":      remaining,
		})
		loads[strconv.FormatInt(equip, 10)] += t.end.Sub(t.start).Hours()

		if due := parseTime(t.wo["planned_end_date"], time.Time{}); !due.IsZero() && t.end.After(due) {
			warnings = append(warnings, gin.H{
				"work_order_id":    t.wo["id"],
				"code":             t.wo["code"],
				"planned_end_date": due.Format(timeLayout),
				"task_end":         t.end.Format(timeLayout),
				"delay_hours":      t.end.Sub(due).Hours(),
			})
		}
	}
	return gin.H{"tasks": taskList, "loads": loads, "warnings": warnings}
}

// workingEnd 每日 8 小时，跨日顺延到次日 08:00
func workingEnd(start time.Time, hours float64) time.Time {
	const dayHours = 8
	end := start
	for hours > 0 {
		take := hours
		if take > dayHours {
			take = dayHours
		}
		end = end.Add(time.Duration(take * float64(time.Hour)))
		hours -= take
		if hours > 0 {
			y, m, d := end.Date()
			end = time.Date(y, m, d+1, 8, 0, 0, 0, end.Location())
		}
	}
	return end
}

func parseTime(v interface{}, fallback time.Time) time.Time {
	s, _ := v.(string)
	for _, layout := range []string{timeLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}

// ============================================================
// 工具
// ============================================================

func (b *Backend) stamp() string {
	return b.now().Format(timeLayout)
}

func entityName(collection string) string {
	if name, ok := codeRequired[collection]; ok {
		return name
	}
	if name, ok := notFoundNames[collection]; ok {
		return name
	}
	return collection
}

// normalize 经一次 JSON 往返，使数值统一为 float64
func normalize(rec Record) Record {
	raw, err := json.Marshal(rec)
	if err != nil {
		return rec
	}
	var out Record
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return Record{}
	}
	return out
}

func clone(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func num(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f
	case bool:
		if x {
			return 1
		}
	}
	return 0
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case nil:
		return false
	case string:
		return x != "" && x != "0" && x != "false"
	}
	return num(v) != 0
}
