package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitfantasy/nimo-mes/internal/mes/codec"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
)

// resource 按集合名分派的 CRUD 操作
type resource struct {
	list   func(ctx context.Context, q repository.Query) (interface{}, error)
	get    func(ctx context.Context, id string) (interface{}, error)
	upsert func(ctx context.Context, path string) (interface{}, error)
	remove func(ctx context.Context, id string) error
}

func crud[T entity.Entity](r *repository.Repository[T]) resource {
	return resource{
		list: func(ctx context.Context, q repository.Query) (interface{}, error) {
			return r.List(ctx, q)
		},
		get: func(ctx context.Context, id string) (interface{}, error) {
			return r.Get(ctx, id)
		},
		upsert: func(ctx context.Context, path string) (interface{}, error) {
			// 文档按 Patch 读取，未写出的字段不会以零值覆盖后端数据
			var p codec.Patch
			if err := readDocument(path, &p); err != nil {
				return nil, err
			}
			return r.Upsert(ctx, p)
		},
		remove: r.Remove,
	}
}

func (a *app) resources() map[string]resource {
	r := a.repos
	kinds := map[string]resource{
		"uoms":           crud(r.Uoms),
		"materials":      crud(r.Materials),
		"material-types": crud(r.MaterialTypes),
		"warehouses":     crud(r.Warehouses),
		"operations":     crud(r.Operations),
		"equipment":      crud(r.Equipment),
		"tooling":        crud(r.Tooling),
		"personnel":      crud(r.Personnel),
		"shifts":         crud(r.Shifts),
		"departments":    crud(r.Departments),
		"workshops":      crud(r.Workshops),
		"boms":           crud(r.Boms.Repository),
		"routings":       crud(r.Routings.Repository),
		"work-orders":    crud(r.WorkOrders.Repository),
		"wip":            crud(r.WIP.Repository),
		"inventory":      crud(r.Inventory.Repository),
		"work-reports":   crud(r.Reports.Repository),
	}

	// BOM 与工艺路线详情带明细
	boms := kinds["boms"]
	boms.get = func(ctx context.Context, id string) (interface{}, error) {
		return r.Boms.Detail(ctx, id)
	}
	kinds["boms"] = boms
	routings := kinds["routings"]
	routings.get = func(ctx context.Context, id string) (interface{}, error) {
		return r.Routings.Detail(ctx, id)
	}
	kinds["routings"] = routings

	// 报工走校验后的提交
	reports := kinds["work-reports"]
	reports.upsert = func(ctx context.Context, path string) (interface{}, error) {
		var wr entity.WorkReport
		if err := readDocument(path, &wr); err != nil {
			return nil, err
		}
		return r.Reports.Submit(ctx, wr)
	}
	kinds["work-reports"] = reports
	return kinds
}

func (a *app) resource(kind string) (resource, error) {
	kinds := a.resources()
	res, ok := kinds[kind]
	if !ok {
		names := make([]string, 0, len(kinds))
		for k := range kinds {
			names = append(names, k)
		}
		sort.Strings(names)
		return resource{}, fmt.Errorf("unknown kind %q (available: %s)", kind, strings.Join(names, ", "))
	}
	return res, nil
}

func (a *app) newListCommand() *cobra.Command {
	var (
		filters map[string]string
		skip    int
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "列出集合记录",
		Example: `  mesctl list materials
  mesctl list work-orders --filter status=released --limit 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resource(args[0])
			if err != nil {
				return err
			}
			q := repository.Query{}
			for k, v := range filters {
				q[k] = v
			}
			if skip > 0 {
				q["skip"] = skip
			}
			if limit > 0 {
				q["limit"] = limit
			}
			items, err := res.list(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.print(items)
		},
	}

	cmd.Flags().StringToStringVar(&filters, "filter", nil, "query filter key=value (wire names, repeatable)")
	cmd.Flags().IntVar(&skip, "skip", 0, "records to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "max records to return")
	return cmd
}

func (a *app) newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "获取单条记录",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resource(args[0])
			if err != nil {
				return err
			}
			item, err := res.get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return a.print(item)
		},
	}
}

func (a *app) newUpsertCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "upsert <kind> -f <file>",
		Short: "创建或更新记录（文件中带 id 时更新）",
		Example: `  mesctl upsert materials -f bolt.yaml
  cat wo.json | mesctl upsert work-orders -f -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resource(args[0])
			if err != nil {
				return err
			}
			item, err := res.upsert(cmd.Context(), file)
			if err != nil {
				return err
			}
			return a.print(item)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "json or yaml document ('-' for stdin)")
	cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "删除记录",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resource(args[0])
			if err != nil {
				return err
			}
			if err := res.remove(cmd.Context(), args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %s %s\n", args[0], args[1])
			return nil
		},
	}
}
