package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
)

// ============================================================
// 工单
// ============================================================

func (a *app) newWorkOrderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wo",
		Aliases: []string{"work-order"},
		Short:   "工单状态迁移与工序生成",
	}

	for _, t := range repository.Transitions {
		cmd.AddCommand(&cobra.Command{
			Use:   string(t) + " <id>",
			Short: "工单 " + string(t),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				wo, err := a.repos.WorkOrders.Transition(cmd.Context(), args[0], t)
				if err != nil {
					return err
				}
				return a.print(wo)
			},
		})
	}

	var force bool
	generate := &cobra.Command{
		Use:   "generate-operations <id>",
		Short: "按工艺路线生成工单工序",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.repos.WorkOrders.GenerateOperations(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}
			return a.print(res)
		},
	}
	generate.Flags().BoolVar(&force, "force", false, "delete existing operations first")
	cmd.AddCommand(generate)

	return cmd
}

// ============================================================
// 排程
// ============================================================

func (a *app) newScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "生产排程",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "触发排程并输出结果",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := a.repos.Schedule.Run(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(res)
			},
		},
		&cobra.Command{
			Use:   "get",
			Short: "查询当前排程",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := a.repos.Schedule.Get(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(res)
			},
		},
	)
	return cmd
}

// ============================================================
// 在制品
// ============================================================

func (a *app) newWIPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wip",
		Short: "在制品追溯",
	}

	var batch, serial string
	trace := &cobra.Command{
		Use:   "trace --batch <no> | --serial <no>",
		Short: "按批次号或序列号追溯",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (batch == "") == (serial == "") {
				return fmt.Errorf("exactly one of --batch or --serial is required")
			}
			var (
				items interface{}
				err   error
			)
			if batch != "" {
				items, err = a.repos.WIP.TraceByBatch(cmd.Context(), batch)
			} else {
				items, err = a.repos.WIP.TraceBySerial(cmd.Context(), serial)
			}
			if err != nil {
				return err
			}
			return a.print(items)
		},
	}
	trace.Flags().StringVar(&batch, "batch", "", "batch number")
	trace.Flags().StringVar(&serial, "serial", "", "serial number")
	cmd.AddCommand(trace)
	return cmd
}

// ============================================================
// 库存
// ============================================================

func (a *app) newInventoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "库存查询",
	}

	var q repository.InventoryQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "库存明细",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.repos.Inventory.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.print(items)
		},
	}
	list.Flags().StringVar(&q.WarehouseID, "warehouse", "", "warehouse id")
	list.Flags().StringVar(&q.MaterialID, "material", "", "material id")
	list.Flags().StringVar(&q.BatchNumber, "batch", "", "batch number")
	list.Flags().StringVar(&q.Location, "location", "", "location")
	list.Flags().IntVar(&q.Skip, "skip", 0, "records to skip")
	list.Flags().IntVar(&q.Limit, "limit", 0, "max records to return")

	var by string
	summary := &cobra.Command{
		Use:   "summary --by warehouse|material",
		Short: "库存汇总",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.inventorySummary(cmd, by)
			if err != nil {
				return err
			}
			return a.print(res)
		},
	}
	summary.Flags().StringVar(&by, "by", "warehouse", "group by warehouse or material")

	cmd.AddCommand(list, summary)
	return cmd
}
