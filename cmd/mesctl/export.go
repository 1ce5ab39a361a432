package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/export"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
)

// exportOptions 导出命令共用参数
type exportOptions struct {
	xlsx   bool
	csv    bool
	gbk    bool
	upload bool
	dir    string
	name   string
}

func (o *exportOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.xlsx, "xlsx", false, "write an xlsx workbook (default)")
	cmd.Flags().BoolVar(&o.csv, "csv", false, "write one csv file per table")
	cmd.Flags().BoolVar(&o.gbk, "gbk", false, "encode csv as GBK (overrides export.gbk)")
	cmd.Flags().BoolVar(&o.upload, "upload", false, "archive the files to MinIO")
	cmd.Flags().StringVar(&o.dir, "dir", "", "output directory (overrides export.dir)")
	cmd.Flags().StringVar(&o.name, "name", "", "base file name (default <kind>-<timestamp>)")
}

func (a *app) newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出排程或库存报表",
	}

	var (
		scheduleOpts exportOptions
		run          bool
	)
	schedule := &cobra.Command{
		Use:   "schedule",
		Short: "导出排程结果（任务、设备负荷、交期预警）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res entity.ScheduleResult
				err error
			)
			if run {
				res, err = a.repos.Schedule.Run(cmd.Context())
			} else {
				res, err = a.repos.Schedule.Get(cmd.Context())
			}
			if err != nil {
				return err
			}
			return a.writeExport(cmd, "schedule", export.ScheduleTables(res), scheduleOpts)
		},
	}
	scheduleOpts.bind(schedule)
	schedule.Flags().BoolVar(&run, "run", false, "run scheduling before exporting")

	var (
		inventoryOpts exportOptions
		q             repository.InventoryQuery
		by            string
	)
	inventory := &cobra.Command{
		Use:   "inventory",
		Short: "导出库存明细与汇总",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.repos.Inventory.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			var summaries []entity.InventorySummary
			if by != "" {
				if summaries, err = a.inventorySummary(cmd, by); err != nil {
					return err
				}
			}
			return a.writeExport(cmd, "inventory", export.InventoryTables(items, summaries), inventoryOpts)
		},
	}
	inventoryOpts.bind(inventory)
	inventory.Flags().StringVar(&q.WarehouseID, "warehouse", "", "warehouse id")
	inventory.Flags().StringVar(&q.MaterialID, "material", "", "material id")
	inventory.Flags().StringVar(&by, "summary", "", "add a summary sheet grouped by warehouse or material")

	cmd.AddCommand(schedule, inventory)
	return cmd
}

func (a *app) inventorySummary(cmd *cobra.Command, by string) ([]entity.InventorySummary, error) {
	switch by {
	case "warehouse":
		return a.repos.Inventory.SummaryByWarehouse(cmd.Context())
	case "material":
		return a.repos.Inventory.SummaryByMaterial(cmd.Context())
	}
	return nil, fmt.Errorf("unsupported summary grouping %q (warehouse|material)", by)
}

// exportFile 待写出的单个文件
type exportFile struct {
	name        string
	data        []byte
	contentType string
}

func (a *app) writeExport(cmd *cobra.Command, kind string, tables []export.Table, o exportOptions) error {
	name := o.name
	if name == "" {
		name = fmt.Sprintf("%s-%s", kind, time.Now().Format("20060102150405"))
	}
	dir := o.dir
	if dir == "" {
		dir = a.cfg.Export.Dir
	}
	gbk := a.cfg.Export.GBK
	if cmd.Flags().Changed("gbk") {
		gbk = o.gbk
	}

	var files []exportFile
	if o.xlsx || !o.csv {
		f, err := export.Workbook(tables)
		if err != nil {
			return err
		}
		buf, err := f.WriteToBuffer()
		f.Close()
		if err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		files = append(files, exportFile{name: name + ".xlsx", data: buf.Bytes(), contentType: export.ContentTypeXLSX})
	}
	if o.csv {
		for i, t := range tables {
			var buf bytes.Buffer
			if err := export.WriteCSV(&buf, t, gbk); err != nil {
				return err
			}
			fileName := name + ".csv"
			if len(tables) > 1 {
				fileName = fmt.Sprintf("%s-%d.csv", name, i+1)
			}
			files = append(files, exportFile{name: fileName, data: buf.Bytes(), contentType: export.ContentTypeCSV})
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		a.log.Info("报表已导出", zap.String("path", path), zap.Int("size", len(f.data)))
		fmt.Fprintln(a.out, path)
	}

	if !o.upload {
		return nil
	}
	uploader, err := export.NewUploader(a.cfg.MinIO, a.log)
	if err != nil {
		return err
	}
	for _, f := range files {
		object, err := uploader.Upload(cmd.Context(), f.name, f.data, f.contentType)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "uploaded %s/%s\n", a.cfg.MinIO.Bucket, object)
	}
	return nil
}
