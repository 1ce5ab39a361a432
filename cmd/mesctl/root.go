package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/shared/mesclient"
)

// app 命令行共享状态，PersistentPreRunE 中初始化
type app struct {
	configPath string
	baseURL    string
	token      string
	output     string
	metricsOut string

	out     io.Writer
	cfg     *config.Config
	log     *zap.Logger
	metrics *mesclient.Metrics
	repos   *repository.Repositories
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:           "mesctl",
		Short:         "MES 客户端命令行",
		Long:          "mesctl 通过 MES 后端 REST 接口维护主数据、下达工单、查询排程与库存并导出报表。",
		Version:       fmt.Sprintf("%s (built: %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.log != nil {
				defer a.log.Sync()
			}
			return a.dumpMetrics()
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "MES backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&a.token, "token", "", "bearer token (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "json", "output format: json|yaml")
	rootCmd.PersistentFlags().StringVar(&a.metricsOut, "metrics-out", "", "write request metrics to file after the command ('-' for stderr)")

	rootCmd.AddCommand(
		a.newListCommand(),
		a.newGetCommand(),
		a.newUpsertCommand(),
		a.newDeleteCommand(),
		a.newWorkOrderCommand(),
		a.newScheduleCommand(),
		a.newWIPCommand(),
		a.newInventoryCommand(),
		a.newExportCommand(),
	)
	return rootCmd
}

func (a *app) init() error {
	if a.output != "json" && a.output != "yaml" {
		return fmt.Errorf("unsupported output format %q", a.output)
	}

	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.MES.BaseURL = a.baseURL
	}
	if a.token != "" {
		cfg.MES.Token = a.token
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, err := initLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	a.cfg = cfg
	a.log = logger
	a.metrics = mesclient.NewMetrics(cfg.MES.MetricsName, nil)
	client := mesclient.NewClient(cfg.MES, logger, mesclient.WithMetrics(a.metrics))
	a.repos = repository.NewRepositories(client, logger)

	logger.Debug("mesctl initialized",
		zap.String("version", Version),
		zap.String("base_url", client.BaseURL()),
	)
	return nil
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

// dumpMetrics 以 Prometheus 文本格式输出本次命令的请求指标
func (a *app) dumpMetrics() error {
	if a.metricsOut == "" || a.metrics == nil {
		return nil
	}
	families, err := a.metrics.Gatherer().Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var w io.Writer = os.Stderr
	if a.metricsOut != "-" {
		f, err := os.Create(a.metricsOut)
		if err != nil {
			return fmt.Errorf("create metrics file: %w", err)
		}
		defer f.Close()
		w = f
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// errorText 后端错误取翻译后的提示，其余错误原样输出
func errorText(err error) string {
	var apiErr *mesclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
