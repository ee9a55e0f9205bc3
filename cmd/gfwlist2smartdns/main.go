// Command gfwlist2smartdns 将 gfwlist 转换为 SmartDNS 的 nameserver 分流配置。
//
// 用法：
//
//	gfwlist2smartdns [flags] [output-file [group]]
//
// 默认输出 gfwlist.conf，分组为 foreign。指定 -listen 时以常驻模式运行，
// 按 sync.interval 周期刷新，并提供管理接口。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/winspan/gfwlist2smartdns/internal/dns"
	admin "github.com/winspan/gfwlist2smartdns/internal/web"
	"github.com/winspan/gfwlist2smartdns/pkg/config"
	"github.com/winspan/gfwlist2smartdns/pkg/logger"
)

func main() {
	var configPath, listen, logLevel string
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.StringVar(&listen, "listen", "", "serve mode: refresh periodically and expose admin HTTP on this address")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [output-file [group]]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := applyArgs(cfg, flag.Args()); err != nil {
		fmt.Fprintln(flag.CommandLine.Output(), err)
		flag.Usage()
		os.Exit(2)
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.NewLogger(cfg.LoggerConfig())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Close()
	log.SetFlags(0)
	log.SetOutput(lg.Writer())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncer := dns.NewSyncManager(&cfg.Config, nil)

	if cfg.IsServeMode() {
		if err := serve(ctx, cfg, syncer, lg); err != nil {
			lg.Fatal("服务异常退出: %v", err)
		}
		return
	}

	res, err := syncer.Run(ctx)
	if err != nil {
		lg.Fatal("规则同步失败: %v", err)
	}
	report(lg, res.Diagnostics)
	lg.Info("已写入 %s: %d 个域名, 分组 %s", cfg.GetOutputFile(), res.Len(), cfg.GetGroup())
}

// applyArgs 处理位置参数：[output-file [group]]
func applyArgs(cfg *config.Config, args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("too many arguments: %d", len(args))
	}
	if len(args) > 0 && args[0] != "" {
		cfg.Output.File = args[0]
	}
	if len(args) > 1 && args[1] != "" {
		cfg.Output.Group = args[1]
	}
	return nil
}

// report 将诊断记录按级别输出到日志
func report(lg *logger.Logger, diags []dns.Diagnostic) {
	for _, d := range diags {
		switch d.Severity {
		case dns.SeverityWarning:
			lg.Warn("%s: %s", d.Reason, d.Message)
		case dns.SeverityInfo:
			lg.Info("%s: %s", d.Reason, d.Message)
		default:
			lg.Debug("%s: %s", d.Reason, d.Message)
		}
	}
}

// serve 常驻模式：定时同步 + 管理接口，SIGHUP 触发立即同步
func serve(ctx context.Context, cfg *config.Config, syncer *dns.SyncManager, lg *logger.Logger) error {
	r := chi.NewRouter()
	opts := admin.Options{AdminToken: cfg.Server.AdminToken}
	if cfg.Monitoring.Enabled {
		opts.MetricsPath = cfg.Monitoring.Path
	}
	admin.BindRoutes(r, syncer, opts)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		syncer.Start(ctx)
		return nil
	})

	g.Go(func() error {
		lg.Info("admin http listening on %s", cfg.Server.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	// Hot reload on SIGHUP
	g.Go(func() error {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		defer signal.Stop(sigc)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-sigc:
				lg.Info("收到 SIGHUP，立即同步规则")
				_ = syncer.SyncNow(ctx)
			}
		}
	})

	return g.Wait()
}
