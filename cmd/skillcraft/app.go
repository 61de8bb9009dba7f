package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/api"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/guard"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/session"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/storage"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/theme"
	"github.com/houzhh15/skillcraft/pkg/logger"
	"github.com/houzhh15/skillcraft/pkg/metrics"
)

var (
	ErrLoginRequired = errors.New("LOGIN_REQUIRED")
	ErrForbidden     = errors.New("FORBIDDEN")
	ErrNotReady      = errors.New("SESSION_NOT_READY")
)

// 命令注解
const (
	// annoRoute 命令对应的受保护视图，":id" 由第一个位置参数替换
	annoRoute = "skillcraft/route"
	// annoNoSession 命令不需要会话（本地操作或启动服务）
	annoNoSession = "skillcraft/no-session"
)

// App 一次命令执行期间共享的组件
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Store   storage.Store
	Session *session.Store
	API     *api.Client
	Theme   *theme.Preferences
}

type appKey struct{}

// setupApp 加载配置、装配组件、恢复会话并执行守卫
func setupApp(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.logger())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	st, err := storage.NewFileStore(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("open state dir: %w", err)
	}

	sess := session.New(st, session.WithLogger(log))
	client := api.NewClient(cfg.ServerURL, sess,
		api.WithLogger(log),
		api.WithUnauthorizedHandler(sess.HandleUnauthorized),
	)
	sess.SetEnergySource(client)

	app := &App{
		Config:  cfg,
		Logger:  log,
		Store:   st,
		Session: sess,
		API:     client,
		Theme:   theme.NewPreferences(st),
	}
	cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))

	if _, ok := cmd.Annotations[annoNoSession]; ok {
		return nil
	}
	sess.Bootstrap(cmd.Context())

	route := routeFor(cmd, args)
	if route == "" {
		return nil
	}
	d := guard.Check(route, !sess.Bootstrapped(), sess.Principal())
	log.Debug("guard_decision", "command", cmd.CommandPath(), "route", route, "decision", d.Kind.String(), "target", d.Target)
	return decisionError(d, route, sess.Principal())
}

// teardownApp 等待异步刷新结束，按需输出指标
func teardownApp(cmd *cobra.Command) error {
	app, ok := cmd.Context().Value(appKey{}).(*App)
	if !ok {
		return nil
	}
	app.Session.WaitRefreshes()
	if app.Config.PrintMetrics {
		return metrics.WriteText(cmd.ErrOrStderr())
	}
	return nil
}

// appFrom 取出 setupApp 装配的 App
func appFrom(cmd *cobra.Command) *App {
	app, ok := cmd.Context().Value(appKey{}).(*App)
	if !ok {
		panic("app not initialised: command ran without root PersistentPreRunE")
	}
	return app
}

// routeFor 读取命令注解并代入 id 参数
func routeFor(cmd *cobra.Command, args []string) string {
	route := cmd.Annotations[annoRoute]
	if route == "" || !strings.Contains(route, ":id") {
		return route
	}
	id := "_"
	if len(args) > 0 && args[0] != "" {
		id = args[0]
	}
	return strings.Replace(route, ":id", id, 1)
}

func decisionError(d guard.Decision, route string, p *models.Principal) error {
	switch d.Kind {
	case guard.Allow:
		return nil
	case guard.Suspend:
		return ErrNotReady
	}
	if d.Target == guard.LoginPath {
		return fmt.Errorf("%w: run 'skillcraft auth login' first", ErrLoginRequired)
	}
	return fmt.Errorf("%w: role %s cannot open %s (home: %s)", ErrForbidden, p.Role, route, d.Target)
}

// withRoute 为命令设置守卫注解
func withRoute(cmd *cobra.Command, route string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annoRoute] = route
	return cmd
}

// noSession 标记命令不需要恢复会话
func noSession(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annoNoSession] = ""
	return cmd
}
