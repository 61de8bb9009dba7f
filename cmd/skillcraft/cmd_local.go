package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/fakeapi"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/theme"
)

func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "明暗主题偏好",
	}
	cmd.AddCommand(noSession(&cobra.Command{
		Use:   "show",
		Short: "显示当前主题",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTheme(cmd, appFrom(cmd).Theme.Current())
		},
	}))
	cmd.AddCommand(noSession(&cobra.Command{
		Use:       "set <light|dark>",
		Short:     "设置主题",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(theme.Light), string(theme.Dark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := theme.Parse(args[0])
			if err != nil {
				return err
			}
			if err := appFrom(cmd).Theme.Set(t); err != nil {
				return err
			}
			return printTheme(cmd, t)
		},
	}))
	cmd.AddCommand(noSession(&cobra.Command{
		Use:   "toggle",
		Short: "在 light / dark 之间切换",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := appFrom(cmd).Theme.Toggle()
			if err != nil {
				return err
			}
			return printTheme(cmd, t)
		},
	}))
	return cmd
}

func printTheme(cmd *cobra.Command, t theme.Theme) error {
	return printOutput(cmd, map[string]theme.Theme{"theme": t}, func(w io.Writer) {
		fmt.Fprintf(w, "theme: %s\n", t)
	})
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "CLI 配置",
	}
	cmd.AddCommand(noSession(&cobra.Command{
		Use:   "show",
		Short: "显示合并后的生效配置",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appFrom(cmd).Config
			return printOutput(cmd, cfg, func(w io.Writer) {
				if cfg.Path != "" {
					fmt.Fprintf(w, "# %s\n", cfg.Path)
				}
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				_ = enc.Encode(cfg)
				_ = enc.Close()
			})
		},
	}))
	return cmd
}

func newDevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "本地开发工具",
	}
	cmd.AddCommand(newDevFakeServerCmd())
	return cmd
}

func newDevFakeServerCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "fake-server",
		Short: "启动内存版 REST 后端（含演示数据），用于本地试用",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			addr := mustGetString(cmd, "addr")
			opts := []fakeapi.Option{fakeapi.WithLogger(app.Logger)}
			if secret := mustGetString(cmd, "secret"); secret != "" {
				opts = append(opts, fakeapi.WithSecret(secret))
			}
			fake := fakeapi.New(opts...)

			out := cmd.OutOrStdout()
			if seed, _ := cmd.Flags().GetBool("seed"); seed {
				demo := fake.SeedDemo()
				fmt.Fprintf(out, "demo accounts (password %q):\n", fakeapi.DemoPassword)
				for _, u := range []string{demo.Admin.Email, demo.Editor.Email, demo.Learner.Email} {
					fmt.Fprintf(out, "  %s\n", u)
				}
				fmt.Fprintf(out, "demo roadmap: %s [%s]\n", demo.Roadmap.Name, demo.Roadmap.ID)
			}

			srv := &http.Server{Addr: addr, Handler: fake.Handler(), ReadHeaderTimeout: 10 * time.Second}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("fake_server_starting", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()
			fmt.Fprintf(out, "listening on %s (api base: http://localhost%s/api)\n", addr, addr)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			app.Logger.Info("fake_server_shutdown")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	c.Flags().String("addr", ":5093", "监听地址")
	c.Flags().String("secret", "", "token 签名密钥（默认使用内置开发密钥）")
	c.Flags().Bool("seed", true, "写入演示数据")
	return noSession(c)
}
