package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/guard"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/session"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "登录、注册与会话管理",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthSignupCmd())
	cmd.AddCommand(newAuthVerifyCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthWhoamiCmd())
	cmd.AddCommand(newAuthChangePasswordCmd())
	return cmd
}

// whoami 的输出结构
type sessionView struct {
	User    *models.Principal `json:"user"`
	Home    string            `json:"home"`
	Energy  *int              `json:"energy,omitempty"`
	Message string            `json:"message,omitempty"`
}

func newSessionView(p *models.Principal, e session.Energy) sessionView {
	v := sessionView{User: p, Home: guard.Landing(p.Role)}
	if p.Role == models.RoleUser && e.Known {
		value := e.Value
		v.Energy = &value
	}
	return v
}

func writeSession(w io.Writer, v sessionView) {
	fmt.Fprintf(w, "%s <%s> (%s)\n", v.User.DisplayName(), v.User.Email, v.User.Role)
	fmt.Fprintf(w, "home: %s\n", v.Home)
	if v.User.Role == models.RoleUser {
		if v.Energy != nil {
			fmt.Fprintf(w, "energy: %d\n", *v.Energy)
		} else {
			fmt.Fprintln(w, "energy: unknown")
		}
	}
}

// startSession 服务端签发了 token 时建立会话；否则只展示服务端消息
func startSession(cmd *cobra.Command, res models.AuthResult) error {
	app := appFrom(cmd)
	if res.Token == "" {
		msg := res.Message
		if msg == "" {
			msg = "ok"
		}
		return printMessage(cmd, "%s", msg)
	}
	p, err := app.Session.Login(cmd.Context(), res.Token)
	if err != nil {
		return fmt.Errorf("server returned an unusable token: %w", err)
	}
	app.Session.WaitRefreshes()
	v := newSessionView(p, app.Session.Energy())
	v.Message = res.Message
	return printOutput(cmd, v, func(w io.Writer) {
		fmt.Fprint(w, "logged in as ")
		writeSession(w, v)
	})
}

func newAuthLoginCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "login",
		Short: "使用邮箱与密码登录",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			p := newPrompter(cmd)
			email, err := stringOrPrompt(cmd, p, "email", "email: ")
			if err != nil {
				return err
			}
			password, err := stringOrPrompt(cmd, p, "password", "password: ")
			if err != nil {
				return err
			}
			res, err := app.API.Login(cmd.Context(), models.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			return startSession(cmd, res)
		},
	}
	c.Flags().String("email", "", "邮箱")
	c.Flags().String("password", "", "密码（为空时从标准输入读取）")
	return withRoute(c, guard.LoginPath)
}

func newAuthSignupCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "signup",
		Short: "注册新账号（需通过邮件验证后登录）",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			p := newPrompter(cmd)
			password, err := stringOrPrompt(cmd, p, "password", "password: ")
			if err != nil {
				return err
			}
			res, err := app.API.Signup(cmd.Context(), models.SignupRequest{
				FirstName: mustGetString(cmd, "first-name"),
				LastName:  mustGetString(cmd, "last-name"),
				Email:     mustGetString(cmd, "email"),
				Password:  password,
			})
			if err != nil {
				return err
			}
			return startSession(cmd, res)
		},
	}
	c.Flags().String("first-name", "", "名（必选）")
	c.Flags().String("last-name", "", "姓")
	c.Flags().String("email", "", "邮箱（必选）")
	c.Flags().String("password", "", "密码（为空时从标准输入读取）")
	_ = c.MarkFlagRequired("first-name")
	_ = c.MarkFlagRequired("email")
	return c
}

func newAuthVerifyCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "verify",
		Short: "使用邮件中的验证码确认邮箱",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			res, err := app.API.VerifyEmail(cmd.Context(), mustGetString(cmd, "email"), mustGetString(cmd, "token"))
			if err != nil {
				return err
			}
			return startSession(cmd, res)
		},
	}
	c.Flags().String("email", "", "邮箱（必选）")
	c.Flags().String("token", "", "验证码（必选）")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("token")
	return c
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "退出登录并清除本地 token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).Session.Logout(); err != nil {
				return err
			}
			return printMessage(cmd, "logged out")
		},
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "显示当前会话",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			p := app.Session.Principal()
			if p == nil {
				return printOutput(cmd, sessionView{Home: guard.LoginPath, Message: "not logged in"}, func(w io.Writer) {
					fmt.Fprintln(w, "not logged in")
				})
			}
			v := newSessionView(p, app.Session.Energy())
			return printOutput(cmd, v, func(w io.Writer) { writeSession(w, v) })
		},
	}
}

func newAuthChangePasswordCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "change-password",
		Short: "修改当前账号密码",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			p := newPrompter(cmd)
			current, err := stringOrPrompt(cmd, p, "current", "current password: ")
			if err != nil {
				return err
			}
			next, err := stringOrPrompt(cmd, p, "new", "new password: ")
			if err != nil {
				return err
			}
			if err := app.API.ChangePassword(cmd.Context(), models.PasswordChange{CurrentPassword: current, NewPassword: next}); err != nil {
				return err
			}
			return printMessage(cmd, "password changed")
		},
	}
	c.Flags().String("current", "", "当前密码（为空时从标准输入读取）")
	c.Flags().String("new", "", "新密码（为空时从标准输入读取）")
	return withRoute(c, "/profile")
}
