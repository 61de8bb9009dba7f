package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

const adminUsersRoute = "/admin/users"

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "用户与角色管理（管理员）",
	}
	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserGetCmd())
	cmd.AddCommand(newUserUpdateCmd())
	cmd.AddCommand(newUserDeleteCmd())
	cmd.AddCommand(newUserRolesCmd())
	return cmd
}

func newUserListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出用户",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := filterFromFlags(cmd)
			items, err := appFrom(cmd).API.ListUsers(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printOutput(cmd, items, func(w io.Writer) {
				writeUsers(w, items)
				writePageHint(w, len(items), f)
			})
		},
	}
	addFilterFlags(c, false)
	return withRoute(c, adminUsersRoute)
}

func newUserGetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "get <id>",
		Short: "查看用户",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := appFrom(cmd).API.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printOutput(cmd, u, func(w io.Writer) { writeUsers(w, []models.User{*u}) })
		},
	}
	return withRoute(c, adminUsersRoute)
}

func newUserUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "update <id>",
		Short: "更新用户资料或角色，未指定的字段保持不变",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			u, err := app.API.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("first-name") {
				u.FirstName = mustGetString(cmd, "first-name")
			}
			if cmd.Flags().Changed("last-name") {
				u.LastName = mustGetString(cmd, "last-name")
			}
			if cmd.Flags().Changed("email") {
				u.Email = mustGetString(cmd, "email")
			}
			if cmd.Flags().Changed("role") {
				role, err := parseRole(mustGetString(cmd, "role"))
				if err != nil {
					return err
				}
				u.Role = role
			}
			saved, err := app.API.UpdateUser(cmd.Context(), *u)
			if err != nil {
				return err
			}
			return printOutput(cmd, saved, func(w io.Writer) { writeUsers(w, []models.User{*saved}) })
		},
	}
	c.Flags().String("first-name", "", "名")
	c.Flags().String("last-name", "", "姓")
	c.Flags().String("email", "", "邮箱")
	c.Flags().String("role", "", "角色: User / Editor / Admin")
	return withRoute(c, adminUsersRoute)
}

// parseRole 忽略大小写
func parseRole(s string) (models.Role, error) {
	for _, r := range models.AllRoles {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q (want User, Editor or Admin)", s)
}

func newUserDeleteCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "delete <id>",
		Short: "删除用户",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).API.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printMessage(cmd, "user %s deleted", args[0])
		},
	}
	return withRoute(c, adminUsersRoute)
}

func newUserRolesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "roles",
		Short: "列出可分配的角色",
		RunE: func(cmd *cobra.Command, args []string) error {
			roles, err := appFrom(cmd).API.ListRoles(cmd.Context())
			if err != nil {
				return err
			}
			return printOutput(cmd, roles, func(w io.Writer) {
				tw := table(w, "ID", "NAME")
				for _, r := range roles {
					row(tw, r.ID, r.Name)
				}
				_ = tw.Flush()
			})
		},
	}
	return withRoute(c, adminUsersRoute)
}
