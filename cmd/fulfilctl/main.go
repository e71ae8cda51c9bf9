// fulfilctl 发货服务运维命令行
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"fulfillment-service/internal/config"
	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/maintenance"
	"fulfillment-service/internal/objectstore"
	"fulfillment-service/internal/services"
	"fulfillment-service/internal/storage"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// cli 命令共享的运行环境
type cli struct {
	configPath string
	logLevel   string

	cfg   *config.Config
	log   logger.Logger
	store repositories.Store
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "fulfilctl",
		Short:        "发货服务运维工具",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "配置文件路径，默认读取CONFIG_PATH或config.yaml")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", logger.LevelWarn, "日志级别")

	root.AddCommand(
		c.tablesCmd(),
		c.resetCmd(),
		c.bucketCmd(),
		c.usersCmd(),
		c.seedCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	var err error
	c.log, err = logger.NewLogger(logger.Config{
		Level:       c.logLevel,
		ServiceName: "fulfilctl",
		Output:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	if c.configPath != "" {
		c.cfg, err = config.LoadFile(c.configPath)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	c.store, err = storage.Open(cmd.Context(), c.cfg.Database, c.log)
	return err
}

func (c *cli) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

// manager 创建运维管理器，启用对象存储时附带存储桶
func (c *cli) manager() (*maintenance.Manager, error) {
	if !c.cfg.Storage.Enabled {
		return maintenance.NewManager(c.store, nil, c.log), nil
	}

	bucket, err := objectstore.NewBucket(c.cfg.Storage)
	if err != nil {
		return nil, err
	}
	return maintenance.NewManager(c.store, bucket, c.log), nil
}

func (c *cli) tablesCmd() *cobra.Command {
	tables := &cobra.Command{
		Use:   "tables",
		Short: "管理数据表",
	}

	tables.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "创建所有数据表",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.manager()
			if err != nil {
				return err
			}
			if err := m.CreateAllTables(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "数据表已创建")
			return nil
		},
	}, &cobra.Command{
		Use:   "drop",
		Short: "删除所有数据表",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.manager()
			if err != nil {
				return err
			}
			if err := m.DropAllTables(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "数据表已删除")
			return nil
		},
	})
	return tables
}

func (c *cli) resetCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "清空存储桶并重建所有数据表",
		Long: `依次执行：清空存储桶（启用对象存储时）、删除数据表、创建数据表。
某一步失败后继续执行后续步骤，最后汇总所有错误。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("重置会删除全部数据，请使用 --yes 确认")
			}

			m, err := c.manager()
			if err != nil {
				return err
			}
			if err := m.ResetSystem(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "系统已重置")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "确认重置")
	return cmd
}

func (c *cli) bucketCmd() *cobra.Command {
	bucket := &cobra.Command{
		Use:   "bucket",
		Short: "管理对象存储",
	}

	bucket.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "删除存储桶中的所有对象",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.manager()
			if err != nil {
				return err
			}
			removed, err := m.ClearBucket(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已删除%d个对象\n", removed)
			return nil
		},
	})
	return bucket
}

func (c *cli) usersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "管理用户",
	}

	var dto entities.CreateUserDTO
	add := &cobra.Command{
		Use:   "add",
		Short: "创建用户",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dto.Name == "" {
				dto.Name = dto.Email
			}
			user, err := services.NewUserService(c.store.Users(), c.log).Create(cmd.Context(), dto)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已创建用户 %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	add.Flags().StringVar(&dto.Email, "email", "", "邮箱")
	add.Flags().StringVar(&dto.Password, "password", "", "密码，至少6位")
	add.Flags().StringVar(&dto.Name, "name", "", "姓名，默认为邮箱")
	add.Flags().StringVar(&dto.Role, "role", entities.RoleSales, "角色：admin/sales/warehouse")
	_ = add.MarkFlagRequired("email")
	_ = add.MarkFlagRequired("password")

	list := &cobra.Command{
		Use:   "list",
		Short: "列出所有用户",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := c.store.Users().List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tACTIVE")
			for _, u := range all {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", u.Email, u.Name, u.Role, u.IsActive)
			}
			return w.Flush()
		},
	}

	users.AddCommand(add, list)
	return users
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "写入演示数据，已有数据的表会被跳过",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.store.CreateTables(ctx); err != nil {
				return err
			}

			users := services.NewUserService(c.store.Users(), c.log)
			if err := services.NewSeeder(c.store, users, c.cfg.Seed.Password, c.log).Seed(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "演示数据已写入")
			return nil
		},
	}
}
