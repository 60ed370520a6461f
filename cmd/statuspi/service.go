package main

import (
	"fmt"

	"github.com/dushixiang/statuspi/pkg/agent/service"
	"github.com/spf13/cobra"
)

func newServiceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "管理系统服务",
	}

	// 每个子命令对应 ServiceManager 的一个操作
	actions := []struct {
		use   string
		short string
		done  string
		run   func(*service.ServiceManager) error
	}{
		{"install", "安装为系统服务", "服务安装成功", (*service.ServiceManager).Install},
		{"uninstall", "卸载系统服务", "服务卸载成功", (*service.ServiceManager).Uninstall},
		{"start", "启动服务", "服务启动成功", (*service.ServiceManager).Start},
		{"stop", "停止服务", "服务已停止", (*service.ServiceManager).Stop},
		{"restart", "重启服务", "服务重启成功", (*service.ServiceManager).Restart},
		{"run", "运行服务（由服务管理器调用）", "", (*service.ServiceManager).Run},
	}
	for _, a := range actions {
		cmd.AddCommand(&cobra.Command{
			Use:   a.use,
			Short: a.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				mgr, err := newServiceManager(opts)
				if err != nil {
					return err
				}
				if err := a.run(mgr); err != nil {
					return err
				}
				if a.done != "" {
					fmt.Fprintln(cmd.OutOrStdout(), a.done)
				}
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "查看服务状态",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newServiceManager(opts)
			if err != nil {
				return err
			}
			status, err := mgr.Status()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "服务状态:", status)
			return nil
		},
	})
	return cmd
}

func newServiceManager(opts *rootOptions) (*service.ServiceManager, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	return service.NewServiceManager(cfg)
}
