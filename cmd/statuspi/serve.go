package main

import (
	"github.com/dushixiang/statuspi/pkg/agent/service"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 状态面板",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			mgr, err := service.NewServiceManager(cfg)
			if err != nil {
				return err
			}
			return mgr.Run()
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "监听地址，覆盖配置文件中的 Server.Addr")
	return cmd
}
