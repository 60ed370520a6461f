package main

import (
	"time"

	"github.com/dushixiang/statuspi/internal/handler"
	"github.com/dushixiang/statuspi/internal/tui"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var refresh string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "在终端中实时查看主机状态",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			svc, cleanup := newLocalService(cfg, true)
			defer cleanup()

			refreshOpts := handler.RefreshOptions{
				Default: cfg.Dashboard.DefaultRefresh,
				Min:     cfg.Dashboard.MinRefresh,
			}
			minimum := time.Duration(max(cfg.Dashboard.MinRefresh, 1)) * time.Second
			return tui.Run(svc, refreshOpts.Clamp(refresh), minimum, cfg.Dashboard.TopProcesses)
		},
	}
	cmd.Flags().StringVarP(&refresh, "refresh", "r", "", "刷新间隔（秒），不低于 Dashboard.MinRefresh")
	return cmd
}
