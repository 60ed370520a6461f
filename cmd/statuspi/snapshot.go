package main

import (
	"encoding/json"
	"fmt"

	"github.com/dushixiang/statuspi/internal/tui"
	"github.com/spf13/cobra"
)

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON bool
		top    int
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "采集一次快照并输出",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if top < 0 {
				top = cfg.Dashboard.TopProcesses
			}

			svc, cleanup := newLocalService(cfg, false)
			defer cleanup()

			snap, summary, err := svc.Summary(cmd.Context(), top)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.Render(snap, summary))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 格式输出完整快照")
	cmd.Flags().IntVarP(&top, "top", "n", -1, "展示的进程数，默认使用配置 Dashboard.TopProcesses，0 表示全部")
	return cmd
}
