package main

import (
	"errors"
	"fmt"

	"github.com/dushixiang/statuspi/internal/config"
	goerrors "github.com/go-errors/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Version 构建时通过 -ldflags 注入
var Version = "dev"

type rootOptions struct {
	configPath string
	fs         afero.Fs
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:           "statuspi",
		Short:         "Raspberry Pi 主机状态面板",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", fmt.Sprintf("配置文件路径 (默认 %s，不存在时使用内置默认值)", config.DefaultPath))

	cmd.AddCommand(
		newServeCmd(opts),
		newSnapshotCmd(opts),
		newWatchCmd(opts),
		newServiceCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// loadConfig 未指定配置文件时尝试默认路径
func (o *rootOptions) loadConfig() (*config.AppConfig, error) {
	path := o.configPath
	if path == "" {
		if ok, _ := afero.Exists(o.fs, config.DefaultPath); ok {
			path = config.DefaultPath
		}
	}
	return config.Load(o.fs, path)
}

// printError 输出命令错误，带调用栈的错误打印完整调用栈
func printError(cmd *cobra.Command, err error) {
	var stackErr *goerrors.Error
	if errors.As(err, &stackErr) {
		cmd.PrintErrln(stackErr.ErrorStack())
		return
	}
	cmd.PrintErrln("错误:", err)
}
