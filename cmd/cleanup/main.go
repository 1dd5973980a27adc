package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		dryRun      bool
		expireHours int
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "清理上传目录中没有分析记录的孤儿文件",
		Long: `扫描上传目录，删除早于 --expire-hours 且在 image_analysis_record 表中
没有对应记录的文件。这些文件来自写盘后分析或入库失败的请求。`,
		Example: `  cleanup                       # 只列出将被删除的文件
  cleanup --dry-run=false       # 实际删除
  cleanup --expire-hours 72 --config /etc/med/config.yaml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(cmd.Context(), cmd.OutOrStdout(), configPath, dryRun, expireHours)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "Dry run mode, don't actually delete files")
	cmd.Flags().IntVar(&expireHours, "expire-hours", 0, "Hours to keep orphan uploads (default: upload.orphan_expire_hours)")

	return cmd
}
