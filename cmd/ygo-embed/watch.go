package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/ygo-embed/internal/watch"
)

var watchOutDir string

var watchCmd = &cobra.Command{
	Use:   "watch file...",
	Short: "Re-render posts whenever they change",
	Long: `Watch renders each post once, then again every time it is saved.

Markdown posts are written next to the source as <name>.html; HTML posts as
<name>.rendered.html. Use --out-dir to write them elsewhere.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		svc, err := newServices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		enhancer := newEnhancer(svc, cfg)
		stderr := cmd.ErrOrStderr()

		render := func(ctx context.Context, path string) error {
			format, err := resolveFormat(renderFormat, path, cfg)
			if err != nil {
				return err
			}
			report, err := renderFile(ctx, enhancer, path, outputPath(path, watchOutDir), format)
			if err != nil {
				return err
			}
			printReport(stderr, path, report)
			return nil
		}

		for _, path := range args {
			if err := render(cmd.Context(), path); err != nil {
				return fmt.Errorf("render %s: %w", path, err)
			}
		}

		w, err := watch.New(watch.Config{
			Paths:  args,
			Logger: slog.Default().With("component", "watch"),
		}, render)
		if err != nil {
			return err
		}

		fmt.Fprintf(stderr, "Watching %d file(s), press Ctrl+C to stop\n", len(args))
		if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&renderFormat, "format", "f", "", `Input format: "html" or "markdown" (default from extension or config)`)
	watchCmd.Flags().StringVar(&watchOutDir, "out-dir", "", "Directory for rendered posts (default next to each post)")
	watchCmd.Flags().BoolVar(&renderNoSanitize, "no-sanitize", false, "Skip HTML sanitization of posts")
}
