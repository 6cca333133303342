package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/ygo-embed/internal/config"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/markup"
)

var (
	renderFormat     string
	renderOutput     string
	renderNoSanitize bool
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render card markup in a post",
	Long: `Render replaces the card markup of a post with rendered card embeds,
decklists and hover references, and writes the resulting HTML.

The post is read from the given file, or from stdin when no file or "-" is
given. Markdown input is converted to HTML first; the format is guessed from
the file extension unless --format is set.

Examples:
  ygo-embed render post.html > post.rendered.html
  ygo-embed render --output public/post.html post.md
  cat post.md | ygo-embed render --format markdown`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		input := "-"
		if len(args) == 1 {
			input = args[0]
		}
		format, err := resolveFormat(renderFormat, input, cfg)
		if err != nil {
			return err
		}

		svc, err := newServices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		enhancer := newEnhancer(svc, cfg)

		var in io.Reader = cmd.InOrStdin()
		if input != "-" {
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("open post: %w", err)
			}
			defer f.Close()
			in = f
		}

		var out io.Writer = cmd.OutOrStdout()
		if renderOutput != "" {
			f, err := os.Create(renderOutput)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}

		report, err := enhancer.Enhance(cmd.Context(), in, out, format)
		if err != nil {
			return err
		}
		printReport(cmd.ErrOrStderr(), displayName(input), report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", `Input format: "html" or "markdown" (default from extension or config)`)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Write the rendered post to a file instead of stdout")
	renderCmd.Flags().BoolVar(&renderNoSanitize, "no-sanitize", false, "Skip HTML sanitization of the post")
}

func newEnhancer(svc *services, cfg *config.Config) *markup.Enhancer {
	return markup.NewEnhancer(svc.lookup, markup.Options{
		Sanitize: cfg.Render.Sanitize && !renderNoSanitize,
	})
}

// resolveFormat picks the input format: the flag, then the file extension,
// then the configured default.
func resolveFormat(flag, path string, cfg *config.Config) (markup.Format, error) {
	name := flag
	if name == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".markdown":
			name = "markdown"
		case ".html", ".htm":
			name = "html"
		default:
			name = cfg.Render.Format
		}
	}

	switch name {
	case "html":
		return markup.FormatHTML, nil
	case "markdown", "md":
		return markup.FormatMarkdown, nil
	default:
		return 0, fmt.Errorf("unknown format %q", name)
	}
}

// renderFile renders src into dst.
func renderFile(ctx context.Context, enhancer *markup.Enhancer, src, dst string, format markup.Format) (*markup.Report, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open post: %w", err)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	report, err := enhancer.Enhance(ctx, in, out, format)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	return report, nil
}

// outputPath derives the rendered file name of a post.
func outputPath(src, dir string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".html"
	if dir == "" {
		dir = filepath.Dir(src)
		if !strings.EqualFold(filepath.Ext(src), ".md") && !strings.EqualFold(filepath.Ext(src), ".markdown") {
			base = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".rendered.html"
		}
	}
	return filepath.Join(dir, base)
}

func displayName(input string) string {
	if input == "-" {
		return "stdin"
	}
	return input
}
