package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-profile/command"
	"github.com/goliatone/go-profile/config"
	"github.com/goliatone/go-profile/profile"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

type rootOptions struct {
	configPath string
	debug      bool
}

// newRootCommand creates the root cobra command.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "profile",
		Short: "Serve and export a profile page",
		Long: `profile renders one profile in two modes: an interactive page with
copyable contact details and an install banner, and a printable export
document produced as HTML, PDF or XLSX.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: ./profile.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Debug logging")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newRenderCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newCopyCommand(opts))
	rootCmd.AddCommand(newPruneCommand(opts))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

func (o *rootOptions) app(ctx context.Context, appOpts AppOptions) (*App, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger := NewConsoleLogger("go-profile", os.Stderr)
	logger.SetDebug(o.debug)
	return NewApp(ctx, cfg, logger, appOpts)
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive page and the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd.Context(), AppOptions{})
			if err != nil {
				return err
			}
			defer app.Close()
			if port != "" {
				app.Config.Server.Port = port
			}
			return serve(cmd.Context(), app)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides config)")
	return cmd
}

func newRenderCommand(opts *rootOptions) *cobra.Command {
	var (
		mode  string
		out   string
		width int
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the page as HTML",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd.Context(), AppOptions{})
			if err != nil {
				return err
			}
			defer app.Close()

			renderer := app.Page
			switch profile.RenderMode(mode) {
			case profile.ModeInteractive:
			case profile.ModeExport:
				renderer = app.Preview
			default:
				return fmt.Errorf("unknown mode %q", mode)
			}

			ctx, cancel := withTimeout(cmd.Context(), app.Config.PDF.Timeout)
			defer cancel()
			page, _, err := app.Service.Page(ctx, "cli", width)
			if err != nil {
				return err
			}
			w, closeOut, err := outputWriter(cmd.OutOrStdout(), out)
			if err != nil {
				return err
			}
			defer closeOut()
			stats, err := renderer.Render(ctx, page, w)
			if err != nil {
				return err
			}
			app.Logger.Debugf("rendered %d bytes", stats.Bytes)
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(profile.ModeInteractive), "interactive or export")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "Viewport width in pixels")
	return cmd
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the profile document",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd.Context(), AppOptions{})
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := withTimeout(cmd.Context(), app.Config.PDF.Timeout)
			defer cancel()
			result, err := dispatcher.DispatchWithResult[command.ExportProfile, profile.ExportResult](ctx, command.ExportProfile{
				SessionID: "cli",
				Format:    profile.Format(format),
			})
			if err != nil {
				return err
			}

			target := out
			if target == "" {
				target = result.Filename
			} else if info, err := os.Stat(target); err == nil && info.IsDir() {
				target = filepath.Join(target, result.Filename)
			}
			if err := os.WriteFile(target, result.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", target, len(result.Data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(profile.FormatPDF), "pdf, xlsx or html")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file or directory (default: generated filename)")
	return cmd
}

func newCopyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <label>",
		Short: "Copy a contact detail to the system clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd.Context(), AppOptions{SystemClipboard: true})
			if err != nil {
				return err
			}
			defer app.Close()

			var view profile.CopyView
			ctx := cmd.Context()
			for _, event := range []command.CopyEvent{command.CopyEnter, command.CopyWrite} {
				err := dispatcher.Dispatch(ctx, command.CopyField{
					SessionID: "cli",
					Label:     args[0],
					Event:     event,
					Result:    &view,
				})
				if err != nil {
					return err
				}
			}
			if view.Status != profile.CopyCopied {
				return fmt.Errorf("%q is not a copyable detail", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %s\n", args[0])
			return nil
		},
	}
}

func newPruneCommand(opts *rootOptions) *cobra.Command {
	var maxAge time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired export artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd.Context(), AppOptions{})
			if err != nil {
				return err
			}
			defer app.Close()
			if maxAge <= 0 {
				maxAge = app.Config.Export.MaxAge
			}
			removed, err := dispatcher.DispatchWithResult[command.PruneArtifacts, []string](cmd.Context(), command.PruneArtifacts{MaxAge: maxAge})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d artifacts\n", len(removed))
			if len(removed) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(removed, "\n"))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Remove artifacts older than this (default: export.max_age)")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", Version)
		},
	}
}

func outputWriter(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
