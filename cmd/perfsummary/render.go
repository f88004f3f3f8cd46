package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/ethpandaops/perfsummary/pkg/config"
	"github.com/ethpandaops/perfsummary/pkg/upload"
	"github.com/ethpandaops/perfsummary/pkg/widget"
	"github.com/spf13/cobra"
)

var (
	renderOutput  string
	renderPublish bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the widget once and write the HTML fragment",
	Long: `Retrieve the performance document, render the widget and write the
resulting HTML fragment to stdout or to --output. A missing or invalid
document produces the "not available" panel, not an error.

With --publish the fragment is written back to the source backend at
widget.publish_path, next to the document it was rendered from.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "",
		"output file path (default stdout)")
	renderCmd.Flags().BoolVar(&renderPublish, "publish", false,
		"write the fragment to widget.publish_path on the source backend")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	registry, err := widget.NewRegistryFromConfig(log, cfg, nil)
	if err != nil {
		return err
	}

	reg, ok := registry.Lookup(cfg.Widget.ID)
	if !ok {
		return fmt.Errorf("widget %q is not registered", cfg.Widget.ID)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	panel := reg.Renderer.Render(ctx)
	if err := panel.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for widget: %w", err)
	}

	log.WithField("widget", panel.ID()).
		WithField("state", panel.State().String()).
		Info("Widget rendered")

	var buf bytes.Buffer
	if err := panel.Render(&buf); err != nil {
		return err
	}

	buf.WriteByte('\n')

	if renderPublish {
		if err := publish(ctx, cfg.Widget.PublishPath, &cfg.Source, buf.Bytes()); err != nil {
			return err
		}

		if renderOutput == "" {
			return nil
		}
	}

	if renderOutput == "" {
		_, err := os.Stdout.Write(buf.Bytes())

		return err
	}

	if err := os.WriteFile(renderOutput, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	return nil
}

func publish(ctx context.Context, filePath string, cfg *config.SourceConfig, data []byte) error {
	uploader, err := upload.New(log, cfg)
	if err != nil {
		return fmt.Errorf("creating uploader: %w", err)
	}

	if err := uploader.Preflight(ctx); err != nil {
		return fmt.Errorf("upload preflight: %w", err)
	}

	if err := uploader.Upload(ctx, filePath, data); err != nil {
		return fmt.Errorf("publishing fragment: %w", err)
	}

	log.WithField("destination", uploader.Describe()).
		WithField("path", filePath).
		Info("Fragment published")

	return nil
}
