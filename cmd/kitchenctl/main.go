// Package main provides kitchenctl, a headless companion to the kitchen
// configurator. It lists the zone membership of a layout and applies
// selections to it, printing JSON.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/chazu/kitchenkit/pkg/apply"
	"github.com/chazu/kitchenkit/pkg/engine"
	"github.com/chazu/kitchenkit/pkg/material"
	"github.com/chazu/kitchenkit/pkg/scene"
	"github.com/chazu/kitchenkit/pkg/zone"
)

const (
	Version = "0.1.0"
	appName = "kitchenctl"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globals are the flags shared by every subcommand.
type globals struct {
	catalogPath string
	logLevel    string
}

func (g *globals) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(g.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (g *globals) catalog() (*material.Catalog, error) {
	if g.catalogPath == "" {
		return material.DefaultCatalog(), nil
	}
	return material.LoadCatalog(g.catalogPath)
}

func rootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Inspect and customize kitchen layouts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.catalogPath, "catalog", "", "Material catalog YAML merged over the built-in one")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(zonesCmd(g), applyCmd(g))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

// loadScene evaluates the layout file at path.
func loadScene(path string, logger *slog.Logger) (*scene.Scene, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	res, err := engine.NewEngine(logger).Evaluate(string(src))
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", path, err)
	}
	for _, w := range res.Warnings {
		logger.Warn("Layout warning", slog.String("warning", w.String()))
	}
	if len(res.Errors) > 0 {
		msgs := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("%s: %s", path, strings.Join(msgs, "; "))
	}
	return res.Scene, nil
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

func names(nodes []*scene.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

type zonesOutput struct {
	Cabinet             []string `json:"cabinet"`
	Countertop          []string `json:"countertop"`
	Handle              []string `json:"handle"`
	MissingCabinetParts []string `json:"missingCabinetParts"`
}

func zonesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "zones <layout>",
		Short: "List the nodes of each zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger(cmd.ErrOrStderr())
			cat, err := g.catalog()
			if err != nil {
				return err
			}
			s, err := loadScene(args[0], logger)
			if err != nil {
				return err
			}

			t := zone.NewIndex(cat.CabinetParts, logger).Targets(s)
			return writeJSON(cmd.OutOrStdout(), zonesOutput{
				Cabinet:             names(t.Cabinet),
				Countertop:          names(t.Countertop),
				Handle:              names(t.Handle),
				MissingCabinetParts: append([]string{}, t.MissingCabinetParts...),
			})
		},
	}
}

type nodeOutput struct {
	Name     string          `json:"name"`
	Visible  bool            `json:"visible"`
	Material *scene.Material `json:"material"`
}

type applyOutput struct {
	Config apply.Config `json:"config"`
	Result apply.Result `json:"result"`
	Nodes  []nodeOutput `json:"nodes"`
}

func applyCmd(g *globals) *cobra.Command {
	var (
		zoneName    string
		color       string
		key         string
		hideHandles bool
	)

	cmd := &cobra.Command{
		Use:   "apply <layout>",
		Short: "Apply a selection to a layout and print the result",
		Long: `Apply evaluates the layout, applies one zone selection (a flat colour
or a raw material key) and prints the resulting configuration, the per-zone
result and the appearance of every zoned node.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger(cmd.ErrOrStderr())
			z, err := zone.Parse(zoneName)
			if err != nil {
				return err
			}
			cat, err := g.catalog()
			if err != nil {
				return err
			}
			s, err := loadScene(args[0], logger)
			if err != nil {
				return err
			}

			req := apply.Request{Zone: z, Color: color, Key: key}
			if hideHandles {
				visible := false
				req.HandlesVisible = &visible
			}
			cfg, err := apply.DefaultConfig().Select(req)
			if err != nil {
				return err
			}

			a := apply.NewFromCatalog(cat, logger)
			res := a.ApplyCustomization(s, s.Library, cfg)

			out := applyOutput{Config: cfg, Result: res, Nodes: []nodeOutput{}}
			t := a.Index().Targets(s)
			for _, zz := range zone.All {
				for _, n := range t.For(zz) {
					out.Nodes = append(out.Nodes, nodeOutput{Name: n.Name, Visible: n.Visible, Material: n.Material})
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&zoneName, "zone", "", "Zone to customize (cabinet, countertop, handle)")
	cmd.Flags().StringVar(&color, "color", "", "Flat paint colour as #rrggbb")
	cmd.Flags().StringVar(&key, "key", "", "Raw material key, e.g. marble")
	cmd.Flags().BoolVar(&hideHandles, "hide-handles", false, "Hide all handles")
	_ = cmd.MarkFlagRequired("zone")
	cmd.MarkFlagsMutuallyExclusive("color", "key")
	return cmd
}
