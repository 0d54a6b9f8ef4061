// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/lintcage/lintcage/internal/dag"
	"github.com/lintcage/lintcage/pkg/container"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

type (
	// inspectReport describes a container.
	inspectReport struct {
		Path       string          `json:"path" yaml:"path" toml:"path"`
		Digest     string          `json:"digest" yaml:"digest" toml:"digest"`
		Compressed bool            `json:"compressed" yaml:"compressed" toml:"compressed"`
		Size       int             `json:"size" yaml:"size" toml:"size"`
		Units      []inspectedUnit `json:"units" yaml:"units" toml:"units"`
		// LoadOrder lists units with every dependency before its dependents.
		// It is empty when the container has reference cycles.
		LoadOrder []string `json:"load_order,omitempty" yaml:"load_order,omitempty" toml:"load_order,omitempty"`
		// Cycles lists the groups of units that reference each other.
		Cycles [][]string `json:"cycles,omitempty" yaml:"cycles,omitempty" toml:"cycles,omitempty"`
	}

	inspectedUnit struct {
		Name         string            `json:"name" yaml:"name" toml:"name"`
		Size         int               `json:"size" yaml:"size" toml:"size"`
		Dependencies map[string]string `json:"dependencies,omitempty" yaml:"dependencies,omitempty" toml:"dependencies,omitempty"`
	}
)

func newInspectCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect [container]",
		Short: "List the units, digest and reference cycles of a container",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			path, err := app.containerPath(path)
			if err != nil {
				return app.fail(err)
			}
			loaded, err := app.readContainer(path)
			if err != nil {
				return app.fail(err)
			}
			if err := writeReport(app.stdout, buildReport(loaded), format); err != nil {
				return app.fail(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json, yaml or toml")
	return cmd
}

// buildReport summarizes a loaded container.
func buildReport(loaded *loadedContainer) inspectReport {
	report := inspectReport{
		Path:       loaded.Path,
		Digest:     container.Digest(loaded.Raw),
		Compressed: loaded.Compressed,
		Size:       len(loaded.Raw),
		Units:      make([]inspectedUnit, 0, len(loaded.Units)),
	}

	graph := dag.New()
	for _, u := range loaded.Units {
		graph.AddNode(u.Name)
		for _, dep := range u.Dependencies {
			graph.AddEdge(u.Name, dep.Target)
		}
		report.Units = append(report.Units, inspectedUnit{
			Name:         u.Name,
			Size:         len(u.Content),
			Dependencies: u.DependencyMap(),
		})
	}

	order, err := graph.TopologicalSort()
	var cycleErr *dag.CycleError
	switch {
	case err == nil:
		slices.Reverse(order)
		report.LoadOrder = order
	case errors.As(err, &cycleErr):
		report.Cycles = graph.Cycles()
	}
	return report
}

func writeReport(w io.Writer, report inspectReport, format string) error {
	switch strings.ToLower(format) {
	case formatText:
		writeTextReport(w, report)
		return nil
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case formatTOML:
		return toml.NewEncoder(w).Encode(report)
	default:
		return fmt.Errorf("unknown format %q (want %s, %s, %s or %s)", format, formatText, formatJSON, formatYAML, formatTOML)
	}
}

func writeTextReport(w io.Writer, report inspectReport) {
	fmt.Fprintln(w, TitleStyle.Render("Container"))
	fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("path:      "), report.Path)
	fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("digest:    "), report.Digest)
	fmt.Fprintf(w, "  %s %v\n", SubtitleStyle.Render("compressed:"), report.Compressed)
	fmt.Fprintf(w, "  %s %d bytes\n", SubtitleStyle.Render("size:      "), report.Size)
	fmt.Fprintln(w)

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Units (%d)", len(report.Units))))
	for _, u := range report.Units {
		fmt.Fprintf(w, "%s  %s %s\n", sizeStyle.Render(fmt.Sprint(u.Size)), CmdStyle.Render(u.Name),
			SubtitleStyle.Render(fmt.Sprintf("(%d deps)", len(u.Dependencies))))
	}

	if len(report.LoadOrder) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Load order"))
		for i, name := range report.LoadOrder {
			fmt.Fprintf(w, "%s  %s\n", sizeStyle.Render(fmt.Sprint(i+1)), name)
		}
	}

	if len(report.Cycles) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("Reference cycles (%d)", len(report.Cycles))))
	for _, cycle := range report.Cycles {
		fmt.Fprintf(w, "  %s\n", strings.Join(cycle, " -> "))
	}
}
