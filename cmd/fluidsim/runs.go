package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fluidsim/internal/export"
)

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			runs, err := st.List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMITTER\tN\tDT\tDIFFUSION\tVISCOSITY\tSTEPS\tMASS\tTIMESTAMP")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%g\t%g\t%d\t%.4g\t%s\n",
					r.ID, r.Name, r.Emitter, r.Size, r.Dt, r.Diffusion, r.Viscosity,
					r.StepsTaken, r.Metrics["mass"], r.Timestamp.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func sortedKeys(m map[string][]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func plotCommand() *cobra.Command {
	var (
		metric string
		pngOut string
		svgOut string
	)
	cmd := &cobra.Command{
		Use:   "plot [run]",
		Short: "plot metric series of a run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			id, err := runID(st, args)
			if err != nil {
				return err
			}
			series, times, err := st.LoadSeries(id)
			if err != nil {
				return err
			}

			names := sortedKeys(series)
			if metric != "" {
				if _, ok := series[metric]; !ok {
					return fmt.Errorf("run %s has no metric %q (have %s)", id, metric, strings.Join(names, ", "))
				}
				names = []string{metric}
			}

			if pngOut != "" || svgOut != "" {
				name := names[0]
				if pngOut != "" {
					f, err := os.Create(pngOut)
					if err != nil {
						return err
					}
					defer f.Close()
					if err := export.ChartPNG(f, name, times, series[name]); err != nil {
						return err
					}
					fmt.Printf("wrote %s chart to %s\n", name, pngOut)
				}
				if svgOut != "" {
					svg := export.SeriesSVG(times, series[name], 800, 300, "#00c878")
					if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
						return err
					}
					fmt.Printf("wrote %s chart to %s\n", name, svgOut)
				}
				return nil
			}

			for _, name := range names {
				data := series[name]
				if len(data) == 0 {
					continue
				}
				fmt.Println(asciigraph.Plot(data,
					asciigraph.Height(10),
					asciigraph.Width(80),
					asciigraph.Caption(name)))
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metric, "metric", "", "plot only this metric")
	cmd.Flags().StringVar(&pngOut, "png", "", "write a PNG chart of the metric instead")
	cmd.Flags().StringVar(&svgOut, "svg", "", "write an SVG chart of the metric instead")
	return cmd
}

func exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [run]",
		Short: "export a run as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			id, err := runID(st, args)
			if err != nil {
				return err
			}
			return st.ExportJSON(os.Stdout, id)
		},
	}
}

func exportCSVCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-csv [run]",
		Short: "export the metric series of a run as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			id, err := runID(st, args)
			if err != nil {
				return err
			}
			series, times, err := st.LoadSeries(id)
			if err != nil {
				return err
			}

			dst := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				dst = f
			}

			names := sortedKeys(series)
			w := csv.NewWriter(dst)
			w.Write(append([]string{"time"}, names...))
			for k, t := range times {
				row := []string{strconv.FormatFloat(t, 'g', -1, 64)}
				for _, name := range names {
					row = append(row, strconv.FormatFloat(series[name][k], 'g', -1, 64))
				}
				w.Write(row)
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(os.Stderr, "exported %d rows to %s\n", len(times), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (stdout by default)")
	return cmd
}

func renderCommand() *cobra.Command {
	var (
		pngOut, svgOut, plotOut string
		text                    bool
		palette                 string
		scale                   int
		snapshot                int
	)
	cmd := &cobra.Command{
		Use:   "render [run]",
		Short: "render the final density of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			id, err := runID(st, args)
			if err != nil {
				return err
			}
			field, n, err := st.LoadDensity(id)
			if err != nil {
				return err
			}
			label := id
			if snapshot >= 0 {
				snaps, err := st.LoadSnapshots(id)
				if err != nil {
					return err
				}
				if snapshot >= len(snaps) {
					return fmt.Errorf("run %s has %d snapshots", id, len(snaps))
				}
				field = snaps[snapshot].Density
				label = fmt.Sprintf("%s step %d", id, snaps[snapshot].Step)
			}

			if text {
				fmt.Print(field.Format(n))
			}
			if pngOut == "" && svgOut == "" && plotOut == "" {
				if !text {
					return fmt.Errorf("choose an output: --png, --svg, --plot or --text")
				}
				return nil
			}

			pal, err := export.NewPalette(palette)
			if err != nil {
				return err
			}
			frame := export.Frame{N: n, Density: field}
			opts := export.ImageOptions{Scale: scale, Label: label}

			if pngOut != "" {
				f, err := os.Create(pngOut)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := pal.WritePNG(f, frame, opts); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "wrote %s\n", pngOut)
			}
			if svgOut != "" {
				if err := os.WriteFile(svgOut, []byte(pal.DensitySVG(frame, opts)), 0644); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "wrote %s\n", svgOut)
			}
			if plotOut != "" {
				if err := export.HeatmapPlot(plotOut, label, field, n); err != nil {
					return fmt.Errorf("plot %s: %w", filepath.Base(plotOut), err)
				}
				fmt.Fprintf(os.Stderr, "wrote %s\n", plotOut)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pngOut, "png", "", "PNG output path")
	cmd.Flags().StringVar(&svgOut, "svg", "", "SVG output path")
	cmd.Flags().StringVar(&plotOut, "plot", "", "axis-labelled heatmap (png, svg or pdf by extension)")
	cmd.Flags().BoolVar(&text, "text", false, "print the field as text rows")
	cmd.Flags().StringVar(&palette, "palette", "viridis", "colour map ("+strings.Join(export.ListPalettes(), ", ")+")")
	cmd.Flags().IntVar(&scale, "scale", 8, "pixels per cell")
	cmd.Flags().IntVar(&snapshot, "snapshot", -1, "render snapshot k instead of the final field")
	return cmd
}
