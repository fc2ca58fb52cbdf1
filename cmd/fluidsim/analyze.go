package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fluidsim/internal/analysis"
	"github.com/san-kum/fluidsim/internal/experiment"
	"github.com/san-kum/fluidsim/internal/export"
	"github.com/san-kum/fluidsim/internal/fluid"
)

func analyzeCommand() *cobra.Command {
	var (
		perturb   float64
		vortOut   string
		palette   string
		showPlots bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "energy spectrum, vorticity and perturbation growth of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			reg := experiment.NewRegistry()
			base, twin := experiment.New(cfg), experiment.New(cfg)
			if err := base.Setup(reg, nil); err != nil {
				return err
			}
			if err := twin.Setup(reg, nil); err != nil {
				return err
			}
			x, y := cfg.Center()
			if err := twin.Solver().AddDensity(x, y, perturb); err != nil {
				return err
			}

			fmt.Printf("analyzing %s (%s)...\n", title(cfg), base.Describe())
			rate, dist, err := analysis.Sensitivity(base.GetSimulator(), twin.GetSimulator(), cfg.Steps)
			if err != nil {
				return err
			}

			s := base.Solver()
			n := s.Size()
			u, v := s.Velocity()
			spectrum := analysis.EnergySpectrum(u, v, n)
			w := analysis.Vorticity(u, v, n)

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "  sensitivity\t%.4g /s\n", rate)
			fmt.Fprintf(tw, "  final separation\t%.4g\n", dist[len(dist)-1])
			fmt.Fprintf(tw, "  peak wavenumber\t%d\n", analysis.PeakWavenumber(spectrum))
			fmt.Fprintf(tw, "  enstrophy\t%.4g\n", analysis.Enstrophy(w, n))
			fmt.Fprintf(tw, "  max |vorticity|\t%.4g\n", analysis.MaxAbs(w))
			fmt.Fprintf(tw, "  max divergence\t%.3g\n", fluid.MaxDivergence(u, v, n))
			tw.Flush()

			if showPlots && len(spectrum) > 2 {
				logSpectrum := make([]float64, 0, len(spectrum)-1)
				for _, e := range spectrum[1:] {
					logSpectrum = append(logSpectrum, math.Log10(e+1e-12))
				}
				fmt.Println()
				fmt.Println(asciigraph.Plot(logSpectrum, asciigraph.Height(10), asciigraph.Width(60),
					asciigraph.Caption("log10 E(k), k = 1..")))
				fmt.Println()
				fmt.Println(asciigraph.Plot(dist, asciigraph.Height(8), asciigraph.Width(60),
					asciigraph.Caption("density separation per step")))
			}

			if vortOut != "" {
				pal, err := export.NewPalette(palette)
				if err != nil {
					return err
				}
				mag := make(fluid.Field, len(w))
				for k, val := range w {
					mag[k] = math.Abs(val)
				}
				f, err := os.Create(vortOut)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := pal.WritePNG(f, export.Frame{N: n, Density: mag}, export.ImageOptions{Label: "|vorticity|"}); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", vortOut)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&perturb, "perturb", 1, "density added at the emitter cell of the twin run")
	cmd.Flags().StringVar(&vortOut, "vorticity-png", "", "write |vorticity| as PNG")
	cmd.Flags().StringVar(&palette, "palette", "magma", "colour map for --vorticity-png")
	cmd.Flags().BoolVar(&showPlots, "plot", true, "draw spectrum and separation charts")
	return cmd
}
