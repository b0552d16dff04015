package sim

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	positionColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	angleColor    = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// NewTrajectoryPlots creates two plots of the trajectory tr:
// configuration: cart position x and pendulum angle theta over time
// velocity:      their time derivatives over time
// It returns error if the trajectory is nil or empty or if gonum plot fails to be created.
func NewTrajectoryPlots(tr *Trajectory) (*plot.Plot, *plot.Plot, error) {
	if tr == nil || tr.Len() == 0 || tr.States == nil {
		return nil, nil, fmt.Errorf("invalid trajectory supplied")
	}

	if r, c := tr.States.Dims(); r != tr.Len() || c < 4 {
		return nil, nil, fmt.Errorf("invalid trajectory dimensions: [%d x %d]", r, c)
	}

	config, err := newTimePlot("Configuration", tr, [2]int{0, 1}, [2]string{"x", "theta"})
	if err != nil {
		return nil, nil, err
	}

	velocity, err := newTimePlot("Velocity", tr, [2]int{2, 3}, [2]string{"dx", "dtheta"})
	if err != nil {
		return nil, nil, err
	}

	return config, velocity, nil
}

func newTimePlot(title string, tr *Trajectory, cols [2]int, names [2]string) (*plot.Plot, error) {
	p := plot.New()

	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Legend.Top = true

	for i, clr := range []color.Color{positionColor, angleColor} {
		line, err := plotter.NewLine(makePoints(tr.Times, mat.Col(nil, cols[i], tr.States)))
		if err != nil {
			return nil, fmt.Errorf("failed to create line: %v", err)
		}
		line.LineStyle.Color = clr
		line.LineStyle.Width = vg.Points(1)

		p.Add(line)
		p.Legend.Add(names[i], line)
	}

	return p, nil
}

// WriteTrajectoryPlot renders both trajectory plots side by side as a PNG image of size w x h into out.
func WriteTrajectoryPlot(out io.Writer, tr *Trajectory, w, h vg.Length) error {
	config, velocity, err := NewTrajectoryPlots(tr)
	if err != nil {
		return err
	}

	img := vgimg.New(w, h)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows: 1,
		Cols: 2,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}

	canvases := plot.Align([][]*plot.Plot{{config, velocity}}, tiles, dc)
	config.Draw(canvases[0][0])
	velocity.Draw(canvases[0][1])

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write png: %v", err)
	}

	return nil
}

// SaveTrajectoryPlot renders both trajectory plots into a PNG file stored in path.
func SaveTrajectoryPlot(tr *Trajectory, w, h vg.Length, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := WriteTrajectoryPlot(f, tr, w, h); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func makePoints(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range pts {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}

	return pts
}
