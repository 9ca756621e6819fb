package fill

import (
	"laserresist/pkg/geometry"
)

// addPadMarkers appends a marker path at the center of every terminal
// pad region, guaranteeing center-of-pad exposure regardless of how the
// surrounding rings landed. Near-circular pads get a small circle,
// everything else a "+" of two strokes.
func (g *generator) addPadMarkers() {
	for _, t := range g.terminal {
		b := t.poly.Bounds()
		center := b.Center()

		if circularity(t.poly.Outer) >= 0.8 {
			radius := g.opts.LineSpacing / 2
			g.emitClosed(t.root, PadMarker,
				geometry.GenerateCirclePoints(center.X, center.Y, radius, 16))
			continue
		}

		halfW := b.Width / 4
		halfH := b.Height / 4
		g.emitOpen(t.root, PadMarker, []geometry.Point2D{
			{X: center.X - halfW, Y: center.Y},
			{X: center.X + halfW, Y: center.Y},
		})
		g.emitOpen(t.root, PadMarker, []geometry.Point2D{
			{X: center.X, Y: center.Y - halfH},
			{X: center.X, Y: center.Y + halfH},
		})
	}
}
