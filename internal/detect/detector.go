// Package detect discovers rectangular field regions directly from a
// rendered page image. It is the fallback when a document carries no
// machine-readable field list: fillable areas are usually rendered as
// bright or pale-yellow patches, so the detector downsamples the page,
// flood-fills connected candidate cells, and merges the resulting
// boxes into reading order.
package detect

import (
	"image"
	"sort"

	"github.com/formfieldlabs/formfield/internal/geometry"
	"github.com/formfieldlabs/formfield/internal/orientation"
)

const (
	// brightThreshold marks a sampled pixel as a field-background
	// candidate by luminance.
	brightThreshold = 220

	// minBoxW/minBoxH filter noise and antialiasing artifacts at
	// native page resolution.
	minBoxW = 40
	minBoxH = 10

	// mergeIoU is the overlap ratio above which two boxes are
	// collapsed into their union.
	mergeIoU = 0.15
)

// Box is a detected field region in native page-render pixel space.
// Detector-origin boxes carry no semantic label; callers surface them
// as custom-field placeholders.
type Box struct {
	geometry.Rect
}

// Boxes runs field discovery over a rendered page image and returns
// surviving boxes sorted top-to-bottom, then left-to-right. An empty
// result is a valid outcome, not an error.
func Boxes(img image.Image) []Box {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	cw, ch := bounds.Dx(), bounds.Dy()
	if cw == 0 || ch == 0 {
		return nil
	}

	// Adaptive cell size keeps the grid roughly bounded regardless of
	// page resolution.
	step := min(cw, ch) / 200
	if step < 4 {
		step = 4
	}
	gw, gh := cw/step, ch/step
	if gw == 0 || gh == 0 {
		return nil
	}

	grid := make([]bool, gw*gh)
	for gy := 0; gy < gh; gy++ {
		for gx := 0; gx < gw; gx++ {
			px := bounds.Min.X + min(cw-1, gx*step)
			py := bounds.Min.Y + min(ch-1, gy*step)
			r, g, b, a := img.At(px, py).RGBA()
			lum := orientation.Luminance(r, g, b, a)
			r8, g8, b8 := r>>8, g>>8, b>>8
			// Pale yellow is the other common fill-field rendering.
			yellow := r8 > 200 && g8 > 180 && b8 < 180
			if lum > brightThreshold || yellow {
				grid[gy*gw+gx] = true
			}
		}
	}

	boxes := components(grid, gw, gh, step, cw, ch)
	if len(boxes) == 0 {
		return nil
	}
	boxes = mergeOverlapping(boxes)

	sort.Slice(boxes, func(i, j int) bool {
		if boxes[i].Y != boxes[j].Y {
			return boxes[i].Y < boxes[j].Y
		}
		return boxes[i].X < boxes[j].X
	})
	return boxes
}

// components flood-fills 4-connected candidate cells and converts each
// component's grid bounding box back to pixel space, dropping anything
// smaller than the minimum field size.
func components(grid []bool, gw, gh, step, cw, ch int) []Box {
	visited := make([]bool, len(grid))
	var boxes []Box
	var queue []int

	for y := 0; y < gh; y++ {
		for x := 0; x < gw; x++ {
			idx := y*gw + x
			if visited[idx] || !grid[idx] {
				continue
			}
			minX, maxX, minY, maxY := x, x, y, y
			visited[idx] = true
			queue = append(queue[:0], idx)
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				cx, cy := cur%gw, cur/gw
				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || nx >= gw || ny < 0 || ny >= gh {
						continue
					}
					ni := ny*gw + nx
					if visited[ni] || !grid[ni] {
						continue
					}
					visited[ni] = true
					queue = append(queue, ni)
					minX, maxX = min(minX, nx), max(maxX, nx)
					minY, maxY = min(minY, ny), max(maxY, ny)
				}
			}

			px := max(0, minX*step)
			py := max(0, minY*step)
			pw := min(cw, (maxX-minX+1)*step)
			ph := min(ch, (maxY-minY+1)*step)
			if pw > minBoxW && ph > minBoxH {
				boxes = append(boxes, Box{geometry.Rect{
					X: float64(px), Y: float64(py),
					W: float64(pw), H: float64(ph),
				}})
			}
		}
	}
	return boxes
}

// mergeOverlapping collapses boxes whose IoU exceeds the merge
// threshold into their union, repeating within a pass so a grown base
// box can absorb later neighbors.
func mergeOverlapping(boxes []Box) []Box {
	used := make([]bool, len(boxes))
	var merged []Box
	for i := range boxes {
		if used[i] {
			continue
		}
		base := boxes[i].Rect
		for j := i + 1; j < len(boxes); j++ {
			if used[j] {
				continue
			}
			if base.IoU(boxes[j].Rect) > mergeIoU {
				base = base.Union(boxes[j].Rect)
				used[j] = true
			}
		}
		merged = append(merged, Box{base})
	}
	return merged
}
