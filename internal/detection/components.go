package detection

import "image"

// MinComponentPixels is the smallest connected component kept as a label
// candidate.
const MinComponentPixels = 16

// Box is an inclusive pixel bounding box.
type Box struct {
	MinRow, MinCol int
	MaxRow, MaxCol int
}

// Width returns the number of pixel columns covered by the box.
func (b Box) Width() int { return b.MaxCol - b.MinCol + 1 }

// Height returns the number of pixel rows covered by the box.
func (b Box) Height() int { return b.MaxRow - b.MinRow + 1 }

// Components labels 4-connected regions of set pixels and returns the
// bounding box of every region with at least minPixels pixels, in row-major
// order of each region's first pixel.
func Components(mask [][]bool, minPixels int) []Box {
	height := len(mask)
	if height == 0 {
		return nil
	}

	visited := make([][]bool, height)
	for y := range visited {
		visited[y] = make([]bool, len(mask[y]))
	}

	var boxes []Box
	for y := 0; y < height; y++ {
		for x := 0; x < len(mask[y]); x++ {
			if !mask[y][x] || visited[y][x] {
				continue
			}
			box, count := floodFill(mask, visited, x, y)
			if count >= minPixels {
				boxes = append(boxes, box)
			}
		}
	}
	return boxes
}

// floodFill marks the 4-connected region containing (startX, startY) as
// visited and returns its bounding box and pixel count. It uses an explicit
// stack so large regions cannot exhaust the goroutine stack.
func floodFill(mask, visited [][]bool, startX, startY int) (Box, int) {
	box := Box{MinRow: startY, MinCol: startX, MaxRow: startY, MaxCol: startX}
	count := 0

	stack := []image.Point{{X: startX, Y: startY}}
	visited[startY][startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++

		box.MinRow = min(box.MinRow, p.Y)
		box.MaxRow = max(box.MaxRow, p.Y)
		box.MinCol = min(box.MinCol, p.X)
		box.MaxCol = max(box.MaxCol, p.X)

		for _, n := range [4]image.Point{{X: p.X + 1, Y: p.Y}, {X: p.X - 1, Y: p.Y}, {X: p.X, Y: p.Y + 1}, {X: p.X, Y: p.Y - 1}} {
			if n.Y < 0 || n.Y >= len(mask) || n.X < 0 || n.X >= len(mask[n.Y]) {
				continue
			}
			if visited[n.Y][n.X] || !mask[n.Y][n.X] {
				continue
			}
			visited[n.Y][n.X] = true
			stack = append(stack, n)
		}
	}
	return box, count
}
