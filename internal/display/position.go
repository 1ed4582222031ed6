package display

import "github.com/jmylchreest/notistack/internal/config"

// CalculatePosition places a width x height window on a screenW x screenH
// screen, offset by (offsetX, offsetY) from the origin corner. Coordinates
// are clamped to the screen's top-left edge.
func CalculatePosition(origin config.Origin, offsetX, offsetY, width, height, screenW, screenH int) (x, y int) {
	switch origin {
	case config.OriginTopRight:
		x, y = screenW-width-offsetX, offsetY
	case config.OriginBottomLeft:
		x, y = offsetX, screenH-height-offsetY
	case config.OriginBottomRight:
		x, y = screenW-width-offsetX, screenH-height-offsetY
	default:
		x, y = offsetX, offsetY
	}
	return max(x, 0), max(y, 0)
}
