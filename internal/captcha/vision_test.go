package captcha

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"job-applier/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type square struct {
	x, y, w, h int
}

// eightIcons draws six regular icons and two outliers (index 2 is large,
// index 5 is small) on a 1000x940 canvas.
func eightIcons(brightness uint8) (*image.Gray, []square) {
	img := image.NewGray(image.Rect(0, 0, 1000, 940))
	for i := range img.Pix {
		img.Pix[i] = 30
	}

	var squares []square

	for i := range 8 {
		s := square{x: 100 + (i%4)*220, y: 200 + (i/4)*300, w: 20, h: 20}

		switch i {
		case 2:
			s.w, s.h = 35, 35
		case 5:
			s.w, s.h = 9, 10
		}

		for y := s.y; y < s.y+s.h; y++ {
			for x := s.x; x < s.x+s.w; x++ {
				img.SetGray(x, y, color.Gray{Y: brightness})
			}
		}

		squares = append(squares, s)
	}

	return img, squares
}

func centroid(s square) entity.Point {
	return entity.Point{X: float64(s.x) + float64(s.w-1)/2, Y: float64(s.y) + float64(s.h-1)/2}
}

func TestLabelFindsConnectedComponents(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 6, 3))
	// two diagonal pixels are separate under 4-connectivity
	img.SetGray(0, 0, color.Gray{Y: 255})
	img.SetGray(1, 1, color.Gray{Y: 255})
	img.SetGray(4, 0, color.Gray{Y: 255})
	img.SetGray(5, 0, color.Gray{Y: 255})
	img.SetGray(5, 1, color.Gray{Y: 255})

	icons := Label(img, 180)
	require.Len(t, icons, 3)

	assert.Equal(t, 1, icons[0].Area)
	assert.Equal(t, 3, icons[1].Area)
	assert.Equal(t, 4, icons[1].MinX)
	assert.Equal(t, 5, icons[1].MaxX)
	assert.InDelta(t, 14.0/3, icons[1].Centroid.X, 1e-9)
}

func TestAnalyzeSelectsOutliers(t *testing.T) {
	img, squares := eightIcons(220)

	candidates, threshold := Analyze(img, DefaultLadder())
	require.Len(t, candidates, 8)
	assert.Equal(t, 180, threshold)

	targets := Select(candidates, 2)
	require.Len(t, targets, 2)

	assert.Equal(t, 35*35, targets[0].Area)
	assert.InDelta(t, centroid(squares[2]).X, targets[0].Centroid.X, 1e-9)
	assert.Equal(t, 90, targets[1].Area)
	assert.InDelta(t, centroid(squares[5]).Y, targets[1].Centroid.Y, 1e-9)
	assert.Greater(t, targets[1].Score, 1.0)
}

func TestAnalyzeWalksThresholdLadder(t *testing.T) {
	img, _ := eightIcons(170)

	candidates, threshold := Analyze(img, DefaultLadder())

	assert.Equal(t, 165, threshold)
	assert.Len(t, candidates, 8)
}

func TestAnalyzeFiltersByArea(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	candidates, _ := Analyze(img, DefaultLadder())

	assert.Empty(t, candidates, "a full-canvas background is not an icon")
	assert.Nil(t, Select(candidates, 2))
}

func TestSelectUsesUnitFloorForFlatSizes(t *testing.T) {
	icons := []entity.Icon{{Area: 100}, {Area: 100}, {Area: 101}}

	got := Select(icons, 1)

	require.Len(t, got, 1)
	assert.Equal(t, 101, got[0].Area)
	assert.InDelta(t, 101-301.0/3, got[0].Score, 1e-9)
}

func TestCoordinateRoundTrip(t *testing.T) {
	display := entity.Rect{X: 10, Y: 10, Width: 500, Height: 470}

	for _, p := range []entity.Point{{X: 0, Y: 0}, {X: 557, Y: 217}, {X: 999, Y: 939}, {X: 123.4, Y: 567.8}} {
		page := ToPage(p, display, 2)
		assert.True(t, display.Contains(page))

		back := ToPixel(page, display, 2)
		assert.InDelta(t, p.X, back.X, 1)
		assert.InDelta(t, p.Y, back.Y, 1)
	}

	assert.Equal(t, entity.Point{X: 288.5, Y: 118.5}, ToPage(entity.Point{X: 557, Y: 217}, display, 2))
}

func TestToPageClampsIntoDisplay(t *testing.T) {
	display := entity.Rect{X: 10, Y: 10, Width: 500, Height: 470}

	got := ToPage(entity.Point{X: 5000, Y: -40}, display, 2)

	assert.Equal(t, entity.Point{X: 510, Y: 10}, got)
}

func TestDecodeDataURL(t *testing.T) {
	img, _ := eightIcons(220)
	dataURL := encodePNG(t, img)

	decoded, err := DecodeDataURL(dataURL)
	require.NoError(t, err)
	assert.Equal(t, 1000, decoded.Bounds().Dx())

	_, err = DecodeDataURL("not-a-data-url")
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestRequestedCount(t *testing.T) {
	assert.Equal(t, 2, RequestedCount("Please click on the two images that are different", 1))
	assert.Equal(t, 3, RequestedCount("Select 3 odd icons", 2))
	assert.Equal(t, 2, RequestedCount("Pick the odd ones out", 2))
}

func encodePNG(t *testing.T, img image.Image) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
