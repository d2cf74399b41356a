package captcha

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"job-applier/internal/entity"
)

// Ladder holds the thresholds and component filters used by Analyze.
type Ladder struct {
	Thresholds []int
	MinIcons   int
	MinArea    int
	MaxArea    int
}

func DefaultLadder() Ladder {
	return Ladder{Thresholds: []int{180, 165, 150}, MinIcons: 6, MinArea: 80, MaxArea: 15000}
}

var ErrNotImage = errors.New("canvas data is not an image data url")

// DecodeDataURL decodes a canvas.toDataURL() payload.
func DecodeDataURL(dataURL string) (image.Image, error) {
	if !strings.HasPrefix(dataURL, "data:image") {
		return nil, ErrNotImage
	}

	comma := strings.IndexByte(dataURL, ',')
	if comma < 0 {
		return nil, ErrNotImage
	}

	raw, err := base64.StdEncoding.DecodeString(dataURL[comma+1:])
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))

	return img, err
}

// Grayscale converts img with ITU-R 601 luma.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.SetGray(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}

	return gray
}

// Label returns every 4-connected component of pixels brighter than
// threshold, in raster order of their first pixel. Score is left zero.
func Label(gray *image.Gray, threshold int) []entity.Icon {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	seen := make([]bool, w*h)
	bright := func(x, y int) bool {
		return int(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y) > threshold
	}

	var (
		icons []entity.Icon
		queue []int
	)

	for start := 0; start < w*h; start++ {
		if seen[start] || !bright(start%w, start/w) {
			continue
		}

		icon := entity.Icon{MinX: w, MinY: h, MaxX: -1, MaxY: -1}
		var sumX, sumY float64

		seen[start] = true
		queue = append(queue[:0], start)

		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w

			icon.Area++
			sumX += float64(x)
			sumY += float64(y)
			icon.MinX = min(icon.MinX, x)
			icon.MinY = min(icon.MinY, y)
			icon.MaxX = max(icon.MaxX, x)
			icon.MaxY = max(icon.MaxY, y)

			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}

				j := ny*w + nx
				if !seen[j] && bright(nx, ny) {
					seen[j] = true
					queue = append(queue, j)
				}
			}
		}

		icon.Centroid = entity.Point{X: sumX / float64(icon.Area), Y: sumY / float64(icon.Area)}
		icons = append(icons, icon)
	}

	return icons
}

// Analyze walks the threshold ladder and stops at the first threshold whose
// area-filtered component count reaches MinIcons. When none does, the last
// threshold's candidates are returned.
func Analyze(img image.Image, l Ladder) ([]entity.Icon, int) {
	gray := Grayscale(img)

	var (
		candidates []entity.Icon
		used       int
	)

	for _, t := range l.Thresholds {
		used = t
		candidates = candidates[:0]

		for _, icon := range Label(gray, t) {
			if icon.Area > l.MinArea && icon.Area < l.MaxArea {
				candidates = append(candidates, icon)
			}
		}

		if len(candidates) >= l.MinIcons {
			break
		}
	}

	return candidates, used
}

// Select scores candidates by z = |area - mean| / max(std, 1) and returns
// the k highest. Ties keep raster order.
func Select(candidates []entity.Icon, k int) []entity.Icon {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}

	var mean float64
	for _, c := range candidates {
		mean += float64(c.Area)
	}
	mean /= float64(len(candidates))

	var variance float64
	for _, c := range candidates {
		d := float64(c.Area) - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(candidates)))

	scored := make([]entity.Icon, len(candidates))
	for i, c := range candidates {
		c.Score = math.Abs(float64(c.Area)-mean) / math.Max(std, 1)
		scored[i] = c
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	return scored[:min(k, len(scored))]
}

// ToPage maps a pixel coordinate to page space, clamped into the display
// rect.
func ToPage(p entity.Point, display entity.Rect, scale float64) entity.Point {
	if scale <= 0 {
		scale = 1
	}

	return entity.Point{
		X: clamp(display.X+p.X/scale, display.X, display.X+display.Width),
		Y: clamp(display.Y+p.Y/scale, display.Y, display.Y+display.Height),
	}
}

// ToPixel is the inverse of ToPage for points inside the display rect.
func ToPixel(p entity.Point, display entity.Rect, scale float64) entity.Point {
	if scale <= 0 {
		scale = 1
	}

	return entity.Point{X: (p.X - display.X) * scale, Y: (p.Y - display.Y) * scale}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

var (
	countDigits = regexp.MustCompile(`\b([1-9])\b`)
	countWords  = map[string]int{"one": 1, "two": 2, "both": 2, "three": 3, "four": 4, "twee": 2, "drie": 3}
)

// RequestedCount reads how many icons the prompt asks for.
func RequestedCount(prompt string, fallback int) int {
	prompt = strings.ToLower(prompt)

	if m := countDigits.FindStringSubmatch(prompt); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}

	for _, word := range strings.FieldsFunc(prompt, func(r rune) bool { return !('a' <= r && r <= 'z') }) {
		if n, ok := countWords[word]; ok {
			return n
		}
	}

	return fallback
}
