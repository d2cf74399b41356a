package captcha

import (
	"context"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"job-applier/internal/browser/browsertest"
	"job-applier/internal/config"
	"job-applier/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const challengeURL = "https://newassets.hcaptcha.com/captcha/v1/abc/static/hcaptcha.html#frame=challenge&id=0"

func newTestSolver() *Solver {
	return NewSolver(Params{
		Config: &config.Config{CaptchaConfig: &config.CaptchaConfig{
			MaxAttempts:   12,
			FramePattern:  []string{"hcaptcha", "frame=challenge"},
			Thresholds:    []int{180, 165, 150},
			MinIcons:      6,
			MinArea:       80,
			MaxArea:       15000,
			DefaultTarget: 2,
			ClickSettle:   time.Millisecond,
			IdleLabel:     "skip",
		}},
		Logger: zap.NewNop(),
	})
}

type challengeFixture struct {
	page    *browsertest.Page
	submit  *browsertest.Element
	refresh *browsertest.Element
	squares []square
	label   atomic.Value
}

func newChallenge(t *testing.T) *challengeFixture {
	img, squares := eightIcons(220)

	return newChallengeWith(t, img, squares)
}

func newChallengeWith(t *testing.T, img image.Image, squares []square) *challengeFixture {
	dataURL := encodePNG(t, img)

	ch := &challengeFixture{
		page:    browsertest.NewPage(),
		submit:  &browsertest.Element{Kind: "button", Label: "Skip"},
		refresh: &browsertest.Element{Kind: "button"},
		squares: squares,
	}
	ch.label.Store("Skip")

	frame := &browsertest.Frame{
		FrameURL: challengeURL,
		Elements: map[string][]*browsertest.Element{
			submitSelector:  {ch.submit},
			refreshSelector: {ch.refresh},
		},
		EvalFunc: func(script string, _ any) (any, error) {
			switch script {
			case canvasInfoScript:
				return map[string]any{"width": 1000, "height": 940, "x": 10.0, "y": 10.0, "w": 500.0, "h": 470.0}, nil
			case canvasDataScript:
				return dataURL, nil
			case promptScript:
				return "Please click on the two images that are different", nil
			case buttonLabelScript:
				return ch.label.Load(), nil
			}

			return nil, nil
		},
	}

	screen := browsertest.NewScreen("https://jobs.example.com/o/engineer", "<body></body>")
	screen.Frames = append(screen.Frames, frame)
	ch.page.Show(screen)

	return ch
}

func TestSolverAcceptsWhenLabelChanges(t *testing.T) {
	ch := newChallenge(t)
	ch.label.Store("Verify")

	solved, attempts, err := newTestSolver().Solve(context.Background(), ch.page)
	require.NoError(t, err)

	assert.True(t, solved)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, ch.submit.Clicks())
	assert.Equal(t, 0, ch.refresh.Clicks())

	display := entity.Rect{X: 10, Y: 10, Width: 500, Height: 470}
	clicks := ch.page.Clicks()
	require.Len(t, clicks, 2)
	assert.Equal(t, ToPage(centroid(ch.squares[2]), display, 2), clicks[0])
	assert.Equal(t, ToPage(centroid(ch.squares[5]), display, 2), clicks[1])

	moves := ch.page.Moves()
	require.Len(t, moves, 2)
	assert.Equal(t, clicks[0].X-hoverOffset, moves[0].X)
}

func TestSolverExhaustsBudget(t *testing.T) {
	ch := newChallenge(t)
	solver := newTestSolver()

	solved, attempts, err := solver.Solve(context.Background(), ch.page)
	require.NoError(t, err)

	assert.False(t, solved)
	assert.Equal(t, 12, attempts)
	assert.Equal(t, 12, ch.refresh.Clicks())
	assert.Equal(t, 0, ch.submit.Clicks())
	assert.True(t, solver.Present(ch.page))

	display := entity.Rect{X: 10, Y: 10, Width: 500, Height: 470}
	for _, c := range ch.page.Clicks() {
		assert.True(t, display.Contains(c))
	}
	assert.Len(t, ch.page.Clicks(), 24)
}

func TestSolverRefreshesWithoutBlindClicks(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1000, 940))
	for i := range img.Pix {
		img.Pix[i] = 30
	}

	// one icon in the area band and a speck below it
	icon := square{x: 300, y: 300, w: 20, h: 20}
	for y := icon.y; y < icon.y+icon.h; y++ {
		for x := icon.x; x < icon.x+icon.w; x++ {
			img.SetGray(x, y, color.Gray{Y: 220})
		}
	}
	for y := 600; y < 603; y++ {
		for x := 600; x < 603; x++ {
			img.SetGray(x, y, color.Gray{Y: 220})
		}
	}

	ch := newChallengeWith(t, img, []square{icon})
	ch.label.Store("Verify")

	solved, attempts, err := newTestSolver().Solve(context.Background(), ch.page)
	require.NoError(t, err)

	assert.False(t, solved)
	assert.Equal(t, 12, attempts)
	assert.Empty(t, ch.page.Clicks())
	assert.Empty(t, ch.page.Moves())
	assert.Equal(t, 12, ch.refresh.Clicks())
	assert.Zero(t, ch.submit.Clicks())
}

func TestSolverWithoutChallengeFrame(t *testing.T) {
	page := browsertest.NewPage()
	page.Show(browsertest.NewScreen("https://jobs.example.com", "<body></body>"))
	solver := newTestSolver()

	assert.False(t, solver.Present(page))

	solved, attempts, err := solver.Solve(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, solved)
	assert.Zero(t, attempts)
}

func TestSolverStopsOnCancel(t *testing.T) {
	ch := newChallenge(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solved, _, err := newTestSolver().Solve(ctx, ch.page)

	assert.False(t, solved)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ch.page.Clicks())
}
