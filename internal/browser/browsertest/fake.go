// Package browsertest provides an in-memory ports.Page for exercising the
// engine without a browser. A Page shows one Screen at a time; clicking an
// element with Next set swaps the screen, which is enough to script a wizard.
package browsertest

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"job-applier/internal/entity"
	"job-applier/internal/ports"
)

type Screen struct {
	URL      string
	HTML     string
	Elements map[string][]*Element
	Frames   []*Frame
	// OnShow runs when the screen becomes current.
	OnShow func(p *Page)
}

func NewScreen(url, html string) *Screen {
	return &Screen{URL: url, HTML: html, Elements: make(map[string][]*Element)}
}

// Add registers el under selector and returns the screen for chaining.
func (s *Screen) Add(selector string, el *Element) *Screen {
	s.Elements[selector] = append(s.Elements[selector], el)
	return s
}

type Element struct {
	mu sync.Mutex

	Kind     string // text, file, checkbox, select, button
	Hidden   bool
	Disabled bool
	// Controlled mimics a framework input that ignores plain fill.
	Controlled bool
	// ResetOnce clears the value after the first write, as a re-render would.
	ResetOnce bool
	// Frozen swallows every write.
	Frozen   bool
	Label    string
	Next     *Screen
	OnClick  func(p *Page)
	ClickErr error

	page    *Page
	value   string
	files   []string
	checked bool
	writes  int
	clicks  int
}

func (e *Element) bind(p *Page) {
	e.mu.Lock()
	e.page = p
	e.mu.Unlock()
}

func (e *Element) write(v string) {
	e.writes++

	if e.Frozen || (e.ResetOnce && e.writes == 1) {
		e.value = ""
		return
	}

	e.value = v
}

func (e *Element) Fill(_ context.Context, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Kind == "file" || e.Kind == "checkbox" {
		return errors.New("cannot fill this input")
	}

	if e.Controlled {
		e.writes++
		return nil
	}

	e.write(value)

	return nil
}

func (e *Element) SetNativeValue(_ context.Context, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.write(value)

	return nil
}

func (e *Element) SetFiles(_ context.Context, paths []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Kind != "file" {
		return errors.New("not a file input")
	}

	e.files = append([]string(nil), paths...)

	return nil
}

func (e *Element) SelectOption(_ context.Context, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Kind != "select" {
		return errors.New("not a select")
	}

	e.value = value

	return nil
}

func (e *Element) Check(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.checked = true

	return nil
}

func (e *Element) Click(_ context.Context) error {
	e.mu.Lock()
	e.clicks++
	page, next, onClick, err := e.page, e.Next, e.OnClick, e.ClickErr
	e.mu.Unlock()

	if err != nil {
		return err
	}

	if onClick != nil {
		onClick(page)
	}

	if next != nil && page != nil {
		page.Show(next)
	}

	return nil
}

func (e *Element) Value(_ context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.Kind {
	case "file":
		return strconv.Itoa(len(e.files)), nil
	case "checkbox":
		return strconv.FormatBool(e.checked), nil
	default:
		return e.value, nil
	}
}

func (e *Element) Usable(_ context.Context) (bool, error) {
	return !e.Hidden && !e.Disabled, nil
}

func (e *Element) Text(_ context.Context) (string, error) {
	return e.Label, nil
}

func (e *Element) Files() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.files...)
}

func (e *Element) Writes() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.writes
}

func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.clicks
}

type Frame struct {
	FrameURL string
	Elements map[string][]*Element
	EvalFunc func(script string, arg any) (any, error)
}

func (f *Frame) URL() string { return f.FrameURL }

func (f *Frame) Query(_ context.Context, selector string) ([]ports.Element, error) {
	return toPorts(f.Elements[selector]), nil
}

func (f *Frame) Evaluate(_ context.Context, script string, arg any) (any, error) {
	if f.EvalFunc == nil {
		return nil, nil
	}

	return f.EvalFunc(script, arg)
}

type Page struct {
	mu sync.Mutex

	current     *Screen
	routes      map[string]*Screen
	navigations []string
	moves       []entity.Point
	clicks      []entity.Point
	handlers    []func(ports.Response)

	NavigateErr error
	EvalFunc    func(script string, arg any) (any, error)
}

func NewPage() *Page {
	return &Page{routes: make(map[string]*Screen)}
}

// Route makes Navigate(url) show s.
func (p *Page) Route(url string, s *Screen) *Page {
	p.mu.Lock()
	p.routes[url] = s
	p.mu.Unlock()

	return p
}

func (p *Page) Show(s *Screen) {
	p.mu.Lock()
	p.current = s

	for _, els := range s.Elements {
		for _, el := range els {
			el.bind(p)
		}
	}

	p.mu.Unlock()

	if s.OnShow != nil {
		s.OnShow(p)
	}
}

func (p *Page) Current() *Screen {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current
}

// EmitResponse feeds the response subscribers.
func (p *Page) EmitResponse(method string, status int, url string) {
	p.mu.Lock()
	handlers := append([]func(ports.Response){}, p.handlers...)
	p.mu.Unlock()

	for _, h := range handlers {
		h(ports.Response{Method: method, Status: status, URL: url})
	}
}

func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.navigations...)
}

func (p *Page) Clicks() []entity.Point {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]entity.Point(nil), p.clicks...)
}

func (p *Page) Moves() []entity.Point {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]entity.Point(nil), p.moves...)
}

func (p *Page) URL() string {
	if s := p.Current(); s != nil {
		return s.URL
	}

	return "about:blank"
}

func (p *Page) Navigate(_ context.Context, url string, _ ports.WaitPolicy) error {
	p.mu.Lock()
	p.navigations = append(p.navigations, url)
	err := p.NavigateErr
	s, ok := p.routes[url]
	p.mu.Unlock()

	if err != nil {
		return err
	}

	if !ok {
		return errors.New("no route for " + url)
	}

	p.Show(s)

	return nil
}

func (p *Page) Query(_ context.Context, selector string) ([]ports.Element, error) {
	s := p.Current()
	if s == nil {
		return nil, nil
	}

	return toPorts(s.Elements[selector]), nil
}

func (p *Page) Evaluate(_ context.Context, script string, arg any) (any, error) {
	if p.EvalFunc != nil {
		return p.EvalFunc(script, arg)
	}

	if strings.Contains(script, "innerText") {
		if s := p.Current(); s != nil {
			return s.HTML, nil
		}
	}

	return nil, nil
}

func (p *Page) Content(_ context.Context) (string, error) {
	if s := p.Current(); s != nil {
		return s.HTML, nil
	}

	return "", nil
}

func (p *Page) Screenshot(_ context.Context) ([]byte, error) {
	return []byte("png:" + p.URL()), nil
}

func (p *Page) Frames() []ports.Frame {
	s := p.Current()
	if s == nil {
		return nil
	}

	out := make([]ports.Frame, 0, len(s.Frames))
	for _, f := range s.Frames {
		out = append(out, f)
	}

	return out
}

func (p *Page) MouseMove(_ context.Context, x, y float64) error {
	p.mu.Lock()
	p.moves = append(p.moves, entity.Point{X: x, Y: y})
	p.mu.Unlock()

	return nil
}

func (p *Page) MouseClick(_ context.Context, x, y float64) error {
	p.mu.Lock()
	p.clicks = append(p.clicks, entity.Point{X: x, Y: y})
	p.mu.Unlock()

	return nil
}

func (p *Page) OnResponse(handler func(ports.Response)) {
	p.mu.Lock()
	p.handlers = append(p.handlers, handler)
	p.mu.Unlock()
}

func toPorts(els []*Element) []ports.Element {
	out := make([]ports.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}

	return out
}
