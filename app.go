package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/kitchenkit/pkg/apply"
	"github.com/chazu/kitchenkit/pkg/engine"
	"github.com/chazu/kitchenkit/pkg/kernel"
	"github.com/chazu/kitchenkit/pkg/kernel/sdfx"
	"github.com/chazu/kitchenkit/pkg/material"
	"github.com/chazu/kitchenkit/pkg/scene"
	"github.com/chazu/kitchenkit/pkg/tessellate"
	"github.com/chazu/kitchenkit/pkg/zone"
)

// DirtyEvent is emitted with a node ID whenever a node's appearance changed.
const DirtyEvent = "scene:dirty"

var errNoLayout = errors.New("no layout loaded")

// App is the Wails backend. It exposes methods to the frontend via bindings
// and owns the loaded scene. All bindings hold mu, so overlapping calls from
// the webview never interleave an apply pass.
type App struct {
	ctx    context.Context
	logger *slog.Logger

	engine     *engine.Engine
	kernel     kernel.Kernel
	catalog    *material.Catalog
	applicator *apply.Applicator

	mu      sync.Mutex
	scene   *scene.Scene
	config  apply.Config
	changed []*scene.Node
}

// MaterialData is the JSON form of a node's live material.
type MaterialData struct {
	Name      string  `json:"name"`
	Color     string  `json:"color"`
	Roughness float64 `json:"roughness"`
	Metalness float64 `json:"metalness"`
	Opacity   float64 `json:"opacity"`
}

// NodeState is the appearance of one renderable node.
type NodeState struct {
	NodeID   string        `json:"nodeId"`
	Name     string        `json:"name"`
	Visible  bool          `json:"visible"`
	Material *MaterialData `json:"material"`
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	NodeState
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
}

// EvalErrorData is a JSON-serializable layout error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// LoadResult is returned by LoadLayout.
type LoadResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []string        `json:"warnings"`
	Zones    map[string]int  `json:"zones"`
}

// OptionsData lists what the selection UI can offer.
type OptionsData struct {
	Zones     []string          `json:"zones"`
	Palette   []material.Swatch `json:"palette"`
	Materials []material.Option `json:"materials"`
	Config    apply.Config      `json:"config"`
}

// RequestData is a selection coming from the UI.
type RequestData struct {
	Zone           string `json:"zone"`
	Color          string `json:"color,omitempty"`
	Key            string `json:"key,omitempty"`
	Reset          bool   `json:"reset,omitempty"`
	HandlesVisible *bool  `json:"handlesVisible,omitempty"`
}

// ApplyResponse reports the outcome of an apply pass: the configuration now
// in effect, per-zone results and the nodes whose appearance changed.
type ApplyResponse struct {
	Config  apply.Config `json:"config"`
	Result  apply.Result `json:"result"`
	Changed []NodeState  `json:"changed"`
	Error   string       `json:"error,omitempty"`
}

// NewApp creates an App. A nil catalog means the embedded default; a nil
// logger means slog.Default().
func NewApp(catalog *material.Catalog, logger *slog.Logger) *App {
	if catalog == nil {
		catalog = material.DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		logger:     logger,
		engine:     engine.NewEngine(logger),
		kernel:     sdfx.New(sdfx.DefaultMeshCells),
		catalog:    catalog,
		applicator: apply.NewFromCatalog(catalog, logger),
		config:     apply.DefaultConfig(),
	}
}

// startup is called by Wails on app startup. The context is saved so the
// dirty hook can emit runtime events.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// DefaultLayout returns the bundled sample kitchen.
func (a *App) DefaultLayout() string {
	return defaultLayout
}

// LoadLayout evaluates a layout script, replaces the current scene and
// resets the configuration to the authored look.
func (a *App) LoadLayout(source string) LoadResult {
	result := LoadResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []string{},
		Zones:    map[string]int{},
	}

	res, err := a.engine.Evaluate(source)
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, w.String())
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	parts, err := tessellate.Tessellate(res.Scene, a.kernel)
	if err != nil {
		a.logger.Warn("Tessellation failed", slog.Any("error", err))
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	s := res.Scene
	s.OnChange = a.markDirty
	a.scene = s
	a.config = apply.DefaultConfig()
	a.changed = nil

	for _, p := range parts {
		n := s.Get(p.NodeID)
		if n == nil {
			continue
		}
		result.Meshes = append(result.Meshes, MeshData{
			NodeState: nodeState(n),
			Vertices:  p.Mesh.Vertices,
			Normals:   p.Mesh.Normals,
			Indices:   p.Mesh.Indices,
		})
	}

	targets := a.applicator.Index().Targets(s)
	for _, z := range zone.All {
		result.Zones[z.String()] = len(targets.For(z))
	}

	a.logger.Info("Layout loaded",
		slog.Int("nodes", s.NodeCount()),
		slog.Int("meshes", len(result.Meshes)))
	return result
}

// Options returns the palette, the raw material list and the current
// configuration.
func (a *App) Options() OptionsData {
	a.mu.Lock()
	defer a.mu.Unlock()

	zones := make([]string, 0, len(zone.All))
	for _, z := range zone.All {
		zones = append(zones, z.String())
	}
	return OptionsData{
		Zones:     zones,
		Palette:   a.catalog.Palette,
		Materials: a.catalog.Options,
		Config:    a.config,
	}
}

// Select records one UI choice and applies the resulting configuration.
func (a *App) Select(req RequestData) ApplyResponse {
	z, err := zone.Parse(req.Zone)
	if err != nil {
		return a.failed(err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cfg, err := a.config.Select(apply.Request{
		Zone:           z,
		Color:          req.Color,
		Key:            req.Key,
		Reset:          req.Reset,
		HandlesVisible: req.HandlesVisible,
	})
	if err != nil {
		return a.failedLocked(err)
	}
	return a.applyLocked(cfg)
}

// ApplyCustomization replaces the whole configuration and applies it.
func (a *App) ApplyCustomization(cfg apply.Config) ApplyResponse {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applyLocked(cfg)
}

// Reset returns one zone to its authored look.
func (a *App) Reset(zoneName string) ApplyResponse {
	return a.Select(RequestData{Zone: zoneName, Reset: true})
}

func (a *App) applyLocked(cfg apply.Config) ApplyResponse {
	if a.scene == nil {
		return a.failedLocked(errNoLayout)
	}

	a.changed = a.changed[:0]
	res := a.applicator.ApplyCustomization(a.scene, a.scene.Library, cfg)
	a.config = cfg

	resp := ApplyResponse{Config: cfg, Result: res, Changed: []NodeState{}}
	seen := make(map[*scene.Node]bool, len(a.changed))
	for _, n := range a.changed {
		if seen[n] {
			continue
		}
		seen[n] = true
		resp.Changed = append(resp.Changed, nodeState(n))
	}
	return resp
}

func (a *App) failed(err error) ApplyResponse {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failedLocked(err)
}

func (a *App) failedLocked(err error) ApplyResponse {
	a.logger.Info("Selection rejected", slog.Any("error", err))
	return ApplyResponse{
		Config:  a.config,
		Changed: []NodeState{},
		Error:   err.Error(),
	}
}

// markDirty is the scene's change hook. It runs with mu held.
func (a *App) markDirty(n *scene.Node) {
	a.changed = append(a.changed, n)
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, DirtyEvent, string(n.ID))
	}
}

func nodeState(n *scene.Node) NodeState {
	st := NodeState{NodeID: string(n.ID), Name: n.Name, Visible: n.Visible}
	if m := n.Material; m != nil {
		st.Material = &MaterialData{
			Name:      m.Name,
			Color:     m.Color,
			Roughness: m.Roughness,
			Metalness: m.Metalness,
			Opacity:   m.Opacity,
		}
	}
	return st
}
