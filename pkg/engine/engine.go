// Package engine evaluates kitchen layout scripts. It wraps zygomys in a
// sandboxed environment and produces a scene plus its material library
// from user source code.
package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/kitchenkit/pkg/scene"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in layout code.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is a problem in the layout that still produced a usable
// scene, e.g. a part referring to an undefined material.
type EvalWarning struct {
	Node    string `json:"node,omitempty"`
	Message string `json:"message"`
}

func (w EvalWarning) String() string {
	if w.Node != "" {
		return w.Node + ": " + w.Message
	}
	return w.Message
}

// EvalResult bundles the full output of an evaluation.
//
// Scene is nil whenever Errors is non-empty.
type EvalResult struct {
	Scene    *scene.Scene
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for layout evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	logger     *slog.Logger
}

// NewEngine creates a new Engine. A nil logger means slog.Default().
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Evaluate runs a layout script and builds a new scene from it.
//
// Return semantics:
//   - On success: result with a scene, no errors, nil error
//   - On parse/eval failure: result with nil scene and eval errors, nil error
//   - On fatal failure (timeout, panic, superseded): nil result and an error
func (e *Engine) Evaluate(source string) (*EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res := e.evaluate(source)
		ch <- evalResult{res: res}
	}()

	res, err := waitWithTimeout(ch, gen, &e.mu, &e.generation)
	if err != nil {
		e.logger.Warn("Layout evaluation failed", slog.Any("error", err))
		return nil, err
	}
	if len(res.Errors) > 0 {
		e.logger.Info("Layout has errors", slog.Int("errors", len(res.Errors)))
	} else {
		e.logger.Debug("Layout evaluated",
			slog.Int("nodes", res.Scene.NodeCount()),
			slog.Int("materials", len(res.Scene.Library)),
			slog.Int("warnings", len(res.Warnings)))
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) *EvalResult {
	// Empty source is a valid layout with an empty scene.
	if strings.TrimSpace(source) == "" {
		return &EvalResult{Scene: scene.New()}
	}

	// Sandbox mode keeps layout code away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder()
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}
	}
	if _, err := env.Run(); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}
	}

	return &EvalResult{Scene: b.finish(), Warnings: b.warnings}
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
