// Package scripting runs user-supplied JavaScript hooks that customize the
// note card created when an excerpt is dropped onto the canvas. Hook failures
// are reported to the caller but must never block the drop itself.
package scripting

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// Engine executes a script and returns its exported result.
type Engine interface {
	Execute(ctx context.Context, script string) (interface{}, error)
}

// ExcerptContext is the data exposed to a drop hook as the global `excerpt`
// object.
type ExcerptContext struct {
	DocumentID string `json:"documentId"`
	PageIndex  int    `json:"pageIndex"`
	Text       string `json:"text"`
}

// CardTemplate is what a drop hook may return to override the defaults of the
// created note card. Zero-value fields leave the default in place.
type CardTemplate struct {
	Title string
	Tags  []string
	Color string
}

type GojaEngine struct {
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	return &GojaEngine{vm: goja.New()}
}

// Execute runs a script, interrupting it when the context is done. The VM
// stays usable after an interrupted run.
func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

func (e *GojaEngine) bindExcerpt(ec ExcerptContext) error {
	obj := e.vm.NewObject()
	if err := obj.Set("documentId", ec.DocumentID); err != nil {
		return err
	}
	if err := obj.Set("pageIndex", ec.PageIndex); err != nil {
		return err
	}
	if err := obj.Set("text", ec.Text); err != nil {
		return err
	}
	return e.vm.Set("excerpt", obj)
}

// DropHook binds a user script to an engine. The script sees the dropped
// excerpt as a global `excerpt` object and may return an object with `title`,
// `tags` and `color` properties.
type DropHook struct {
	engine *GojaEngine
	script string
}

// NewDropHook compiles nothing up front; the script is evaluated per drop so
// hooks can be edited live.
func NewDropHook(script string) *DropHook {
	return &DropHook{engine: NewEngine(), script: script}
}

// Apply runs the hook against the dropped excerpt and returns the card
// template it produced. A script that returns nothing, or a non-object,
// yields a zero template without error.
func (h *DropHook) Apply(ctx context.Context, ec ExcerptContext) (CardTemplate, error) {
	if strings.TrimSpace(h.script) == "" {
		return CardTemplate{}, nil
	}
	if err := h.engine.bindExcerpt(ec); err != nil {
		return CardTemplate{}, fmt.Errorf("bind excerpt: %w", err)
	}
	val, err := h.engine.Execute(ctx, h.script)
	if err != nil {
		return CardTemplate{}, fmt.Errorf("drop hook: %w", err)
	}
	return templateFrom(val), nil
}

func templateFrom(val interface{}) CardTemplate {
	m, ok := val.(map[string]interface{})
	if !ok {
		return CardTemplate{}
	}
	var tpl CardTemplate
	if s, ok := m["title"].(string); ok {
		tpl.Title = s
	}
	if s, ok := m["color"].(string); ok {
		tpl.Color = s
	}
	if tags, ok := m["tags"].([]interface{}); ok {
		for _, tag := range tags {
			if s, ok := tag.(string); ok {
				tpl.Tags = append(tpl.Tags, s)
			}
		}
	}
	return tpl
}
