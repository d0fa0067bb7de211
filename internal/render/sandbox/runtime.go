package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// Runtime wraps a goja VM with the restrictions applied to sandboxed
// document script: no host globals, bounded execution time, console
// capture, and a postMessage bridge that records instead of delivering.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	console   []LogEntry
	posted    []Posted
	captureMu sync.Mutex

	interrupt chan struct{}
}

// NewRuntime creates a sandboxed runtime.
func NewRuntime(config Config) (*Runtime, error) {
	r := &Runtime{
		vm:        goja.New(),
		config:    config,
		console:   []LogEntry{},
		posted:    []Posted{},
		interrupt: make(chan struct{}),
	}
	r.vm.SetMaxCallStackSize(1024)

	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute runs script against an optional DOM proxy and returns the
// collected result. The script is interrupted when the configured
// timeout elapses or ctx is cancelled.
func (r *Runtime) Execute(ctx context.Context, script string, dom *DOM) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()

	timer := time.NewTimer(r.config.ScriptTimeout)
	defer timer.Stop()

	go func() {
		select {
		case <-timer.C:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-r.interrupt:
			return
		}
	}()

	r.captureMu.Lock()
	r.console = []LogEntry{}
	r.posted = []Posted{}
	r.captureMu.Unlock()

	if dom != nil {
		if err := r.injectDOM(dom); err != nil {
			return nil, fmt.Errorf("failed to inject DOM: %w", err)
		}
	}

	val, err := r.vm.RunString(script)

	close(r.interrupt)
	r.interrupt = make(chan struct{})

	result := &Result{Duration: time.Since(start)}

	r.captureMu.Lock()
	result.Console = append([]LogEntry{}, r.console...)
	result.Posted = append([]Posted{}, r.posted...)
	r.captureMu.Unlock()

	if err != nil {
		return result, err
	}

	result.Value = exportValue(val)
	return result, nil
}

// setupGlobals strips host access and installs the bridge objects.
func (r *Runtime) setupGlobals() error {
	r.vm.Set("require", goja.Undefined())
	r.vm.Set("process", goja.Undefined())
	r.vm.Set("module", goja.Undefined())
	r.vm.Set("exports", goja.Undefined())

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		console.Set("log", r.makeConsoleFunc("log"))
		console.Set("warn", r.makeConsoleFunc("warn"))
		console.Set("error", r.makeConsoleFunc("error"))
		console.Set("info", r.makeConsoleFunc("info"))
		r.vm.Set("console", console)
	}

	// Timers are no-ops: executions are one-shot.
	r.vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
	r.vm.Set("setInterval", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})

	// Frame parents with recording postMessage bridges. Script written
	// for real iframes calls parent.postMessage(payload, "*"); here the
	// payload is captured for inspection instead of crossing a frame.
	r.vm.Set("parent", r.makeFrameProxy("parent"))
	r.vm.Set("top", r.makeFrameProxy("top"))

	return nil
}

func (r *Runtime) makeFrameProxy(target string) *goja.Object {
	frame := r.vm.NewObject()
	frame.Set("postMessage", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		payload, ok := call.Arguments[0].Export().(map[string]interface{})
		if !ok {
			return goja.Undefined()
		}
		r.captureMu.Lock()
		r.posted = append(r.posted, Posted{Payload: payload, Target: target})
		r.captureMu.Unlock()
		return goja.Undefined()
	})
	return frame
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var msg string
		for i, arg := range call.Arguments {
			if i > 0 {
				msg += " "
			}
			msg += arg.String()
		}

		r.captureMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: msg,
			Time:    time.Now(),
		})
		r.captureMu.Unlock()

		return goja.Undefined()
	}
}

// injectDOM exposes the document proxy to script.
func (r *Runtime) injectDOM(dom *DOM) error {
	document := r.vm.NewObject()

	document.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		elements := r.query(dom, call)
		if len(elements) == 0 {
			return goja.Null()
		}
		return r.vm.ToValue(r.elementProxy(elements[0]))
	})
	document.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		elements := r.query(dom, call)
		proxies := make([]map[string]interface{}, 0, len(elements))
		for _, elem := range elements {
			proxies = append(proxies, r.elementProxy(elem))
		}
		return r.vm.ToValue(proxies)
	})
	document.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		elements := dom.Query("#" + call.Arguments[0].String())
		if len(elements) == 0 {
			return goja.Null()
		}
		return r.vm.ToValue(r.elementProxy(elements[0]))
	})

	r.vm.Set("document", document)
	return nil
}

func (r *Runtime) query(dom *DOM, call goja.FunctionCall) []*Element {
	if len(call.Arguments) == 0 {
		return nil
	}
	return dom.Query(call.Arguments[0].String())
}

func (r *Runtime) elementProxy(elem *Element) map[string]interface{} {
	return map[string]interface{}{
		"tagName":     elem.TagName,
		"id":          elem.GetAttribute("id"),
		"className":   elem.GetAttribute("class"),
		"textContent": elem.TextContent(),
		"getAttribute": func(name string) string {
			return elem.GetAttribute(name)
		},
		"setAttribute": func(name, value string) {
			elem.SetAttribute(name, value)
		},
		"hasAttribute": func(name string) bool {
			return elem.HasAttribute(name)
		},
	}
}

func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// Reset replaces the VM, clearing all script state.
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = goja.New()
	r.vm.SetMaxCallStackSize(1024)
	r.captureMu.Lock()
	r.console = []LogEntry{}
	r.posted = []Posted{}
	r.captureMu.Unlock()
	return r.setupGlobals()
}

// Close releases the runtime.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.console = nil
	r.posted = nil
	return nil
}
