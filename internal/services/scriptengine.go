package services

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/docforge/docforge-backend/internal/logger"
	"github.com/docforge/docforge-backend/internal/render"
	"github.com/docforge/docforge-backend/internal/trace"
)

// ScriptEngine executes a user-provided transform script against the
// resolved data and the original parameters inside a sandboxed interpreter.
//
// Scripts are Go source interpreted by yaegi with only the stdlib symbol
// table plus the injected "docscript" package, which exposes the four run
// bindings: Data, Params, Config and Log. The script must define
//
//	func Transform() interface{}
//
// A mapping result becomes the render payload; any other result is stored
// under "scriptResult" on the resolved data. Execution is bounded by the
// engine timeout and never gains host filesystem/network access beyond what
// the stdlib whitelist of the interpreter provides.
type ScriptEngine interface {
	// Execute returns the payload to render. On script failure the returned
	// payload is the untouched resolved data and the error describes the
	// failure; the caller decides whether a failed script aborts the run.
	Execute(ctx context.Context, script string, data, params map[string]interface{}, cfg *render.Config, rec *trace.Recorder) (map[string]interface{}, error)
}

type yaegiScriptEngine struct {
	log     *logger.Logger
	timeout time.Duration
}

func NewScriptEngine(log *logger.Logger, timeout time.Duration) ScriptEngine {
	return &yaegiScriptEngine{
		log:     log.With("service", "ScriptEngine"),
		timeout: timeout,
	}
}

func (e *yaegiScriptEngine) Execute(ctx context.Context, script string, data, params map[string]interface{}, cfg *render.Config, rec *trace.Recorder) (map[string]interface{}, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	// The interpreter cannot be cancelled, only abandoned. It therefore
	// works on its own copies of the run state; those are merged back only
	// when it finishes inside the deadline, so a script still running after
	// a timeout never shares structures with the rest of the pipeline.
	scratchData := copyPayload(data)
	scratchParams := copyPayload(params)
	scratchCfg := render.NewConfig()
	scratchRec := trace.NewRecorder()

	result, err := e.run(ctx, script, scratchData, scratchParams, scratchCfg, scratchRec, cfg, rec)
	if err != nil {
		e.log.Error("transform script failed", "error", err)
		rec.ErrorWith("transform script failed: "+err.Error(), err)
		rec.Info("keeping resolved data unchanged")
		return data, err
	}

	if m, ok := result.(map[string]interface{}); ok {
		rec.Debug("transform script returned a mapping, using it as the render payload")
		return m, nil
	}

	rec.Debug("transform script returned a non-mapping value, storing it under scriptResult")
	scratchData["scriptResult"] = result
	return scratchData, nil
}

func (e *yaegiScriptEngine) run(ctx context.Context, script string, data, params map[string]interface{}, scratchCfg *render.Config, scratchRec *trace.Recorder, cfg *render.Config, rec *trace.Recorder) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("script interpreter unavailable: %w", err)
	}
	bindings := interp.Exports{
		"docscript/docscript": {
			"Data":   reflect.ValueOf(data),
			"Params": reflect.ValueOf(params),
			"Config": reflect.ValueOf(scratchCfg),
			"Log":    reflect.ValueOf(scratchRec),
		},
	}
	if err := i.Use(bindings); err != nil {
		return nil, fmt.Errorf("failed to inject script bindings: %w", err)
	}

	type evalResult struct {
		value interface{}
		err   error
	}
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("script panicked: %v", r)}
			}
		}()
		if _, err := i.Eval(wrapScript(script)); err != nil {
			ch <- evalResult{err: fmt.Errorf("script evaluation failed: %w", err)}
			return
		}
		v, err := i.Eval("main.Transform")
		if err != nil {
			ch <- evalResult{err: fmt.Errorf("script does not define Transform: %w", err)}
			return
		}
		fn, ok := v.Interface().(func() interface{})
		if !ok {
			ch <- evalResult{err: fmt.Errorf("Transform has the wrong signature, want func() interface{}")}
			return
		}
		ch <- evalResult{value: fn()}
	}()

	select {
	case r := <-ch:
		// The interpreter is done; its scratch state is safe to merge.
		rec.Merge(scratchRec.Entries()...)
		for _, field := range scratchCfg.Fields() {
			if p, ok := scratchCfg.Policy(field); ok {
				cfg.Bind(field, p)
			}
		}
		return r.value, r.err
	case <-ctx.Done():
		// The goroutine may still be writing to the scratch state; it is
		// abandoned wholesale, never merged.
		return nil, fmt.Errorf("script execution timed out: %w", ctx.Err())
	}
}

// copyPayload deep-copies a JSON-shaped mapping (nested maps, sequences and
// scalars).
func copyPayload(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return copyPayload(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, x := range val {
			out[i] = copyValue(x)
		}
		return out
	default:
		return val
	}
}

func wrapScript(script string) string {
	if strings.Contains(script, "package main") {
		return script
	}
	return "package main\n\n" + script
}
