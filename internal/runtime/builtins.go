package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/atlanticdynamic/ember/internal/logging"
	"github.com/atlanticdynamic/ember/internal/version"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

func (w *Worker) newBuiltins() starlark.StringDict {
	return starlark.StringDict{
		"host":          w.hostInfo(),
		"log":           starlark.NewBuiltin("log", w.builtinLog),
		"main_module":   starlark.NewBuiltin("main_module", w.builtinMainModule),
		"set_timeout":   starlark.NewBuiltin("set_timeout", w.builtinSetTimeout),
		"clear_timeout": starlark.NewBuiltin("clear_timeout", w.builtinClearTimeout),
	}
}

func (w *Worker) hostInfo() *starlarkstruct.Struct {
	args := w.shared.ScriptArgs()
	elems := make(starlark.Tuple, 0, len(args))
	for _, a := range args {
		elems = append(elems, starlark.String(a))
	}
	elems.Freeze()

	flags := w.shared.Flags()
	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"args":       elems,
		"debug":      starlark.Bool(flags.LogDebug),
		"invocation": starlark.String(w.shared.ID().String()),
		"name":       starlark.String(w.name),
		"version":    starlark.String(version.Get().Ember),
	})
}

// log(msg, level="info") writes msg to the log sink tagged with the calling position.
func (w *Worker) builtinLog(
	thread *starlark.Thread,
	b *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var msg starlark.Value
	level := "info"
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "msg", &msg, "level?", &level); err != nil {
		return nil, err
	}

	text, ok := starlark.AsString(msg)
	if !ok {
		text = msg.String()
	}

	pos := thread.CallFrame(1).Pos
	w.shared.ScriptLogger().Log(
		context.Background(),
		logging.ParseLevel(level),
		text,
		slog.String("file", pos.Filename()),
		slog.Int("line", int(pos.Line)),
	)
	return starlark.None, nil
}

// main_module() returns the main module URL, or None when there is none.
func (w *Worker) builtinMainModule(
	_ *starlark.Thread,
	b *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	u, err := w.shared.MainModule()
	if err != nil {
		return starlark.None, nil
	}
	return starlark.String(u.String()), nil
}

// set_timeout(fn, delay_ms=0) schedules fn and returns its timer id.
func (w *Worker) builtinSetTimeout(
	_ *starlark.Thread,
	b *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var fn starlark.Callable
	delay := 0
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "fn", &fn, "delay_ms?", &delay); err != nil {
		return nil, err
	}
	if delay < 0 {
		delay = 0
	}
	id := w.timers.add(fn, time.Duration(delay)*time.Millisecond)
	return starlark.MakeInt(id), nil
}

// clear_timeout(id) cancels a scheduled timer and reports whether it was pending.
func (w *Worker) builtinClearTimeout(
	_ *starlark.Thread,
	b *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var id int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "id", &id); err != nil {
		return nil, err
	}
	return starlark.Bool(w.timers.clear(id)), nil
}
