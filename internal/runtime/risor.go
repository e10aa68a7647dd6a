package runtime

import (
	"context"
	"fmt"

	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/atlanticdynamic/ember/internal/modules"
	"github.com/robbyt/go-polyscript/engines/risor"
	"github.com/robbyt/go-polyscript/platform/constants"
	"github.com/robbyt/go-polyscript/platform/data"
	"github.com/robbyt/go-polyscript/platform/script/loader"
)

// runRisor evaluates a Risor module. The script reads its arguments and the main module
// URL through ctx.get("args") and ctx.get("main_module").
func (w *Worker) runRisor(ctx context.Context, mod *modules.Module) error {
	src, err := loader.NewFromString(string(mod.Source))
	if err != nil {
		return hosterr.Host(hosterr.KindEngine, fmt.Errorf("failed to create Risor loader: %w", err))
	}

	eval, err := risor.FromRisorLoader(w.shared.ScriptLogger().Handler(), src)
	if err != nil {
		return hosterr.FromRisor(err)
	}

	args := w.shared.ScriptArgs()
	scriptArgs := make([]any, 0, len(args))
	for _, a := range args {
		scriptArgs = append(scriptArgs, a)
	}

	provider := data.NewContextProvider(constants.EvalData)
	evalCtx, err := provider.AddDataToContext(ctx, map[string]any{
		"args":        scriptArgs,
		"main_module": mod.Name(),
	})
	if err != nil {
		return hosterr.Host(hosterr.KindEngine, fmt.Errorf("failed to prepare Risor data: %w", err))
	}

	w.logger.Debug("Evaluating Risor module", "module", mod.Name())
	if _, err := eval.Eval(evalCtx); err != nil {
		return hosterr.FromRisor(err)
	}
	return nil
}
