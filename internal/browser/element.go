package browser

import (
	"context"
	"fmt"

	"job-applier/internal/config"
	"job-applier/pkg/apperr"

	"github.com/playwright-community/playwright-go"
)

// Element adapts a playwright element handle to ports.Element.
type Element struct {
	handle playwright.ElementHandle
	config *config.Config
}

func (e *Element) timeout(ctx context.Context) *float64 {
	return playwright.Float(timeoutMs(ctx, e.config.BrowserConfig.ActionTimeout))
}

func (e *Element) Fill(ctx context.Context, value string) error {
	const op = "Fill"

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := e.handle.Fill(value, playwright.ElementHandleFillOptions{Timeout: e.timeout(ctx)}); err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "fill_failed",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	return nil
}

func (e *Element) SetNativeValue(ctx context.Context, value string) error {
	const op = "SetNativeValue"

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := e.handle.Evaluate(nativeSetterScript, value); err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "native_setter_failed",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	return nil
}

func (e *Element) SetFiles(ctx context.Context, paths []string) error {
	const op = "SetFiles"

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := e.handle.SetInputFiles(paths, playwright.ElementHandleSetInputFilesOptions{Timeout: e.timeout(ctx)}); err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "set_files_failed",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	return nil
}

func (e *Element) SelectOption(ctx context.Context, value string) error {
	const op = "SelectOption"

	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := e.handle.SelectOption(playwright.SelectOptionValues{
		ValuesOrLabels: &[]string{value},
	}, playwright.ElementHandleSelectOptionOptions{Timeout: e.timeout(ctx)})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "select_failed",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	return nil
}

// Check ticks a checkbox or radio; styled inputs hidden behind labels are
// forced through a script when the regular check is rejected.
func (e *Element) Check(ctx context.Context) error {
	const op = "Check"

	if err := ctx.Err(); err != nil {
		return err
	}

	err := e.handle.Check(playwright.ElementHandleCheckOptions{
		Force:   playwright.Bool(true),
		Timeout: e.timeout(ctx),
	})
	if err == nil {
		return nil
	}

	if _, jsErr := e.handle.Evaluate(forceCheckScript); jsErr != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, fmt.Errorf("%w; script fallback: %v", err, jsErr), map[string]any{
			apperr.MetaReason: "check_failed",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	return nil
}

func (e *Element) Click(ctx context.Context) error {
	const op = "Click"

	if err := ctx.Err(); err != nil {
		return err
	}

	_, _ = e.handle.Evaluate(scrollIntoViewScript)

	err := e.handle.Click(playwright.ElementHandleClickOptions{Timeout: e.timeout(ctx)})
	if err == nil {
		return nil
	}

	// Overlays (cookie banners, sticky footers) intercept pointer events.
	if forceErr := e.handle.Click(playwright.ElementHandleClickOptions{
		Timeout: e.timeout(ctx),
		Force:   playwright.Bool(true),
	}); forceErr != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, forceErr, map[string]any{
			apperr.MetaReason: "click_failed_all_strategies",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	return nil
}

func (e *Element) Value(ctx context.Context) (string, error) {
	const op = "Value"

	if err := ctx.Err(); err != nil {
		return "", err
	}

	v, err := e.handle.Evaluate(readValueScript)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "read_value_failed",
		})
	}

	s, _ := v.(string)

	return s, nil
}

func (e *Element) Usable(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	visible, err := e.handle.IsVisible()
	if err != nil || !visible {
		return false, err
	}

	enabled, err := e.handle.IsEnabled()
	if err != nil {
		return false, err
	}

	return enabled, nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return e.handle.InnerText()
}
