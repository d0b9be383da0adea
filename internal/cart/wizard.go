package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/cartflow/internal/wizard"
)

// Wizard returns the checkout wizard state.
func (c *Component) Wizard(ctx context.Context) (wizard.State, error) {
	return c.wizardOp(ctx, (*wizard.Controller).State)
}

func (c *Component) NextStep(ctx context.Context) (wizard.State, error) {
	return c.wizardOp(ctx, (*wizard.Controller).Next)
}

func (c *Component) PreviousStep(ctx context.Context) (wizard.State, error) {
	return c.wizardOp(ctx, (*wizard.Controller).Previous)
}

func (c *Component) SetDate(ctx context.Context, date time.Time) (wizard.State, error) {
	return c.wizardOp(ctx, func(w *wizard.Controller) wizard.State {
		return w.SetDate(date)
	})
}

func (c *Component) ClearDate(ctx context.Context) (wizard.State, error) {
	return c.wizardOp(ctx, (*wizard.Controller).ClearDate)
}

func (c *Component) wizardOp(ctx context.Context, op func(*wizard.Controller) wizard.State) (wizard.State, error) {
	var state wizard.State
	err := c.call(ctx, func() {
		state = op(c.wizard)
	})
	return state, err
}
