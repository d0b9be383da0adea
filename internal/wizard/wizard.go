// Package wizard tracks the checkout steps: cart review, date selection and confirmation.
package wizard

import (
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
)

type Step int

const (
	StepCartReview   Step = 1
	StepDateSelect   Step = 2
	StepConfirmation Step = 3
)

// DateLayout is the wire format of the selected date.
const DateLayout = "2006-01-02"

func (s Step) String() string {
	switch s {
	case StepCartReview:
		return "cart_review"
	case StepDateSelect:
		return "date_selection"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// State is a read-only view of the controller.
type State struct {
	Step         Step       `json:"step"`
	StepName     string     `json:"step_name"`
	SelectedDate *time.Time `json:"selected_date,omitempty"`
	NextDisabled bool       `json:"next_disabled"`
}

// Controller is not safe for concurrent use; the owning component serializes access.
type Controller struct {
	step Step
	date *time.Time
}

func New() *Controller {
	return &Controller{step: StepCartReview}
}

// Next advances one step. 2 to 3 requires a date; other blocked moves are no-ops.
func (c *Controller) Next() State {
	switch c.step {
	case StepCartReview:
		c.step = StepDateSelect
	case StepDateSelect:
		if c.date != nil {
			c.step = StepConfirmation
		}
	}
	return c.State()
}

// Previous moves back one step from any step above the first.
func (c *Controller) Previous() State {
	if c.step > StepCartReview {
		c.step--
	}
	return c.State()
}

func (c *Controller) SetDate(date time.Time) State {
	d := date
	c.date = &d
	return c.State()
}

func (c *Controller) ClearDate() State {
	c.date = nil
	return c.State()
}

func (c *Controller) Step() Step {
	return c.step
}

func (c *Controller) NextDisabled() bool {
	return (c.step == StepDateSelect && c.date == nil) || c.step == StepConfirmation
}

func (c *Controller) State() State {
	state := State{
		Step:         c.step,
		StepName:     c.step.String(),
		NextDisabled: c.NextDisabled(),
	}
	if c.date != nil {
		d := *c.date
		state.SelectedDate = &d
	}
	return state
}

// ParseDate parses a DateLayout value.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date must be formatted as YYYY-MM-DD")
	}
	return parsed, nil
}
