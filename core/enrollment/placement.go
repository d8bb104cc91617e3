package enrollment

import (
	"context"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/pkg/errors"
)

// placement states of a student
const (
	stateUnassigned = "unassigned"
	stateAssigned   = "assigned"
)

// placement events
const (
	eventAssign   = "assign"   // staging -> section
	eventTransfer = "transfer" // section -> another section
	eventUnassign = "unassign" // section -> staging
)

var placementEvents = fsm.Events{
	{Name: eventAssign, Src: []string{stateUnassigned}, Dst: stateAssigned},
	{Name: eventTransfer, Src: []string{stateAssigned}, Dst: stateAssigned},
	{Name: eventUnassign, Src: []string{stateAssigned}, Dst: stateUnassigned},
}

func placementEvent(rec StudentRecord, destination uuid.UUID) string {
	switch {
	case destination == Unassigned:
		return eventUnassign
	case rec.IsStaged():
		return eventAssign
	default:
		return eventTransfer
	}
}

// placementPlan drives one student through the placement machine towards a destination.
// The placement is only planned once the machine accepted the move.
type placementPlan struct {
	rec         StudentRecord
	destination uuid.UUID
	unit        Unit // unit the student holds a seat in once moved
	placement   *Placement
	fsm         *fsm.FSM
}

func newPlacementPlan(rec StudentRecord, destination uuid.UUID, unit Unit) *placementPlan {
	state := stateAssigned
	if rec.IsStaged() {
		state = stateUnassigned
	}

	p := &placementPlan{rec: rec, destination: destination, unit: unit}
	p.fsm = fsm.NewFSM(state, placementEvents, fsm.Callbacks{
		"before_" + eventTransfer: p.onBeforeTransfer,
		"after_event":             p.onAfterEvent,
	})
	return p
}

// a transfer to the section the student already sits in is no move
func (p *placementPlan) onBeforeTransfer(_ context.Context, e *fsm.Event) {
	if p.destination == p.rec.SectionID {
		e.Cancel()
	}
}

func (p *placementPlan) onAfterEvent(_ context.Context, _ *fsm.Event) {
	p.placement = &Placement{StudentID: p.rec.ID, SectionID: p.destination, Unit: p.unit}
}

// run fires the move. It reports false when the student already is at the destination.
func (p *placementPlan) run(ctx context.Context) (Placement, bool, error) {
	event := placementEvent(p.rec, p.destination)
	err := p.fsm.Event(ctx, event)

	var (
		noTransition fsm.NoTransitionError // assigned -> assigned
		canceled     fsm.CanceledError
		invalid      fsm.InvalidEventError // unassign while unassigned
	)
	switch {
	case err == nil, errors.As(err, &noTransition):
	case errors.As(err, &canceled), errors.As(err, &invalid):
		return Placement{}, false, nil
	default:
		return Placement{}, false, errors.Wrapf(err, "%s student %s", event, p.rec.ID)
	}

	if p.placement == nil {
		return Placement{}, false, errors.Errorf("%s student %s: no placement planned", event, p.rec.ID)
	}
	return *p.placement, true, nil
}
