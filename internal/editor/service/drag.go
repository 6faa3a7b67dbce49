package service

import (
	"context"
	"errors"

	"tablebook/internal/hallmap/drag"
	"tablebook/pkg/client"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"
)

// actorDrag counts the requests using a controller so it is only dropped
// once nobody holds it.
type actorDrag struct {
	ctl  *drag.Controller
	refs int
}

// acquire returns the actor's drag controller, creating it on first use.
// Each editor drags independently. The returned func must be called when the
// request is done with the controller; an idle controller is then dropped so
// the map only holds editors with a drag or a write in flight.
func (s *layoutService) acquire(actor Actor) (*drag.Controller, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.drags[actor.Subject]
	if !ok {
		entry = &actorDrag{
			ctl: drag.New(drag.Canvas{Width: s.cfg.Canvas.Width, Height: s.cfg.Canvas.Height}, s.cfg.Grid, s.backend),
		}
		s.drags[actor.Subject] = entry
	}
	entry.refs++

	return entry.ctl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		entry.refs--
		if entry.refs == 0 && entry.ctl.Idle() && s.drags[actor.Subject] == entry {
			delete(s.drags, actor.Subject)
		}
	}
}

// load refreshes the actor's local layout from the backend.
func (s *layoutService) load(ctx context.Context, actor Actor, ctl *drag.Controller) error {
	tables, err := s.backend.List(client.WithBearer(ctx, actor.Token))
	if err != nil {
		return s.backendError("list tables", err)
	}
	ctl.Load(tables)
	return nil
}

func (s *layoutService) BeginDrag(ctx context.Context, actor Actor, id int, pointer model.Position) (*drag.State, error) {
	ctl, done := s.acquire(actor)
	defer done()

	if ctl.Active() == nil {
		if err := s.load(ctx, actor, ctl); err != nil {
			return nil, err
		}
	}
	state, err := ctl.BeginDrag(id, pointer)
	if err != nil {
		return nil, dragError(err)
	}
	return state, nil
}

func (s *layoutService) MoveDrag(actor Actor, pointer model.Position) (model.Position, error) {
	ctl, done := s.acquire(actor)
	defer done()

	pos, ok := ctl.ContinueDrag(pointer)
	if !ok {
		return model.Position{}, dragError(drag.ErrNoDrag)
	}
	return pos, nil
}

// EndDrag persists the move with the actor's token. A failed write rolls the
// table back to where the drag started and returns the error with the
// rolled back table in the result.
func (s *layoutService) EndDrag(ctx context.Context, actor Actor) (*drag.Result, error) {
	ctx = client.WithBearer(ctx, actor.Token)
	ctl, done := s.acquire(actor)
	defer done()

	state := ctl.Active()
	if state == nil {
		return nil, dragError(drag.ErrNoDrag)
	}
	before, _ := ctl.Table(state.TableID)
	before.X, before.Y = state.StartTablePos.X, state.StartTablePos.Y

	result, err := ctl.EndDrag(ctx)
	if err != nil {
		s.log.Warn("Table move rolled back",
			"table_id", state.TableID,
			"actor", actor.Subject,
			"error", err,
		)
		return result, s.backendError("move table", errors.Unwrap(err))
	}
	if result.Moved {
		after := result.Table
		s.record(ctx, actor, model.LayoutMoved, &before, &after)
	}
	return result, nil
}

func (s *layoutService) CancelDrag(actor Actor) {
	ctl, done := s.acquire(actor)
	defer done()
	ctl.Cancel()
}

func dragError(err error) error {
	switch {
	case errors.Is(err, drag.ErrTableNotFound):
		return apperrors.NotFound("Table")
	case errors.Is(err, drag.ErrDragActive):
		return apperrors.Conflict("Another table is being dragged")
	case errors.Is(err, drag.ErrPendingWrite):
		return apperrors.Conflict("Table has an unsaved move")
	case errors.Is(err, drag.ErrNoDrag):
		return apperrors.PreconditionFailed("No drag in progress")
	}
	return err
}
