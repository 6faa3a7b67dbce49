package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	editorerrors "tablebook/internal/editor/errors"
	"tablebook/internal/editor/repository"
	"tablebook/internal/editor/validator"
	"tablebook/internal/hallmap"
	"tablebook/internal/hallmap/drag"
	"tablebook/pkg/client"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/kafka"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

// New tables are placed here until they are dragged.
const (
	DefaultX = 400
	DefaultY = 300
)

// Actor is the authenticated editor. Token is forwarded to the backend.
type Actor struct {
	Subject string
	Token   string
}

// TablesBackend is the backend table resource.
type TablesBackend interface {
	List(ctx context.Context) ([]model.Table, error)
	Create(ctx context.Context, table model.TableCreate) (*model.Table, error)
	Update(ctx context.Context, table model.Table) (*model.Table, error)
	Delete(ctx context.Context, id int) error
}

// CacheInvalidator drops the guest-facing table list.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

type CreateRequest struct {
	Zone        model.Zone `json:"zone"`
	Seats       int        `json:"seats"`
	TableNumber string     `json:"table_number,omitempty"`
}

type LayoutService interface {
	List(ctx context.Context, actor Actor, zone model.Zone) ([]model.Table, error)
	Layout(ctx context.Context, actor Actor, zone model.Zone) (hallmap.Scene, error)
	Create(ctx context.Context, actor Actor, req CreateRequest) (*model.Table, error)
	Rotate(ctx context.Context, actor Actor, id int) (*model.Table, error)
	Delete(ctx context.Context, actor Actor, id int) error
	History(ctx context.Context, id int, limit int) ([]*model.LayoutEvent, error)

	BeginDrag(ctx context.Context, actor Actor, id int, pointer model.Position) (*drag.State, error)
	MoveDrag(actor Actor, pointer model.Position) (model.Position, error)
	EndDrag(ctx context.Context, actor Actor) (*drag.Result, error)
	CancelDrag(actor Actor)
}

type Config struct {
	Canvas hallmap.Canvas
	Grid   float64
	Source string
}

type layoutService struct {
	backend   TablesBackend
	cache     CacheInvalidator
	events    repository.LayoutEventRepository
	publisher kafka.Publisher
	validator *validator.TableValidator
	cfg       Config
	log       *logger.Logger
	now       func() time.Time

	mu    sync.Mutex
	drags map[string]*actorDrag
}

func NewLayoutService(
	backend TablesBackend,
	cache CacheInvalidator,
	events repository.LayoutEventRepository,
	publisher kafka.Publisher,
	v *validator.TableValidator,
	cfg Config,
	log *logger.Logger,
) LayoutService {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	return &layoutService{
		backend:   backend,
		cache:     cache,
		events:    events,
		publisher: publisher,
		validator: v,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		drags:     make(map[string]*actorDrag),
	}
}

// List returns the zone's tables as the actor sees them, including moves
// that are still being written.
func (s *layoutService) List(ctx context.Context, actor Actor, zone model.Zone) ([]model.Table, error) {
	if !zone.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("zone must be one of %v", model.Zones))
	}
	ctl, done := s.acquire(actor)
	defer done()
	if err := s.load(ctx, actor, ctl); err != nil {
		return nil, err
	}
	return model.FilterZone(ctl.Tables(), zone), nil
}

func (s *layoutService) Layout(ctx context.Context, actor Actor, zone model.Zone) (hallmap.Scene, error) {
	tables, err := s.List(ctx, actor, zone)
	if err != nil {
		return hallmap.Scene{}, err
	}
	return hallmap.BuildScene(hallmap.Input{
		Tables:          tables,
		Zone:            zone,
		Mode:            hallmap.ModeMap,
		Canvas:          s.cfg.Canvas,
		IncludeInactive: true,
	}), nil
}

func (s *layoutService) Create(ctx context.Context, actor Actor, req CreateRequest) (*model.Table, error) {
	ctx = client.WithBearer(ctx, actor.Token)

	if !req.Zone.Valid() {
		return nil, apperrors.Validation("Table validation failed", map[string]any{
			"zone": fmt.Sprintf("zone must be one of %v", model.Zones),
		})
	}
	tables, err := s.backend.List(ctx)
	if err != nil {
		return nil, s.backendError("list tables", err)
	}

	number := req.TableNumber
	if number == "" {
		number = NextTableNumber(tables, req.Zone)
	} else if numberTaken(tables, req.Zone, number) {
		return nil, apperrors.Conflict(fmt.Sprintf("Table %s already exists in %s", number, req.Zone))
	}

	create := model.TableCreate{
		TableNumber: number,
		Zone:        req.Zone,
		Seats:       req.Seats,
		X:           DefaultX,
		Y:           DefaultY,
		Rotation:    0,
		IsActive:    true,
	}
	if err := s.validator.ValidateCreate(&create); err != nil {
		s.log.Warn("Table validation failed",
			"zone", req.Zone,
			"seats", req.Seats,
			"error", err,
		)
		return nil, apperrors.Validation("Table validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	created, err := s.backend.Create(ctx, create)
	if err != nil {
		return nil, s.backendError("create table", err)
	}

	s.record(ctx, actor, model.LayoutCreated, nil, created)
	s.log.Info("Table created",
		"id", created.ID,
		"table_number", created.TableNumber,
		"zone", created.Zone,
		"actor", actor.Subject,
	)
	return created, nil
}

func (s *layoutService) Rotate(ctx context.Context, actor Actor, id int) (*model.Table, error) {
	ctx = client.WithBearer(ctx, actor.Token)

	before, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	next := before
	next.Rotation = NextRotation(before.Rotation)
	if err := s.validator.ValidateTable(&next); err != nil {
		return nil, apperrors.Validation("Table validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	updated, err := s.backend.Update(ctx, next)
	if err != nil {
		return nil, s.backendError("rotate table", err)
	}

	s.record(ctx, actor, model.LayoutRotated, &before, updated)
	return updated, nil
}

func (s *layoutService) Delete(ctx context.Context, actor Actor, id int) error {
	ctx = client.WithBearer(ctx, actor.Token)

	before, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, id); err != nil {
		return s.backendError("delete table", err)
	}

	s.record(ctx, actor, model.LayoutDeleted, &before, nil)
	s.log.Info("Table deleted",
		"id", id,
		"table_number", before.TableNumber,
		"actor", actor.Subject,
	)
	return nil
}

func (s *layoutService) History(ctx context.Context, id int, limit int) ([]*model.LayoutEvent, error) {
	events, err := s.events.FindByTable(ctx, id, limit)
	if err != nil {
		if errors.Is(err, editorerrors.ErrInvalidTableID) {
			return nil, apperrors.InvalidInput("Invalid table ID")
		}
		s.log.Error("Failed to load layout history",
			"table_id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load layout history", err)
	}
	return events, nil
}

func (s *layoutService) find(ctx context.Context, id int) (model.Table, error) {
	tables, err := s.backend.List(ctx)
	if err != nil {
		return model.Table{}, s.backendError("list tables", err)
	}
	t, ok := model.FindTable(tables, id)
	if !ok {
		return model.Table{}, apperrors.NotFoundWithID("Table", strconv.Itoa(id))
	}
	return t, nil
}

// record runs the steps that follow a successful backend write. None of them
// can undo the write, so failures are logged and the mutation still succeeds.
func (s *layoutService) record(ctx context.Context, actor Actor, action model.LayoutAction, before, after *model.Table) {
	s.cache.Invalidate(ctx)

	event := &model.LayoutEvent{
		Action: action,
		Before: before,
		After:  after,
		Actor:  actor.Subject,
		At:     s.now().UTC(),
	}
	ref := after
	if ref == nil {
		ref = before
	}
	event.TableID = ref.ID
	event.Zone = ref.Zone

	if err := s.events.Insert(ctx, event); err != nil {
		s.log.Error("Failed to write layout audit record",
			"table_id", event.TableID,
			"action", action,
			"error", err,
		)
	}

	msg, err := kafka.NewMessage().
		WithKey(strconv.Itoa(event.TableID)).
		WithEventType(kafka.EventTableLayoutChanged).
		WithSource(s.cfg.Source).
		WithValue(event).
		Build()
	if err == nil {
		err = s.publisher.Publish(ctx, msg)
	}
	if err != nil {
		s.log.Error("Failed to publish layout event",
			"table_id", event.TableID,
			"action", action,
			"error", err,
		)
	}
}

func (s *layoutService) backendError(op string, err error) error {
	if apiErr, ok := client.AsAPIError(err); ok {
		switch {
		case apiErr.IsNotFound():
			return apperrors.New(apperrors.CodeNotFound, apiErr.Message, apiErr.Status)
		case apiErr.IsConflict():
			return apperrors.Conflict(apiErr.Message)
		case apiErr.Status == 401:
			return apperrors.Unauthorized(apiErr.Message)
		case apiErr.Status == 403:
			return apperrors.Forbidden(apiErr.Message)
		case apiErr.Status >= 400 && apiErr.Status < 500:
			return apperrors.Validation(apiErr.Message, nil)
		}
	}
	s.log.Error("Backend call failed", "operation", op, "error", err)
	return apperrors.BadGateway(client.Normalize(err), err)
}

// NextTableNumber is the first free number of the zone's range: zone index
// times 100 plus n, starting at n = 1.
func NextTableNumber(tables []model.Table, zone model.Zone) string {
	for n := 1; ; n++ {
		candidate := strconv.Itoa(zone.Index()*100 + n)
		if !numberTaken(tables, zone, candidate) {
			return candidate
		}
	}
}

func numberTaken(tables []model.Table, zone model.Zone, number string) bool {
	return slices.ContainsFunc(tables, func(t model.Table) bool {
		return t.Zone == zone && t.TableNumber == number
	})
}

// NextRotation turns a table one step clockwise.
func NextRotation(rotation float64) float64 {
	return math.Mod(rotation+validator.RotationStep, 360)
}
