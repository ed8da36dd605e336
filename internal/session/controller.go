package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/resume-screener/internal/apperrors"
)

// DefaultInFlightTTL bounds how long an upload or analysis marker blocks a new one,
// so a marker left behind by a crashed process eventually clears.
const DefaultInFlightTTL = 10 * time.Minute

// Guard inspects the current state and vetoes a dispatch by returning an error.
type Guard func(State) error

// Controller owns every session. Dispatches on one session are serialised.
type Controller struct {
	store       Store
	inFlightTTL time.Duration
	now         func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewController(store Store, inFlightTTL time.Duration) *Controller {
	if inFlightTTL <= 0 {
		inFlightTTL = DefaultInFlightTTL
	}
	return &Controller{
		store:       store,
		inFlightTTL: inFlightTTL,
		now:         time.Now,
		locks:       make(map[string]*sessionLock),
	}
}

// Start opens a new session for email and returns its identifier.
func (c *Controller) Start(ctx context.Context, email string) (string, State, error) {
	id := uuid.NewString()
	state := NewState(email)
	if err := c.store.Save(ctx, id, state); err != nil {
		return "", State{}, fmt.Errorf("failed to start session: %w", err)
	}
	return id, state, nil
}

// End discards the session and everything recorded in it.
func (c *Controller) End(ctx context.Context, id string) error {
	unlock := c.lock(id)
	defer unlock()

	return c.store.Delete(ctx, id)
}

func (c *Controller) State(ctx context.Context, id string) (State, error) {
	state, err := c.store.Load(ctx, id)
	if err != nil {
		return State{}, mapStoreError(err)
	}
	return state, nil
}

// Dispatch applies actions in order and persists the result.
func (c *Controller) Dispatch(ctx context.Context, id string, actions ...Action) (State, error) {
	return c.DispatchIf(ctx, id, nil, actions...)
}

// DispatchIf is Dispatch with a guard evaluated against the state before the actions.
func (c *Controller) DispatchIf(ctx context.Context, id string, guard Guard, actions ...Action) (State, error) {
	unlock := c.lock(id)
	defer unlock()

	state, err := c.store.Load(ctx, id)
	if err != nil {
		return State{}, mapStoreError(err)
	}

	if guard != nil {
		if err := guard(state); err != nil {
			return state, err
		}
	}

	for _, action := range actions {
		state = Reduce(state, action)
	}

	if err := c.store.Save(ctx, id, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// BeginUpload marks an upload batch as running, refusing if one already is.
func (c *Controller) BeginUpload(ctx context.Context, id string) (State, error) {
	now := c.now()
	return c.DispatchIf(ctx, id, func(s State) error {
		if s.UploadStartedAt != nil && now.Sub(*s.UploadStartedAt) < c.inFlightTTL {
			return apperrors.NewBatchInFlightError("upload")
		}
		return nil
	}, UploadStarted{At: now})
}

// BeginAnalysis marks an analysis as running, refusing if one already is.
func (c *Controller) BeginAnalysis(ctx context.Context, id string) (State, error) {
	now := c.now()
	return c.DispatchIf(ctx, id, func(s State) error {
		if s.AnalysisStartedAt != nil && now.Sub(*s.AnalysisStartedAt) < c.inFlightTTL {
			return apperrors.NewBatchInFlightError("analysis")
		}
		return nil
	}, AnalysisStarted{At: now})
}

func (c *Controller) lock(id string) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &sessionLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}

func mapStoreError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperrors.NewSessionNotFoundError()
	}
	return err
}
