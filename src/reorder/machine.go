// Package reorder implements drag-to-reorder with an optimistic update
// that is rolled back when the new order cannot be saved.
package reorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"folio-server/src/models"

	"github.com/rs/zerolog"
)

type State int

const (
	Idle State = iota
	Dragging
	Persisting
	RollingBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Persisting:
		return "persisting"
	case RollingBack:
		return "rolling_back"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrBusy        = errors.New("another reorder is in progress")
	ErrNotDragging = errors.New("no drag in progress")
	ErrUnknownItem = errors.New("unknown item")
)

// Board is the ordered list being rearranged.
type Board interface {
	// Order returns the ids in their current display order.
	Order(ctx context.Context) ([]int, error)
	// Apply shows order immediately and returns a func that undoes it.
	Apply(order []int) (restore func())
	// Persist saves order. It is called at most once per drop.
	Persist(ctx context.Context, order []int) error
	// Reconcile is called after a successful save so the authoritative
	// order is fetched again.
	Reconcile()
}

// Machine allows one drag at a time. It is safe for concurrent use; a
// second caller that tries to drag while another drag is open or being
// saved gets ErrBusy.
type Machine struct {
	board Board
	log   zerolog.Logger

	mu     sync.Mutex
	state  State
	active int
	before []int
	// drag numbers each Begin so a drop can tell whether the drag it
	// started is still the open one.
	drag     uint64
	onChange func(from, to State)
}

func NewMachine(board Board, logger zerolog.Logger) *Machine {
	return &Machine{board: board, log: logger.With().Str("component", "reorder").Logger()}
}

// OnTransition registers fn to observe state changes. fn must not call
// back into the machine.
func (m *Machine) OnTransition(fn func(from, to State)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// set changes state. Callers hold m.mu.
func (m *Machine) set(to State) {
	from := m.state
	m.state = to
	if m.onChange != nil && from != to {
		m.onChange(from, to)
	}
}

// Begin starts dragging id. It fails with ErrBusy unless the machine is
// idle.
func (m *Machine) Begin(ctx context.Context, id int) error {
	_, err := m.begin(ctx, id)
	return err
}

// begin claims the machine for id before reading the order, so no other
// drag can start while the order loads. It returns the drag number.
func (m *Machine) begin(ctx context.Context, id int) (uint64, error) {
	m.mu.Lock()
	if m.state != Idle {
		m.mu.Unlock()
		return 0, ErrBusy
	}
	m.drag++
	drag := m.drag
	m.active = id
	m.before = nil
	m.set(Dragging)
	m.mu.Unlock()

	order, err := m.board.Order(ctx)
	if err == nil && indexOf(order, id) < 0 {
		err = fmt.Errorf("%w: %d", ErrUnknownItem, id)
	} else if err != nil {
		err = fmt.Errorf("read order: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Dragging || m.drag != drag {
		// cancelled while loading
		return 0, ErrNotDragging
	}
	if err != nil {
		m.set(Idle)
		return 0, err
	}
	m.before = order
	return drag, nil
}

// Cancel abandons the current drag. It is a no-op unless dragging.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Dragging {
		m.before = nil
		m.set(Idle)
	}
}

// DropOn drops the dragged item onto the item with id overID, taking its
// position. Dropping onto itself or an unknown id ends the drag without
// saving.
func (m *Machine) DropOn(ctx context.Context, overID int) ([]int, error) {
	m.mu.Lock()
	if err := m.checkDragging(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	to := indexOf(m.before, overID)
	m.mu.Unlock()
	return m.DropAt(ctx, to)
}

// DropAt drops the dragged item at index. An index outside the list ends
// the drag without saving. It returns the order now shown.
func (m *Machine) DropAt(ctx context.Context, index int) ([]int, error) {
	return m.dropAt(ctx, index, 0)
}

// dropAt drops the open drag. A non-zero drag must match the open one.
func (m *Machine) dropAt(ctx context.Context, index int, drag uint64) ([]int, error) {
	m.mu.Lock()
	if err := m.checkDragging(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if drag != 0 && drag != m.drag {
		m.mu.Unlock()
		return nil, ErrNotDragging
	}
	before := m.before
	from := indexOf(before, m.active)
	after := Move(before, from, index)
	if index < 0 || index >= len(before) || equal(before, after) {
		m.before = nil
		m.set(Idle)
		m.mu.Unlock()
		return before, nil
	}
	if err := models.CheckPermutation(before, after); err != nil {
		m.before = nil
		m.set(Idle)
		m.mu.Unlock()
		return before, err
	}
	return m.commit(ctx, before, after, m.active)
}

// Reorder saves a complete new order in one step, without a drag.
func (m *Machine) Reorder(ctx context.Context, order []int) ([]int, error) {
	if m.State() != Idle {
		return nil, ErrBusy
	}
	before, err := m.board.Order(ctx)
	if err != nil {
		return nil, fmt.Errorf("read order: %w", err)
	}
	if err := models.CheckPermutation(before, order); err != nil {
		return before, err
	}
	if equal(before, order) {
		return before, nil
	}

	m.mu.Lock()
	if m.state != Idle {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	return m.commit(ctx, before, append([]int(nil), order...), 0)
}

// commit shows after optimistically and persists it, rolling back to
// before on failure. m.mu is held on entry and released on return.
func (m *Machine) commit(ctx context.Context, before, after []int, active int) ([]int, error) {
	restore := m.board.Apply(after)
	m.set(Persisting)
	m.mu.Unlock()

	err := m.board.Persist(ctx, after)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.before = nil
	if err != nil {
		m.set(RollingBack)
		restore()
		m.set(Idle)
		m.log.Warn().Err(err).Int("id", active).Ints("order", after).Msg("reorder failed, rolled back")
		return before, err
	}
	m.board.Reconcile()
	m.set(Idle)
	m.log.Info().Int("id", active).Ints("order", after).Msg("reordered")
	return after, nil
}

// Move drags id straight to index. Other drags are refused until it
// finishes.
func (m *Machine) Move(ctx context.Context, id, index int) ([]int, error) {
	drag, err := m.begin(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.dropAt(ctx, index, drag)
}

func (m *Machine) checkDragging() error {
	switch m.state {
	case Dragging:
		if m.before == nil {
			// Begin is still reading the order
			return ErrBusy
		}
		return nil
	case Persisting, RollingBack:
		return ErrBusy
	}
	return ErrNotDragging
}
