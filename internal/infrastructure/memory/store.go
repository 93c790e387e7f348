// Package memory implementa los puertos de persistencia del libro en memoria.
// Se usa con STORE_DRIVER=memory (demos, desarrollo local) y en los tests de casos de uso.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
)

// state contenido completo del almacén. Las transacciones trabajan sobre una copia
// y la publican al confirmar.
type state struct {
	properties map[string]*entity.Property
	categories map[string]*entity.Category
	plans      map[string]*entity.Plan
	snapshots  map[string]*entity.InventorySnapshot
	movements  map[int64]*entity.Movement
	nextID     int64
}

func newState() *state {
	return &state{
		properties: make(map[string]*entity.Property),
		categories: make(map[string]*entity.Category),
		plans:      make(map[string]*entity.Plan),
		snapshots:  make(map[string]*entity.InventorySnapshot),
		movements:  make(map[int64]*entity.Movement),
	}
}

// clone copia los mapas; las entidades se comparten porque nunca se modifican en sitio.
func (s *state) clone() *state {
	c := &state{
		properties: make(map[string]*entity.Property, len(s.properties)),
		categories: make(map[string]*entity.Category, len(s.categories)),
		plans:      make(map[string]*entity.Plan, len(s.plans)),
		snapshots:  make(map[string]*entity.InventorySnapshot, len(s.snapshots)),
		movements:  make(map[int64]*entity.Movement, len(s.movements)),
		nextID:     s.nextID,
	}
	for k, v := range s.properties {
		c.properties[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.plans {
		c.plans[k] = v
	}
	for k, v := range s.snapshots {
		c.snapshots[k] = v
	}
	for k, v := range s.movements {
		c.movements[k] = v
	}
	return c
}

// access abstrae si un repositorio lee el estado confirmado o el de una transacción.
type access interface {
	view(fn func(st *state))
	update(fn func(st *state) error) error
}

// Store almacén en memoria. Las escrituras se serializan con writer; los lectores
// ven siempre el último estado confirmado.
type Store struct {
	writer sync.Mutex
	mu     sync.RWMutex
	st     *state
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) view(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.st)
}

func (s *Store) update(fn func(st *state) error) error {
	s.writer.Lock()
	defer s.writer.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// txState estado privado de una transacción en curso.
type txState struct{ st *state }

func (t txState) view(fn func(st *state))               { fn(t.st) }
func (t txState) update(fn func(st *state) error) error { return fn(t.st) }

// Movements repositorio de movimientos sobre el estado confirmado.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{a: s} }

// Snapshots repositorio de snapshots sobre el estado confirmado.
func (s *Store) Snapshots() *SnapshotRepo { return &SnapshotRepo{a: s} }

// Properties repositorio de propiedades.
func (s *Store) Properties() *PropertyRepo { return &PropertyRepo{a: s} }

// Categories repositorio de categorías.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{a: s} }

// Plans repositorio de planes.
func (s *Store) Plans() *PlanRepo { return &PlanRepo{a: s} }

// Catalog agrupa los repositorios de referencias para los casos de uso del libro.
func (s *Store) Catalog() ledger.Catalog {
	return ledger.Catalog{Properties: s.Properties(), Categories: s.Categories(), Plans: s.Plans()}
}

// TxRunner ejecuta transacciones sobre el almacén: copia el estado, ejecuta fn sobre la copia
// y la publica solo si fn no devuelve error. Serializa todas las transacciones, no solo
// las del mismo plan.
type TxRunner struct {
	store *Store
}

var _ ledger.TxRunner = (*TxRunner)(nil)

// NewTxRunner crea el runner de transacciones del almacén.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run implementa ledger.TxRunner.
func (r *TxRunner) Run(ctx context.Context, _ string, fn func(
	movRepo repository.MovementRepository,
	snapshotRepo repository.SnapshotRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.writer.Lock()
	defer s.writer.Unlock()

	s.mu.RLock()
	next := s.st.clone()
	s.mu.RUnlock()

	tx := txState{st: next}
	if err := fn(&MovementRepo{a: tx}, &SnapshotRepo{a: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.st = next
	s.mu.Unlock()
	return nil
}
