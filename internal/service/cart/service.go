package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/storage"
	"storefront/internal/watch"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Snapshot is an immutable view of the cart handed to readers and subscribers.
type Snapshot struct {
	Lines         []domain.CartLine `json:"lines"`
	Total         domain.Price      `json:"total"`
	ItemCount     int               `json:"itemCount"`
	SelectedCount int               `json:"selectedCount"`
}

// Manager owns the cart lines. Every mutation updates memory, then writes the
// full line list to the store, then publishes a snapshot, all under one lock
// so persisted state never runs ahead of or behind memory.
type Manager struct {
	mu     sync.Mutex
	store  store
	logger *log.Logger
	lines  []domain.CartLine
	hub    *watch.Hub[Snapshot]
	newID  func() string
}

func New(s store, logger *log.Logger) *Manager {
	return &Manager{
		store:  s,
		logger: logger,
		lines:  []domain.CartLine{},
		hub:    watch.NewHub[Snapshot](),
		newID:  uuid.NewString,
	}
}

// Load restores the persisted cart. Missing, unreadable or corrupt data
// leaves an empty cart; the problem is logged and never returned.
func (m *Manager) Load(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lines = []domain.CartLine{}
	raw, err := m.store.Get(ctx, storage.KeyCart)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			m.logger.Printf("cart: load failed, starting empty: %v", err)
		}
		return
	}
	var saved []domain.CartLine
	if err := json.Unmarshal(raw, &saved); err != nil {
		m.logger.Printf("cart: discarding unparseable saved cart: %v", err)
		return
	}
	m.lines = m.sanitize(saved)
	m.logger.Printf("cart: restored %d lines", len(m.lines))
}

// sanitize drops lines that violate the cart invariants and merges
// duplicates, so hand-edited or stale records cannot break them.
func (m *Manager) sanitize(saved []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(saved))
	seenIDs := make(map[string]bool, len(saved))
	for _, line := range saved {
		if line.Quantity < 1 {
			continue
		}
		line.Variant = line.Variant.Clone()
		if idx := indexOfKey(out, line.ProductID, line.Variant.Signature()); idx >= 0 {
			out[idx].Quantity += line.Quantity
			out[idx].Selected = out[idx].Selected || line.Selected
			continue
		}
		if line.LineID == "" || seenIDs[line.LineID] {
			line.LineID = m.newID()
		}
		seenIDs[line.LineID] = true
		out = append(out, line)
	}
	return out
}

// AddItem adds quantity of product with the chosen variant. A line for the
// same product and variant is incremented and reselected instead of being
// duplicated. Quantities below 1 count as 1. A nil product is a programming
// error and panics.
func (m *Manager) AddItem(ctx context.Context, product *domain.Product, quantity int, variant domain.Variant) (domain.CartLine, error) {
	if product == nil {
		panic("cart: AddItem called with nil product")
	}
	if quantity < 1 {
		quantity = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sig := variant.Signature()
	var line domain.CartLine
	if idx := indexOfKey(m.lines, product.ID, sig); idx >= 0 {
		m.lines[idx].Quantity += quantity
		m.lines[idx].Selected = true
		line = m.lines[idx]
	} else {
		line = domain.CartLine{
			LineID:    m.newID(),
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			ShopName:  product.ShopName,
			UnitPrice: product.Price,
			Variant:   variant.Clone(),
			Quantity:  quantity,
			Selected:  true,
		}
		m.lines = append(m.lines, line)
	}
	line.Variant = line.Variant.Clone()
	return line, m.commit(ctx)
}

// RemoveItem deletes the line. Unknown ids are ignored.
func (m *Manager) RemoveItem(ctx context.Context, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := indexOfLine(m.lines, lineID)
	if idx < 0 {
		return nil
	}
	m.lines = append(m.lines[:idx], m.lines[idx+1:]...)
	return m.commit(ctx)
}

// Deduct takes ordered quantities, keyed by line id, out of the cart in one
// write. A line leaves the cart only when its quantity drops below 1, so
// units added after the order was built stay.
func (m *Manager) Deduct(ctx context.Context, ordered map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.lines[:0]
	changed := false
	for _, line := range m.lines {
		if n, ok := ordered[line.LineID]; ok && n > 0 {
			changed = true
			line.Quantity -= n
			if line.Quantity < 1 {
				continue
			}
		}
		kept = append(kept, line)
	}
	m.lines = kept
	if !changed {
		return nil
	}
	return m.commit(ctx)
}

// UpdateQuantity sets the line's quantity to exactly quantity; below 1 the
// line is removed. Unknown ids are ignored.
func (m *Manager) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := indexOfLine(m.lines, lineID)
	if idx < 0 {
		return nil
	}
	if quantity < 1 {
		m.lines = append(m.lines[:idx], m.lines[idx+1:]...)
	} else {
		m.lines[idx].Quantity = quantity
	}
	return m.commit(ctx)
}

// ToggleSelect flips the line's selection. Unknown ids are ignored.
func (m *Manager) ToggleSelect(ctx context.Context, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := indexOfLine(m.lines, lineID)
	if idx < 0 {
		return nil
	}
	m.lines[idx].Selected = !m.lines[idx].Selected
	return m.commit(ctx)
}

func (m *Manager) SelectAll(ctx context.Context, selected bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lines {
		m.lines[i].Selected = selected
	}
	return m.commit(ctx)
}

func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = []domain.CartLine{}
	return m.commit(ctx)
}

// Total is the sum of unit price times quantity over selected lines.
func (m *Manager) Total() domain.Price {
	m.mu.Lock()
	defer m.mu.Unlock()
	return total(m.lines)
}

// ItemCount is the sum of quantities over all lines, selected or not.
func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return itemCount(m.lines)
}

// SelectedCount is the number of selected lines.
func (m *Manager) SelectedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return selectedCount(m.lines)
}

func (m *Manager) Lines() []domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyLines(m.lines, false)
}

func (m *Manager) SelectedLines() []domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyLines(m.lines, true)
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Subscribe streams a snapshot after every successful mutation.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	return m.hub.Subscribe()
}

// commit must be called with m.mu held, after the in-memory change.
func (m *Manager) commit(ctx context.Context) error {
	raw, err := json.Marshal(m.lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := m.store.Put(ctx, storage.KeyCart, raw); err != nil {
		m.logger.Printf("cart: persist failed: %v", err)
		m.hub.Publish(m.snapshot())
		return fmt.Errorf("persist cart: %w", err)
	}
	m.hub.Publish(m.snapshot())
	return nil
}

func (m *Manager) snapshot() Snapshot {
	return Snapshot{
		Lines:         copyLines(m.lines, false),
		Total:         total(m.lines),
		ItemCount:     itemCount(m.lines),
		SelectedCount: selectedCount(m.lines),
	}
}

func total(lines []domain.CartLine) domain.Price {
	var sum domain.Price
	for _, l := range lines {
		if l.Selected {
			sum += l.Subtotal()
		}
	}
	return sum
}

func itemCount(lines []domain.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func selectedCount(lines []domain.CartLine) int {
	n := 0
	for _, l := range lines {
		if l.Selected {
			n++
		}
	}
	return n
}

func copyLines(lines []domain.CartLine, selectedOnly bool) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if selectedOnly && !l.Selected {
			continue
		}
		l.Variant = l.Variant.Clone()
		out = append(out, l)
	}
	return out
}

func indexOfLine(lines []domain.CartLine, lineID string) int {
	for i, l := range lines {
		if l.LineID == lineID {
			return i
		}
	}
	return -1
}

func indexOfKey(lines []domain.CartLine, productID int64, signature string) int {
	for i, l := range lines {
		if l.Matches(productID, signature) {
			return i
		}
	}
	return -1
}
