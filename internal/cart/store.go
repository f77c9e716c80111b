// Package cart holds a visitor's cart and mirrors it to durable storage
// on every change.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/shopspring/decimal"
)

// Namespace prefixes every storage key.
const Namespace = "cart-storage"

// formatVersion is written into every persisted envelope. Bump it only
// together with a migration for older payloads.
const formatVersion = 0

// ErrNotFound is returned by a Persister when the key has never been
// written.
var ErrNotFound = errors.New("cart: no stored state")

// Persister stores one serialized cart per key.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// State is the persisted part of a cart.
type State struct {
	Items []models.CartItem `json:"items"`
}

type envelope struct {
	State   State `json:"state"`
	Version int   `json:"version"`
}

// Encode serializes state in the stable storage format.
func Encode(s State) ([]byte, error) {
	if s.Items == nil {
		s.Items = []models.CartItem{}
	}
	return json.Marshal(envelope{State: s, Version: formatVersion})
}

// Decode parses the storage format.
func Decode(data []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return State{}, fmt.Errorf("decode cart: %w", err)
	}
	if env.Version > formatVersion {
		return State{}, fmt.Errorf("decode cart: unsupported version %d", env.Version)
	}
	if env.State.Items == nil {
		env.State.Items = []models.CartItem{}
	}
	return env.State, nil
}

// Store is one cart. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	key       string
	persister Persister
	items     []models.CartItem
}

// Open hydrates the cart stored under key, or starts empty when nothing
// is stored there yet. A payload that cannot be decoded is an error and
// is left in place.
func Open(ctx context.Context, p Persister, key string) (*Store, error) {
	s := &Store{key: key, persister: p}
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.items = items
	return s, nil
}

func (s *Store) load(ctx context.Context) ([]models.CartItem, error) {
	data, err := s.persister.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", s.key, err)
	}
	state, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", s.key, err)
	}
	return state.Items, nil
}

// Key is the storage key the cart persists under.
func (s *Store) Key() string {
	return s.key
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem{}, s.items...)
}

// AddItem merges item into the line with the same product and size, or
// appends it as a new line.
func (s *Store) AddItem(ctx context.Context, item models.CartItem) error {
	return s.mutate(ctx, func(items []models.CartItem) []models.CartItem {
		for i := range items {
			if items[i].SameLine(item) {
				items[i].Quantity += item.Quantity
				return items
			}
		}
		return append(items, item)
	})
}

// RemoveItem drops every line for productID, whatever its size.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	return s.mutate(ctx, func(items []models.CartItem) []models.CartItem {
		kept := items[:0]
		for _, it := range items {
			if it.ProductID != productID {
				kept = append(kept, it)
			}
		}
		return kept
	})
}

// UpdateQuantity sets the quantity of every line for productID. The
// value is taken as given.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	return s.mutate(ctx, func(items []models.CartItem) []models.CartItem {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity = quantity
			}
		}
		return items
	})
}

// Subtract takes lines back out of the cart: each matching line loses
// the given quantity and is dropped once nothing is left. Lines that are
// not listed, or were added since, stay.
func (s *Store) Subtract(ctx context.Context, lines []models.CartItem) error {
	return s.mutate(ctx, func(items []models.CartItem) []models.CartItem {
		kept := items[:0]
		for _, it := range items {
			for _, l := range lines {
				if it.SameLine(l) {
					it.Quantity -= l.Quantity
				}
			}
			if it.Quantity > 0 {
				kept = append(kept, it)
			}
		}
		return kept
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func([]models.CartItem) []models.CartItem {
		return nil
	})
}

// TotalItems is the sum of quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the sum of price * quantity.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.items)
}

// Total sums price * quantity over items.
func Total(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(models.LineTotal(it.Price, it.Quantity))
	}
	return total
}

// mutate re-reads the stored cart, applies fn and persists the result,
// so writes made through other stores for the same key are kept. The
// in-memory cart only changes once the save succeeded.
func (s *Store) mutate(ctx context.Context, fn func([]models.CartItem) []models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return err
	}
	next := fn(current)
	data, err := Encode(State{Items: next})
	if err != nil {
		return err
	}
	if err := s.persister.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("save cart %s: %w", s.key, err)
	}
	s.items = next
	return nil
}
