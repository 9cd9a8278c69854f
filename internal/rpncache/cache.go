// Package rpncache caches the reverse Polish notation of expressions so that
// repeated evaluations skip tokenizing and parsing. Dice and functions are
// still evaluated on every call.
package rpncache

import (
	"container/list"
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/tariel36/rpncalc/internal/expression"
)

// DefaultSize is the capacity used when New is given a non-positive size.
const DefaultSize = 1024

type entry struct {
	key  uint64
	expr string
	rpn  []expression.Token
}

// Cache is a bounded map from expression text to its RPN. When full, the
// oldest entry is evicted.
type Cache struct {
	calc *expression.Calculator
	size int

	mu        sync.Mutex
	entries   map[uint64]*list.Element
	order     *list.List
	hits      uint64
	misses    uint64
	evictions uint64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int    `json:"entries" yaml:"entries"`
	Capacity  int    `json:"capacity" yaml:"capacity"`
	Hits      uint64 `json:"hits" yaml:"hits"`
	Misses    uint64 `json:"misses" yaml:"misses"`
	Evictions uint64 `json:"evictions" yaml:"evictions"`
}

// New creates a cache for expressions handled by calc.
func New(calc *expression.Calculator, size int) *Cache {
	if calc == nil {
		calc = expression.NewCalculator(nil, nil)
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Cache{
		calc:    calc,
		size:    size,
		entries: make(map[uint64]*list.Element, size),
		order:   list.New(),
	}
}

// Key returns the hash an expression is stored under.
func Key(expr string) uint64 {
	return murmur3.Sum64([]byte(expr))
}

// Calculator returns the calculator the cache compiles with.
func (c *Cache) Calculator() *expression.Calculator {
	return c.calc
}

// ToRPN returns the RPN of expr, converting and storing it on a miss.
// Conversion errors are not cached. The returned slice is a copy.
func (c *Cache) ToRPN(expr string) ([]expression.Token, error) {
	key := Key(expr)

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		if e.expr == expr {
			c.hits++
			rpn := clone(e.rpn)
			c.mu.Unlock()
			return rpn, nil
		}
	}
	c.misses++
	c.mu.Unlock()

	rpn, err := c.calc.ToRPN(expr)
	if err != nil {
		return nil, err
	}

	c.put(key, expr, rpn)
	return clone(rpn), nil
}

// Evaluate evaluates expr using the cached RPN.
func (c *Cache) Evaluate(expr string) (string, error) {
	rpn, err := c.ToRPN(expr)
	if err != nil {
		return "", err
	}
	return c.calc.Evaluator().Evaluate(rpn)
}

func (c *Cache) put(key uint64, expr string, rpn []expression.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A colliding expression replaces the stored one.
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.expr = expr
		e.rpn = rpn
		return
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, expr: expr, rpn: rpn})
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
		c.evictions++
	}
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   c.order.Len(),
		Capacity:  c.size,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Purge drops every entry and resets the counters.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*list.Element, c.size)
	c.order.Init()
	c.hits, c.misses, c.evictions = 0, 0, 0
}

func clone(tokens []expression.Token) []expression.Token {
	out := make([]expression.Token, len(tokens))
	copy(out, tokens)
	return out
}
