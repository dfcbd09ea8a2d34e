package id

import (
	"fmt"
	"math"
	"sync"
)

// Class names an independent identity sequence.
type Class string

// Sequence classes.
const (
	ClassContract    Class = "contract"
	ClassCredit      Class = "credit"
	ClassTransaction Class = "transaction"
	ClassEvent       Class = "event"
)

// Classes lists every sequence class in a stable order.
func Classes() []Class {
	return []Class{ClassContract, ClassCredit, ClassTransaction, ClassEvent}
}

// Watermarks maps a class to the highest value already issued for it.
type Watermarks map[Class]uint64

// Issuer hands out strictly increasing numeric identifiers per class.
// The first value of every class is 1. An Issuer is safe for concurrent use.
type Issuer struct {
	mu   sync.Mutex
	last map[Class]uint64
}

// NewIssuer creates an Issuer with every sequence at zero.
func NewIssuer() *Issuer {
	return &Issuer{last: make(map[Class]uint64)}
}

// Next returns one more than every value previously issued for class.
// It panics if the sequence is exhausted.
func (i *Issuer) Next(class Class) uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	cur := i.last[class]
	if cur == math.MaxUint64 {
		panic(fmt.Sprintf("id: %s sequence exhausted", class))
	}
	cur++
	i.last[class] = cur
	return cur
}

// Peek returns the last value issued for class, or 0.
func (i *Issuer) Peek(class Class) uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.last[class]
}

// Seed raises the high-water mark of class to floor. It never lowers it,
// so identifiers already handed out are never reissued.
func (i *Issuer) Seed(class Class, floor uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if floor > i.last[class] {
		i.last[class] = floor
	}
}

// SeedAll applies Seed for every class in w.
func (i *Issuer) SeedAll(w Watermarks) {
	for class, floor := range w {
		i.Seed(class, floor)
	}
}
