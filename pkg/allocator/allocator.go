package allocator

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/arnavshah/advent-allocator/pkg/models"
)

const (
	// RandomSlots is the number of bags filled by the shuffle (days 1-23 plus a second day 8)
	RandomSlots = 24
	// FixedDay is the calendar day reserved for the fixed participant
	FixedDay = 24
	// ExtraDay is the day that gets a second bag
	ExtraDay = 8
)

var (
	// ErrEmptyRoster is returned when nobody is left to distribute after filtering
	ErrEmptyRoster = errors.New("empty participant list")
	// ErrNoFixedParticipant is returned when the policy does not name the day 24 person
	ErrNoFixedParticipant = errors.New("fixed participant name is required")
)

// Regime identifies which distribution branch an allocation used
type Regime string

const (
	// RegimeUnderFilled means fewer people than random bags; leftover bags get a second occupant
	RegimeUnderFilled Regime = "under_filled"
	// RegimeOverFilled means every bag is filled once and overflow is spread round-robin
	RegimeOverFilled Regime = "over_filled"
)

// RegimeFor reports the regime a pool of the given size falls into
func RegimeFor(poolSize int) Regime {
	if poolSize < RandomSlots {
		return RegimeUnderFilled
	}
	return RegimeOverFilled
}

// Policy holds the event rules applied around the shuffle
type Policy struct {
	// FixedParticipant always gets day 24 and never enters the random pool
	FixedParticipant string
	// NeverFirst lists placeholder labels that must not open the calendar
	NeverFirst []string
}

// DefaultPolicy returns the rules used by the office calendar
func DefaultPolicy() Policy {
	return Policy{
		FixedParticipant: "Sachuriga",
		NeverFirst:       []string{"new intern?"},
	}
}

// Source is the randomness an Allocator draws from. *rand.Rand satisfies it.
type Source interface {
	Shuffle(n int, swap func(i, j int))
}

// NewSource returns a deterministic source for the given seed
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// TimeSource returns a source seeded from the clock
func TimeSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Result is the outcome of one allocation
type Result struct {
	Bags     []models.Bag
	Regime   Regime
	PoolSize int
}

// Allocator distributes names across the advent calendar bags
type Allocator struct {
	Policy Policy
	rnd    Source
}

// New creates an allocator. A nil source falls back to TimeSource.
func New(policy Policy, src Source) *Allocator {
	if src == nil {
		src = TimeSource()
	}
	return &Allocator{Policy: policy, rnd: src}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Filter trims every name, drops blanks and removes the fixed participant
func (a *Allocator) Filter(names []string) []string {
	return Filter(a.Policy, names)
}

// Filter applies the policy's preprocessing without an allocator or random source
func Filter(policy Policy, names []string) []string {
	fixed := normalize(policy.FixedParticipant)
	pool := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || strings.ToLower(trimmed) == fixed {
			continue
		}
		pool = append(pool, trimmed)
	}
	return pool
}

func (a *Allocator) neverFirst(name string) bool {
	n := normalize(name)
	for _, label := range a.Policy.NeverFirst {
		if normalize(label) == n {
			return true
		}
	}
	return false
}

// guard moves a never-first label away from the head of the pool. It swaps
// with the closest entry to the tail that is allowed to go first.
func (a *Allocator) guard(pool []string) {
	if len(pool) < 2 || !a.neverFirst(pool[0]) {
		return
	}
	for i := len(pool) - 1; i > 0; i-- {
		if !a.neverFirst(pool[i]) {
			pool[0], pool[i] = pool[i], pool[0]
			return
		}
	}
}

func (a *Allocator) shuffle(names []string) {
	a.rnd.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
}

// newBags lays out the random bags: days 1-23 followed by the extra day 8
func newBags() []models.Bag {
	bags := make([]models.Bag, 0, RandomSlots)
	for day := 1; day < FixedDay; day++ {
		bags = append(bags, models.Bag{SlotID: day - 1, Day: day})
	}
	return append(bags, models.Bag{SlotID: RandomSlots - 1, Day: ExtraDay})
}

// Allocate shuffles the names into the calendar. The input slice is not modified.
func (a *Allocator) Allocate(names []string) (*Result, error) {
	fixed := strings.TrimSpace(a.Policy.FixedParticipant)
	if fixed == "" {
		return nil, ErrNoFixedParticipant
	}

	pool := a.Filter(names)
	total := len(pool)
	if total == 0 {
		return nil, ErrEmptyRoster
	}

	bags := newBags()
	a.shuffle(pool)
	a.guard(pool)

	regime := RegimeFor(total)
	switch regime {
	case RegimeUnderFilled:
		// Give everyone at least one
		for i := 0; i < total; i++ {
			bags[i].Assigned = append(bags[i].Assigned, pool[i])
		}

		// Leftover bags cycle through a fresh shuffle of the same people
		again := append([]string(nil), pool...)
		a.shuffle(again)
		nameIndex := 0
		for idx := total; idx < RandomSlots; idx++ {
			bags[idx].Assigned = append(bags[idx].Assigned, again[nameIndex])
			nameIndex = (nameIndex + 1) % total
		}

	case RegimeOverFilled:
		// Fill every bag once
		for i := 0; i < RandomSlots; i++ {
			bags[i].Assigned = append(bags[i].Assigned, pool[i])
		}

		order := make([]int, RandomSlots)
		for i := range order {
			order[i] = i
		}
		a.rnd.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		for i, person := range pool[RandomSlots:] {
			target := order[i%RandomSlots]
			bags[target].Assigned = append(bags[target].Assigned, person)
		}
	}

	bags = append(bags, models.Bag{
		SlotID:   RandomSlots,
		Day:      FixedDay,
		Assigned: []string{fixed},
	})
	sort.SliceStable(bags, func(i, j int) bool {
		return bags[i].Day < bags[j].Day
	})

	return &Result{Bags: bags, Regime: regime, PoolSize: total}, nil
}

// Count returns how many bags each person ended up in
func (r *Result) Count() map[string]int {
	counts := make(map[string]int)
	for _, bag := range r.Bags {
		for _, name := range bag.Assigned {
			counts[name]++
		}
	}
	return counts
}
