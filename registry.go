package agentauth

import (
	"fmt"
	"sort"
)

// DriverRegistry holds the set of registered challenge drivers and
// selects among them by requested dimension coverage.
type DriverRegistry struct {
	order   []string
	drivers map[string]ChallengeDriver
}

// NewDriverRegistry builds an empty registry.
func NewDriverRegistry() *DriverRegistry {
	return &DriverRegistry{drivers: make(map[string]ChallengeDriver)}
}

// Register adds a driver, erroring if its name collides with one
// already registered.
func (r *DriverRegistry) Register(driver ChallengeDriver) error {
	name := driver.Name()
	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("driver %q is already registered", name)
	}
	r.drivers[name] = driver
	r.order = append(r.order, name)
	return nil
}

// Get looks up a driver by name.
func (r *DriverRegistry) Get(name string) (ChallengeDriver, bool) {
	d, ok := r.drivers[name]
	return d, ok
}

// List returns all registered drivers in registration order.
func (r *DriverRegistry) List() []ChallengeDriver {
	out := make([]ChallengeDriver, len(r.order))
	for i, name := range r.order {
		out[i] = r.drivers[name]
	}
	return out
}

// Select returns up to count drivers. With no requested dimensions, it
// returns the first count drivers in registration order. Otherwise each
// driver is scored by how many of its dimensions appear in dims, and the
// highest-scoring drivers win; ties preserve registration order, so the
// sort must be stable.
func (r *DriverRegistry) Select(dims []string, count int) ([]ChallengeDriver, error) {
	all := r.List()
	if len(all) == 0 {
		return nil, fmt.Errorf("no challenge drivers registered")
	}

	if len(dims) == 0 {
		if count > len(all) {
			count = len(all)
		}
		return all[:count], nil
	}

	dimSet := make(map[string]struct{}, len(dims))
	for _, d := range dims {
		dimSet[d] = struct{}{}
	}

	type scoredDriver struct {
		coverage int
		driver   ChallengeDriver
	}
	scored := make([]scoredDriver, len(all))
	for i, d := range all {
		coverage := 0
		for _, dim := range d.Dimensions() {
			if _, ok := dimSet[dim]; ok {
				coverage++
			}
		}
		scored[i] = scoredDriver{coverage: coverage, driver: d}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].coverage > scored[j].coverage
	})

	if count > len(scored) {
		count = len(scored)
	}
	out := make([]ChallengeDriver, count)
	for i := 0; i < count; i++ {
		out[i] = scored[i].driver
	}
	return out, nil
}
