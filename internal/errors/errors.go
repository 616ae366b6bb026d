package errors

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Collector gathers the errors and warnings of one generation run so that as
// many independent problems as possible surface in a single pass.
type Collector struct {
	errors   []error
	warnings []error
	mutex    sync.RWMutex
}

// NewCollector creates a new error collector
func NewCollector() *Collector {
	return &Collector{
		errors:   make([]error, 0),
		warnings: make([]error, 0),
	}
}

// Add records err. Content warnings go to the warning list, everything else
// is an error.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if IsContentWarning(err) {
		c.warnings = append(c.warnings, err)
		return
	}
	c.errors = append(c.errors, err)
}

// Errors returns a copy of the collected errors
func (c *Collector) Errors() []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]error, len(c.errors))
	copy(result, c.errors)
	return result
}

// Warnings returns a copy of the collected warnings
func (c *Collector) Warnings() []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]error, len(c.warnings))
	copy(result, c.warnings)
	return result
}

// HasErrors returns true if there are any errors
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.errors) > 0
}

// Err returns nil when nothing failed, the single error when there is one,
// and a *Collection otherwise.
func (c *Collector) Err() error {
	all := c.Errors()
	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	default:
		return &Collection{Errors: all}
	}
}

// Collection is the error returned when several errors were collected.
type Collection struct {
	Errors []error
}

// Error implements the error interface.
func (c *Collection) Error() string {
	messages := make([]string, 0, len(c.Errors))
	for _, err := range c.Errors {
		messages = append(messages, err.Error())
	}
	sort.Strings(messages)

	return fmt.Sprintf("%d errors:\n  %s", len(c.Errors), strings.Join(messages, "\n  "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (c *Collection) Unwrap() []error {
	return c.Errors
}
