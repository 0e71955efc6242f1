package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"salonbot-backend/models"
)

var ErrUnknownService = errors.New("unknown service")

// Catalog is the fixed list of services offered to clients.
type Catalog struct {
	services []models.Service
	byKey    map[string]int
}

// DefaultServices is the catalog used when config.yaml does not declare one.
func DefaultServices() []models.Service {
	return []models.Service{
		{Key: "haircut", Name: "💇 Стрижка", Price: 1500, Duration: 60},
		{Key: "manicure", Name: "💅 Маникюр", Price: 1200, Duration: 60},
		{Key: "massage", Name: "💆 Массаж", Price: 2500, Duration: 60},
		{Key: "spa", Name: "🧖 SPA", Price: 3000, Duration: 60},
	}
}

func NewCatalog(services []models.Service) (*Catalog, error) {
	if len(services) == 0 {
		return nil, errors.New("catalog is empty")
	}
	c := &Catalog{
		services: make([]models.Service, len(services)),
		byKey:    make(map[string]int, len(services)),
	}
	copy(c.services, services)

	for i, s := range c.services {
		switch {
		case strings.TrimSpace(s.Key) == "":
			return nil, fmt.Errorf("service #%d has no key", i+1)
		case strings.TrimSpace(s.Name) == "":
			return nil, fmt.Errorf("service %q has no name", s.Key)
		case s.Price <= 0:
			return nil, fmt.Errorf("service %q: price must be positive", s.Key)
		case s.Duration <= 0:
			return nil, fmt.Errorf("service %q: duration must be positive", s.Key)
		}
		if _, dup := c.byKey[s.Key]; dup {
			return nil, fmt.Errorf("duplicate service key %q", s.Key)
		}
		c.byKey[s.Key] = i
	}
	return c, nil
}

// List returns the services in presentation order.
func (c *Catalog) List() []models.Service {
	out := make([]models.Service, len(c.services))
	copy(out, c.services)
	return out
}

func (c *Catalog) Get(key string) (models.Service, error) {
	i, ok := c.byKey[key]
	if !ok {
		return models.Service{}, fmt.Errorf("%w: %q", ErrUnknownService, key)
	}
	return c.services[i], nil
}

// Find resolves a button payload (the key) or the display name a client typed.
// Names match case-insensitively with or without their emoji prefix.
func (c *Catalog) Find(input string) (models.Service, error) {
	input = strings.TrimSpace(input)
	if s, err := c.Get(input); err == nil {
		return s, nil
	}
	want := bareName(input)
	if want == "" {
		return models.Service{}, fmt.Errorf("%w: %q", ErrUnknownService, input)
	}
	for _, s := range c.services {
		if bareName(s.Name) == want || strings.EqualFold(s.Key, want) {
			return s, nil
		}
	}
	return models.Service{}, fmt.Errorf("%w: %q", ErrUnknownService, input)
}

func bareName(s string) string {
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(strings.TrimSpace(s))
}
