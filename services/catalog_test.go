package services

import (
	"errors"
	"testing"

	"salonbot-backend/models"
)

func TestCatalogDefaults(t *testing.T) {
	c, err := NewCatalog(DefaultServices())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	list := c.List()
	if len(list) != 4 || list[0].Key != "haircut" || list[3].Key != "spa" {
		t.Fatalf("unexpected order: %+v", list)
	}
	list[0].Price = 1
	if again := c.List(); again[0].Price != 1500 {
		t.Fatalf("List must return a copy")
	}

	haircut, err := c.Get("haircut")
	if err != nil || haircut.Price != 1500 || haircut.Duration != 60 {
		t.Fatalf("Get(haircut) = %+v, %v", haircut, err)
	}
	if _, err := c.Get("pedicure"); !errors.Is(err, ErrUnknownService) {
		t.Fatalf("expected ErrUnknownService, got %v", err)
	}
}

func TestCatalogFind(t *testing.T) {
	c, _ := NewCatalog(DefaultServices())

	for _, input := range []string{"manicure", "💅 Маникюр", "маникюр", "  МАНИКЮР "} {
		s, err := c.Find(input)
		if err != nil || s.Key != "manicure" {
			t.Errorf("Find(%q) = %q, %v", input, s.Key, err)
		}
	}
	for _, input := range []string{"", "💅", "педикюр"} {
		if _, err := c.Find(input); !errors.Is(err, ErrUnknownService) {
			t.Errorf("Find(%q): expected ErrUnknownService, got %v", input, err)
		}
	}
}

func TestCatalogRejectsBadEntries(t *testing.T) {
	cases := map[string][]models.Service{
		"empty":     nil,
		"duplicate": {{Key: "a", Name: "A", Price: 1, Duration: 1}, {Key: "a", Name: "B", Price: 1, Duration: 1}},
		"price":     {{Key: "a", Name: "A", Price: 0, Duration: 30}},
		"duration":  {{Key: "a", Name: "A", Price: 100, Duration: -5}},
		"no name":   {{Key: "a", Price: 100, Duration: 30}},
	}
	for name, services := range cases {
		if _, err := NewCatalog(services); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
