package sound

import (
	"sync"

	"alert-desk/internal/models"
)

// Catalog is the local copy of the backend sound catalog. It is replaced
// wholesale from sounds_list frames; the reserved sentinel names live
// outside it.
type Catalog struct {
	mu     sync.RWMutex
	sounds []models.Sound
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

// Replace swaps the whole catalog for the given sounds.
func (c *Catalog) Replace(sounds []models.Sound) {
	c.mu.Lock()
	c.sounds = append([]models.Sound(nil), sounds...)
	c.mu.Unlock()
}

// List returns a copy of the catalog.
func (c *Catalog) List() []models.Sound {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Sound(nil), c.sounds...)
}

// ByName looks up a sound by exact name match.
func (c *Catalog) ByName(name string) (models.Sound, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.sounds {
		if s.Name == name {
			return s, true
		}
	}
	return models.Sound{}, false
}
