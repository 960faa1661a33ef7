package store

import "github.com/Veraticus/my-budget-client/internal/model"

// CategoryCache is the ordered category list last fetched from the service.
// It is stale until refreshed by an explicit fetch.
type CategoryCache struct {
	value *Value[[]model.Category]
}

// NewCategoryCache creates an empty cache.
func NewCategoryCache() *CategoryCache {
	return &CategoryCache{value: NewValue[[]model.Category](nil)}
}

// Replace stores a copy of categories, keeping their order.
func (c *CategoryCache) Replace(categories []model.Category) {
	c.value.Set(cloneCategories(categories))
}

// All returns a copy of the cached categories.
func (c *CategoryCache) All() []model.Category {
	return cloneCategories(c.value.Get())
}

// Find looks up a cached category by id.
func (c *CategoryCache) Find(id int) (model.Category, bool) {
	for _, cat := range c.value.Get() {
		if cat.ID == id {
			return cat, true
		}
	}
	return model.Category{}, false
}

// Len returns the number of cached categories.
func (c *CategoryCache) Len() int {
	return len(c.value.Get())
}

// Subscribe registers fn for changes to the list.
func (c *CategoryCache) Subscribe(fn func([]model.Category)) func() {
	return c.value.Subscribe(func(categories []model.Category) {
		fn(cloneCategories(categories))
	})
}

func cloneCategories(categories []model.Category) []model.Category {
	if categories == nil {
		return nil
	}
	out := make([]model.Category, len(categories))
	copy(out, categories)
	return out
}
