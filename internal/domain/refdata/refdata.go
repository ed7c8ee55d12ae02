// Package refdata holds the household reference catalog: categories, tags
// and members. The catalog is loaded once at startup from embedded seed
// files and injected read-only into every consumer; nothing mutates it
// after Load returns.
package refdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed seeds/*.json
var seedFS embed.FS

// Category is a canonical spending category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tag is a canonical purchase location/tag. Keywords seed the description
// suggestion engine; Name is what CSV cells are matched against.
type Tag struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords,omitempty"`
}

// Member is a household member.
type Member struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
	FullName  string `json:"fullName"`
}

// Catalog is the immutable reference data set. Lookup is by id or by
// exact trimmed case-insensitive name.
type Catalog struct {
	categories []Category
	tags       []Tag
	members    []Member

	categoryByName map[string]Category
	categoryByID   map[string]Category
	tagByName      map[string]Tag
	tagByID        map[string]Tag
	memberByName   map[string]Member
	memberByID     map[string]Member
}

// Load reads the embedded seed files and builds the catalog.
func Load() (*Catalog, error) {
	var categories []Category
	if err := loadSeed("seeds/categories.json", &categories); err != nil {
		return nil, err
	}
	var tags []Tag
	if err := loadSeed("seeds/tags.json", &tags); err != nil {
		return nil, err
	}
	var members []Member
	if err := loadSeed("seeds/members.json", &members); err != nil {
		return nil, err
	}
	return NewCatalog(categories, tags, members), nil
}

// NewCatalog builds a catalog from explicit seed slices. Tests use this to
// run against alternate reference sets.
func NewCatalog(categories []Category, tags []Tag, members []Member) *Catalog {
	c := &Catalog{
		categories:     append([]Category(nil), categories...),
		tags:           append([]Tag(nil), tags...),
		members:        append([]Member(nil), members...),
		categoryByName: make(map[string]Category, len(categories)),
		categoryByID:   make(map[string]Category, len(categories)),
		tagByName:      make(map[string]Tag, len(tags)),
		tagByID:        make(map[string]Tag, len(tags)),
		memberByName:   make(map[string]Member, 2*len(members)),
		memberByID:     make(map[string]Member, len(members)),
	}
	for _, cat := range c.categories {
		c.categoryByName[normalizeName(cat.Name)] = cat
		c.categoryByID[cat.ID] = cat
	}
	for _, tag := range c.tags {
		c.tagByName[normalizeName(tag.Name)] = tag
		c.tagByID[tag.ID] = tag
	}
	for _, m := range c.members {
		// Members answer to either form of their name.
		c.memberByName[normalizeName(m.ShortName)] = m
		c.memberByName[normalizeName(m.FullName)] = m
		c.memberByID[m.ID] = m
	}
	return c
}

// Categories returns a copy of the category list in seed order.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Tags returns a copy of the tag list in seed order.
func (c *Catalog) Tags() []Tag {
	return append([]Tag(nil), c.tags...)
}

// Members returns a copy of the member list in seed order.
func (c *Catalog) Members() []Member {
	return append([]Member(nil), c.members...)
}

// CategoryByName resolves a category by exact trimmed case-insensitive name.
func (c *Catalog) CategoryByName(name string) (Category, bool) {
	cat, ok := c.categoryByName[normalizeName(name)]
	return cat, ok
}

// CategoryByID resolves a category by its stable id.
func (c *Catalog) CategoryByID(id string) (Category, bool) {
	cat, ok := c.categoryByID[id]
	return cat, ok
}

// TagByName resolves a tag by exact trimmed case-insensitive name.
func (c *Catalog) TagByName(name string) (Tag, bool) {
	tag, ok := c.tagByName[normalizeName(name)]
	return tag, ok
}

// TagByID resolves a tag by its slug id.
func (c *Catalog) TagByID(id string) (Tag, bool) {
	tag, ok := c.tagByID[id]
	return tag, ok
}

// MemberByName resolves a member by short or full name, exact trimmed
// case-insensitive.
func (c *Catalog) MemberByName(name string) (Member, bool) {
	m, ok := c.memberByName[normalizeName(name)]
	return m, ok
}

// MemberByID resolves a member by id.
func (c *Catalog) MemberByID(id string) (Member, bool) {
	m, ok := c.memberByID[id]
	return m, ok
}

// CategoryNames returns all category display names in seed order.
func (c *Catalog) CategoryNames() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

func loadSeed(path string, v any) error {
	data, err := seedFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode seed %s: %w", path, err)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
