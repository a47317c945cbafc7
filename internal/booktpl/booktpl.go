// Package booktpl loads the bundled book templates used to seed a new book
// with default categories, tags and payees.
package booktpl

import (
	_ "embed"
	"encoding/json"
	"sync"
)

//go:embed templates.json
var raw []byte

// CategoryTemplate is a category entry in a book template. Children become
// categories with this entry as parent.
type CategoryTemplate struct {
	Name     string             `json:"name"`
	Type     string             `json:"type"`
	Children []CategoryTemplate `json:"children,omitempty"`
}

// TagTemplate is a tag entry in a book template.
type TagTemplate struct {
	Name     string        `json:"name"`
	Children []TagTemplate `json:"children,omitempty"`
}

// PayeeTemplate is a payee entry in a book template.
type PayeeTemplate struct {
	Name string `json:"name"`
}

// Template describes a pre-defined book layout.
type Template struct {
	ID         int                `json:"id"`
	Name       string             `json:"name"`
	Notes      string             `json:"notes"`
	Categories []CategoryTemplate `json:"categories"`
	Tags       []TagTemplate      `json:"tags"`
	Payees     []PayeeTemplate    `json:"payees"`
}

var (
	templates []Template
	loadOnce  sync.Once
)

func load() {
	loadOnce.Do(func() {
		if err := json.Unmarshal(raw, &templates); err != nil {
			// The template file is compiled in; a parse failure is a build defect.
			panic("booktpl: invalid templates.json: " + err.Error())
		}
	})
}

// All returns every bundled template.
func All() []Template {
	load()
	return templates
}

// ByID returns the template with the given id.
func ByID(id int) (*Template, bool) {
	load()
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], true
		}
	}
	return nil, false
}

// Default returns the first bundled template.
func Default() *Template {
	load()
	return &templates[0]
}
