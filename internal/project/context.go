package project

import (
	"sync"

	"github.com/sitesurvey/camplan/pkg/core"
)

// Context holds the project currently open in this process
type Context struct {
	mu      sync.RWMutex
	project core.Project
}

// NewContext creates a new Context with a placeholder project
func NewContext(id string) *Context {
	return &Context{
		project: core.Project{ID: id, Name: "No project loaded"},
	}
}

// ID returns the current project id
func (pc *Context) ID() string {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.project.ID
}

// Get returns a copy of the current project
func (pc *Context) Get() core.Project {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	p := pc.project
	p.Vocabulary = p.Vocabulary.WithFallback(core.Vocabulary{})
	return p
}

// Set replaces the current project
func (pc *Context) Set(p core.Project) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.project = p
}

// Update applies fn to the current project under the write lock
func (pc *Context) Update(fn func(p *core.Project)) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	fn(&pc.project)
}
