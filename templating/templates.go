package templating

import (
	_ "embed"
	"html/template"
	"path/filepath"
	"sync"
)

//go:embed index.html
var defaultIndex string

type templates struct {
	lock   sync.Mutex
	cached map[string]*template.Template
}

var instance *templates
var singletonLock = &sync.Once{}

func getInstance() *templates {
	if instance == nil {
		singletonLock.Do(func() {
			instance = &templates{
				cached: make(map[string]*template.Template),
			}
		})
	}
	return instance
}

// GetTemplate parses the template file at p, or the built-in index page
// when p is empty. Parsed templates are cached by path.
func GetTemplate(p string) (*template.Template, error) {
	i := getInstance()
	i.lock.Lock()
	defer i.lock.Unlock()
	if v, ok := i.cached[p]; ok {
		return v, nil
	}

	var t *template.Template
	var err error
	if p == "" {
		t, err = template.New("index.html").Parse(defaultIndex)
	} else {
		t, err = template.New(filepath.Base(p)).ParseFiles(p)
	}
	if err != nil {
		return nil, err
	}

	i.cached[p] = t
	return t, nil
}

// Forget drops p from the cache so the next GetTemplate call re-reads it.
func Forget(p string) {
	i := getInstance()
	i.lock.Lock()
	defer i.lock.Unlock()
	delete(i.cached, p)
}
