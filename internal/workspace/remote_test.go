package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pomdtr/vt/internal/api"
)

// fakeRemote is an in-memory account that counts calls per method.
type fakeRemote struct {
	mu     sync.Mutex
	user   api.User
	vals   map[string]*api.Val
	order  []string
	env    map[string]string
	nextID int
	calls  map[string]int

	failVersion error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		user:  api.User{ID: "u1", Username: "alice"},
		vals:  map[string]*api.Val{},
		env:   map[string]string{},
		calls: map[string]int{},
	}
}

// seed adds a val with a fixed id without counting a call.
func (f *fakeRemote) seed(id, name, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vals[id] = &api.Val{ID: id, Name: name, Code: code, Version: 1, Author: api.Author{Username: f.user.Username}}
	f.order = append(f.order, id)
}

// edit changes a val behind the engine's back.
func (f *fakeRemote) edit(id, name, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.vals[id]
	v.Name = name
	v.Code = code
	v.Version++
}

func (f *fakeRemote) code(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.vals[id]; ok {
		return v.Code
	}
	return ""
}

func (f *fakeRemote) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeRemote) mutations() int {
	return f.count("CreateVal") + f.count("CreateVersion") + f.count("DeleteVal")
}

func (f *fakeRemote) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = map[string]int{}
}

func (f *fakeRemote) CreateVal(_ context.Context, name, code string) (*api.Val, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateVal"]++
	f.nextID++
	id := fmt.Sprintf("new-%d", f.nextID)
	v := &api.Val{ID: id, Name: name, Code: code, Version: 1, Author: api.Author{Username: f.user.Username}}
	f.vals[id] = v
	f.order = append(f.order, id)
	out := *v
	return &out, nil
}

func (f *fakeRemote) CreateVersion(_ context.Context, id, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateVersion"]++
	if f.failVersion != nil {
		return f.failVersion
	}
	v, ok := f.vals[id]
	if !ok {
		return &api.Error{StatusCode: 404, Status: "404 Not Found"}
	}
	v.Code = code
	v.Version++
	return nil
}

func (f *fakeRemote) DeleteVal(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteVal"]++
	if _, ok := f.vals[id]; !ok {
		return &api.Error{StatusCode: 404, Status: "404 Not Found"}
	}
	delete(f.vals, id)
	for i, other := range f.order {
		if other == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeRemote) CurrentUser(context.Context) (*api.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CurrentUser"]++
	u := f.user
	return &u, nil
}

func (f *fakeRemote) ListUserVals(_ context.Context, userID string) ([]api.Val, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListUserVals"]++
	if userID != f.user.ID {
		return nil, errors.New("unknown user")
	}
	out := make([]api.Val, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, *f.vals[id])
	}
	return out, nil
}

func (f *fakeRemote) GetVal(_ context.Context, id string) (*api.Val, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetVal"]++
	v, ok := f.vals[id]
	if !ok {
		return nil, &api.Error{StatusCode: 404, Status: "404 Not Found"}
	}
	out := *v
	return &out, nil
}

func (f *fakeRemote) Env(context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Env"]++
	out := make(map[string]string, len(f.env))
	for k, v := range f.env {
		out[k] = v
	}
	return out, nil
}

// prompter records prompts and answers them all the same way.
type prompter struct {
	mu      sync.Mutex
	answer  bool
	prompts []string
}

func (p *prompter) confirm(prompt string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	return p.answer
}
