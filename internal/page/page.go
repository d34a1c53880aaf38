// Package page holds the state of the user administration page and the
// transitions that drive it.
package page

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/wichananm65/user-admin/internal/client"
	"github.com/wichananm65/user-admin/internal/user"
)

// BusyCreate marks an in-flight create call.
const BusyCreate = "create"

var ErrBusy = errors.New("operation already in progress")

// UserAPI is the data-access surface the page needs. *client.Client
// satisfies it.
type UserAPI interface {
	List(ctx context.Context) ([]user.User, error)
	Create(ctx context.Context, u user.User) (client.Ack, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateByID(ctx context.Context, id string, patch user.Patch) (client.Ack, error)
	DeleteByID(ctx context.Context, id string) (client.Ack, error)
}

// Form holds the raw text of the name and age inputs.
type Form struct {
	Firstname string
	Lastname  string
	Age       string
}

type Notice struct {
	Text     string
	Severity client.Severity
}

type Editing struct {
	ID       string
	Original user.User
	Form     Form
}

type State struct {
	Users   []user.User
	Loading bool
	Notice  Notice
	Draft   Form
	Editing *Editing
	// Busy is keyed by operation: "create", "update-<id>", "delete-<id>".
	Busy map[string]bool
}

func BusyUpdate(id string) string { return "update-" + id }
func BusyDelete(id string) string { return "delete-" + id }

// Page serializes state transitions behind one mutex. API calls run outside
// the lock, so operations on different keys overlap; the last list response
// to arrive replaces the list.
type Page struct {
	api    UserAPI
	mu     sync.Mutex
	state  State
	loaded bool
	// loads counts list calls in flight; Loading holds while any is pending.
	loads int
}

func New(api UserAPI) *Page {
	return &Page{
		api:   api,
		state: State{Users: []user.User{}, Busy: map[string]bool{}},
	}
}

// Snapshot returns a copy of the current state safe to read without the lock.
func (p *Page) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.state
	s.Users = append([]user.User(nil), p.state.Users...)
	s.Busy = make(map[string]bool, len(p.state.Busy))
	for k, v := range p.state.Busy {
		s.Busy[k] = v
	}
	if p.state.Editing != nil {
		ed := *p.state.Editing
		s.Editing = &ed
	}
	return s
}

// Loaded reports whether a list call has succeeded at least once.
func (p *Page) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

func (p *Page) IsBusy(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Busy[key]
}

func (p *Page) SetDraft(f Form) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Draft = f
}

// SetEditForm replaces the inputs of the user being edited, if any.
func (p *Page) SetEditForm(f Form) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Editing != nil {
		p.state.Editing.Form = f
	}
}

func (p *Page) CancelEdit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Editing = nil
}

func (p *Page) DismissNotice() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Notice = Notice{}
}

// Load replaces the user list with the server's.
func (p *Page) Load(ctx context.Context) error {
	p.mu.Lock()
	p.loads++
	p.state.Loading = true
	p.mu.Unlock()

	users, err := p.api.List(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads--
	p.state.Loading = p.loads > 0
	if err != nil {
		return p.failLocked(err)
	}
	p.state.Users = users
	p.loaded = true
	return nil
}

// Create submits the draft. The draft is cleared only on success.
func (p *Page) Create(ctx context.Context) error {
	if !p.acquire(BusyCreate) {
		return ErrBusy
	}
	defer p.release(BusyCreate)

	p.mu.Lock()
	draft := p.state.Draft
	p.mu.Unlock()

	u, err := parseForm(draft)
	if err != nil {
		return p.fail(err)
	}

	ack, err := p.api.Create(ctx, u)
	if err != nil {
		err = p.fail(err)
		p.refresh(ctx)
		return err
	}

	p.mu.Lock()
	p.state.Draft = Form{}
	if ack.ID != "" {
		u.ID = ack.ID
		p.state.Users = append(p.state.Users, u)
	}
	p.state.Notice = info(ack.Message, "User created")
	p.mu.Unlock()

	p.refresh(ctx)
	return nil
}

// StartEdit loads the latest copy of the user and opens it for editing,
// replacing any edit in progress.
func (p *Page) StartEdit(ctx context.Context, id string) error {
	u, err := p.api.GetByID(ctx, id)
	if err != nil {
		err = p.fail(err)
		p.refresh(ctx)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Editing = &Editing{
		ID:       u.ID,
		Original: u,
		Form: Form{
			Firstname: u.Firstname,
			Lastname:  u.Lastname,
			Age:       strconv.Itoa(u.Age),
		},
	}
	return nil
}

// SaveEdit sends the fields that differ from the record being edited.
func (p *Page) SaveEdit(ctx context.Context) error {
	p.mu.Lock()
	if p.state.Editing == nil {
		p.mu.Unlock()
		return nil
	}
	ed := *p.state.Editing
	p.mu.Unlock()

	key := BusyUpdate(ed.ID)
	if !p.acquire(key) {
		return ErrBusy
	}
	defer p.release(key)

	patch, err := diffForm(ed.Original, ed.Form)
	if err != nil {
		return p.fail(err)
	}
	if patch.IsEmpty() {
		p.mu.Lock()
		p.state.Editing = nil
		p.state.Notice = Notice{Text: "No changes to save", Severity: client.SeverityInfo}
		p.mu.Unlock()
		return nil
	}

	ack, err := p.api.UpdateByID(ctx, ed.ID, patch)
	if err != nil {
		err = p.fail(err)
		p.refresh(ctx)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, u := range p.state.Users {
		if u.ID == ed.ID {
			p.state.Users[i] = patch.Apply(u)
		}
	}
	if p.state.Editing != nil && p.state.Editing.ID == ed.ID {
		p.state.Editing = nil
	}
	p.state.Notice = info(ack.Message, "User updated")
	return nil
}

// Delete removes the user locally once the server confirms.
func (p *Page) Delete(ctx context.Context, id string) error {
	key := BusyDelete(id)
	if !p.acquire(key) {
		return ErrBusy
	}
	defer p.release(key)

	ack, err := p.api.DeleteByID(ctx, id)
	if err != nil {
		err = p.fail(err)
		p.refresh(ctx)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	kept := make([]user.User, 0, len(p.state.Users))
	for _, u := range p.state.Users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	p.state.Users = kept
	if p.state.Editing != nil && p.state.Editing.ID == id {
		p.state.Editing = nil
	}
	p.state.Notice = info(ack.Message, "User deleted")
	return nil
}

func (p *Page) acquire(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Busy[key] {
		return false
	}
	p.state.Busy[key] = true
	return true
}

func (p *Page) release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.state.Busy, key)
}

// refresh re-fetches the list after a mutation to reconcile local state.
func (p *Page) refresh(ctx context.Context) {
	if err := p.Load(ctx); err != nil {
		log.Warnf("refresh user list: %v", err)
	}
}

func (p *Page) fail(err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failLocked(err)
}

func (p *Page) failLocked(err error) error {
	cerr := client.Normalize(err)
	p.state.Notice = Notice{Text: cerr.Message, Severity: cerr.Severity()}
	return cerr
}

func info(msg, fallback string) Notice {
	if strings.TrimSpace(msg) == "" {
		msg = fallback
	}
	return Notice{Text: msg, Severity: client.SeverityInfo}
}

func invalid(msg string) *client.Error {
	return &client.Error{Kind: client.KindValidation, Message: msg}
}

func parseAge(raw string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalid("Age must be a whole number")
	}
	if err := user.ValidateAge(age); err != nil {
		return 0, invalid("Age must be between 1 and " + strconv.Itoa(user.MaxAge))
	}
	return age, nil
}

func parseForm(f Form) (user.User, error) {
	u := user.User{
		Firstname: strings.TrimSpace(f.Firstname),
		Lastname:  strings.TrimSpace(f.Lastname),
	}
	if u.Firstname == "" || u.Lastname == "" {
		return user.User{}, invalid("First name and last name are required")
	}
	age, err := parseAge(f.Age)
	if err != nil {
		return user.User{}, err
	}
	u.Age = age
	return u, nil
}

// diffForm builds a patch holding only the inputs that changed.
func diffForm(orig user.User, f Form) (user.Patch, error) {
	var patch user.Patch

	first := strings.TrimSpace(f.Firstname)
	last := strings.TrimSpace(f.Lastname)
	if first == "" || last == "" {
		return patch, invalid("First name and last name are required")
	}
	if first != orig.Firstname {
		patch.Firstname = &first
	}
	if last != orig.Lastname {
		patch.Lastname = &last
	}

	age, err := parseAge(f.Age)
	if err != nil {
		return patch, err
	}
	if age != orig.Age {
		patch.Age = &age
	}
	return patch, nil
}
