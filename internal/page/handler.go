package page

import (
	_ "embed"
	"errors"
	"html/template"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/wichananm65/user-admin/internal/user"
)

//go:embed templates/users.html
var usersHTML string

var usersTmpl = template.Must(template.New("users").Parse(usersHTML))

type Handler struct {
	page *Page
}

func NewHandler(page *Page) *Handler {
	return &Handler{page: page}
}

// RegisterRoutes mounts the HTML page. Every form posts to a route that
// applies one transition and redirects back to GET /.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/", h.render)
	app.Post("/users", h.create)
	app.Post("/users/:id/edit", h.startEdit)
	app.Post("/users/:id/save", h.save)
	app.Post("/users/:id/cancel", h.cancel)
	app.Post("/users/:id/delete", h.delete)
	app.Post("/notice/dismiss", h.dismiss)
}

type row struct {
	User       user.User
	Editing    bool
	Form       Form
	UpdateBusy bool
	DeleteBusy bool
}

type view struct {
	Notice     Notice
	Draft      Form
	Loading    bool
	CreateBusy bool
	MaxAge     int
	Rows       []row
}

func (h *Handler) render(c *fiber.Ctx) error {
	if !h.page.Loaded() || c.Query("refresh") != "" {
		_ = h.page.Load(c.UserContext())
	}

	s := h.page.Snapshot()
	v := view{
		Notice:     s.Notice,
		Draft:      s.Draft,
		Loading:    s.Loading,
		CreateBusy: s.Busy[BusyCreate],
		MaxAge:     user.MaxAge,
		Rows:       make([]row, 0, len(s.Users)),
	}
	for _, u := range s.Users {
		r := row{
			User:       u,
			UpdateBusy: s.Busy[BusyUpdate(u.ID)],
			DeleteBusy: s.Busy[BusyDelete(u.ID)],
		}
		if s.Editing != nil && s.Editing.ID == u.ID {
			r.Editing = true
			r.Form = s.Editing.Form
		}
		v.Rows = append(v.Rows, r)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return usersTmpl.Execute(c, v)
}

// readForm copies the inputs out of the request buffer, which fiber reuses
// once the handler returns.
func readForm(c *fiber.Ctx) Form {
	return Form{
		Firstname: utils.CopyString(c.FormValue("firstname")),
		Lastname:  utils.CopyString(c.FormValue("lastname")),
		Age:       utils.CopyString(c.FormValue("age")),
	}
}

func userID(c *fiber.Ctx) string {
	id := c.Params("id")
	if raw, err := url.PathUnescape(id); err == nil {
		id = raw
	}
	return utils.CopyString(id)
}

func (h *Handler) create(c *fiber.Ctx) error {
	h.page.SetDraft(readForm(c))
	return h.done(c, h.page.Create(c.UserContext()))
}

func (h *Handler) startEdit(c *fiber.Ctx) error {
	return h.done(c, h.page.StartEdit(c.UserContext(), userID(c)))
}

func (h *Handler) save(c *fiber.Ctx) error {
	s := h.page.Snapshot()
	if s.Editing == nil || s.Editing.ID != userID(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	h.page.SetEditForm(readForm(c))
	return h.done(c, h.page.SaveEdit(c.UserContext()))
}

func (h *Handler) cancel(c *fiber.Ctx) error {
	h.page.CancelEdit()
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	return h.done(c, h.page.Delete(c.UserContext(), userID(c)))
}

func (h *Handler) dismiss(c *fiber.Ctx) error {
	h.page.DismissNotice()
	return c.Redirect("/", fiber.StatusSeeOther)
}

// done redirects back to the page. Failures are already on the notice.
func (h *Handler) done(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrBusy) {
		log.Debugf("%s %s ignored: %v", c.Method(), c.Path(), err)
	} else if err != nil {
		log.Infof("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}
