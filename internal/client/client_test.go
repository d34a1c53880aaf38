package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/user-admin/internal/server"
	"github.com/wichananm65/user-admin/internal/user"
)

type recorded struct {
	method string
	path   string
	body   string
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) add(c recorded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recorded, len(r.calls))
	copy(out, r.calls)
	return out
}

// stubServer answers every request with the given status, content type and
// body, and records what it received.
func stubServer(t *testing.T, status int, contentType, body string) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.add(recorded{method: r.Method, path: r.URL.EscapedPath(), body: string(b)})
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/api/v1/users")
	require.NoError(t, err)
	return c, rec
}

func TestNew_RejectsMissingOrRelativeBaseURL(t *testing.T) {
	for _, base := range []string{"", "   ", "/api/v1/users", "ftp://example.com/users"} {
		_, err := New(base)
		assert.Error(t, err, "base %q", base)
	}

	c, err := New("http://localhost:8080/api/v1/users/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1/users", c.BaseURL())
}

func TestCreate_SendsTrimmedFieldsAndReturnsMessage(t *testing.T) {
	c, calls := stubServer(t, http.StatusCreated, "application/json", `{"message":"User created successfully","id":"u-1"}`)

	ack, err := c.Create(context.Background(), user.User{ID: "ignored", Firstname: "  Jane ", Lastname: " Doe", Age: 30})
	require.NoError(t, err)
	assert.Equal(t, Ack{Message: "User created successfully", ID: "u-1"}, ack)

	require.Len(t, calls.all(), 1)
	call := calls.all()[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/api/v1/users", call.path)
	assert.JSONEq(t, `{"firstname":"Jane","lastname":"Doe","age":30}`, call.body)
}

func TestCreate_PlainTextMessage(t *testing.T) {
	c, _ := stubServer(t, http.StatusOK, "text/plain; charset=utf-8", "User created")

	ack, err := c.Create(context.Background(), user.User{Firstname: "A", Lastname: "B", Age: 1})
	require.NoError(t, err)
	assert.Equal(t, "User created", ack.Message)
	assert.Empty(t, ack.ID)
}

func TestCreate_InvalidInputMakesNoRequest(t *testing.T) {
	c, calls := stubServer(t, http.StatusCreated, "application/json", `{}`)

	invalid := []user.User{
		{Firstname: "   ", Lastname: "Doe", Age: 20},
		{Firstname: "Jane", Lastname: "", Age: 20},
		{Firstname: "Jane", Lastname: "Doe", Age: 0},
		{Firstname: "Jane", Lastname: "Doe", Age: -1},
		{Firstname: "Jane", Lastname: "Doe", Age: 151},
	}
	for _, u := range invalid {
		_, err := c.Create(context.Background(), u)
		assert.ErrorIs(t, err, ErrValidation, "%+v", u)
	}
	assert.Empty(t, calls.all())
}

func TestList_NonArrayBodyFails(t *testing.T) {
	cases := []struct {
		contentType string
		body        string
	}{
		{"application/json", `{"users":[]}`},
		{"application/json", `null`},
		{"application/json", `"nope"`},
		{"text/plain", `[]`},
	}
	for _, tc := range cases {
		c, _ := stubServer(t, http.StatusOK, tc.contentType, tc.body)
		users, err := c.List(context.Background())
		assert.ErrorIs(t, err, ErrInvalidResponse, "body %s", tc.body)
		assert.Nil(t, users)
	}
}

func TestList_DropsMalformedEntriesKeepingOrder(t *testing.T) {
	body := `[
		{"id":"1","firstname":"Ann","lastname":"A","age":30},
		{"id":"2","firstname":"Bob","lastname":"B","age":"forty"},
		{"firstname":"NoID","lastname":"X","age":3},
		42,
		null,
		{"id":"3","firstname":"Cid","lastname":"C","age":22,"extra":true},
		{"id":"4","firstname":"Dee","age":5}
	]`
	c, _ := stubServer(t, http.StatusOK, "application/json; charset=utf-8", body)

	users, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []user.User{
		{ID: "1", Firstname: "Ann", Lastname: "A", Age: 30},
		{ID: "3", Firstname: "Cid", Lastname: "C", Age: 22},
	}, users)
}

func TestList_EmptyArray(t *testing.T) {
	c, _ := stubServer(t, http.StatusOK, "application/json", `[]`)

	users, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestBlankIDMakesNoRequest(t *testing.T) {
	c, calls := stubServer(t, http.StatusOK, "application/json", `{}`)

	_, err := c.GetByID(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = c.DeleteByID(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = c.UpdateByID(context.Background(), "", user.Patch{})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, calls.all())
}

func TestGetByID_NotFoundUsesServerMessage(t *testing.T) {
	c, calls := stubServer(t, http.StatusNotFound, "application/json", `{"message":"User not found"}`)

	_, err := c.GetByID(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTP)
	assert.Equal(t, "User not found", err.Error())

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, http.StatusNotFound, cerr.Status)
	assert.Equal(t, SeverityInfo, cerr.Severity())
	assert.Equal(t, "/api/v1/users/abc", calls.all()[0].path)
}

func TestGetByID_EscapesID(t *testing.T) {
	c, calls := stubServer(t, http.StatusOK, "application/json", `{"id":"a/b","firstname":"A","lastname":"B","age":3}`)

	u, err := c.GetByID(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", u.ID)
	assert.Equal(t, "/api/v1/users/a%2Fb", calls.all()[0].path)
}

func TestGetByID_WrongShapeIsInvalidFormat(t *testing.T) {
	c, _ := stubServer(t, http.StatusOK, "application/json", `{"id":"1","firstname":"A"}`)

	_, err := c.GetByID(context.Background(), "1")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestHTTPError_FallsBackToStatus(t *testing.T) {
	c, _ := stubServer(t, http.StatusInternalServerError, "text/html", "<h1>boom</h1>")

	_, err := c.DeleteByID(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTP)
	assert.Equal(t, "HTTP 500: Internal Server Error", err.Error())
	assert.Equal(t, SeverityError, Normalize(err).Severity())
}

func TestUpdateByID_ValidatesPresentFields(t *testing.T) {
	c, calls := stubServer(t, http.StatusOK, "text/plain", "User updated successfully")

	zero := 0
	_, err := c.UpdateByID(context.Background(), "u1", user.Patch{Age: &zero})
	assert.ErrorIs(t, err, ErrValidation)

	blank := "  "
	_, err = c.UpdateByID(context.Background(), "u1", user.Patch{Firstname: &blank})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, calls.all())

	ack, err := c.UpdateByID(context.Background(), "u1", user.Patch{})
	require.NoError(t, err)
	assert.Equal(t, "User updated successfully", ack.Message)
	require.Len(t, calls.all(), 1)
	assert.Equal(t, http.MethodPatch, calls.all()[0].method)
	assert.JSONEq(t, `{}`, calls.all()[0].body)

	name := " Zed "
	_, err = c.UpdateByID(context.Background(), "u1", user.Patch{Lastname: &name})
	require.NoError(t, err)
	assert.JSONEq(t, `{"lastname":"Zed"}`, calls.all()[1].body)
}

func TestDeleteByID_JSONStringMessage(t *testing.T) {
	c, calls := stubServer(t, http.StatusOK, "application/json", `"User deleted"`)

	ack, err := c.DeleteByID(context.Background(), "u9")
	require.NoError(t, err)
	assert.Equal(t, "User deleted", ack.Message)
	assert.Equal(t, http.MethodDelete, calls.all()[0].method)
}

func TestBearerToken(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithBearerToken("tok"))
	require.NoError(t, err)
	_, err = c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", got.Load())
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base)
	require.NoError(t, err)

	_, err = c.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, SeverityWarning, Normalize(err).Severity())
}

func TestRoundTripAgainstUsersAPI(t *testing.T) {
	app := server.NewApp("round-trip")
	user.NewHandler(user.NewService(user.NewInMemoryRepository(nil))).RegisterRoutes(app)
	srv := httptest.NewServer(adaptor.FiberApp(app))
	defer srv.Close()

	c, err := New(srv.URL + "/api/v1/users")
	require.NoError(t, err)
	ctx := context.Background()

	ack, err := c.Create(ctx, user.User{Firstname: " Grace ", Lastname: "Hopper  ", Age: 85})
	require.NoError(t, err)
	require.NotEmpty(t, ack.ID)

	got, err := c.GetByID(ctx, ack.ID)
	require.NoError(t, err)
	assert.Equal(t, user.User{ID: ack.ID, Firstname: "Grace", Lastname: "Hopper", Age: 85}, got)

	age := 86
	ack, err = c.UpdateByID(ctx, got.ID, user.Patch{Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "User updated successfully", ack.Message)

	users, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 86, users[0].Age)

	ack, err = c.DeleteByID(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "User deleted", ack.Message)

	_, err = c.GetByID(ctx, got.ID)
	assert.ErrorIs(t, err, ErrHTTP)
	assert.Equal(t, "User not found", err.Error())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, SeverityWarning, Classify("Network error: connection refused"))
	assert.Equal(t, SeverityWarning, Classify("Failed to fetch"))
	assert.Equal(t, SeverityInfo, Classify("User not found"))
	assert.Equal(t, SeverityError, Classify("invalid user: age must be between 1 and 150"))
	assert.Equal(t, SeverityWarning, Normalize(assert.AnError).Severity())
	assert.Nil(t, Normalize(nil))
}

func TestNormalize_ForeignErrorIsUnexpected(t *testing.T) {
	err := Normalize(assert.AnError)
	assert.Equal(t, KindUnexpected, err.Kind)
	assert.Equal(t, "Unexpected error, please try again", err.Message)
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrNetwork)

	cerr := &Error{Kind: KindHTTP, Message: "User not found", Status: 404}
	assert.Same(t, cerr, Normalize(cerr))
}
