package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dioscarr/Topapi/internal/auth"
	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/pagination"
	"github.com/dioscarr/Topapi/internal/queue"
	"github.com/dioscarr/Topapi/internal/store"
	"github.com/dioscarr/Topapi/internal/supabase"
)

var (
	adminID = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	staffID = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	otherID = uuid.MustParse("33333333-3333-4333-8333-333333333333")

	admin = &auth.Principal{ID: adminID.String(), Email: "admin@example.com", Role: auth.RoleAdmin, Token: "admin-token"}
	staff = &auth.Principal{ID: staffID.String(), Email: "staff@example.com", Role: auth.RoleStaff, Token: "staff-token"}
)

type response struct {
	Code int
	Body map[string]any
}

func (r response) data(t *testing.T) map[string]any {
	t.Helper()
	d, ok := r.Body["data"].(map[string]any)
	require.True(t, ok, "data is not an object: %v", r.Body["data"])
	return d
}

func (r response) errorMessage() string {
	e, _ := r.Body["error"].(map[string]any)
	msg, _ := e["message"].(string)
	return msg
}

func (r response) violations() map[string]string {
	out := map[string]string{}
	e, _ := r.Body["error"].(map[string]any)
	details, _ := e["details"].([]any)
	for _, d := range details {
		v, _ := d.(map[string]any)
		field, _ := v["field"].(string)
		rule, _ := v["rule"].(string)
		out[field] = rule
	}
	return out
}

// serve mounts h at pattern and sends one request as caller (nil means anonymous).
func serve(t *testing.T, method, pattern, target string, h http.HandlerFunc, caller *auth.Principal, body any) response {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *caller))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return response{Code: rec.Code, Body: out}
}

type calls struct {
	mu    sync.Mutex
	names []string
}

func (c *calls) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
}

func (c *calls) called() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

type fakeProfiles struct {
	calls
	list   func(models.ProfileFilter, pagination.Params) ([]models.Profile, int, error)
	get    func(uuid.UUID) (*models.Profile, error)
	create func(models.Profile) (*models.Profile, error)
	update func(uuid.UUID, models.ProfilePatch) (*models.Profile, error)
	delete func(uuid.UUID) error
}

func (f *fakeProfiles) List(_ context.Context, filter models.ProfileFilter, page pagination.Params) ([]models.Profile, int, error) {
	f.add("List")
	if f.list == nil {
		return []models.Profile{}, 0, nil
	}
	return f.list(filter, page)
}

func (f *fakeProfiles) Get(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	f.add("Get")
	if f.get == nil {
		return nil, store.ErrNotFound
	}
	return f.get(id)
}

func (f *fakeProfiles) Create(_ context.Context, p models.Profile) (*models.Profile, error) {
	f.add("Create")
	if f.create == nil {
		return &p, nil
	}
	return f.create(p)
}

func (f *fakeProfiles) Update(_ context.Context, id uuid.UUID, patch models.ProfilePatch) (*models.Profile, error) {
	f.add("Update")
	if f.update == nil {
		return &models.Profile{UserID: id}, nil
	}
	return f.update(id, patch)
}

func (f *fakeProfiles) Delete(_ context.Context, id uuid.UUID) error {
	f.add("Delete")
	if f.delete == nil {
		return nil
	}
	return f.delete(id)
}

type fakeInventory struct {
	calls
	list   func(models.InventoryFilter, pagination.Params) ([]models.InventoryItem, int, error)
	get    func(uuid.UUID) (*models.InventoryItem, error)
	create func(models.InventoryItem) (*models.InventoryItem, error)
	update func(uuid.UUID, models.InventoryPatch) (*models.InventoryItem, error)
	delete func(uuid.UUID) (*models.InventoryItem, error)
}

func (f *fakeInventory) List(_ context.Context, filter models.InventoryFilter, page pagination.Params) ([]models.InventoryItem, int, error) {
	f.add("List")
	if f.list == nil {
		return []models.InventoryItem{}, 0, nil
	}
	return f.list(filter, page)
}

func (f *fakeInventory) Get(_ context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	f.add("Get")
	if f.get == nil {
		return nil, store.ErrNotFound
	}
	return f.get(id)
}

func (f *fakeInventory) Create(_ context.Context, it models.InventoryItem) (*models.InventoryItem, error) {
	f.add("Create")
	if f.create == nil {
		it.ID = uuid.New()
		return &it, nil
	}
	return f.create(it)
}

func (f *fakeInventory) Update(_ context.Context, id uuid.UUID, patch models.InventoryPatch) (*models.InventoryItem, error) {
	f.add("Update")
	if f.update == nil {
		return &models.InventoryItem{ID: id}, nil
	}
	return f.update(id, patch)
}

func (f *fakeInventory) Delete(_ context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	f.add("Delete")
	if f.delete == nil {
		return &models.InventoryItem{ID: id, Name: "deleted"}, nil
	}
	return f.delete(id)
}

type fakeCategories struct {
	calls
	get    func(uuid.UUID) (*models.Category, error)
	update func(uuid.UUID, models.CategoryPatch) (*models.Category, error)
}

func (f *fakeCategories) List(context.Context, models.CategoryFilter, pagination.Params) ([]models.Category, int, error) {
	f.add("List")
	return []models.Category{}, 0, nil
}

func (f *fakeCategories) Get(_ context.Context, id uuid.UUID) (*models.Category, error) {
	f.add("Get")
	if f.get == nil {
		return nil, store.ErrNotFound
	}
	return f.get(id)
}

func (f *fakeCategories) Create(_ context.Context, c models.Category) (*models.Category, error) {
	f.add("Create")
	c.ID = uuid.New()
	return &c, nil
}

func (f *fakeCategories) Update(_ context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error) {
	f.add("Update")
	if f.update == nil {
		return &models.Category{ID: id}, nil
	}
	return f.update(id, patch)
}

func (f *fakeCategories) Delete(context.Context, uuid.UUID) error {
	f.add("Delete")
	return nil
}

type fakeActivity struct {
	calls
	recorded []models.ActivityEntry
	list     func(models.ActivityFilter, pagination.Params) ([]models.ActivityEntry, int, error)
}

func (f *fakeActivity) List(_ context.Context, filter models.ActivityFilter, page pagination.Params) ([]models.ActivityEntry, int, error) {
	f.add("List")
	if f.list == nil {
		return []models.ActivityEntry{}, 0, nil
	}
	return f.list(filter, page)
}

func (f *fakeActivity) Get(context.Context, uuid.UUID) (*models.ActivityEntry, error) {
	f.add("Get")
	return nil, store.ErrNotFound
}

func (f *fakeActivity) Record(_ context.Context, e models.ActivityEntry) (*models.ActivityEntry, error) {
	f.add("Record")
	f.recorded = append(f.recorded, e)
	e.ID = uuid.New()
	return &e, nil
}

func (f *fakeActivity) Delete(context.Context, uuid.UUID) error {
	f.add("Delete")
	return nil
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	payloads []queue.ActivityRecordPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueActivityRecord(_ context.Context, p queue.ActivityRecordPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.err
}

type fakeAccounts struct {
	calls
	signUp         func(email, password string, metadata map[string]any) (*supabase.SignUpResult, error)
	signIn         func(email, password string) (*supabase.Session, error)
	refresh        func(token string) (*supabase.Session, error)
	resetErr       error
	listUsers      func(page, perPage int) ([]supabase.User, int, error)
	getUser        func(id string) (*supabase.User, error)
	updateUserByID func(id string, attrs supabase.UserAttributes) (*supabase.User, error)
	updateUser     func(token string, attrs supabase.UserAttributes) (*supabase.User, error)
	deleted        []string
	deleteErr      error
}

func (f *fakeAccounts) SignUp(_ context.Context, email, password string, metadata map[string]any) (*supabase.SignUpResult, error) {
	f.add("SignUp")
	return f.signUp(email, password, metadata)
}

func (f *fakeAccounts) SignInWithPassword(_ context.Context, email, password string) (*supabase.Session, error) {
	f.add("SignInWithPassword")
	return f.signIn(email, password)
}

func (f *fakeAccounts) RefreshSession(_ context.Context, token string) (*supabase.Session, error) {
	f.add("RefreshSession")
	return f.refresh(token)
}

func (f *fakeAccounts) ResetPasswordForEmail(context.Context, string, string) error {
	f.add("ResetPasswordForEmail")
	return f.resetErr
}

func (f *fakeAccounts) SignOut(context.Context, string) error {
	f.add("SignOut")
	return nil
}

func (f *fakeAccounts) UpdateUser(_ context.Context, token string, attrs supabase.UserAttributes) (*supabase.User, error) {
	f.add("UpdateUser")
	if f.updateUser == nil {
		return &supabase.User{}, nil
	}
	return f.updateUser(token, attrs)
}

func (f *fakeAccounts) ListUsers(_ context.Context, page, perPage int) ([]supabase.User, int, error) {
	f.add("ListUsers")
	return f.listUsers(page, perPage)
}

func (f *fakeAccounts) GetUserByID(_ context.Context, id string) (*supabase.User, error) {
	f.add("GetUserByID")
	return f.getUser(id)
}

func (f *fakeAccounts) UpdateUserByID(_ context.Context, id string, attrs supabase.UserAttributes) (*supabase.User, error) {
	f.add("UpdateUserByID")
	if f.updateUserByID == nil {
		return &supabase.User{ID: id, Email: attrs.Email}, nil
	}
	return f.updateUserByID(id, attrs)
}

func (f *fakeAccounts) DeleteUser(_ context.Context, id string) error {
	f.add("DeleteUser")
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}
