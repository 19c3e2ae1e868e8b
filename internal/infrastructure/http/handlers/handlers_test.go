package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/infrastructure/security"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseWeek(t *testing.T) {
	now := time.Date(2024, time.March, 14, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{name: "empty is today", raw: "", want: time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)},
		{name: "date", raw: "2024-01-10", want: time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)},
		{name: "iso week starts monday", raw: "2024-W02", want: time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)},
		{name: "week one in previous year", raw: "2026-W01", want: time.Date(2025, time.December, 29, 0, 0, 0, 0, time.UTC)},
		{name: "week 53", raw: "2020-W53", want: time.Date(2020, time.December, 28, 0, 0, 0, 0, time.UTC)},
		{name: "missing week 53", raw: "2021-W53", wantErr: true},
		{name: "week zero", raw: "2024-W00", wantErr: true},
		{name: "garbage", raw: "next week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWeek(tt.raw, now)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.CodeBadRequest))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestCSV(t *testing.T) {
	assert.Equal(t, []string{"vegan", "quick"}, csv(" vegan, ,quick,"))
	assert.Nil(t, csv(""))
}

type stubWeekplans struct {
	inbound.WeekplanService
	cmd      inbound.AutoFillCommand
	replaced []string
	week     time.Time
}

func (s *stubWeekplans) AutoFill(_ context.Context, _ *user.User, cmd inbound.AutoFillCommand) ([]*inbound.WeekplanDTO, error) {
	s.cmd = cmd
	return []*inbound.WeekplanDTO{{ID: 1, Date: cmd.Week.Format("2006-01-02"), RecipeID: 3, Portions: 2}}, nil
}

func (s *stubWeekplans) ReplaceRecipe(_ context.Context, _ *user.User, id int64, tags []string) (*inbound.WeekplanDTO, error) {
	s.replaced = tags
	return &inbound.WeekplanDTO{ID: id, RecipeID: 4}, nil
}

func (s *stubWeekplans) ShoppingList(_ context.Context, _ *user.User, week time.Time) ([]inbound.ShoppingItemDTO, error) {
	s.week = week
	return []inbound.ShoppingItemDTO{{IngredientID: 1, Name: "Flour", Spec: "500 g"}}, nil
}

func (s *stubWeekplans) GetEntry(_ context.Context, _ *user.User, id int64) (*inbound.WeekplanDTO, error) {
	return nil, errors.NewWeekplanNotFoundError(id)
}

func weekplanRouter(svc inbound.WeekplanService) http.Handler {
	h := NewWeekplanHandlers(svc, security.NewValidationService(), zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Post("/weekplans", h.AutoFill)
	r.Get("/weekplans/shopping-list", h.ShoppingList)
	r.Get("/weekplans/{id}", h.GetEntry)
	r.Put("/weekplans/{id}/replace", h.ReplaceRecipe)
	return r
}

func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorCode {
	t.Helper()
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.ErrorCode
}

func TestAutoFillAcceptsEmptyBody(t *testing.T) {
	svc := &stubWeekplans{}
	rec := serve(weekplanRouter(svc), http.MethodPost, "/weekplans?week=2024-W02", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC), svc.cmd.Week)
	assert.Empty(t, svc.cmd.Tags)

	var entries []inbound.WeekplanDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-01-08", entries[0].Date)
}

func TestAutoFillDecodesOptions(t *testing.T) {
	svc := &stubWeekplans{}
	body := strings.NewReader(`{"tags":["vegan"],"portions":4,"days":[1,3]}`)
	rec := serve(weekplanRouter(svc), http.MethodPost, "/weekplans?week=2024-01-10", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"vegan"}, svc.cmd.Tags)
	require.NotNil(t, svc.cmd.Portions)
	assert.Equal(t, 4, *svc.cmd.Portions)
	assert.Equal(t, []int{1, 3}, svc.cmd.Days)
}

func TestAutoFillRejectsInvalidInput(t *testing.T) {
	router := weekplanRouter(&stubWeekplans{})

	rec := serve(router, http.MethodPost, "/weekplans", strings.NewReader(`{"days":[8]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeValidationFailed, errorCode(t, rec))

	rec = serve(router, http.MethodPost, "/weekplans", strings.NewReader(`{"days":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeBadRequest, errorCode(t, rec))

	rec = serve(router, http.MethodPost, "/weekplans?week=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplaceRecipePassesTags(t *testing.T) {
	svc := &stubWeekplans{}
	rec := serve(weekplanRouter(svc), http.MethodPut, "/weekplans/9/replace", strings.NewReader(`{"tags":["quick"]}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"quick"}, svc.replaced)
}

func TestShoppingListDefaultsToToday(t *testing.T) {
	svc := &stubWeekplans{}
	rec := serve(weekplanRouter(svc), http.MethodGet, "/weekplans/shopping-list", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC), svc.week)
	assert.Contains(t, rec.Body.String(), `"spec":"500 g"`)
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	router := weekplanRouter(&stubWeekplans{})

	rec := serve(router, http.MethodGet, "/weekplans/5", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.CodeWeekplanNotFound, errorCode(t, rec))

	rec = serve(router, http.MethodGet, "/weekplans/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubRecipes struct {
	inbound.RecipeService
	filename string
	data     []byte
	portions float64
}

func (s *stubRecipes) AttachImage(_ context.Context, _ *user.User, id int64, filename string, data io.Reader) (*inbound.RecipeDTO, error) {
	s.filename = filename
	s.data, _ = io.ReadAll(data)
	return &inbound.RecipeDTO{ID: id, Name: "Bread"}, nil
}

func (s *stubRecipes) ShoppingList(_ context.Context, _ *user.User, id int64, portions float64) (*inbound.BringExport, error) {
	s.portions = portions
	return &inbound.BringExport{Name: "Bread", Items: []inbound.BringItem{{ItemID: "Flour", Spec: "250 g"}}}, nil
}

func recipeRouter(svc inbound.RecipeService, maxUpload int64) http.Handler {
	h := NewRecipeHandlers(svc, nil, security.NewValidationService(), maxUpload, zap.NewNop())
	r := chi.NewRouter()
	r.Put("/recipes/{id}/image", h.UploadImage)
	r.Get("/recipes/{id}/bring.json", h.BringExport)
	return r
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	svc := &stubRecipes{}
	body, contentType := multipartBody(t, "image", "bread.jpg", []byte("jpeg bytes"))

	req := httptest.NewRequest(http.MethodPut, "/recipes/3/image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	recipeRouter(svc, 0).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "bread.jpg", svc.filename)
	assert.Equal(t, []byte("jpeg bytes"), svc.data)
}

func TestUploadImageRequiresField(t *testing.T) {
	body, contentType := multipartBody(t, "picture", "bread.jpg", []byte("jpeg bytes"))

	req := httptest.NewRequest(http.MethodPut, "/recipes/3/image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	recipeRouter(&stubRecipes{}, 0).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeValidationFailed, errorCode(t, rec))
}

func TestUploadImageTooLarge(t *testing.T) {
	body, contentType := multipartBody(t, "image", "bread.jpg", bytes.Repeat([]byte("x"), 4096))

	req := httptest.NewRequest(http.MethodPut, "/recipes/3/image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	recipeRouter(&stubRecipes{}, 1024).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeBadRequest, errorCode(t, rec))
}

func TestBringExportPortions(t *testing.T) {
	svc := &stubRecipes{}
	router := recipeRouter(svc, 0)

	rec := serve(router, http.MethodGet, "/recipes/3/bring.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, svc.portions)

	rec = serve(router, http.MethodGet, "/recipes/3/bring.json?portions=2.5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.5, svc.portions)
	assert.Contains(t, rec.Body.String(), `"itemId":"Flour"`)

	rec = serve(router, http.MethodGet, "/recipes/3/bring.json?portions=lots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, raw := range []string{"NaN", "Inf", "-Inf"} {
		svc.portions = 0
		rec = serve(router, http.MethodGet, "/recipes/3/bring.json?portions="+raw, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, raw)
		assert.Zero(t, svc.portions, raw)
	}
}

type memStorage struct {
	objects map[string][]byte
}

func (m *memStorage) Put(_ context.Context, key string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, outbound.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestFileHandlers(t *testing.T) {
	storage := &memStorage{objects: map[string][]byte{"pictures/3/thumbnail.jpg": []byte("thumb")}}
	h := NewFileHandlers(storage, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/pictures/*", h.Pictures)
	r.Get("/avatars/*", h.Avatars)

	rec := serve(r, http.MethodGet, "/pictures/3/thumbnail.jpg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "thumb", rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	rec = serve(r, http.MethodGet, "/avatars/3/thumbnail.jpg", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(r, http.MethodGet, "/pictures/../secrets", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
