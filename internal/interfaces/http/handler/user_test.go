package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	identityapp "github.com/toms/backend/internal/application/identity"
	"github.com/toms/backend/internal/domain/identity"
	"github.com/toms/backend/internal/domain/shared"
)

type userTestEnv struct {
	router   *gin.Engine
	userRepo *MockUserRepository
	storage  *MockObjectStorage
	handler  *UserHandler
	adminID  uuid.UUID
}

func setupUserTest() *userTestEnv {
	gin.SetMode(gin.TestMode)

	userRepo := new(MockUserRepository)
	signatureStorage := new(MockObjectStorage)
	userService := identityapp.NewUserService(userRepo, signatureStorage, zap.NewNop())
	h := NewUserHandler(userService)

	adminID := uuid.New()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		setJWTContext(c, adminID, "ict-admin")
		c.Next()
	})

	return &userTestEnv{
		router:   router,
		userRepo: userRepo,
		storage:  signatureStorage,
		handler:  h,
		adminID:  adminID,
	}
}

func newTestDirector(id uuid.UUID) *identity.User {
	user, err := identity.NewUser("mreyes", "password-123", "Maria Reyes", identity.RoleDirector)
	if err != nil {
		panic(err)
	}
	user.ID = id
	return user
}

func TestUserHandler_Create(t *testing.T) {
	t.Run("adds a roster entry", func(t *testing.T) {
		env := setupUserTest()
		env.router.POST("/admin/users", env.handler.Create)

		env.userRepo.On("FindByUsername", mock.Anything, "jsantos").
			Return(nil, shared.ErrNotFound)
		env.userRepo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).
			Return(nil)

		reqBody := identityapp.CreateUserRequest{
			Username:    "jsantos",
			Password:    "strong-password",
			DisplayName: "Juan Santos",
			Position:    "Administrative Officer",
			Department:  "Finance Division",
			Role:        "personnel",
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/admin/users", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "jsantos", data["username"])
		assert.Equal(t, "active", data["status"])
		assert.Equal(t, "Finance Division", data["department"])

		env.userRepo.AssertExpectations(t)
	})

	t.Run("rejects a duplicate username", func(t *testing.T) {
		env := setupUserTest()
		env.router.POST("/admin/users", env.handler.Create)

		existing := newTestDirector(uuid.New())
		existing.Username = "jsantos"
		env.userRepo.On("FindByUsername", mock.Anything, "jsantos").
			Return(existing, nil)

		body, _ := json.Marshal(identityapp.CreateUserRequest{
			Username:    "jsantos",
			Password:    "strong-password",
			DisplayName: "Juan Santos",
			Role:        "personnel",
		})
		req, _ := http.NewRequest(http.MethodPost, "/admin/users", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		env := setupUserTest()
		env.router.POST("/admin/users", env.handler.Create)

		body := []byte(`{"username": "jsantos", "password": "strong-password", "display_name": "Juan Santos", "role": "supervisor"}`)
		req, _ := http.NewRequest(http.MethodPost, "/admin/users", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserHandler_List(t *testing.T) {
	env := setupUserTest()
	env.router.GET("/admin/users", env.handler.List)

	users := []*identity.User{newTestDirector(uuid.New())}
	env.userRepo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return(&shared.Paginated[*identity.User]{
			Items:      users,
			Total:      1,
			Page:       1,
			PageSize:   10,
			TotalPages: 1,
		}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/admin/users?role=director", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	meta := response["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["total"])
	items := response["data"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "mreyes", items[0].(map[string]interface{})["username"])
}

func TestUserHandler_Get(t *testing.T) {
	t.Run("returns a roster entry", func(t *testing.T) {
		env := setupUserTest()
		env.router.GET("/admin/users/:id", env.handler.Get)

		userID := uuid.New()
		env.userRepo.On("FindByID", mock.Anything, userID).
			Return(newTestDirector(userID), nil)

		req, _ := http.NewRequest(http.MethodGet, "/admin/users/"+userID.String(), nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("returns 404 for an unknown user", func(t *testing.T) {
		env := setupUserTest()
		env.router.GET("/admin/users/:id", env.handler.Get)

		userID := uuid.New()
		env.userRepo.On("FindByID", mock.Anything, userID).
			Return(nil, shared.ErrNotFound)

		req, _ := http.NewRequest(http.MethodGet, "/admin/users/"+userID.String(), nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUserHandler_Update(t *testing.T) {
	env := setupUserTest()
	env.router.PUT("/admin/users/:id", env.handler.Update)

	userID := uuid.New()
	env.userRepo.On("FindByID", mock.Anything, userID).
		Return(newTestDirector(userID), nil)
	env.userRepo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).
		Return(nil)

	body, _ := json.Marshal(identityapp.UpdateUserRequest{
		DisplayName: "Maria C. Reyes",
		Position:    "Regional Director",
		Department:  "Office of the Regional Director",
	})
	req, _ := http.NewRequest(http.MethodPut, "/admin/users/"+userID.String(), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "Maria C. Reyes", data["display_name"])
	assert.Equal(t, "Regional Director", data["position"])
}

func TestUserHandler_Deactivate(t *testing.T) {
	t.Run("disables another account", func(t *testing.T) {
		env := setupUserTest()
		env.router.POST("/admin/users/:id/deactivate", env.handler.Deactivate)

		userID := uuid.New()
		env.userRepo.On("FindByID", mock.Anything, userID).
			Return(newTestDirector(userID), nil)
		env.userRepo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).
			Return(nil)

		req, _ := http.NewRequest(http.MethodPost, "/admin/users/"+userID.String()+"/deactivate", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "deactivated", data["status"])
	})

	t.Run("refuses self-deactivation", func(t *testing.T) {
		env := setupUserTest()
		env.router.POST("/admin/users/:id/deactivate", env.handler.Deactivate)

		req, _ := http.NewRequest(http.MethodPost, "/admin/users/"+env.adminID.String()+"/deactivate", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestUserHandler_Activate(t *testing.T) {
	env := setupUserTest()
	env.router.POST("/admin/users/:id/activate", env.handler.Activate)

	userID := uuid.New()
	user := newTestDirector(userID)
	user.Deactivate()
	env.userRepo.On("FindByID", mock.Anything, userID).Return(user, nil)
	env.userRepo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).
		Return(nil)

	req, _ := http.NewRequest(http.MethodPost, "/admin/users/"+userID.String()+"/activate", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "active", data["status"])
}

func TestUserHandler_ResetPassword(t *testing.T) {
	t.Run("sets a new password", func(t *testing.T) {
		env := setupUserTest()
		env.router.POST("/admin/users/:id/reset-password", env.handler.ResetPassword)

		userID := uuid.New()
		env.userRepo.On("FindByID", mock.Anything, userID).
			Return(newTestDirector(userID), nil)
		env.userRepo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).
			Return(nil)

		body, _ := json.Marshal(identityapp.ResetPasswordRequest{NewPassword: "replacement-pass"})
		req, _ := http.NewRequest(http.MethodPost, "/admin/users/"+userID.String()+"/reset-password", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		env.userRepo.AssertExpectations(t)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		env := setupUserTest()
		env.router.POST("/admin/users/:id/reset-password", env.handler.ResetPassword)

		body := []byte(`{"new_password": "short"}`)
		req, _ := http.NewRequest(http.MethodPost, "/admin/users/"+uuid.New().String()+"/reset-password", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserHandler_UploadSignature(t *testing.T) {
	buildSignatureForm := func(t *testing.T, fileName, contentType string) (*bytes.Buffer, string) {
		t.Helper()
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
		header.Set("Content-Type", contentType)
		fw, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return buf, mw.FormDataContentType()
	}

	t.Run("stores a director signature image", func(t *testing.T) {
		env := setupUserTest()
		env.router.POST("/admin/users/:id/signature", env.handler.UploadSignature)

		directorID := uuid.New()
		env.userRepo.On("FindByID", mock.Anything, directorID).
			Return(newTestDirector(directorID), nil)
		env.userRepo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).
			Return(nil)
		env.storage.On("PutObject", mock.Anything, mock.AnythingOfType("string"), "image/png", mock.AnythingOfType("int64"), mock.Anything).
			Return(nil)
		env.storage.On("GenerateDownloadURL", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).
			Return("https://storage.example.com/signature", time.Now().Add(time.Hour), nil)

		body, contentType := buildSignatureForm(t, "signature.png", "image/png")
		req, _ := http.NewRequest(http.MethodPost, "/admin/users/"+directorID.String()+"/signature", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "https://storage.example.com/signature", data["url"])

		env.storage.AssertExpectations(t)
	})

	t.Run("rejects a non-image upload", func(t *testing.T) {
		env := setupUserTest()
		env.router.POST("/admin/users/:id/signature", env.handler.UploadSignature)

		body, contentType := buildSignatureForm(t, "signature.pdf", "application/pdf")
		req, _ := http.NewRequest(http.MethodPost, "/admin/users/"+uuid.New().String()+"/signature", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("refuses a signature for non-director accounts", func(t *testing.T) {
		env := setupUserTest()
		env.router.POST("/admin/users/:id/signature", env.handler.UploadSignature)

		userID := uuid.New()
		personnel := newTestRequester(userID)
		env.userRepo.On("FindByID", mock.Anything, userID).Return(personnel, nil)
		env.storage.On("PutObject", mock.Anything, mock.AnythingOfType("string"), "image/png", mock.AnythingOfType("int64"), mock.Anything).
			Return(nil)
		env.storage.On("DeleteObject", mock.Anything, mock.AnythingOfType("string")).
			Return(nil)

		body, contentType := buildSignatureForm(t, "signature.png", "image/png")
		req, _ := http.NewRequest(http.MethodPost, "/admin/users/"+userID.String()+"/signature", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestUserHandler_GetSignature(t *testing.T) {
	t.Run("presigns the current signature", func(t *testing.T) {
		env := setupUserTest()
		env.router.GET("/admin/users/:id/signature", env.handler.GetSignature)

		directorID := uuid.New()
		director := newTestDirector(directorID)
		require.NoError(t, director.SetSignature("signatures/"+directorID.String()+"/sig.png"))

		env.userRepo.On("FindByID", mock.Anything, directorID).Return(director, nil)
		env.storage.On("GenerateDownloadURL", mock.Anything, director.SignatureKey, mock.AnythingOfType("time.Duration")).
			Return("https://storage.example.com/signature", time.Now().Add(time.Hour), nil)

		req, _ := http.NewRequest(http.MethodGet, "/admin/users/"+directorID.String()+"/signature", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("returns 404 when no signature is on file", func(t *testing.T) {
		env := setupUserTest()
		env.router.GET("/admin/users/:id/signature", env.handler.GetSignature)

		directorID := uuid.New()
		env.userRepo.On("FindByID", mock.Anything, directorID).
			Return(newTestDirector(directorID), nil)

		req, _ := http.NewRequest(http.MethodGet, "/admin/users/"+directorID.String()+"/signature", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUserHandler_DeleteSignature(t *testing.T) {
	env := setupUserTest()
	env.router.DELETE("/admin/users/:id/signature", env.handler.DeleteSignature)

	directorID := uuid.New()
	director := newTestDirector(directorID)
	require.NoError(t, director.SetSignature("signatures/"+directorID.String()+"/sig.png"))
	oldKey := director.SignatureKey

	env.userRepo.On("FindByID", mock.Anything, directorID).Return(director, nil)
	env.userRepo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).
		Return(nil)
	env.storage.On("DeleteObject", mock.Anything, oldKey).Return(nil)

	req, _ := http.NewRequest(http.MethodDelete, "/admin/users/"+directorID.String()+"/signature", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	env.storage.AssertExpectations(t)
}

func TestUserHandler_Count(t *testing.T) {
	env := setupUserTest()
	env.router.GET("/admin/users/stats/count", env.handler.Count)

	env.userRepo.On("Count", mock.Anything).Return(int64(42), nil)

	req, _ := http.NewRequest(http.MethodGet, "/admin/users/stats/count", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(42), data["count"])
}
