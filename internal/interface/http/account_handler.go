package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/testskool/backend/internal/application"
	"github.com/testskool/backend/internal/domain/account"
	"github.com/testskool/backend/internal/domain/entity"
	"github.com/testskool/backend/internal/interface/middleware"
	"github.com/testskool/backend/pkg/helpers"
	"github.com/testskool/backend/pkg/response"
	"github.com/testskool/backend/pkg/validation"
)

type AccountHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAccountHandler(svc *application.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// Register POST /api/register
func (h *AccountHandler) Register(c *gin.Context) {
	var req account.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	a, ferrs, err := h.Svc.Register(c.Request.Context(), req)
	if err != nil {
		h.Logger.WithError(err).Error("register failed")
		response.Error[any](c, http.StatusInternalServerError, "unable to create account", nil)
		return
	}
	if ferrs.Any() {
		response.Error[any](c, http.StatusBadRequest, "validation failed", ferrs)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"id":       a.ID,
		"username": a.Username,
	}, account.Message(account.UserCreated), nil)
}

// Login POST /api/login
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	a, pair, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"account_id":    a.ID,
		"username":      a.Username,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "login successful", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// Refresh POST /api/refresh
func (h *AccountHandler) Refresh(c *gin.Context) {
	refresh := refreshTokenFromRequest(c)
	if refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "token refreshed", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

func refreshTokenFromRequest(c *gin.Context) string {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := c.ShouldBindJSON(&body); err == nil && body.Refresh != "" {
		return body.Refresh
	}
	if tok, err := c.Cookie("refresh_token"); err == nil {
		return tok
	}
	return ""
}

// Logout POST /api/logout
func (h *AccountHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// GetProfile GET /api/profile
func (h *AccountHandler) GetProfile(c *gin.Context) {
	id := c.GetString(middleware.CtxAccountIDKey)
	a, err := h.Svc.GetProfile(c.Request.Context(), id)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "account not found", nil)
		return
	}
	response.Success(c, http.StatusOK, profileProjection(a), "profile", nil)
}

// profileProjection shapes an account for the API. The password hash
// never appears here.
func profileProjection(a *entity.Account) gin.H {
	subjects := make([]gin.H, 0, len(a.Subjects))
	for _, s := range a.Subjects {
		subjects = append(subjects, gin.H{"id": s.ID, "name": s.Name})
	}
	return gin.H{
		"id":              a.ID,
		"username":        a.Username,
		"first_name":      a.FirstName,
		"last_name":       a.LastName,
		"is_teacher":      a.IsTeacher,
		"is_student":      a.IsStudent,
		"about":           a.About,
		"subject":         subjects,
		"profile_picture": a.ProfilePicture,
		"date_joined":     a.DateJoined,
	}
}

// UpdateProfile PUT /api/profile
// Accepts JSON or multipart form data; the multipart form may carry a
// profile_picture file alongside the other fields.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	in, err := bindUpdate(c)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	id := c.GetString(middleware.CtxAccountIDKey)
	_, ferrs, err := h.Svc.UpdateProfile(c.Request.Context(), id, in)
	if err != nil {
		h.Logger.WithError(err).WithField("account_id", id).Error("profile update failed")
		response.Error[any](c, http.StatusInternalServerError, "unable to update profile", nil)
		return
	}
	if ferrs.Any() {
		response.Error[any](c, http.StatusBadRequest, "validation failed", ferrs)
		return
	}

	response.Success[any](c, http.StatusAccepted, gin.H{"status": "success"}, account.Message(account.ProfileUpdated), nil)
}

func bindUpdate(c *gin.Context) (account.UpdateInput, error) {
	var in account.UpdateInput

	if c.ContentType() != "multipart/form-data" {
		err := c.ShouldBindJSON(&in)
		return in, err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return in, err
	}
	if v, ok := formValue(form, "first_name"); ok {
		in.FirstName = account.Set(v)
	}
	if v, ok := formValue(form, "last_name"); ok {
		in.LastName = account.Set(v)
	}
	if v, ok := formValue(form, "about"); ok {
		in.About = account.Set(v)
	}
	if v, ok := formValue(form, "old_password"); ok {
		in.OldPassword = account.Set(v)
	}
	if v, ok := formValue(form, "password"); ok {
		in.Password = account.Set(v)
	}
	if v, ok := formValue(form, "confirm_password"); ok {
		in.ConfirmPassword = account.Set(v)
	}
	if vals, ok := form.Value["subject"]; ok {
		subjects := make([]string, 0, len(vals))
		for _, v := range vals {
			if v != "" {
				subjects = append(subjects, v)
			}
		}
		in.Subject = account.Set(subjects)
	}
	if files := form.File["profile_picture"]; len(files) > 0 {
		picture, err := readPicture(files[0])
		if err != nil {
			return in, err
		}
		in.Picture = picture
	}
	return in, nil
}

func formValue(form *multipart.Form, key string) (string, bool) {
	vals, ok := form.Value[key]
	if !ok {
		return "", false
	}
	if len(vals) == 0 {
		return "", true
	}
	return vals[0], true
}

// readPicture reads at most one byte past the size cap; the validation
// layer needs only to know the cap was exceeded, not the full file.
func readPicture(fh *multipart.FileHeader) (*account.PictureUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, account.MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	return &account.PictureUpload{Filename: fh.Filename, Data: data}, nil
}

// DeleteAccount DELETE /api/profile
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	id := c.GetString(middleware.CtxAccountIDKey)
	ferrs, err := h.Svc.DeleteAccount(c.Request.Context(), id, req.Password)
	if err != nil {
		h.Logger.WithError(err).WithField("account_id", id).Error("account delete failed")
		response.Error[any](c, http.StatusInternalServerError, "unable to delete account", nil)
		return
	}
	if ferrs.Any() {
		response.Error[any](c, http.StatusBadRequest, "validation failed", ferrs)
		return
	}

	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"status": "success"}, account.Message(account.AccountDeleted), nil)
}
