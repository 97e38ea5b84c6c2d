package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carbon-tracker/internal/core/auth"
	"carbon-tracker/internal/domain"
	"carbon-tracker/internal/service"
	"carbon-tracker/internal/transport/http/ez"
)

// HeaderAdminSecret carries the shared secret for admin self-registration.
const HeaderAdminSecret = "X-Admin-Secret"

type AuthHandler struct {
	accounts *service.AccountService
	jwter    *auth.JWTer
}

func NewAuthHandler(accounts *service.AccountService, jwter *auth.JWTer) *AuthHandler {
	return &AuthHandler{accounts: accounts, jwter: jwter}
}

type registerIn struct {
	Name         string `json:"name"     binding:"required,max=64"`
	Email        string `json:"email"    binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	Organization string `json:"organization"`
	Province     string `json:"province"`
}

func (in registerIn) toService() service.RegisterInput {
	return service.RegisterInput{
		Name:         in.Name,
		Email:        in.Email,
		Password:     in.Password,
		Organization: in.Organization,
		Province:     in.Province,
	}
}

type loginIn struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionOut struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h *AuthHandler) session(u *domain.User) (sessionOut, error) {
	tok, err := h.jwter.Issue(u.ID, u.Role)
	if err != nil {
		return sessionOut{}, ez.Internal("issue token failed", err)
	}
	return sessionOut{Token: tok, User: u}, nil
}

// MountAPI registers the public auth routes on api and /me on authed.
func (h *AuthHandler) MountAPI(api, authed *gin.RouterGroup) {
	pub := ez.New(api)

	ez.RegisterAction(pub, ez.Action[registerIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ auth.Principal, in *registerIn) (sessionOut, error) {
			u, err := h.accounts.Register(c.Request.Context(), in.toService())
			if err != nil {
				return sessionOut{}, err
			}
			return h.session(u)
		},
	})

	ez.RegisterAction(pub, ez.Action[registerIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/auth/register-admin",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ auth.Principal, in *registerIn) (sessionOut, error) {
			u, err := h.accounts.RegisterAdmin(c.Request.Context(), c.GetHeader(HeaderAdminSecret), in.toService())
			if err != nil {
				return sessionOut{}, err
			}
			return h.session(u)
		},
	})

	ez.RegisterAction(pub, ez.Action[loginIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ auth.Principal, in *loginIn) (sessionOut, error) {
			u, err := h.accounts.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return sessionOut{}, err
			}
			return h.session(u)
		},
	})

	ez.RegisterAction(ez.New(authed), ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, p auth.Principal, _ *struct{}) (*domain.User, error) {
			return h.accounts.Me(c.Request.Context(), p)
		},
	})
}
