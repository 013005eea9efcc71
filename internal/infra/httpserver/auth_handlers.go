package httpserver

import (
	"net/http"
	"time"

	appauth "github.com/bryanwahyu/seoscan/internal/application/auth"
	"github.com/bryanwahyu/seoscan/internal/middleware"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c credentials) validate() (string, error) {
	email, err := middleware.ValidateEmail(c.Email)
	if err != nil {
		return "", err
	}
	if err := middleware.ValidatePassword(c.Password); err != nil {
		return "", err
	}
	return email, nil
}

// POST /auth/signup
// Body: {"email": "...", "password": "..."}
func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) error {
	var body credentials
	if err := decode(req, &body); err != nil {
		return err
	}
	email, err := body.validate()
	if err != nil {
		return err
	}
	sess, err := r.auth.Signup(req.Context(), email, body.Password)
	if err != nil {
		return err
	}
	r.setSession(w, sess)
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Signup successful"})
	return nil
}

// POST /auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body credentials
	if err := decode(req, &body); err != nil {
		return err
	}
	// shape errors on login are reported as bad credentials, not as hints
	email, err := middleware.ValidateEmail(body.Email)
	if err != nil || body.Password == "" {
		return appauth.ErrInvalidCredentials
	}
	sess, err := r.auth.Login(req.Context(), email, body.Password)
	if err != nil {
		return err
	}
	r.setSession(w, sess)
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
	return nil
}

// POST /auth/logout
func (r *Router) handleLogout(w http.ResponseWriter, _ *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   r.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
	return nil
}

// GET /auth/profile
func (r *Router) handleProfile(w http.ResponseWriter, req *http.Request) error {
	p, err := principal(req)
	if err != nil {
		return err
	}
	u, err := r.auth.Profile(req.Context(), p.UserID)
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, u)
	return nil
}

func (r *Router) setSession(w http.ResponseWriter, sess *appauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(r.opts.SessionTTL / time.Second),
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
