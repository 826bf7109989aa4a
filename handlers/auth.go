// Cat-Corner/handlers/auth.go
package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/meeshellyo/Cat-Corner/config"
	"github.com/meeshellyo/Cat-Corner/database"
	"github.com/meeshellyo/Cat-Corner/utils"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,50}$`)

type registerForm struct {
	Username string `validate:"required,min=3,max=50"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=12,max=128"`
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// HandleRegister serves the registration form and creates accounts.
func HandleRegister(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleRegister")

	if CurrentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		render(w, r, app, "layout.html", "register.html", map[string]interface{}{
			"Title": "Register",
		})
		return
	}

	form := registerForm{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	fail := func(msg string) {
		render(w, r, app, "layout.html", "register.html", map[string]interface{}{
			"Title":    "Register",
			"Error":    msg,
			"Username": form.Username,
			"Email":    form.Email,
		})
	}

	if err := app.Validator().Struct(form); err != nil {
		fail("Please fill every field: username 3-50 characters, a valid email, and a password of at least 12 characters.")
		return
	}
	if !usernamePattern.MatchString(form.Username) {
		fail("Usernames may only contain letters, digits, underscores, and dots.")
		return
	}
	if form.Password != r.FormValue("password_confirm") {
		fail("Passwords do not match.")
		return
	}

	ip := utils.GetIPAddress(r)
	if !app.RateLimiter().GetLimiter(ip).Allow() {
		fail("Too many attempts. Please wait a moment.")
		return
	}

	userID, err := app.DB().CreateUser(form.Username, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateUser) {
			fail("That username or email is already taken.")
			return
		}
		logger.Error("Failed to create user", "error", err)
		fail("Registration failed. Please try again.")
		return
	}

	logger.Info("New account registered", "user_id", userID, "username", form.Username)
	if err := startSession(w, app, userID); err != nil {
		logger.Error("Failed to start session after registration", "error", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogin serves the login form and authenticates.
func HandleLogin(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleLogin")

	if CurrentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	next := r.URL.Query().Get("next")
	if r.Method == http.MethodGet {
		render(w, r, app, "layout.html", "login.html", map[string]interface{}{
			"Title": "Log In",
			"Next":  next,
		})
		return
	}

	form := loginForm{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}

	fail := func(msg string) {
		render(w, r, app, "layout.html", "login.html", map[string]interface{}{
			"Title":    "Log In",
			"Error":    msg,
			"Username": form.Username,
			"Next":     next,
		})
	}

	if err := app.Validator().Struct(form); err != nil {
		fail("Username and password are required.")
		return
	}

	ip := utils.GetIPAddress(r)
	if !app.RateLimiter().GetLimiter(ip).Allow() {
		fail("Too many attempts. Please wait a moment.")
		return
	}

	user, err := app.DB().Authenticate(form.Username, form.Password)
	if err != nil {
		logger.Warn("Failed login attempt", "username", form.Username)
		fail("Invalid username or password.")
		return
	}

	if err := startSession(w, app, user.ID); err != nil {
		logger.Error("Failed to start session", "error", err)
		fail("Login failed. Please try again.")
		return
	}

	redirect := r.FormValue("next")
	if redirect == "" || redirect[0] != '/' {
		redirect = "/"
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// HandleLogout tears down the caller's session.
func HandleLogout(w http.ResponseWriter, r *http.Request, app App) {
	if cookie, err := r.Cookie(config.SessionCookieName); err == nil && cookie.Value != "" {
		if err := app.DB().DeleteSession(cookie.Value); err != nil {
			app.Logger().Error("Failed to delete session on logout", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// startSession issues a session token and sets its cookie.
func startSession(w http.ResponseWriter, app App, userID int64) error {
	ttl, err := time.ParseDuration(config.SessionTTL)
	if err != nil {
		ttl = 168 * time.Hour
	}
	token, err := app.DB().CreateSession(userID, ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  utils.GetTime().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
