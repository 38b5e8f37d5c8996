// Package auth drives the service's login form over an automation session.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/mixpilot/mixer-downloader/internal/session"
)

// Selectors for the login page.
const (
	loginPath        = "/my/login.html"
	emailSelector    = `input[name="email"]`
	passwordSelector = `input[name="password"]`
	submitSelector   = `button[type="submit"]`
	accountSelector  = `.my-account`
)

// ErrLoginFailed is returned when the account marker never appears after
// submitting credentials.
var ErrLoginFailed = errors.New("login failed")

// Login signs the session into the service.
//
// If the session already carries a valid cookie (persistent browser profile)
// the login form never appears and Login returns immediately.
func Login(sess session.Session, baseURL, email, password string, timeout time.Duration) error {
	if err := sess.Navigate(baseURL + loginPath); err != nil {
		return fmt.Errorf("login navigation: %w", err)
	}

	top := sess.Top()

	// A persisted session skips straight to the account page.
	if _, err := top.Find(accountSelector); err == nil {
		return nil
	}

	emailField, err := top.WaitForSelector(emailSelector, timeout)
	if err != nil {
		return fmt.Errorf("%w: no login form", ErrLoginFailed)
	}
	if err := emailField.Input(email); err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	passwordField, err := top.Find(passwordSelector)
	if err != nil {
		return fmt.Errorf("%w: no password field", ErrLoginFailed)
	}
	if err := passwordField.Input(password); err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	submit, err := top.Find(submitSelector)
	if err != nil {
		return fmt.Errorf("%w: no submit control", ErrLoginFailed)
	}
	if err := submit.Click(); err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	if _, err := top.WaitForSelector(accountSelector, timeout); err != nil {
		return fmt.Errorf("%w: account marker never appeared", ErrLoginFailed)
	}
	return nil
}
