package captcha

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.PostForm.Get("secret") != "s3cret" {
			t.Errorf("secret = %q", r.PostForm.Get("secret"))
		}
		if r.PostForm.Get("remoteip") != "10.0.0.1" {
			t.Errorf("remoteip = %q", r.PostForm.Get("remoteip"))
		}
		if r.PostForm.Get("response") == "good" {
			w.Write([]byte(`{"success":true}`))
			return
		}
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := NewVerifier("s3cret", srv.URL, srv.Client())
	if err := v.Verify(context.Background(), "good", "10.0.0.1"); err != nil {
		t.Errorf("good token: %v", err)
	}
	err := v.Verify(context.Background(), "bad", "10.0.0.1")
	if !errors.Is(err, ErrRejected) {
		t.Errorf("bad token: got %v", err)
	}
}

func TestVerifyFailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	v := NewVerifier("s3cret", addr, nil)
	if err := v.Verify(context.Background(), "tok", ""); !errors.Is(err, ErrRejected) {
		t.Errorf("unreachable verifier: got %v", err)
	}
	if err := v.Verify(context.Background(), "", ""); !errors.Is(err, ErrRejected) {
		t.Errorf("missing token: got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	if err := NewVerifier("s", srv.URL, srv.Client()).Verify(context.Background(), "tok", ""); !errors.Is(err, ErrRejected) {
		t.Errorf("got %v", err)
	}
}
