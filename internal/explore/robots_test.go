package explore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRobotsAllows_NilClientSkipsCheck(t *testing.T) {
	if !robotsAllows(context.Background(), nil, "https://example.com/anything") {
		t.Fatalf("expected a nil client to skip the check and allow")
	}
}

func TestRobotsAllows_DisallowedPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if robotsAllows(context.Background(), srv.Client(), srv.URL+"/private/page") {
		t.Fatalf("expected /private to be disallowed")
	}
	if !robotsAllows(context.Background(), srv.Client(), srv.URL+"/public/page") {
		t.Fatalf("expected /public to be allowed")
	}
}

func TestRobotsAllows_MissingRobotsTxtAllowsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if !robotsAllows(context.Background(), srv.Client(), srv.URL+"/anything") {
		t.Fatalf("expected missing robots.txt to allow")
	}
}
