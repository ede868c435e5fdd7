package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newResolver(opts Options) *Resolver {
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}
	return NewResolver(opts)
}

func TestResolveEmailMailto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="mailto:info@garcia.com?subject=Hola">Escríbenos</a>
			<p>otro@garcia.com</p>
		</body></html>`))
	}))
	defer srv.Close()

	r := newResolver(Options{})
	got := r.ResolveEmail(context.Background(), srv.URL)
	assert.Equal(t, "info@garcia.com", got, "mailto wins over visible text")
}

func TestResolveEmailTextFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<p>Plantilla: demo@example.com</p>
			<p>Contacto: ventas@garcia.com</p>
		</body></html>`))
	}))
	defer srv.Close()

	r := newResolver(Options{})
	got := r.ResolveEmail(context.Background(), srv.URL)
	assert.Equal(t, "ventas@garcia.com", got, "placeholder domains are skipped")
}

func TestResolveEmailContactPageFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<p>Bienvenidos</p>
			<a href="/contacto">Contacto</a>
		</body></html>`))
	})
	mux.HandleFunc("/contacto", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>info@garcia.com</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := newResolver(Options{})
	got := r.ResolveEmail(context.Background(), srv.URL)
	assert.Equal(t, "info@garcia.com", got)
}

func TestResolveEmailNoEmailAnywhere(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a href="/about">About</a></body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Nada que ver aquí</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := newResolver(Options{})
	assert.Empty(t, r.ResolveEmail(context.Background(), srv.URL))
}

func TestResolveEmailTimeoutIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`<html><body><p>info@garcia.com</p></body></html>`))
	}))
	defer srv.Close()

	r := newResolver(Options{Timeout: 50 * time.Millisecond})
	assert.Empty(t, r.ResolveEmail(context.Background(), srv.URL))
}

func TestResolveEmailUnreachableHost(t *testing.T) {
	r := newResolver(Options{Timeout: 500 * time.Millisecond})
	assert.Empty(t, r.ResolveEmail(context.Background(), "http://127.0.0.1:1"))
}

func TestResolveEmailServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := newResolver(Options{})
	assert.Empty(t, r.ResolveEmail(context.Background(), srv.URL))
}

func TestResolveEmailEmptyWebsite(t *testing.T) {
	r := newResolver(Options{})
	assert.Empty(t, r.ResolveEmail(context.Background(), ""))
}
