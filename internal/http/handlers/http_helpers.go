package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rogerio-castellano/storefront/internal/http/middleware"
	"github.com/rogerio-castellano/storefront/internal/storage"
	"github.com/rogerio-castellano/storefront/internal/storefront"
)

// viewFromRequest loads the view named in the path. Views belong to the
// visitor that opened them; anyone else gets a 404.
func viewFromRequest(w http.ResponseWriter, r *http.Request) (*storefront.View, bool) {
	v, err := service.View(chi.URLParam(r, "id"))
	if err != nil || v.Visitor != middleware.GetVisitor(r) {
		http.Error(w, "view not found", http.StatusNotFound)
		return nil, false
	}
	return v, true
}

// viewContext ties backend calls made for v to the request, tagged with the
// view as origin.
func viewContext(r *http.Request, v *storefront.View) context.Context {
	return storage.WithOrigin(r.Context(), v.ID)
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

// readJSON tries to read the body of a request and converts it into JSON
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 1048576 // one megabyte
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to read JSON: %w", err)
	}

	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must have only a single json value")
	}

	return nil
}

// writeJSON takes a response status code and arbitrary data and writes a json response to the client
func writeJSON(w http.ResponseWriter, status int, data any, headers ...http.Header) error {
	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to read JSON: %w", err)
	}

	if len(headers) > 0 {
		for key, value := range headers[0] {
			w.Header()[key] = value
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(out)
	if err != nil {
		return fmt.Errorf("failed to write to response: %w", err)
	}

	return nil
}
