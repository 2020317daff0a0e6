package example

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/starius/httpcontract/internal/shared"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const maxRequestBody = 1 << 20

var pageDecoder = newPageDecoder()

func newPageDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// NewHandler serves Echo and Clock on top of the service.
func NewHandler(s *EchoService) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /hello", func(w http.ResponseWriter, r *http.Request) {
		session, err := s.Hello(r.Context(), r.URL.Query().Get("key"))
		if err != nil {
			writeError(w, http.StatusForbidden, err)
			return
		}
		writeJSON(w, session)
	})

	mux.HandleFunc("POST /sessions/{session}/echo", func(w http.ResponseWriter, r *http.Request) {
		var req EchoRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		res, err := s.Echo(r.Context(), r.PathValue("session"), r.URL.Query().Get("user"), &req)
		if err != nil {
			writeError(w, statusOf(err), err)
			return
		}
		writeJSON(w, res)
	})

	mux.HandleFunc("GET /sessions/{session}/history", func(w http.ResponseWriter, r *http.Request) {
		var page Page
		if err := pageDecoder.Decode(&page, r.URL.Query()); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		history, err := s.History(r.Context(), r.PathValue("session"), page)
		if err != nil {
			writeError(w, statusOf(err), err)
			return
		}
		writeJSON(w, history)
	})

	mux.HandleFunc("DELETE /sessions/{session}", func(w http.ResponseWriter, r *http.Request) {
		if err := s.Forget(r.Context(), r.PathValue("session")); err != nil {
			writeError(w, statusOf(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /since", func(w http.ResponseWriter, r *http.Request) {
		buf, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var t timestamppb.Timestamp
		if err := proto.Unmarshal(buf, &t); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := s.Since(r.Context(), &t)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out, err := proto.Marshal(d)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/x-protobuf")
		w.Write(out)
	})

	return mux
}

func statusOf(err error) int {
	if errors.Is(err, ErrBadSession) {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(shared.ErrorMessage{
		Error: err.Error(),
		Code:  http.StatusText(code),
	})
}
