package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/coverage"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/mappings"
	"github.com/rmmh/blockbridge/go/resolver"
)

type blockResolver = resolver.Resolver[canonical.BlockType]

// server answers lookups against block tables built on first use.
type server struct {
	coverage *coverage.Store

	lock      sync.Mutex
	resolvers map[mappings.Target]*blockResolver
}

func newServer(store *coverage.Store) *server {
	return &server{coverage: store, resolvers: map[mappings.Target]*blockResolver{}}
}

func (s *server) resolver(t mappings.Target) (*blockResolver, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if r, ok := s.resolvers[t]; ok {
		return r, nil
	}
	r, err := mappings.Blocks(t, resolver.AllowCustom(true))
	if err != nil {
		return nil, err
	}
	s.resolvers[t] = r
	return r, nil
}

func (s *server) resolverFor(r *http.Request) (*blockResolver, error) {
	t, err := mappings.ParseTarget(r.FormValue("target"))
	if err != nil {
		return nil, err
	}
	return s.resolver(t)
}

type result struct {
	Type       string                           `json:"type,omitempty"`
	Properties map[string]identifier.StateValue `json:"properties,omitempty"`
	Custom     string                           `json:"custom,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Add("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("writing response:", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusBadRequest
	if errors.Is(err, resolver.ErrUnresolved) {
		code = http.StatusNotFound
	}
	http.Error(w, err.Error(), code)
}

// decodeHandler serves /decode?target=java:1.20.0&id=minecraft:oak_log[axis=x].
func (s *server) decodeHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.resolverFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := identifier.ParseString(r.FormValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := res.Decode(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if out.Custom != nil {
		writeJSON(w, result{Custom: out.Custom.String()})
		return
	}
	writeJSON(w, result{Type: out.Type.String(), Properties: out.Properties.StringMap()})
}

// encodeHandler serves /encode?target=bedrock:1.20.0&type=log&wood=oak&axis=x;
// every query parameter besides target and type is a canonical property.
func (s *server) encodeHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.resolverFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ty, err := canonical.ParseBlockType(r.FormValue("type"))
	if err != nil {
		writeError(w, err)
		return
	}
	raw := map[string]identifier.StateValue{}
	for k, vs := range r.URL.Query() {
		if k != "target" && k != "type" && len(vs) > 0 {
			raw[k] = identifier.ParseStateValue(vs[0])
		}
	}
	props, err := canonical.ParseProperties(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := res.Encode(resolver.Result[canonical.BlockType]{Type: ty, Properties: props})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"id": id.String()})
}

// entriesHandler serves /entries/{platform}?version=1.20.0.
func (s *server) entriesHandler(w http.ResponseWriter, r *http.Request) {
	t, err := target(mux.Vars(r)["platform"], r.FormValue("version"))
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.resolver(t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, dump{t.String(), "blocks", res.Stats(), res.Entries()})
}

// typeHandler serves /types/{type}?target=java:1.20.0, listing the entries
// that decode to or encode from one canonical type.
func (s *server) typeHandler(w http.ResponseWriter, r *http.Request) {
	ty, err := canonical.ParseBlockType(mux.Vars(r)["type"])
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.resolverFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"type":      ty.String(),
		"supported": res.SupportsType(ty),
		"entries":   lo.Filter(res.Entries(), func(e resolver.Entry, _ int) bool { return e.Type == ty.String() }),
	})
}

func (s *server) runsHandler(w http.ResponseWriter, r *http.Request) {
	runs, err := s.coverage.Runs(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (s *server) gapsHandler(w http.ResponseWriter, r *http.Request) {
	gaps, err := s.coverage.Gaps(r.Context(), mux.Vars(r)["run"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, gaps)
}

func (s *server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/decode", s.decodeHandler).Methods(http.MethodGet)
	r.HandleFunc("/encode", s.encodeHandler).Methods(http.MethodGet)
	r.HandleFunc("/entries/{platform}", s.entriesHandler).Methods(http.MethodGet)
	r.HandleFunc("/types/{type}", s.typeHandler).Methods(http.MethodGet)
	if s.coverage != nil {
		r.HandleFunc("/runs", s.runsHandler).Methods(http.MethodGet)
		r.HandleFunc("/runs/{run}/gaps", s.gapsHandler).Methods(http.MethodGet)
	}
	return r
}

func runServe(args []string, _ io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:9999", "listen address")
	coveragePath := fs.String("coverage", "", "coverage database to expose under /runs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var store *coverage.Store
	if *coveragePath != "" {
		var err error
		if store, err = coverage.Open(*coveragePath); err != nil {
			return err
		}
		defer store.Close()
	}

	srv := &http.Server{
		Handler:      newServer(store).router(),
		Addr:         *addr,
		WriteTimeout: 120 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	log.Println("listening on", srv.Addr)

	return errors.WithStack(srv.ListenAndServe())
}
