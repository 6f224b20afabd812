/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

func serveHomePage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(newPage("kokoro", "Start a new room", cfg.prefix+"/new")))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: *
Disallow: /room/
Disallow: /new`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}

// serveNewRoom hands out a fresh, unused room code.
func serveNewRoom(cfg *Config, dir *Directory, log *zap.SugaredLogger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		code, err := dir.newCode()
		if err != nil {
			log.Errorw("allocating room code", "error", err)
			http.Error(w, "unable to create room", http.StatusInternalServerError)
			return
		}
		dir.Ensure(code)

		getOrSetPlayerID(w, r)
		securityHeaders(cfg, w)
		http.Redirect(w, r, cfg.prefix+"/room/"+code, http.StatusSeeOther)
	}
}

// serveRoom reports the room as JSON, as seen by the requesting player.
func serveRoom(cfg *Config, dir *Directory, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code, err := normalizeCode(ps.ByName("code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		hub, ok := dir.Get(code)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		viewer := getOrSetPlayerID(w, r)

		view, err := hub.View(r.Context(), viewer)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if err != nil {
			errs <- err
			http.Error(w, "unable to read room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(view); err != nil {
			errs <- err
		}
	}
}

func registerRooms(cfg *Config, dir *Directory, log *zap.SugaredLogger, errs chan<- error, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/new", serveNewRoom(cfg, dir, log))
	mux.GET(cfg.prefix+"/room/:code", serveRoom(cfg, dir, errs))
	mux.GET(cfg.prefix+"/room/:code/ws", serveRoomWS(cfg, dir, log))
	mux.GET(cfg.prefix+"/room/:code/qr", serveQR(cfg, log, errs))
}
