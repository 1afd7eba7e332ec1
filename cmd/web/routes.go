package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/battleofcoins/battle-of-coins/internal/battle"
	"github.com/battleofcoins/battle-of-coins/internal/db"
	"github.com/battleofcoins/battle-of-coins/internal/httputil"
	"github.com/battleofcoins/battle-of-coins/internal/judge"
	"github.com/battleofcoins/battle-of-coins/internal/middleware"
	"github.com/battleofcoins/battle-of-coins/internal/service"
	"github.com/battleofcoins/battle-of-coins/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

const maxBattleCandidates = 512

func newRouter(sessionManager *scs.SessionManager, orchestrator *service.Orchestrator, registry *judge.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.WithUser(sessionManager, store.NewUserStore(db.GetDB())))

	r.Get("/api/models", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]any{"models": registry.Models()})
	})

	r.Post("/api/battles", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt     string             `json:"prompt"`
			Models     []string           `json:"models"`
			Public     bool               `json:"public"`
			Candidates []battle.Candidate `json:"candidates"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		if len(req.Candidates) > maxBattleCandidates {
			httputil.BadRequest(w, "Too many candidates", nil)
			return
		}

		params := service.StartParams{
			Candidates: req.Candidates,
			Criterion:  req.Prompt,
			JudgeIDs:   req.Models,
			Public:     req.Public,
		}
		if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
			params.OwnerID = &userID
		}

		id, err := orchestrator.Start(r.Context(), params)
		if err != nil {
			httputil.BadRequest(w, err.Error(), err)
			return
		}
		httputil.JSON(w, http.StatusAccepted, map[string]any{"battleId": id})
	})

	r.Get("/api/battles/live/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid battle ID", err)
			return
		}
		snapshot, err := orchestrator.Snapshot(id)
		if err != nil {
			httputil.NotFound(w, "Battle not found", err)
			return
		}
		httputil.JSON(w, http.StatusOK, snapshot)
	})

	r.Post("/api/battles/live/{id}/save", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid battle ID", err)
			return
		}
		var req struct {
			Public bool `json:"public"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}

		switch err := orchestrator.Save(r.Context(), id, req.Public); {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, service.ErrBattleNotFound):
			httputil.NotFound(w, "Battle not found", err)
		case errors.Is(err, service.ErrBattleRunning):
			httputil.JSON(w, http.StatusConflict, map[string]string{"error": "battle still in progress"})
		default:
			httputil.BadGateway(w, "Failed to save battle, please retry", err)
		}
	})

	r.Post("/api/battles/live/{id}/summary", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid battle ID", err)
			return
		}

		summary, err := orchestrator.Summarize(r.Context(), id)
		switch {
		case err == nil:
			httputil.JSON(w, http.StatusOK, map[string]string{"summary": summary})
		case errors.Is(err, service.ErrBattleNotFound):
			httputil.NotFound(w, "Battle not found", err)
		case errors.Is(err, service.ErrBattleRunning):
			httputil.JSON(w, http.StatusConflict, map[string]string{"error": "battle still in progress"})
		default:
			httputil.BadGateway(w, "Failed to generate summary", err)
		}
	})

	r.Get("/api/battles", func(w http.ResponseWriter, r *http.Request) {
		battleStore := store.NewBattleStore(db.GetDB())

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

		var (
			items []store.BattleRecord
			total int
			err   error
		)
		if r.URL.Query().Get("mine") == "1" {
			userID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				httputil.Unauthorized(w, "authentication required")
				return
			}
			items, total, err = battleStore.ListByOwner(r.Context(), userID, page, perPage)
		} else {
			items, total, err = battleStore.List(r.Context(), page, perPage)
		}
		if err != nil {
			httputil.InternalServerError(w, "Failed to list battles", err)
			return
		}
		httputil.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
	})

	r.Get("/api/battles/{id}", func(w http.ResponseWriter, r *http.Request) {
		battleStore := store.NewBattleStore(db.GetDB())

		rec, err := battleStore.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "Battle not found", err)
				return
			}
			httputil.InternalServerError(w, "Failed to get battle", err)
			return
		}
		httputil.JSON(w, http.StatusOK, rec)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Delete("/api/battles/{id}", func(w http.ResponseWriter, r *http.Request) {
			battleStore := store.NewBattleStore(db.GetDB())
			userID, _ := middleware.GetUserIDFromContext(r.Context())

			if err := battleStore.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					httputil.NotFound(w, "Battle not found", err)
					return
				}
				httputil.InternalServerError(w, "Failed to delete battle", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		dbConn := db.GetDB()
		userService := service.NewUserService(dbConn, store.NewUserStore(dbConn))
		user, err := userService.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create user", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())

		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		dbConn := db.GetDB()
		userService := service.NewUserService(dbConn, store.NewUserStore(dbConn))

		user, err := userService.EnsureGuestUser(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to login as guest", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())
		httputil.JSON(w, http.StatusOK, map[string]string{"userId": user.ID.String(), "username": user.Username})
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Destroy(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
