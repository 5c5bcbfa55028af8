package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/shapedraw/backend-go/internal/auth"
	"github.com/inamate/shapedraw/backend-go/internal/collab"
	"github.com/inamate/shapedraw/backend-go/internal/config"
	"github.com/inamate/shapedraw/backend-go/internal/db"
	"github.com/inamate/shapedraw/backend-go/internal/drawing"
	"github.com/inamate/shapedraw/backend-go/internal/export"
	mw "github.com/inamate/shapedraw/backend-go/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.Open(ctx, db.Options{
		Driver:      cfg.StoreDriver,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		slog.Error("open store", "error", err, "driver", cfg.StoreDriver)
		os.Exit(1)
	}
	defer store.Close()

	authService := auth.NewService(store, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	drawingService := drawing.NewService(store)
	drawingHandler := drawing.NewHandler(drawingService)

	exportHandler := export.NewHandler(drawingService, cfg.CanvasWidth, cfg.CanvasHeight)

	hub := collab.NewHub(drawingService.LoadDrawing, drawingService.SaveDrawing)
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/drawings", drawingHandler.List).Methods("GET")
	api.HandleFunc("/drawings", drawingHandler.Create).Methods("POST")
	api.HandleFunc("/drawings/{drawingId}", drawingHandler.Get).Methods("GET")
	api.HandleFunc("/drawings/{drawingId}", drawingHandler.Delete).Methods("DELETE")
	api.HandleFunc("/drawings/{drawingId}/snapshots/latest", drawingHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/drawings/{drawingId}/snapshots/latest", drawingHandler.PutSnapshot).Methods("PUT")
	api.HandleFunc("/drawings/{drawingId}/export.png", exportHandler.ExportPNG).Methods("GET")

	// WebSocket endpoint
	originHosts := cfg.OriginHosts()
	r.HandleFunc("/ws/drawing/{drawingId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, drawingService, originHosts)
	})

	// CORS wraps the router so preflight requests never need a route.
	handler := mw.CORS(cfg.Origins())(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty drawings
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, drawingSvc *drawing.Service, originHosts []string) {
	drawingID := mux.Vars(r)["drawingId"]

	var userID string
	var displayName string

	// The playground drawing allows anonymous access
	if drawingID == drawing.PlaygroundID {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		// Auth via query param; browsers cannot set headers on websockets
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if err := drawingSvc.Authorize(r.Context(), drawingID, userID); err != nil {
			switch {
			case errors.Is(err, drawing.ErrNotFound):
				http.Error(w, "drawing not found", http.StatusNotFound)
			case errors.Is(err, drawing.ErrForbidden):
				http.Error(w, "access denied", http.StatusForbidden)
			default:
				slog.Error("authorize websocket", "error", err, "drawing", drawingID)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originHosts,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, drawingID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
