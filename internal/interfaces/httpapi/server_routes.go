package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

// registerReadRoutes serves any authenticated member of the tenant.
func registerReadRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	member := func(fn http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, fn)
	}

	mux.Handle("GET /v1/team-templates", member(handler.ListTeamTemplates))
	mux.Handle("GET /v1/fixtures", member(handler.ListFixtures))
	mux.Handle("GET /v1/fixtures/{fixtureID}", member(handler.GetFixture))
	mux.Handle("GET /v1/fixtures/{fixtureID}/events", member(handler.WatchFixture))
}

// registerAdminRoutes serves organisers only. Every mutation carries the
// fixture version the caller last saw.
func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	admin := func(fn http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, RequireRole(handler.AdminRole(), fn))
	}

	mux.Handle("POST /v1/fixtures", admin(handler.CreateFixture))
	mux.Handle("GET /v1/fixtures/{fixtureID}/balance-runs", admin(handler.ListBalanceRuns))
	mux.Handle("POST /v1/fixtures/{fixtureID}/pool", admin(handler.AddPoolEntry))
	mux.Handle("PATCH /v1/fixtures/{fixtureID}/pool/{playerID}", admin(handler.UpdatePoolEntry))
	mux.Handle("DELETE /v1/fixtures/{fixtureID}/pool/{playerID}", admin(handler.RemovePoolEntry))
	mux.Handle("POST /v1/fixtures/{fixtureID}/lock", admin(handler.LockPool))
	mux.Handle("POST /v1/fixtures/{fixtureID}/unlock", admin(handler.UnlockPool))
	mux.Handle("POST /v1/fixtures/{fixtureID}/balance", admin(handler.BalanceTeams))
	mux.Handle("POST /v1/fixtures/{fixtureID}/swap", admin(handler.SwapPlayers))
	mux.Handle("PUT /v1/fixtures/{fixtureID}/slots", admin(handler.AssignSlot))
	mux.Handle("POST /v1/fixtures/{fixtureID}/publish", admin(handler.PublishTeams))
	mux.Handle("POST /v1/fixtures/{fixtureID}/reset", admin(handler.ResetTeams))
	mux.Handle("POST /v1/fixtures/{fixtureID}/complete", admin(handler.CompleteFixture))
	mux.Handle("POST /v1/fixtures/{fixtureID}/cancel", admin(handler.CancelFixture))
}
