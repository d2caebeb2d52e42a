package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/usecase"
)

func (h *Handler) ListTeamTemplates(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamTemplates")
	defer span.End()

	templates := h.matchService.ListTeamTemplates()
	items := make([]teamTemplateDTO, 0, len(templates))
	for _, t := range templates {
		items = append(items, teamTemplateToDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) CreateFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateFixture")
	defer span.End()

	principal, err := h.principal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createFixtureRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.CreateFixture(ctx, usecase.CreateFixtureInput{
		TenantID:    principal.TenantID,
		ActorID:     principal.UserID,
		ScheduledAt: req.ScheduledAt,
		TeamSize:    req.TeamSize,
		TeamALabel:  req.TeamALabel,
		TeamBLabel:  req.TeamBLabel,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create fixture failed", "tenant_id", principal.TenantID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, fixtureToDTO(item))
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	principal, err := h.principal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	query := r.URL.Query()
	input := usecase.ListFixturesInput{
		TenantID: principal.TenantID,
		State:    query.Get("state"),
	}
	if input.Limit, err = parseLimit(query.Get("limit")); err != nil {
		writeError(ctx, w, err)
		return
	}
	if input.From, err = parseOptionalTime("from", query.Get("from")); err != nil {
		writeError(ctx, w, err)
		return
	}
	if input.To, err = parseOptionalTime("to", query.Get("to")); err != nil {
		writeError(ctx, w, err)
		return
	}

	fixtures, err := h.matchService.ListFixtures(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "tenant_id", principal.TenantID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]fixtureDTO, 0, len(fixtures))
	for _, f := range fixtures {
		items = append(items, fixtureToDTO(f))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixture")
	defer span.End()

	ref, principal, err := h.fixtureRef(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.matchService.GetFixture(ctx, ref, principal.HasRole(h.adminRole))
	if err != nil {
		h.logger.WarnContext(ctx, "get fixture failed", "fixture_id", ref.FixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureViewToDTO(view))
}

func (h *Handler) ListBalanceRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListBalanceRuns")
	defer span.End()

	ref, _, err := h.fixtureRef(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	runs, err := h.matchService.ListBalanceRuns(ctx, ref, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list balance runs failed", "fixture_id", ref.FixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]balanceRunDTO, 0, len(runs))
	for _, run := range runs {
		items = append(items, balanceRunToDTO(run))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) AddPoolEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddPoolEntry")
	defer span.End()

	var req addPoolEntryRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	cmd, err := h.fixtureCommand(ctx, r, req.ExpectedVersion)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.AddToPool(ctx, usecase.PoolEntryInput{
		FixtureCommand: cmd,
		PlayerID:       req.PlayerID,
		Status:         req.Status,
		Notes:          req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "add pool entry failed", "fixture_id", cmd.FixtureID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, fixtureToDTO(item))
}

func (h *Handler) UpdatePoolEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdatePoolEntry")
	defer span.End()

	var req updatePoolEntryRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	cmd, err := h.fixtureCommand(ctx, r, req.ExpectedVersion)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	playerID := strings.TrimSpace(r.PathValue("playerID"))

	item, err := h.matchService.UpdatePoolResponse(ctx, usecase.PoolEntryInput{
		FixtureCommand: cmd,
		PlayerID:       playerID,
		Status:         req.Status,
		Notes:          req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update pool entry failed", "fixture_id", cmd.FixtureID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item))
}

func (h *Handler) RemovePoolEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemovePoolEntry")
	defer span.End()

	version, err := parseExpectedVersion(r.URL.Query().Get("expected_version"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	cmd, err := h.fixtureCommand(ctx, r, version)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	playerID := strings.TrimSpace(r.PathValue("playerID"))

	item, err := h.matchService.RemoveFromPool(ctx, usecase.PoolEntryInput{FixtureCommand: cmd, PlayerID: playerID})
	if err != nil {
		h.logger.WarnContext(ctx, "remove pool entry failed", "fixture_id", cmd.FixtureID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item))
}

func (h *Handler) BalanceTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BalanceTeams")
	defer span.End()

	var req balanceRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	cmd, err := h.fixtureCommand(ctx, r, req.ExpectedVersion)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	outcome, err := h.matchService.LockPoolAndBalance(ctx, req.toInput(cmd))
	if err != nil {
		h.logger.WarnContext(ctx, "balance teams failed", "fixture_id", cmd.FixtureID, "method", req.Method, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, balanceOutcomeToDTO(outcome))
}

func (h *Handler) SwapPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SwapPlayers")
	defer span.End()

	var req swapPlayersRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	cmd, err := h.fixtureCommand(ctx, r, req.ExpectedVersion)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.SwapPlayers(ctx, usecase.SwapPlayersInput{
		FixtureCommand: cmd,
		PlayerA:        req.PlayerA,
		PlayerB:        req.PlayerB,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "swap players failed", "fixture_id", cmd.FixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item))
}

func (h *Handler) AssignSlot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AssignSlot")
	defer span.End()

	var req assignSlotRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	cmd, err := h.fixtureCommand(ctx, r, req.ExpectedVersion)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.AssignSlot(ctx, usecase.AssignSlotInput{
		FixtureCommand: cmd,
		PlayerID:       req.PlayerID,
		Team:           req.Team,
		SlotNumber:     req.SlotNumber,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "assign slot failed", "fixture_id", cmd.FixtureID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item))
}

func (h *Handler) PublishTeams(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "httpapi.Handler.PublishTeams", h.matchService.SaveTeams)
}

func (h *Handler) LockPool(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "httpapi.Handler.LockPool", h.matchService.LockPool)
}

func (h *Handler) UnlockPool(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "httpapi.Handler.UnlockPool", h.matchService.UnlockPool)
}

func (h *Handler) ResetTeams(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "httpapi.Handler.ResetTeams", h.matchService.ResetTeams)
}

func (h *Handler) CompleteFixture(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "httpapi.Handler.CompleteFixture", h.matchService.CompleteFixture)
}

func (h *Handler) CancelFixture(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "httpapi.Handler.CancelFixture", h.matchService.CancelFixture)
}

// transition serves lifecycle endpoints whose body only carries expected_version.
func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	spanName string,
	apply func(ctx context.Context, cmd usecase.FixtureCommand) (match.Fixture, error),
) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	var req versionedRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	cmd, err := h.fixtureCommand(ctx, r, req.ExpectedVersion)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := apply(ctx, cmd)
	if err != nil {
		h.logger.WarnContext(ctx, "fixture transition failed",
			"operation", strings.TrimPrefix(spanName, "httpapi.Handler."),
			"fixture_id", cmd.FixtureID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item))
}

func parseOptionalTime(name, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", usecase.ErrInvalidInput, name)
	}
	return &v, nil
}
