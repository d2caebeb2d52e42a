package httpapi

import (
	"time"

	"github.com/riskibarqy/matchday/internal/domain/balancing"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/player"
	"github.com/riskibarqy/matchday/internal/domain/teamtemplate"
	"github.com/riskibarqy/matchday/internal/usecase"
)

type createFixtureRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	TeamSize    int       `json:"team_size" validate:"required,min=1,max=11"`
	TeamALabel  string    `json:"team_a_label" validate:"omitempty,max=50"`
	TeamBLabel  string    `json:"team_b_label" validate:"omitempty,max=50"`
}

type versionedRequest struct {
	ExpectedVersion int64 `json:"expected_version" validate:"required,min=1"`
}

type addPoolEntryRequest struct {
	ExpectedVersion int64  `json:"expected_version" validate:"required,min=1"`
	PlayerID        string `json:"player_id" validate:"required,max=64"`
	Status          string `json:"status" validate:"omitempty,oneof=confirmed declined pending"`
	Notes           string `json:"notes" validate:"max=500"`
}

type updatePoolEntryRequest struct {
	ExpectedVersion int64  `json:"expected_version" validate:"required,min=1"`
	Status          string `json:"status" validate:"required,oneof=confirmed declined pending"`
	Notes           string `json:"notes" validate:"max=500"`
}

type balanceWeightsRequest struct {
	Ability     *balancing.AbilityWeights     `json:"ability"`
	Performance *balancing.PerformanceWeights `json:"performance"`
}

type referencePerformanceRequest struct {
	PowerRating float64 `json:"power_rating"`
	GoalThreat  float64 `json:"goal_threat"`
}

type balanceRequest struct {
	ExpectedVersion int64                         `json:"expected_version" validate:"required,min=1"`
	Method          string                        `json:"method" validate:"omitempty,oneof=ability performance random"`
	Weights         *balanceWeightsRequest        `json:"weights"`
	Reference       []referencePerformanceRequest `json:"reference" validate:"max=1000"`
	Seed            uint64                        `json:"seed"`
}

type swapPlayersRequest struct {
	ExpectedVersion int64  `json:"expected_version" validate:"required,min=1"`
	PlayerA         string `json:"player_a" validate:"required,max=64"`
	PlayerB         string `json:"player_b" validate:"required,max=64"`
}

type assignSlotRequest struct {
	ExpectedVersion int64  `json:"expected_version" validate:"required,min=1"`
	PlayerID        string `json:"player_id" validate:"required,max=64"`
	Team            string `json:"team" validate:"required,oneof=A B a b"`
	SlotNumber      int    `json:"slot_number" validate:"required,min=1"`
}

type fixtureDTO struct {
	ID               string  `json:"id"`
	ScheduledAt      string  `json:"scheduled_at"`
	TeamSize         int     `json:"team_size"`
	TeamALabel       string  `json:"team_a_label"`
	TeamBLabel       string  `json:"team_b_label"`
	State            string  `json:"state"`
	Version          int64   `json:"version"`
	TeamsLockedAt    *string `json:"teams_locked_at,omitempty"`
	TeamsPublishedAt *string `json:"teams_published_at,omitempty"`
	CreatedBy        string  `json:"created_by,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

type poolEntryDTO struct {
	PlayerID  string `json:"player_id"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

type slotDTO struct {
	Team       string `json:"team"`
	SlotNumber int    `json:"slot_number"`
	PlayerID   string `json:"player_id,omitempty"`
}

type fixtureDetailDTO struct {
	Fixture      fixtureDTO     `json:"fixture"`
	Pool         []poolEntryDTO `json:"pool"`
	Slots        []slotDTO      `json:"slots,omitempty"`
	TeamsVisible bool           `json:"teams_visible"`
}

type balancedPlayerDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsRinger bool   `json:"is_ringer,omitempty"`
}

type balanceResultDTO struct {
	RequestedMethod string                `json:"requested_method"`
	Method          string                `json:"method"`
	TeamA           []balancedPlayerDTO   `json:"team_a"`
	TeamB           []balancedPlayerDTO   `json:"team_b"`
	Score           float64               `json:"score"`
	Quality         float64               `json:"quality"`
	Iterations      int                   `json:"iterations"`
	Seed            uint64                `json:"seed"`
	Degraded        bool                  `json:"degraded"`
	DegradedReason  string                `json:"degraded_reason,omitempty"`
	Diagnostics     balancing.Diagnostics `json:"diagnostics"`
}

type balanceOutcomeDTO struct {
	Fixture fixtureDTO       `json:"fixture"`
	Result  balanceResultDTO `json:"result"`
	RunID   string           `json:"run_id"`
	Slots   []slotDTO        `json:"slots"`
}

type balanceRunDTO struct {
	ID              string  `json:"id"`
	RequestedMethod string  `json:"requested_method"`
	Method          string  `json:"method,omitempty"`
	Status          string  `json:"status"`
	PoolSize        int     `json:"pool_size"`
	Score           float64 `json:"score"`
	Quality         float64 `json:"quality"`
	Iterations      int     `json:"iterations"`
	Seed            uint64  `json:"seed"`
	DegradedReason  string  `json:"degraded_reason,omitempty"`
	Error           string  `json:"error,omitempty"`
	RequestedBy     string  `json:"requested_by,omitempty"`
	StartedAt       string  `json:"started_at"`
	FinishedAt      string  `json:"finished_at"`
}

type teamTemplateDTO struct {
	TeamSize    int `json:"team_size"`
	Defenders   int `json:"defenders"`
	Midfielders int `json:"midfielders"`
	Attackers   int `json:"attackers"`
}

func formatTime(v time.Time) string {
	return v.UTC().Format(time.RFC3339)
}

func formatOptionalTime(v *time.Time) *string {
	if v == nil {
		return nil
	}
	out := formatTime(*v)
	return &out
}

func fixtureToDTO(f match.Fixture) fixtureDTO {
	return fixtureDTO{
		ID:               f.ID,
		ScheduledAt:      formatTime(f.ScheduledAt),
		TeamSize:         f.TeamSize,
		TeamALabel:       f.TeamALabel,
		TeamBLabel:       f.TeamBLabel,
		State:            string(f.State),
		Version:          f.Version,
		TeamsLockedAt:    formatOptionalTime(f.TeamsLockedAt),
		TeamsPublishedAt: formatOptionalTime(f.TeamsPublishedAt),
		CreatedBy:        f.CreatedBy,
		CreatedAt:        formatTime(f.CreatedAt),
		UpdatedAt:        formatTime(f.UpdatedAt),
	}
}

func slotsToDTO(slots []match.SlotAssignment) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotDTO{Team: string(s.Team), SlotNumber: s.SlotNumber, PlayerID: s.PlayerID})
	}
	return out
}

func fixtureViewToDTO(view usecase.FixtureView) fixtureDetailDTO {
	pool := make([]poolEntryDTO, 0, len(view.Pool))
	for _, e := range view.Pool {
		pool = append(pool, poolEntryDTO{
			PlayerID:  e.PlayerID,
			Status:    string(e.Status),
			Notes:     e.Notes,
			UpdatedAt: formatTime(e.UpdatedAt),
		})
	}

	out := fixtureDetailDTO{
		Fixture:      fixtureToDTO(view.Fixture),
		Pool:         pool,
		TeamsVisible: view.TeamsVisible,
	}
	if view.TeamsVisible {
		out.Slots = slotsToDTO(view.Slots)
	}
	return out
}

func balancedPlayersToDTO(players []player.Player) []balancedPlayerDTO {
	out := make([]balancedPlayerDTO, 0, len(players))
	for _, p := range players {
		out = append(out, balancedPlayerDTO{ID: p.ID, Name: p.Name, IsRinger: p.IsRinger})
	}
	return out
}

func balanceOutcomeToDTO(outcome usecase.BalanceOutcome) balanceOutcomeDTO {
	res := outcome.Result
	return balanceOutcomeDTO{
		Fixture: fixtureToDTO(outcome.Fixture),
		Result: balanceResultDTO{
			RequestedMethod: string(res.RequestedMethod),
			Method:          string(res.Method),
			TeamA:           balancedPlayersToDTO(res.TeamA),
			TeamB:           balancedPlayersToDTO(res.TeamB),
			Score:           res.Score,
			Quality:         res.Quality,
			Iterations:      res.Iterations,
			Seed:            res.Seed,
			Degraded:        res.Degraded,
			DegradedReason:  res.DegradedReason,
			Diagnostics:     res.Diagnostics,
		},
		RunID: outcome.Run.ID,
		Slots: slotsToDTO(outcome.Slots),
	}
}

func balanceRunToDTO(run match.BalanceRun) balanceRunDTO {
	return balanceRunDTO{
		ID:              run.ID,
		RequestedMethod: run.RequestedMethod,
		Method:          run.Method,
		Status:          string(run.Status),
		PoolSize:        run.PoolSize,
		Score:           run.Score,
		Quality:         run.Quality,
		Iterations:      run.Iterations,
		Seed:            run.Seed,
		DegradedReason:  run.DegradedReason,
		Error:           run.Error,
		RequestedBy:     run.RequestedBy,
		StartedAt:       formatTime(run.StartedAt),
		FinishedAt:      formatTime(run.FinishedAt),
	}
}

func teamTemplateToDTO(t teamtemplate.Template) teamTemplateDTO {
	return teamTemplateDTO{TeamSize: t.TeamSize, Defenders: t.Defenders, Midfielders: t.Midfielders, Attackers: t.Attackers}
}

func (r balanceRequest) toInput(cmd usecase.FixtureCommand) usecase.BalanceInput {
	input := usecase.BalanceInput{
		FixtureCommand: cmd,
		Method:         r.Method,
		Seed:           r.Seed,
	}
	if r.Weights != nil {
		input.Weights = balancing.Weights{Ability: r.Weights.Ability, Performance: r.Weights.Performance}
	}
	if len(r.Reference) > 0 {
		input.Reference = make([]player.Performance, 0, len(r.Reference))
		for _, ref := range r.Reference {
			input.Reference = append(input.Reference, player.Performance{PowerRating: ref.PowerRating, GoalThreat: ref.GoalThreat})
		}
	}
	return input
}
