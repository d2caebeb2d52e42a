package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("public_id", "state", "version").
		From("fixtures").
		Where(Eq("tenant_id", "t1"), IsNull("deleted_at")).
		OrderBy("scheduled_at DESC").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT public_id, state, version FROM fixtures WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY scheduled_at DESC LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "t1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_ForUpdateSuffixAndExpr(t *testing.T) {
	query, args, err := Select("*").
		From("fixture_slots").
		Where(
			Eq("fixture_public_id", "fx-1"),
			Expr("player_id IN (?, ?)", "p1", "p2"),
		).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		t.Fatalf("build select for update query: %v", err)
	}

	wantQuery := "SELECT * FROM fixture_slots WHERE fixture_public_id = $1 AND player_id IN ($2, $3) FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[2] != "p2" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_MultiRow(t *testing.T) {
	query, args, err := InsertInto("fixture_slots").
		Columns("fixture_public_id", "team", "slot_number", "player_id").
		Values("fx-1", "A", 1, "p1").
		Values("fx-1", "B", 1, "p2").
		Suffix("RETURNING slot_number").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO fixture_slots (fixture_public_id, team, slot_number, player_id) VALUES ($1, $2, $3, $4), ($5, $6, $7, $8) RETURNING slot_number"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 8 || args[7] != "p2" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("fixture_slots").
		Columns("team", "slot_number").
		Values("A").
		ToSQL()
	if err == nil {
		t.Fatalf("expected error for short row")
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("fixtures").
		Set("state", "pool_locked").
		SetExpr("version", "version + 1").
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "fx-1"), Eq("version", int64(3))).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE fixtures SET state = $1, version = version + 1, updated_at = NOW() WHERE public_id = $2 AND version = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "pool_locked" || args[2] != int64(3) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("fixture_pool_entries").
		Where(Eq("fixture_public_id", "fx-1"), Eq("player_id", "p9")).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM fixture_pool_entries WHERE fixture_public_id = $1 AND player_id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("fixture_slots").ToSQL(); err == nil {
		t.Fatalf("expected unscoped delete to be rejected")
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		FixtureID string  `db:"fixture_public_id"`
		PlayerID  string  `db:"player_id"`
		Notes     *string `db:"notes"`
		internal  string
		Skipped   string `db:"-"`
	}

	query, args, err := InsertModel("fixture_pool_entries", row{FixtureID: "fx-1", PlayerID: "p1"}, "ON CONFLICT DO NOTHING")
	if err != nil {
		t.Fatalf("build insert model: %v", err)
	}
	wantQuery := "INSERT INTO fixture_pool_entries (fixture_public_id, player_id, notes) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_ForUpdateAfterLimit(t *testing.T) {
	query, _, err := Select("public_id").From("fixtures").Where(Eq("public_id", "fx-1")).Limit(1).ForUpdate().ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}
	if want := "SELECT public_id FROM fixtures WHERE public_id = $1 LIMIT 1 FOR UPDATE"; query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
}

func TestInBuilder_EmptySetMatchesNothing(t *testing.T) {
	query, args, err := Select("*").From("fixture_slots").Where(In("player_public_id", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}
	if query != "SELECT * FROM fixture_slots WHERE 1=0" || len(args) != 0 {
		t.Fatalf("unexpected query %q args %v", query, args)
	}
}

func TestInsertModel_FlattensEmbeddedStructs(t *testing.T) {
	type audit struct {
		Actor string `db:"actor"`
	}
	type run struct {
		audit
		RunID  string `db:"public_id,pk"`
		Method string `db:"method"`
	}

	query, args, err := InsertModel("balance_runs", &run{audit: audit{Actor: "u1"}, RunID: "r1", Method: "ability"}, "")
	if err != nil {
		t.Fatalf("build insert model: %v", err)
	}
	want := "INSERT INTO balance_runs (actor, public_id, method) VALUES ($1, $2, $3)"
	if query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
	if args[0] != "u1" || args[1] != "r1" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertModel("balance_runs", (*run)(nil), ""); err == nil {
		t.Fatalf("expected error for nil model")
	}
}
