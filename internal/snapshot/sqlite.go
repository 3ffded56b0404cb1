package snapshot

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sarchlab/outcome/internal/entity"
	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/simulation"
	"github.com/sarchlab/outcome/internal/variable"
)

// sqlSchema creates the metadata table (one row) and the vars table (one
// row per stored entity variable), keyed by (entity id, component, var
// name) as SPEC_FULL.md's sqlite backend describes — useful for inspecting
// a snapshot with off-the-shelf SQL tools, which the byte-stream format
// doesn't offer.
const sqlSchema = `
CREATE TABLE IF NOT EXISTS meta (
	id INTEGER PRIMARY KEY CHECK (id = 0),
	created_at TEXT NOT NULL,
	starter_source TEXT NOT NULL,
	scenario_name TEXT NOT NULL,
	clock INTEGER NOT NULL,
	event_queue BLOB NOT NULL,
	pool_next INTEGER NOT NULL,
	pool_free BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS entities (
	entity_id INTEGER NOT NULL,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS vars (
	entity_id INTEGER NOT NULL,
	component TEXT NOT NULL,
	var_name TEXT NOT NULL,
	kind INTEGER NOT NULL,
	value BLOB NOT NULL,
	PRIMARY KEY (entity_id, component, var_name)
);
`

// WriteSQLite persists s's header and entity set into the sqlite database
// file at path. Tables that already exist are reused, not replaced: the
// metadata row is overwritten, while entity and variable rows are added to
// any rows already there (a variable row whose key already exists fails
// the write).
func WriteSQLite(path string, s *simulation.Sim, header Header) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return errs.Wrap(errs.Snapshot, "CreationFailed", err, "opening sqlite snapshot %q", path)
	}
	defer db.Close()

	if _, err := db.Exec(sqlSchema); err != nil {
		return errs.Wrap(errs.Snapshot, "CreationFailed", err, "creating sqlite snapshot schema")
	}

	eventQueue, err := encodeGob(header.EventQueue)
	if err != nil {
		return errs.Wrap(errs.Snapshot, "CreationFailed", err, "encoding event queue")
	}
	poolFree, err := encodeGob(header.PoolFree)
	if err != nil {
		return errs.Wrap(errs.Snapshot, "CreationFailed", err, "encoding pool free list")
	}

	if _, err := db.Exec(
		`INSERT OR REPLACE INTO meta (id, created_at, starter_source, scenario_name, clock, event_queue, pool_next, pool_free)
		 VALUES (0, ?, ?, ?, ?, ?, ?, ?)`,
		header.CreatedAt.Format(time.RFC3339Nano), header.StarterSource, header.ScenarioName,
		header.Clock, eventQueue, header.PoolNext, poolFree,
	); err != nil {
		return errs.Wrap(errs.Snapshot, "CreationFailed", err, "writing sqlite snapshot metadata")
	}

	for _, e := range s.Entities() {
		if _, err := db.Exec(`INSERT INTO entities (entity_id, name) VALUES (?, ?)`, e.ID, e.Name.String()); err != nil {
			return errs.Wrap(errs.Snapshot, "CreationFailed", err, "writing entity %d row", e.ID)
		}
		for _, k := range e.Keys() {
			v, err := e.Get(k.Component, k.VarName)
			if err != nil {
				continue
			}
			encoded, err := encodeGob(v)
			if err != nil {
				return errs.Wrap(errs.Snapshot, "CreationFailed", err, "encoding entity %d var %s:%s", e.ID, k.Component.String(), k.VarName.String())
			}
			if _, err := db.Exec(
				`INSERT INTO vars (entity_id, component, var_name, kind, value) VALUES (?, ?, ?, ?, ?)`,
				e.ID, k.Component.String(), k.VarName.String(), int(v.Kind()), encoded,
			); err != nil {
				return errs.Wrap(errs.Snapshot, "CreationFailed", err, "writing entity %d var row", e.ID)
			}
		}
	}

	return nil
}

// ReadSQLite reconstructs a Header and entity set from a sqlite snapshot
// file written by WriteSQLite.
func ReadSQLite(path string) (Header, []*entity.Entity, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "opening sqlite snapshot %q", path)
	}
	defer db.Close()

	var header Header
	var createdAt, eventQueueBlob, poolFreeBlob []byte
	row := db.QueryRow(`SELECT created_at, starter_source, scenario_name, clock, event_queue, pool_next, pool_free FROM meta WHERE id = 0`)
	if err := row.Scan(&createdAt, &header.StarterSource, &header.ScenarioName, &header.Clock, &eventQueueBlob, &header.PoolNext, &poolFreeBlob); err != nil {
		return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "reading sqlite snapshot metadata")
	}
	if t, err := time.Parse(time.RFC3339Nano, string(createdAt)); err == nil {
		header.CreatedAt = t
	}
	if err := decodeGob(eventQueueBlob, &header.EventQueue); err != nil {
		return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "decoding event queue")
	}
	if err := decodeGob(poolFreeBlob, &header.PoolFree); err != nil {
		return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "decoding pool free list")
	}

	names := map[int]string{}
	entRows, err := db.Query(`SELECT entity_id, name FROM entities`)
	if err != nil {
		return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "reading sqlite entity rows")
	}
	for entRows.Next() {
		var id int
		var name string
		if err := entRows.Scan(&id, &name); err != nil {
			entRows.Close()
			return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "scanning sqlite entity row")
		}
		names[id] = name
	}
	entRows.Close()

	byID := map[int]*entity.Entity{}
	for id, name := range names {
		byID[id] = entity.New(id, ident.New(name))
	}

	varRows, err := db.Query(`SELECT entity_id, component, var_name, value FROM vars`)
	if err != nil {
		return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "reading sqlite var rows")
	}
	defer varRows.Close()
	for varRows.Next() {
		var id int
		var component, varName string
		var encoded []byte
		if err := varRows.Scan(&id, &component, &varName, &encoded); err != nil {
			return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "scanning sqlite var row")
		}
		e, ok := byID[id]
		if !ok {
			continue
		}
		var v variable.Variable
		if err := decodeGob(encoded, &v); err != nil {
			return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "decoding entity %d var %s:%s", id, component, varName)
		}
		e.Declare(ident.New(component), ident.New(varName), v)
	}

	out := make([]*entity.Entity, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	return header, out, nil
}
