package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

// Format selects the export encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

// ParseFormat accepts "json" or "sqlite" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatSQLite:
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// WriteJSON encodes sess as indented JSON.
func WriteJSON(w io.Writer, sess model.Session) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sess)
}

// Export writes sess under dir/run_<started>_session_<id> and returns the
// file path.
func Export(dir string, sess model.Session, format Format) (string, error) {
	outDir := filepath.Join(dir, runDirName(sess))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	switch format {
	case FormatSQLite:
		path := filepath.Join(outDir, "session.db")
		return path, ExportSQLite(path, sess)
	default:
		path := filepath.Join(outDir, "session.json")
		f, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("create session file: %w", err)
		}
		if err := WriteJSON(f, sess); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("encode session: %w", err)
		}
		return path, f.Close()
	}
}

// runDirName keys the export directory on the start second plus a short
// session id, so sessions started in the same second do not share a file.
func runDirName(sess model.Session) string {
	name := "run_" + sess.Started.Format("20060102_150405") + "_session"
	id := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, sess.ID)
	if len(id) > 8 {
		id = id[:8]
	}
	if id != "" {
		name += "_" + id
	}
	return name
}

const sessionSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    device TEXT NOT NULL,
    started TEXT NOT NULL,
    stopped TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    timestamp TEXT NOT NULL,
    degraded TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS processes (
    snapshot_id INTEGER NOT NULL,
    pid INTEGER NOT NULL,
    name TEXT NOT NULL,
    category TEXT NOT NULL,
    cpu_percent REAL NOT NULL,
    ram_bytes INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS thermal (
    snapshot_id INTEGER NOT NULL,
    sensor TEXT NOT NULL,
    celsius REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS services (
    snapshot_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    ident TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS warnings (
    snapshot_id INTEGER NOT NULL,
    kind TEXT NOT NULL,
    severity TEXT NOT NULL,
    subject TEXT NOT NULL,
    pid INTEGER NOT NULL,
    detail TEXT NOT NULL,
    value REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_session ON snapshots(session_id, seq);
CREATE INDEX IF NOT EXISTS idx_processes_snapshot ON processes(snapshot_id);
`

// ExportSQLite writes sess into a SQLite database at path, creating the schema
// if needed. The whole session is inserted in one transaction.
func ExportSQLite(path string, sess model.Session) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open session db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(sessionSchema); err != nil {
		return fmt.Errorf("init session schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO sessions (id, device, started, stopped) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Device, sess.Started.Format(time.RFC3339Nano), sess.Stopped.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	procStmt, err := tx.Prepare(`INSERT INTO processes (snapshot_id, pid, name, category, cpu_percent, ram_bytes) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer procStmt.Close()
	thermStmt, err := tx.Prepare(`INSERT INTO thermal (snapshot_id, sensor, celsius) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer thermStmt.Close()
	svcStmt, err := tx.Prepare(`INSERT INTO services (snapshot_id, position, ident) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer svcStmt.Close()
	warnStmt, err := tx.Prepare(`INSERT INTO warnings (snapshot_id, kind, severity, subject, pid, detail, value) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer warnStmt.Close()

	for seq, snap := range sess.Snapshots {
		degraded := make([]string, 0, len(snap.Degraded))
		for _, d := range snap.Degraded {
			degraded = append(degraded, string(d.Section))
		}
		res, err := tx.Exec(`INSERT INTO snapshots (session_id, seq, timestamp, degraded) VALUES (?, ?, ?, ?)`,
			sess.ID, seq, snap.Timestamp.Format(time.RFC3339Nano), strings.Join(degraded, ","))
		if err != nil {
			return fmt.Errorf("insert snapshot %d: %w", seq, err)
		}
		snapID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, p := range snap.Processes {
			if _, err := procStmt.Exec(snapID, p.PID, p.Name, string(p.Category), p.CPUPercent, int64(p.RAMBytes)); err != nil {
				return fmt.Errorf("insert process %d: %w", p.PID, err)
			}
		}
		for _, r := range snap.Thermal {
			if _, err := thermStmt.Exec(snapID, r.Sensor, r.Celsius); err != nil {
				return fmt.Errorf("insert thermal %s: %w", r.Sensor, err)
			}
		}
		for i, svc := range snap.Services {
			if _, err := svcStmt.Exec(snapID, i, string(svc)); err != nil {
				return fmt.Errorf("insert service: %w", err)
			}
		}
		for _, w := range snap.Warnings {
			if _, err := warnStmt.Exec(snapID, string(w.Kind), string(w.Severity), w.Subject, w.PID, w.Detail, w.Value); err != nil {
				return fmt.Errorf("insert warning: %w", err)
			}
		}
	}
	return tx.Commit()
}
