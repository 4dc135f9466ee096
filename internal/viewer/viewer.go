// ABOUTME: Orchestrates login, database path binding, and the users-table view
// ABOUTME: Ties the credential store, session state, and connection registry together

package viewer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sqlpeek/sqlpeek/internal/creds"
	"github.com/sqlpeek/sqlpeek/internal/registry"
	"github.com/sqlpeek/sqlpeek/internal/session"
)

// ErrInvalidPath is returned by BindPath for an empty path or one with no
// file behind it.
var ErrInvalidPath = errors.New("invalid file path or file does not exist")

// RowSet is the transient result of one users-table query. Columns is
// ordered; each row is value strings aligned index-for-index with Columns,
// so together they form an ordered column→value mapping for arbitrary
// table shapes.
type RowSet struct {
	Columns []string
	Rows    [][]string
}

// ViewResult is everything the home view needs for one render.
// Error is transient: it is never stored back into the session.
type ViewResult struct {
	Username string
	DBPath   string
	RowSet   RowSet
	Error    string
}

// Service orchestrates the credential store and connection registry around
// per-session state. It is constructed once at startup and handed to the
// HTTP layer; it holds no per-request state of its own.
type Service struct {
	creds  *creds.Store
	reg    *registry.Registry
	logger *slog.Logger
}

// New creates a viewer service.
func New(credStore *creds.Store, reg *registry.Registry) *Service {
	return &Service{
		creds:  credStore,
		reg:    reg,
		logger: slog.Default().With("component", "viewer"),
	}
}

// Login verifies the credentials and, on success, promotes the session to
// authenticated. On failure the session is untouched and the returned
// message is suitable for redisplay on the login form; wrong password and
// unknown user share one message so usernames can't be enumerated.
func (s *Service) Login(username, password string, sess *session.Session) (string, bool) {
	identity, err := s.creds.Verify(username, password)
	if err != nil {
		switch {
		case errors.Is(err, creds.ErrConfigMissing):
			return "Auth configuration missing. Please run sqlpeek init-auth", false
		case errors.Is(err, creds.ErrInvalidCredentials):
			return "Invalid username or password", false
		default:
			s.logger.Error("credential check failed", "error", err)
			return "An error occurred", false
		}
	}

	sess.SetUsername(identity)
	s.logger.Info("login successful", "username", identity)
	return "", true
}

// BindPath points the session at a database file. Validation is existence
// only; whether the file is actually a database is discovered at query
// time. On failure the previous binding is kept and the error message is
// stored for one-shot display on the next home render.
func (s *Service) BindPath(path string, sess *session.Session) error {
	if path == "" {
		sess.SetError(ErrInvalidPath.Error())
		return ErrInvalidPath
	}
	if _, err := os.Stat(path); err != nil {
		sess.SetError(ErrInvalidPath.Error())
		return ErrInvalidPath
	}

	sess.SetDBPath(path)
	s.logger.Info("database bound", "path", path, "username", sess.Username())
	return nil
}

// ViewHome assembles the data for the home view. The pending session error,
// if any, is consumed here and shown once. An unbound session renders an
// empty table with no error. Open and query failures produce an inline
// error for this response only; the binding stays intact so the operator
// can retry or bind elsewhere.
func (s *Service) ViewHome(ctx context.Context, sess *session.Session) ViewResult {
	result := ViewResult{
		Username: sess.Username(),
		DBPath:   sess.DBPath(),
		Error:    sess.TakeError(),
	}

	if result.DBPath == "" {
		return result
	}

	rs, err := s.queryUsers(ctx, result.DBPath)
	if err != nil {
		s.logger.Warn("users query failed", "path", result.DBPath, "error", err)
		result.RowSet = RowSet{}
		result.Error = err.Error()
		return result
	}

	result.RowSet = rs
	return result
}

// queryUsers runs the fixed viewer query against the bound path.
func (s *Service) queryUsers(ctx context.Context, path string) (RowSet, error) {
	db, err := s.reg.Get(ctx, path)
	if err != nil {
		return RowSet{}, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.reg.QueryTimeout())
	defer cancel()

	rows, err := db.QueryContext(queryCtx, "SELECT * FROM users")
	if err != nil {
		return RowSet{}, fmt.Errorf("querying users table in %s: %w", path, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// scanRows converts a result set into a RowSet. Columns come from the
// result metadata, so an empty table still reports its column headers.
func scanRows(rows *sql.Rows) (RowSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return RowSet{}, fmt.Errorf("reading columns: %w", err)
	}

	rs := RowSet{Columns: cols}

	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return RowSet{}, fmt.Errorf("scanning row: %w", err)
		}

		row := make([]string, len(cols))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return RowSet{}, fmt.Errorf("iterating rows: %w", err)
	}

	return rs, nil
}
