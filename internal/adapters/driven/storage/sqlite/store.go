package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/qplens/qplens/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
)

// dbFile is the database name inside the data directory.
const dbFile = "qplens.db"

// dsnPragmas enable WAL so readers never block the writer, and make
// writers wait for a lock instead of failing with SQLITE_BUSY.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Store owns the database handle. ChunkStore, QuestionStore and PaperStore
// return views over it.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) dataDir/qplens.db and brings its
// schema up to date. An empty dataDir means ~/.qplens/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		dataDir = filepath.Join(home, ".qplens", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background(), migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path is the database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

func (s *Store) QuestionStore() driven.QuestionStore {
	return &questionStore{store: s}
}

func (s *Store) PaperStore() driven.PaperStore {
	return &paperStore{store: s}
}

// migration is one NNN_name.up.sql script.
type migration struct {
	version int
	name    string
}

// pendingMigrations lists the up scripts in fsys newer than applied,
// oldest first.
func pendingMigrations(fsys fs.FS, applied int) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}
	var out []migration
	for _, name := range names {
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad version: %w", name, err)
		}
		if version > applied {
			out = append(out, migration{version: version, name: name})
		}
	}
	slices.SortFunc(out, func(a, b migration) int { return cmp.Compare(a.version, b.version) })
	return out, nil
}

// migrate applies each pending script in its own transaction, recording
// its version in the same transaction.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&applied); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	pending, err := pendingMigrations(fsys, applied)
	if err != nil {
		return err
	}
	for _, m := range pending {
		script, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return fmt.Errorf("read %s: %w", m.name, err)
		}
		if err := s.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(script)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version)
			return err
		}); err != nil {
			return fmt.Errorf("apply %s: %w", m.name, err)
		}
	}
	return nil
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveChunks stores chunks in a single transaction.
func (s *chunkStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if chunks[i].ID == "" || chunks[i].SessionID == "" || len(chunks[i].Embedding) == 0 {
			return fmt.Errorf("%w: chunk %d lacks id, session or embedding", domain.ErrInvalidInput, i)
		}
	}

	now := time.Now().UTC()
	err := s.store.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks
			(id, session_id, text, embedding, source_name, start_offset, end_offset, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range chunks {
			created := c.CreatedAt
			if created.IsZero() {
				created = now
			}
			if _, err := stmt.ExecContext(ctx, c.ID, c.SessionID, c.Text, encodeVector(c.Embedding),
				c.SourceName, c.StartOffset, c.EndOffset, c.Position, created); err != nil {
				return fmt.Errorf("chunk %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	return nil
}

// ListBySession returns all chunks of a session in insertion order.
func (s *chunkStore) ListBySession(ctx context.Context, sessionID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT id, session_id, text, embedding, source_name,
		start_offset, end_offset, position, created_at
		FROM chunks WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chunks of %s: %w", sessionID, err)
	}
	defer rows.Close()

	chunks := []domain.Chunk{}
	for rows.Next() {
		var (
			c   domain.Chunk
			vec []byte
		)
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Text, &vec, &c.SourceName,
			&c.StartOffset, &c.EndOffset, &c.Position, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Embedding = decodeVector(vec)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DeleteSession removes every chunk of a session.
func (s *chunkStore) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE session_id = ?", sessionID)
	if err != nil {
		return 0, fmt.Errorf("deleting session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return int(n), nil
}

// ==================== Question Store ====================

// questionStore implements driven.QuestionStore.
type questionStore struct {
	store *Store
}

var _ driven.QuestionStore = (*questionStore)(nil)

const questionColumns = `id, content, embedding, paper_id, number, identifier, occurrence_count,
	marks, difficulty, similar, word_count, revision, created_at, updated_at`

// Save inserts a new question.
func (s *questionStore) Save(ctx context.Context, q *domain.Question) error {
	if q == nil || q.ID == "" {
		return domain.ErrInvalidInput
	}

	similarJSON, err := json.Marshal(q.Similar)
	if err != nil {
		return fmt.Errorf("marshalling similar links: %w", err)
	}

	now := time.Now().UTC()
	createdAt, updatedAt := q.CreatedAt, q.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	difficulty := q.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyUnknown
	}

	var marks sql.NullFloat64
	if q.Marks != nil {
		marks = sql.NullFloat64{Float64: *q.Marks, Valid: true}
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, q.ID, q.Content, encodeVector(q.Embedding), q.PaperID, q.Number, q.Identifier,
		q.OccurrenceCount, marks, difficulty.String(), string(similarJSON), q.WordCount,
		q.Revision, createdAt, updatedAt)
	if err != nil {
		return fmt.Errorf("saving question: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving question: %w", err)
	}
	if n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get retrieves a question by ID.
func (s *questionStore) Get(ctx context.Context, id string) (*domain.Question, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)

	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return q, err
}

// ListExcludingPaper returns every question not owned by paperID, in creation order.
func (s *questionStore) ListExcludingPaper(ctx context.Context, paperID string) ([]domain.Question, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions WHERE paper_id != ?
		ORDER BY seq
	`, paperID)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// IncrementOccurrence raises the occurrence count if the revision still matches.
func (s *questionStore) IncrementOccurrence(ctx context.Context, id string, expectedRevision int64) (*domain.Question, error) {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE questions
		SET occurrence_count = occurrence_count + 1,
			revision = revision + 1,
			updated_at = ?
		WHERE id = ? AND revision = ?
	`, time.Now().UTC(), id, expectedRevision)
	if err != nil {
		return nil, fmt.Errorf("incrementing occurrence: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("incrementing occurrence: %w", err)
	}
	if n == 0 {
		// Either the question is gone or someone else got there first.
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrConflict
	}

	return s.Get(ctx, id)
}

// TopByOccurrence returns up to limit questions, most frequent first.
// A non-positive limit returns every question.
func (s *questionStore) TopByOccurrence(ctx context.Context, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		ORDER BY occurrence_count DESC, seq ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// Count returns the number of stored questions.
func (s *questionStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting questions: %w", err)
	}
	return n, nil
}

// ==================== Paper Store ====================

// paperStore implements driven.PaperStore.
type paperStore struct {
	store *Store
}

var _ driven.PaperStore = (*paperStore)(nil)

const paperColumns = `id, title, course, year, term, uploaded_by, file_uri, total_count, new_count,
	reused_count, question_ids, reused_question_ids, page_count, word_count,
	extracted_at, created_at, updated_at`

// Save inserts a new paper.
func (s *paperStore) Save(ctx context.Context, p *domain.Paper) error {
	if p == nil || p.ID == "" {
		return domain.ErrInvalidInput
	}

	questionIDs, reusedIDs, err := marshalIDLists(p)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	extractedAt, createdAt, updatedAt := p.ExtractedAt, p.CreatedAt, p.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if extractedAt.IsZero() {
		extractedAt = createdAt
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO papers (`+paperColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, p.ID, p.Title, p.Course, p.Year, p.Term.String(), p.UploadedBy, p.FileURI,
		p.TotalCount, p.NewCount, p.ReusedCount, questionIDs, reusedIDs,
		p.PageCount, p.WordCount, extractedAt, createdAt, updatedAt)
	if err != nil {
		return fmt.Errorf("saving paper: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving paper: %w", err)
	}
	if n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get retrieves a paper by ID.
func (s *paperStore) Get(ctx context.Context, id string) (*domain.Paper, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+paperColumns+` FROM papers WHERE id = ?`, id)

	p, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

// UpdateAggregates writes the question counts and ID lists of a paper.
func (s *paperStore) UpdateAggregates(ctx context.Context, p *domain.Paper) error {
	questionIDs, reusedIDs, err := marshalIDLists(p)
	if err != nil {
		return err
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE papers
		SET total_count = ?, new_count = ?, reused_count = ?,
			question_ids = ?, reused_question_ids = ?, updated_at = ?
		WHERE id = ?
	`, p.TotalCount, p.NewCount, p.ReusedCount, questionIDs, reusedIDs, time.Now().UTC(), p.ID)
	if err != nil {
		return fmt.Errorf("updating paper: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating paper: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all papers, newest first.
func (s *paperStore) List(ctx context.Context) ([]domain.Paper, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+paperColumns+` FROM papers ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	papers := []domain.Paper{}
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating papers: %w", err)
	}

	return papers, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanQuestion scans a single question row.
// sql.ErrNoRows is returned unwrapped so callers can map it.
func scanQuestion(row scanner) (*domain.Question, error) {
	var q domain.Question
	var embeddingBlob []byte
	var marks sql.NullFloat64
	var difficulty, similarJSON string

	if err := row.Scan(&q.ID, &q.Content, &embeddingBlob, &q.PaperID, &q.Number, &q.Identifier,
		&q.OccurrenceCount, &marks, &difficulty, &similarJSON, &q.WordCount, &q.Revision,
		&q.CreatedAt, &q.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning question: %w", err)
	}

	q.Embedding = decodeVector(embeddingBlob)
	q.Difficulty = domain.Difficulty(difficulty)
	if marks.Valid {
		m := marks.Float64
		q.Marks = &m
	}

	if similarJSON != "" && similarJSON != "null" {
		if err := json.Unmarshal([]byte(similarJSON), &q.Similar); err != nil {
			return nil, fmt.Errorf("unmarshaling similar links: %w", err)
		}
	}

	return &q, nil
}

// scanQuestions drains rows into a slice.
func scanQuestions(rows *sql.Rows) ([]domain.Question, error) {
	questions := []domain.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating questions: %w", err)
	}

	return questions, nil
}

// scanPaper scans a single paper row.
// sql.ErrNoRows is returned unwrapped so callers can map it.
func scanPaper(row scanner) (*domain.Paper, error) {
	var p domain.Paper
	var term, questionIDs, reusedIDs string

	if err := row.Scan(&p.ID, &p.Title, &p.Course, &p.Year, &term, &p.UploadedBy, &p.FileURI,
		&p.TotalCount, &p.NewCount, &p.ReusedCount, &questionIDs, &reusedIDs,
		&p.PageCount, &p.WordCount, &p.ExtractedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning paper: %w", err)
	}

	p.Term = domain.Term(term)
	if err := json.Unmarshal([]byte(questionIDs), &p.QuestionIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling question ids: %w", err)
	}
	if err := json.Unmarshal([]byte(reusedIDs), &p.ReusedQuestionIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling reused question ids: %w", err)
	}

	return &p, nil
}

// marshalIDLists encodes a paper's question ID lists as JSON arrays.
func marshalIDLists(p *domain.Paper) (questionIDs, reusedIDs string, err error) {
	q, err := json.Marshal(nonNil(p.QuestionIDs))
	if err != nil {
		return "", "", fmt.Errorf("marshalling question ids: %w", err)
	}
	r, err := json.Marshal(nonNil(p.ReusedQuestionIDs))
	if err != nil {
		return "", "", fmt.Errorf("marshalling reused question ids: %w", err)
	}
	return string(q), string(r), nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// encodeVector stores an embedding as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// decodeVector is the inverse of encodeVector. Trailing bytes that do not
// make a whole float are ignored.
func decodeVector(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
