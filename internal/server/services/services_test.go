package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
	"github.com/dmitrijs2005/archivekeeper/internal/logging"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/archivekeeper/internal/server/testutil"
)

// memSink is an in-memory blob.Sink for service tests.
type memSink struct {
	mu    sync.Mutex
	blobs map[string][]byte
	// failDelete makes Delete of the listed keys return an error.
	failDelete map[string]bool
}

func newMemSink() *memSink {
	return &memSink{blobs: map[string][]byte{}, failDelete: map[string]bool{}}
}

func (m *memSink) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return int64(len(data)), nil
}

func (m *memSink) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memSink) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete[key] {
		return common.ErrStoreUnavailable
	}
	delete(m.blobs, key)
	return nil
}

func (m *memSink) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *memSink) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

type testEnv struct {
	db        *sql.DB
	rm        repomanager.RepositoryManager
	sink      *memSink
	tree      *TreeService
	authz     *AuthzService
	audit     *AuditService
	lifecycle *LifecycleService
	sharing   *SharingService
	search    *SearchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	rm := repomanager.NewPostgresRepositoryManager()
	sink := newMemSink()
	logger := logging.NewNopLogger()

	tree := NewTreeService(db, rm, 25, 500)
	authz := NewAuthzService(db, rm, tree)
	auditService := NewAuditService(db, rm, 100)

	return &testEnv{
		db:        db,
		rm:        rm,
		sink:      sink,
		tree:      tree,
		authz:     authz,
		audit:     auditService,
		lifecycle: NewLifecycleService(db, rm, sink, tree, authz, auditService, logger),
		sharing:   NewSharingService(db, rm, authz, auditService, logger),
		search:    NewSearchService(db, rm),
	}
}

var (
	owner     = models.Principal{ID: 1, Role: models.RoleUser}
	stranger  = models.Principal{ID: 2, Role: models.RoleUser}
	admin     = models.Principal{ID: 3, Role: models.RoleAdmin}
	superuser = models.Principal{ID: 9, Role: models.RoleSuperuser}
)

// mustCreateFolder is a shorthand for tests that need tree fixtures.
func mustCreateFolder(t *testing.T, env *testEnv, p models.Principal, name string, parentID *int64) *models.Folder {
	t.Helper()
	f, err := env.lifecycle.CreateFolder(context.Background(), p, NewFolder{Name: name, ParentID: parentID})
	if err != nil {
		t.Fatalf("create folder %q: %v", name, err)
	}
	return f
}

func mustAddFile(t *testing.T, env *testEnv, p models.Principal, folderID int64, name, content string) *models.File {
	t.Helper()
	f, err := env.lifecycle.AddFile(context.Background(), p, folderID, name, bytes.NewBufferString(content))
	if err != nil {
		t.Fatalf("add file %q: %v", name, err)
	}
	return f
}
