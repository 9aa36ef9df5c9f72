package identity

import (
	"context"
	"crypto/rand"
	"io"
	"path/filepath"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-identity/storage"
)

// AvatarPathPrefix is the URL path avatars are served under
const AvatarPathPrefix = "/media/avatar/"

// AvatarManager streams avatar uploads into storage and records the
// resulting asset reference on the account.
type AvatarManager struct {
	users  Users
	store  storage.Store
	cfg    Config
	logger Logger
}

func NewAvatarManager(repo RepositoryManager, store storage.Store, cfg Config) *AvatarManager {
	return &AvatarManager{
		users:  repo.Users(),
		store:  store,
		cfg:    cfg.WithDefaults(),
		logger: defLogger{},
	}
}

func (m *AvatarManager) WithLogger(logger Logger) *AvatarManager {
	m.logger = logger
	return m
}

// AvatarResult is the stored filename and the externally visible URL,
// suffixed with a short random marker so browsers drop stale copies
// after a re-upload.
type AvatarResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// SetAvatar derives the stored name as <username><original extension> so
// a re-upload deterministically overwrites the previous file. The store
// write must complete before the account record is updated; a reader
// must never observe a URL with no backing file.
func (m *AvatarManager) SetAvatar(ctx context.Context, user *User, upload io.Reader, originalFilename string) (*AvatarResult, error) {
	if user == nil {
		return nil, ErrUserNotFound
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	filename := user.Username + ext

	putCtx, cancelPut := context.WithTimeout(ctx, storeTimeout)
	defer cancelPut()

	if err := m.store.Put(putCtx, filename, upload); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store avatar").
			WithMetadata(map[string]any{"filename": filename})
	}

	url := joinURL(m.cfg.APIURL, AvatarPathPrefix, filename, "?", randomString(3))

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := m.users.UpdateAvatar(ctx, user.ID, filename, url); err != nil {
		return nil, err
	}

	return &AvatarResult{Filename: filename, URL: url}, nil
}

const randomAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomString(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform source is broken;
		// fall back to a fixed marker rather than an empty suffix
		return strings.Repeat("0", length)
	}

	out := make([]byte, length)
	for i, b := range buf {
		out[i] = randomAlphabet[int(b)%len(randomAlphabet)]
	}
	return string(out)
}
