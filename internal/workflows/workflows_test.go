package workflows

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/sealreel/internal/audit"
	"github.com/PolarWolf314/sealreel/internal/backend"
	"github.com/PolarWolf314/sealreel/internal/backend/backendtest"
	"github.com/PolarWolf314/sealreel/internal/configs"
	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/grants"
	"github.com/PolarWolf314/sealreel/internal/keystore"
	logger "github.com/PolarWolf314/sealreel/internal/logging"
	"github.com/PolarWolf314/sealreel/internal/recovery"
)

// useTempDataDir points the audit log at a per-test directory.
func useTempDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig := configs.UserSealreelSettings.DataDir
	configs.UserSealreelSettings.DataDir = dir
	t.Cleanup(func() { configs.UserSealreelSettings.DataDir = orig })
	return dir
}

// deviceEnv builds an Env for token with an empty in-memory key store, as
// if the user signed in on a new device.
func deviceEnv(t *testing.T, srv *backendtest.Server, label, token string) *Env {
	t.Helper()
	cfg := configs.DefaultUserConfig()
	cfg.Account.Label = label
	cfg.Backend.URL = srv.URL
	cfg.Backend.Token = token

	backendCfg, err := cfg.BackendConfig()
	require.NoError(t, err)

	return NewEnvWith(cfg, keystore.NewMemory(), backend.NewClient(backendCfg), logger.Logger{Out: io.Discard, Err: io.Discard})
}

// onboardedUser signs a new account in, exports a backup and confirms
// onboarding. It returns the env and the backup bytes.
func onboardedUser(t *testing.T, srv *backendtest.Server, name string) (*Env, string, []byte) {
	t.Helper()
	ctx := context.Background()
	token := srv.AddUser(backendtest.User{Name: name, Email: name + "@example.com", FirstLogin: true})
	env := deviceEnv(t, srv, name, token)

	_, err := Login(ctx, env)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = ExportBackup(ctx, env, ExportBackupOptions{Writer: &buf})
	require.NoError(t, err)
	require.NoError(t, ConfirmOnboarding(ctx, env))

	return env, token, buf.Bytes()
}

func TestLogin_FirstLoginGeneratesAndRequiresBackup(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	srv := backendtest.NewServer()
	defer srv.Close()

	token := srv.AddUser(backendtest.User{Name: "alice", Email: "alice@example.com", FirstLogin: true})
	env := deviceEnv(t, srv, "alice", token)

	result, err := Login(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, recovery.StateOnboardingRequired, result.State)
	assert.True(t, result.Generated)
	assert.True(t, result.Published)
	assert.NotEmpty(t, result.Fingerprint)

	show, err := ShowKeys(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, show.PublicPEM, srv.User(token).PublicKey)

	err = ConfirmOnboarding(ctx, env)
	assert.ErrorIs(t, err, kerrors.ErrBackupNotExported)
	assert.True(t, srv.User(token).FirstLogin)

	out := filepath.Join(t.TempDir(), "backup.xlsx")
	exported, err := ExportBackup(ctx, env, ExportBackupOptions{OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, out, exported.Path)
	assert.Equal(t, result.Fingerprint, exported.Fingerprint)
	assert.FileExists(t, out)

	require.NoError(t, ConfirmOnboarding(ctx, env))
	assert.False(t, srv.User(token).FirstLogin)

	again, err := Login(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, recovery.StateReady, again.State)
	assert.False(t, again.Generated)
	assert.False(t, again.Published)
	assert.Equal(t, result.Fingerprint, again.Fingerprint)
}

func TestConfirmOnboarding_IgnoresExportOfOtherIdentity(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	srv := backendtest.NewServer()
	defer srv.Close()

	token := srv.AddUser(backendtest.User{Name: "alice", FirstLogin: true})
	env := deviceEnv(t, srv, "alice", token)
	_, err := Login(ctx, env)
	require.NoError(t, err)

	entry := audit.NewEntry(audit.OpExport, env.Config)
	entry.Fingerprint = "0000000000000000"
	audit.Log(entry)

	assert.ErrorIs(t, ConfirmOnboarding(ctx, env), kerrors.ErrBackupNotExported)
}

func TestConfirmOnboarding_NotPending(t *testing.T) {
	useTempDataDir(t)
	srv := backendtest.NewServer()
	defer srv.Close()

	env, _, _ := onboardedUser(t, srv, "alice")
	assert.ErrorIs(t, ConfirmOnboarding(context.Background(), env), kerrors.ErrInvalidTransition)
}

func TestLogin_ReturningWithoutKeysRestoresFromBackup(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	srv := backendtest.NewServer()
	defer srv.Close()

	first, token, backupData := onboardedUser(t, srv, "alice")
	original, err := ShowKeys(ctx, first)
	require.NoError(t, err)

	laptop := deviceEnv(t, srv, "alice", token)
	result, err := Login(ctx, laptop)
	require.NoError(t, err)
	assert.Equal(t, recovery.StateRestoreRequired, result.State)
	assert.Empty(t, result.Fingerprint)
	assert.False(t, result.Generated)

	_, err = ShowKeys(ctx, laptop)
	assert.ErrorIs(t, err, kerrors.ErrIdentityNotFound)

	_, err = Upload(ctx, laptop, UploadOptions{Path: writeFile(t, "clip.mp4", "frames")})
	assert.ErrorIs(t, err, kerrors.ErrIdentityNotFound)

	imported, err := ImportBackup(ctx, laptop, ImportBackupOptions{Reader: bytes.NewReader(backupData)})
	require.NoError(t, err)
	assert.Equal(t, original.Fingerprint, imported.Fingerprint)
	assert.Empty(t, imported.PreviousFingerprint)
	assert.False(t, imported.Published)

	after, err := Login(ctx, laptop)
	require.NoError(t, err)
	assert.Equal(t, recovery.StateReady, after.State)
}

func TestImportBackup_MalformedLeavesKeysAlone(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	srv := backendtest.NewServer()
	defer srv.Close()

	env, _, _ := onboardedUser(t, srv, "alice")
	before, err := ShowKeys(ctx, env)
	require.NoError(t, err)

	_, err = ImportBackup(ctx, env, ImportBackupOptions{Reader: bytes.NewReader([]byte("not a workbook"))})
	assert.Error(t, err)

	after, err := ShowKeys(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, before.Fingerprint, after.Fingerprint)
}

func TestRegenerate_PublishesAndOrphansContent(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	srv := backendtest.NewServer()
	defer srv.Close()

	env, token, _ := onboardedUser(t, srv, "alice")
	uploaded, err := Upload(ctx, env, UploadOptions{Path: writeFile(t, "clip.mp4", "frames")})
	require.NoError(t, err)

	result, err := Regenerate(ctx, env, RegenerateOptions{})
	require.NoError(t, err)
	assert.True(t, result.Published)
	assert.NotEqual(t, result.PreviousFingerprint, result.Fingerprint)

	show, err := ShowKeys(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, show.PublicPEM, srv.User(token).PublicKey)

	_, err = View(ctx, env, ViewOptions{ContentID: uploaded.ContentID, OutputPath: filepath.Join(t.TempDir(), "out")})
	assert.ErrorIs(t, err, kerrors.ErrDecryptionAuth)
}

func TestRegenerate_RejectedDuringOnboarding(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	srv := backendtest.NewServer()
	defer srv.Close()

	token := srv.AddUser(backendtest.User{Name: "alice", FirstLogin: true})
	env := deviceEnv(t, srv, "alice", token)
	_, err := Login(ctx, env)
	require.NoError(t, err)

	_, err = Regenerate(ctx, env, RegenerateOptions{})
	assert.ErrorIs(t, err, kerrors.ErrInvalidTransition)
}

func TestGrantFlow_UploadRequestApproveView(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	srv := backendtest.NewServer()
	defer srv.Close()

	alice, _, _ := onboardedUser(t, srv, "alice")
	bob, _, _ := onboardedUser(t, srv, "bob")

	uploaded, err := Upload(ctx, alice, UploadOptions{Path: writeFile(t, "holiday.mp4", "sunset frames"), Description: "beach"})
	require.NoError(t, err)
	assert.Equal(t, len("sunset frames"), uploaded.PlainSize)

	stored, ok := srv.Video(uploaded.ContentID)
	require.True(t, ok)
	assert.Equal(t, "holiday", stored.Title)
	assert.NotContains(t, string(stored.Content), "sunset frames")
	assert.NotEmpty(t, stored.WrappedKey)

	out := filepath.Join(t.TempDir(), "view.mp4")
	_, err = View(ctx, bob, ViewOptions{ContentID: uploaded.ContentID, OutputPath: out})
	assert.ErrorIs(t, err, kerrors.ErrNotFound)

	require.NoError(t, RequestAccess(ctx, bob, uploaded.ContentID))

	pending, err := Requests(ctx, alice, RequestsOptions{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bob", pending[0].RequesterName)
	assert.Equal(t, grants.StatePending, pending[0].State)

	approved, err := Approve(ctx, alice, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, grants.StateApproved, approved.State)

	grant, ok := srv.Request(pending[0].ID)
	require.True(t, ok)
	assert.NotEmpty(t, grant.GrantedKey)
	assert.NotEqual(t, stored.WrappedKey, grant.GrantedKey)

	viewed, err := View(ctx, bob, ViewOptions{ContentID: uploaded.ContentID, OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, "holiday", viewed.Title)
	assert.False(t, viewed.SignatureVerified)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "sunset frames", string(data))

	pending, err = Requests(ctx, alice, RequestsOptions{})
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := Requests(ctx, alice, RequestsOptions{All: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, grants.StateApproved, all[0].State)

	_, err = Approve(ctx, alice, all[0].ID)
	assert.ErrorIs(t, err, kerrors.ErrRequestFinalized)
}

// chdirTemp moves the test into an empty working directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return dir
}

func TestView_DefaultPathNeverOverwrites(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	srv := backendtest.NewServer()
	defer srv.Close()

	alice, _, _ := onboardedUser(t, srv, "alice")
	bob, _, _ := onboardedUser(t, srv, "bob")
	dir := chdirTemp(t)

	backupPath := filepath.Join(dir, "sealreel-keys-bob.xlsx")
	require.NoError(t, os.WriteFile(backupPath, []byte("BOB BACKUP"), 0600))

	grant := func(title, body string) string {
		uploaded, err := Upload(ctx, alice, UploadOptions{Path: writeFile(t, "clip.mp4", body), Title: title})
		require.NoError(t, err)
		require.NoError(t, RequestAccess(ctx, bob, uploaded.ContentID))
		pending, err := Requests(ctx, alice, RequestsOptions{})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		_, err = Approve(ctx, alice, pending[0].ID)
		require.NoError(t, err)
		return uploaded.ContentID
	}

	id := grant("sealreel-keys-bob.xlsx", "other bytes")
	viewed, err := View(ctx, bob, ViewOptions{ContentID: id})
	require.NoError(t, err)
	assert.Equal(t, "sealreel-keys-bob (1).xlsx", viewed.OutputPath)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "BOB BACKUP", string(data))
	data, err = os.ReadFile(filepath.Join(dir, viewed.OutputPath))
	require.NoError(t, err)
	assert.Equal(t, "other bytes", string(data))

	id = grant(".bashrc", "rc bytes")
	viewed, err = View(ctx, bob, ViewOptions{ContentID: id})
	require.NoError(t, err)
	assert.Equal(t, "bashrc", viewed.OutputPath)
	assert.NoFileExists(t, filepath.Join(dir, ".bashrc"))
}

func TestWriteNewFile_AllCandidatesTaken(t *testing.T) {
	dir := t.TempDir()
	taken := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(taken, []byte("keep"), 0600))

	_, err := writeNewFile([]string{taken}, []byte("new"))
	assert.ErrorIs(t, err, os.ErrExist)

	data, err := os.ReadFile(taken)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestGrantFlow_Reject(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	srv := backendtest.NewServer()
	defer srv.Close()

	alice, _, _ := onboardedUser(t, srv, "alice")
	bob, _, _ := onboardedUser(t, srv, "bob")

	uploaded, err := Upload(ctx, alice, UploadOptions{Path: writeFile(t, "clip.mp4", "frames"), Title: "Clip"})
	require.NoError(t, err)
	require.NoError(t, RequestAccess(ctx, bob, uploaded.ContentID))

	pending, err := Requests(ctx, alice, RequestsOptions{})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	rejected, err := Reject(ctx, alice, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, grants.StateRejected, rejected.State)

	_, err = Reject(ctx, alice, pending[0].ID)
	assert.ErrorIs(t, err, kerrors.ErrRequestFinalized)

	_, err = View(ctx, bob, ViewOptions{ContentID: uploaded.ContentID, OutputPath: filepath.Join(t.TempDir(), "out")})
	assert.ErrorIs(t, err, kerrors.ErrNotFound)

	_, err = Approve(ctx, alice, "does-not-exist")
	assert.ErrorIs(t, err, kerrors.ErrNotFound)
}

func TestView_VerifiesServerSignature(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	srv := backendtest.NewServer()
	defer srv.Close()

	signer, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&signer.PublicKey)
	require.NoError(t, err)
	keyPath := filepath.Join(t.TempDir(), "server.pem")
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0600))

	alice, _, _ := onboardedUser(t, srv, "alice")
	uploaded, err := Upload(ctx, alice, UploadOptions{Path: writeFile(t, "clip.mp4", "frames")})
	require.NoError(t, err)

	alice.Config.Backend.SigningKeyPath = keyPath
	out := filepath.Join(t.TempDir(), "out.mp4")

	// A configured key with an unsigned download fails.
	_, err = View(ctx, alice, ViewOptions{ContentID: uploaded.ContentID, OutputPath: out})
	assert.ErrorIs(t, err, kerrors.ErrSignatureInvalid)

	srv.SignWith(signer)
	viewed, err := View(ctx, alice, ViewOptions{ContentID: uploaded.ContentID, OutputPath: out})
	require.NoError(t, err)
	assert.True(t, viewed.SignatureVerified)
	require.NoError(t, os.Remove(out))

	srv.Tamper(func(b []byte) []byte {
		b[len(b)-1] ^= 0x01
		return b
	})
	_, err = View(ctx, alice, ViewOptions{ContentID: uploaded.ContentID, OutputPath: out})
	assert.ErrorIs(t, err, kerrors.ErrSignatureInvalid)
	assert.NoFileExists(t, out)

	// Without a server key the AEAD tag still catches the change.
	alice.Config.Backend.SigningKeyPath = ""
	_, err = View(ctx, alice, ViewOptions{ContentID: uploaded.ContentID, OutputPath: out})
	assert.ErrorIs(t, err, kerrors.ErrDecryptionAuth)
	assert.NoFileExists(t, out)
}

func TestSealOpen_Offline(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	env := NewEnvWith(configs.DefaultUserConfig(), keystore.NewMemory(), nil, logger.Logger{Out: io.Discard, Err: io.Discard})

	created, err := InitKeys(ctx, env)
	require.NoError(t, err)
	assert.True(t, created.Created)

	again, err := InitKeys(ctx, env)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, created.Fingerprint, again.Fingerprint)

	input := writeFile(t, "notes.txt", "private notes")
	sealed, err := Seal(ctx, env, SealOptions{Path: input})
	require.NoError(t, err)
	assert.Equal(t, input+".reel", sealed.SealedPath)
	assert.Equal(t, input+".reel.key", sealed.KeyPath)
	require.NoError(t, os.Remove(input))

	opened, err := Open(ctx, env, OpenOptions{Path: sealed.SealedPath})
	require.NoError(t, err)
	assert.Equal(t, input, opened.OutputPath)
	data, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "private notes", string(data))

	regenerated, err := Regenerate(ctx, env, RegenerateOptions{Offline: true})
	require.NoError(t, err)
	assert.Equal(t, created.Fingerprint, regenerated.PreviousFingerprint)
	assert.False(t, regenerated.Published)

	_, err = Open(ctx, env, OpenOptions{Path: sealed.SealedPath, OutputPath: filepath.Join(t.TempDir(), "x")})
	assert.ErrorIs(t, err, kerrors.ErrDecryptionAuth)
}

func TestStatus(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	srv := backendtest.NewServer()
	defer srv.Close()

	token := srv.AddUser(backendtest.User{Name: "alice"})
	env := deviceEnv(t, srv, "alice", token)

	offline, err := Status(ctx, env, StatusOptions{Offline: true})
	require.NoError(t, err)
	assert.False(t, offline.HasIdentity)
	assert.Nil(t, offline.Account)

	online, err := Status(ctx, env, StatusOptions{})
	require.NoError(t, err)
	assert.Equal(t, recovery.StateReturningWithoutKeys, online.State)
	assert.False(t, online.InSync)

	_, err = InitKeys(ctx, env)
	require.NoError(t, err)

	online, err = Status(ctx, env, StatusOptions{})
	require.NoError(t, err)
	assert.True(t, online.HasIdentity)
	assert.Equal(t, recovery.StateReturningWithKeys, online.State)
	assert.Empty(t, online.RemoteFingerprint)
	assert.False(t, online.InSync)

	_, err = Login(ctx, env)
	require.NoError(t, err)

	online, err = Status(ctx, env, StatusOptions{})
	require.NoError(t, err)
	assert.Equal(t, online.Fingerprint, online.RemoteFingerprint)
	assert.True(t, online.InSync)
}

func TestLog_Filters(t *testing.T) {
	useTempDataDir(t)
	ctx := context.Background()
	env := NewEnvWith(configs.DefaultUserConfig(), keystore.NewMemory(), nil, logger.Logger{Out: io.Discard, Err: io.Discard})

	created, err := InitKeys(ctx, env)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := Seal(ctx, env, SealOptions{Path: writeFile(t, "f.txt", "x")})
		require.NoError(t, err)
	}

	all, err := Log(ctx, LogOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, all.TotalEntriesBeforeFilter)
	require.Len(t, all.Entries, 4)
	assert.Equal(t, audit.OpGenerate, all.Entries[0].Operation)

	seals, err := Log(ctx, LogOptions{Operations: "SEAL"})
	require.NoError(t, err)
	assert.Len(t, seals.Entries, 3)

	byKey, err := Log(ctx, LogOptions{Fingerprint: created.Fingerprint[:8]})
	require.NoError(t, err)
	require.Len(t, byKey.Entries, 1)
	assert.Equal(t, audit.OpGenerate, byKey.Entries[0].Operation)

	latest, err := Log(ctx, LogOptions{Reverse: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, latest.Entries, 1)
	assert.Equal(t, audit.OpSeal, latest.Entries[0].Operation)

	future, err := Log(ctx, LogOptions{Since: "2999-01-01"})
	require.NoError(t, err)
	assert.Empty(t, future.Entries)

	_, err = Log(ctx, LogOptions{Until: "yesterday"})
	assert.ErrorIs(t, err, kerrors.ErrInvalidDateFormat)
}

func TestLog_MissingFile(t *testing.T) {
	useTempDataDir(t)
	result, err := Log(context.Background(), LogOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}

func TestFormatDetails(t *testing.T) {
	assert.Equal(t, "request r1 from bob", FormatDetails(audit.Entry{Operation: audit.OpApprove, RequestID: "r1", Requester: "bob"}))
	assert.Equal(t, "content 7", FormatDetails(audit.Entry{Operation: audit.OpUpload, ContentID: "7"}))
	assert.Equal(t, "", FormatDetails(audit.Entry{Operation: audit.OpRegenerate}))
	assert.Equal(t, "2024-01-15 10:30:00", FormatDateTime("2024-01-15T10:30:00.000000Z"))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
