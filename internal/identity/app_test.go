package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/breakawayhl/breakaway/clients"
	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type memPlayerRepo struct {
	players map[uuid.UUID]*models.Player
}

func newMemPlayerRepo() *memPlayerRepo {
	return &memPlayerRepo{players: make(map[uuid.UUID]*models.Player)}
}

func (m *memPlayerRepo) Create(ctx context.Context, q store.DBTX, chatUserID string) (*models.Player, error) {
	p := &models.Player{ID: uuid.New(), ChatUserID: chatUserID}
	m.players[p.ID] = p
	return p, nil
}

func (m *memPlayerRepo) GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Player, error) {
	p, ok := m.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlayerRepo) GetByChatUser(ctx context.Context, chatUserID string) (*models.Player, error) {
	for _, p := range m.players {
		if p.ChatUserID == chatUserID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memPlayerRepo) GetByRobloxUser(ctx context.Context, robloxUserID string) (*models.Player, error) {
	for _, p := range m.players {
		if p.RobloxUserID != nil && *p.RobloxUserID == robloxUserID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memPlayerRepo) SetRobloxAccount(ctx context.Context, q store.DBTX, id uuid.UUID, robloxUserID, robloxUsername string) error {
	p, ok := m.players[id]
	if !ok {
		return store.ErrNotFound
	}
	p.RobloxUserID = &robloxUserID
	p.RobloxUsername = &robloxUsername
	p.Verified = false
	return nil
}

func (m *memPlayerRepo) ClearRobloxAccount(ctx context.Context, q store.DBTX, id uuid.UUID) error {
	p, ok := m.players[id]
	if !ok {
		return store.ErrNotFound
	}
	p.RobloxUserID = nil
	p.RobloxUsername = nil
	p.Verified = false
	return nil
}

func (m *memPlayerRepo) SetVerified(ctx context.Context, q store.DBTX, id uuid.UUID, verified bool) error {
	p, ok := m.players[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Verified = verified
	return nil
}

type stubRoblox struct {
	accounts     map[string]*clients.RobloxAccount // by username
	descriptions map[string]string                 // by user id
}

func (s stubRoblox) LookupUsername(ctx context.Context, username string) (*clients.RobloxAccount, error) {
	a, ok := s.accounts[username]
	if !ok {
		return nil, errors.New("username not found")
	}
	return a, nil
}

func (s stubRoblox) GetUser(ctx context.Context, userID string) (*clients.RobloxAccount, error) {
	for _, a := range s.accounts {
		if a.UserID == userID {
			cp := *a
			cp.Description = s.descriptions[userID]
			return &cp, nil
		}
	}
	return nil, errors.New("user not found")
}

type stubAudit struct{}

func (stubAudit) Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error {
	return nil
}

func newTestApp(repo *memPlayerRepo, roblox stubRoblox) *App {
	return NewApp(fakeTxRunner{}, repo, roblox, stubAudit{}, zerolog.Nop())
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	app := newTestApp(newMemPlayerRepo(), stubRoblox{})

	first, err := app.GetOrCreate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := app.GetOrCreate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same player, got %s and %s", first.ID, second.ID)
	}
}

func TestLinkReturnsPhrase(t *testing.T) {
	roblox := stubRoblox{accounts: map[string]*clients.RobloxAccount{
		"IcePlayer": {UserID: "12345", Username: "IcePlayer"},
	}}
	app := newTestApp(newMemPlayerRepo(), roblox)

	player, phrase, err := app.Link(context.Background(), "user-1", "IcePlayer")
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if player.RobloxUserID == nil || *player.RobloxUserID != "12345" {
		t.Fatalf("roblox account not bound: %+v", player)
	}
	if player.Verified {
		t.Fatal("linking must not mark the player verified")
	}
	if !strings.HasPrefix(phrase, "BHL-VERIFY-") {
		t.Fatalf("unexpected phrase %q", phrase)
	}
	if phrase != VerificationPhrase(player.ID) {
		t.Fatal("phrase must be reproducible from the player id")
	}
}

func TestLinkAccountTaken(t *testing.T) {
	roblox := stubRoblox{accounts: map[string]*clients.RobloxAccount{
		"IcePlayer": {UserID: "12345", Username: "IcePlayer"},
	}}
	app := newTestApp(newMemPlayerRepo(), roblox)

	if _, _, err := app.Link(context.Background(), "user-1", "IcePlayer"); err != nil {
		t.Fatalf("first link failed: %v", err)
	}
	if _, _, err := app.Link(context.Background(), "user-2", "IcePlayer"); !errors.Is(err, ErrAccountTaken) {
		t.Fatalf("expected ErrAccountTaken, got %v", err)
	}

	// Re-linking the same account to the same user is allowed.
	if _, _, err := app.Link(context.Background(), "user-1", "IcePlayer"); err != nil {
		t.Fatalf("re-link by owner failed: %v", err)
	}
}

func TestVerifySucceedsWithPhraseInProfile(t *testing.T) {
	roblox := stubRoblox{
		accounts:     map[string]*clients.RobloxAccount{"IcePlayer": {UserID: "12345", Username: "IcePlayer"}},
		descriptions: map[string]string{},
	}
	repo := newMemPlayerRepo()
	app := newTestApp(repo, roblox)

	player, phrase, err := app.Link(context.Background(), "user-1", "IcePlayer")
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	roblox.descriptions["12345"] = "hockey fan | " + phrase + " | est 2024"

	verified, err := app.Verify(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !verified.Verified {
		t.Fatal("player should be verified")
	}
	stored, _ := repo.GetByID(context.Background(), nil, player.ID)
	if !stored.Verified {
		t.Fatal("verified flag not persisted")
	}
}

func TestVerifyPhraseMissing(t *testing.T) {
	roblox := stubRoblox{
		accounts:     map[string]*clients.RobloxAccount{"IcePlayer": {UserID: "12345", Username: "IcePlayer"}},
		descriptions: map[string]string{"12345": "just a hockey fan"},
	}
	app := newTestApp(newMemPlayerRepo(), roblox)

	if _, _, err := app.Link(context.Background(), "user-1", "IcePlayer"); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if _, err := app.Verify(context.Background(), "user-1"); !errors.Is(err, ErrPhraseNotFound) {
		t.Fatalf("expected ErrPhraseNotFound, got %v", err)
	}
}

func TestVerifyWithoutLink(t *testing.T) {
	app := newTestApp(newMemPlayerRepo(), stubRoblox{})

	if _, err := app.GetOrCreate(context.Background(), "user-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Verify(context.Background(), "user-1"); !errors.Is(err, ErrNotLinked) {
		t.Fatalf("expected ErrNotLinked, got %v", err)
	}
}

func TestUnlinkClearsBindingAndVerification(t *testing.T) {
	roblox := stubRoblox{
		accounts:     map[string]*clients.RobloxAccount{"IcePlayer": {UserID: "12345", Username: "IcePlayer"}},
		descriptions: map[string]string{},
	}
	repo := newMemPlayerRepo()
	app := newTestApp(repo, roblox)

	player, phrase, _ := app.Link(context.Background(), "user-1", "IcePlayer")
	roblox.descriptions["12345"] = phrase
	if _, err := app.Verify(context.Background(), "user-1"); err != nil {
		t.Fatal(err)
	}

	if err := app.Unlink(context.Background(), "user-1", "admin-1"); err != nil {
		t.Fatalf("unlink failed: %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), nil, player.ID)
	if stored.RobloxUserID != nil || stored.Verified {
		t.Fatalf("unlink should clear binding and verification: %+v", stored)
	}
}
