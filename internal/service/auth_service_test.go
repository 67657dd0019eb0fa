package service

import (
	"context"
	"testing"

	"rncdesk/internal/config"
	"rncdesk/internal/dto"
	"rncdesk/internal/middleware"
	"rncdesk/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUsuarioRepo struct {
	usuarios map[string]*model.Usuario
}

func (r *fakeUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	r.usuarios[u.Username] = u
	return nil
}

func (r *fakeUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	u, ok := r.usuarios[username]
	if !ok || !u.Ativo {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUsuarioRepo) ListPorPapel(_ context.Context, papeis ...string) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		for _, p := range papeis {
			if u.Papel == p && u.Ativo {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func novoAuthTeste(t *testing.T) (AuthService, *config.Config) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("senha123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &fakeUsuarioRepo{usuarios: map[string]*model.Usuario{
		"maria": {
			ID:           uuid.New(),
			Username:     "maria",
			Nome:         "Maria",
			Email:        "maria@acme.com",
			PasswordHash: string(hash),
			Papel:        model.PapelLider,
			Ativo:        true,
		},
	}}
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
	return NewAuthService(repo, cfg), cfg
}

func TestLoginEmiteTokenComPapel(t *testing.T) {
	svc, cfg := novoAuthTeste(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "senha123"})
	require.NoError(t, err)

	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, model.PapelLider, resp.User.Papel)

	claims := &middleware.JWTClaims{}
	_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@acme.com", claims.Email)
	assert.Equal(t, model.PapelLider, claims.Papel)
}

func TestLoginSenhaErrada(t *testing.T) {
	svc, _ := novoAuthTeste(t)
	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "errada"})
	assert.Error(t, err)
}

func TestLoginUsuarioDesconhecido(t *testing.T) {
	svc, _ := novoAuthTeste(t)
	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ninguem", Password: "x"})
	assert.Error(t, err)
}

func TestRefreshReemiteTokens(t *testing.T) {
	svc, _ := novoAuthTeste(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "maria", Password: "senha123"})
	require.NoError(t, err)

	renovado, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "maria", renovado.User.Username)
	assert.NotEmpty(t, renovado.AccessToken)
}

func TestRefreshTokenInvalido(t *testing.T) {
	svc, _ := novoAuthTeste(t)
	_, err := svc.Refresh(context.Background(), "nao-e-um-jwt")
	assert.Error(t, err)
}
