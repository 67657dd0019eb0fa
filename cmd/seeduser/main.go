// seeduser creates the three demo users (one per papel) for local development.
// Existing usernames are left untouched.
package main

import (
	"context"
	"errors"

	"rncdesk/internal/config"
	"rncdesk/internal/infra"
	"rncdesk/internal/model"
	"rncdesk/internal/repository"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	repo := repository.NewUsuarioRepository(db)
	ctx := context.Background()

	seeds := []struct {
		username, nome, email, papel, senha string
	}{
		{"admin", "Administrador", "admin@rncdesk.local", model.PapelAdmin, "admin123"},
		{"lider", "Líder de Turno", "lider@rncdesk.local", model.PapelLider, "lider123"},
		{"operador", "Operador de Armazém", "operador@rncdesk.local", model.PapelOperador, "operador123"},
	}

	for _, s := range seeds {
		if _, err := repo.FindByUsername(ctx, s.username); err == nil {
			log.Info().Str("username", s.username).Msg("user already exists, skipping")
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatal().Err(err).Str("username", s.username).Msg("lookup failed")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.senha), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Msg("hash failed")
		}
		if err := repo.Create(ctx, &model.Usuario{
			Username:     s.username,
			Nome:         s.nome,
			Email:        s.email,
			PasswordHash: string(hash),
			Papel:        s.papel,
			Ativo:        true,
		}); err != nil {
			log.Fatal().Err(err).Str("username", s.username).Msg("create failed")
		}
		log.Info().Str("username", s.username).Str("papel", s.papel).Msg("user created")
	}
}
