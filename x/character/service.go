package character

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/totegamma/personagens/core"
)

type service struct {
	repository Repository
	validator  *core.Validator
}

// NewService creates a new character service
func NewService(repository Repository, validator *core.Validator) core.CharacterService {
	return &service{repository, validator}
}

// Create validates the input and stores a new character
func (s *service) Create(ctx context.Context, input core.CharacterInput) (core.Character, error) {
	ctx, span := tracer.Start(ctx, "Character.Service.Create")
	defer span.End()

	if err := s.validator.Validate(input); err != nil {
		span.RecordError(err)
		return core.Character{}, err
	}

	created, err := s.repository.Create(ctx, input.ToCharacter())
	if err != nil {
		span.RecordError(err)
		return core.Character{}, err
	}

	slog.InfoContext(
		ctx, fmt.Sprintf("character %d created", created.ID),
		slog.String("module", "character"),
		slog.String("type", "audit"),
	)

	return created, nil
}

// List returns all live characters
func (s *service) List(ctx context.Context) ([]core.Character, error) {
	ctx, span := tracer.Start(ctx, "Character.Service.List")
	defer span.End()

	return s.repository.List(ctx)
}

// Get returns a character by id
func (s *service) Get(ctx context.Context, id uint64) (core.Character, error) {
	ctx, span := tracer.Start(ctx, "Character.Service.Get")
	defer span.End()

	return s.repository.Get(ctx, id)
}

// Update validates the input and replaces the character identified by id
func (s *service) Update(ctx context.Context, id uint64, input core.CharacterInput) (core.Character, error) {
	ctx, span := tracer.Start(ctx, "Character.Service.Update")
	defer span.End()

	if err := s.validator.Validate(input); err != nil {
		span.RecordError(err)
		return core.Character{}, err
	}

	character := input.ToCharacter()
	character.ID = id

	return s.repository.Update(ctx, character)
}

// Delete removes a character by id
func (s *service) Delete(ctx context.Context, id uint64) error {
	ctx, span := tracer.Start(ctx, "Character.Service.Delete")
	defer span.End()

	err := s.repository.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	slog.InfoContext(
		ctx, fmt.Sprintf("character %d deleted", id),
		slog.String("module", "character"),
		slog.String("type", "audit"),
	)

	return nil
}

// Count returns the number of live characters
func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Character.Service.Count")
	defer span.End()

	return s.repository.Count(ctx)
}
